package diaryapi

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// decodeYears accepts an array of year strings or numbers.
func decodeYears(body []byte) ([]int, error) {
	arr, err := jsonArray(body)
	if err != nil {
		return nil, err
	}
	years := make([]int, 0, len(arr))
	for _, item := range arr {
		switch item.Type {
		case gjson.Number:
			y := item.Int()
			if float64(y) != item.Float() {
				return nil, fmt.Errorf("%w: year %s", ErrDataFormat, item.Raw)
			}
			years = append(years, int(y))
		case gjson.String:
			y, err := strconv.Atoi(strings.TrimSpace(item.String()))
			if err != nil {
				return nil, fmt.Errorf("%w: year %q", ErrDataFormat, item.String())
			}
			years = append(years, y)
		default:
			return nil, fmt.Errorf("%w: year %s", ErrDataFormat, item.Raw)
		}
	}
	return years, nil
}

// decodeDates accepts an array of strings. JSON null is an empty list.
func decodeDates(body []byte) ([]string, error) {
	arr, err := jsonArray(body)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(arr))
	for _, item := range arr {
		if item.Type != gjson.String {
			return nil, fmt.Errorf("%w: date %s", ErrDataFormat, item.Raw)
		}
		dates = append(dates, item.String())
	}
	return dates, nil
}

func jsonArray(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrDataFormat)
	}
	res := gjson.ParseBytes(body)
	if res.Type == gjson.Null {
		return nil, nil
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("%w: expected an array", ErrDataFormat)
	}
	return res.Array(), nil
}

// decodeEntry reads {"content": "..."} bodies.
func decodeEntry(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: invalid JSON", ErrDataFormat)
	}
	content := gjson.GetBytes(body, "content")
	if !content.Exists() {
		return "", nil
	}
	if content.Type != gjson.String && content.Type != gjson.Null {
		return "", fmt.Errorf("%w: content is %s", ErrDataFormat, content.Type)
	}
	return content.String(), nil
}

// extractTextarea returns the text of <textarea id="content"> in an entry page.
func extractTextarea(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDataFormat, err)
	}
	node := findByID(doc, "textarea", "content")
	if node == nil {
		return "", fmt.Errorf("%w: no content textarea", ErrDataFormat)
	}
	var sb strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String(), nil
}

func findByID(n *html.Node, tag, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, tag, id); found != nil {
			return found
		}
	}
	return nil
}
