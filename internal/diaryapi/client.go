// Package diaryapi is an HTTP client for the diary service.
package diaryapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/logger"
)

const (
	// DefaultBaseURL is where the diary service listens by default.
	DefaultBaseURL = "http://localhost:25252"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Client talks to the diary service. A session cookie is kept in a jar.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *log.Logger

	mu       sync.Mutex
	password string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithPassword lets the client log in again when the session expires.
func WithPassword(password string) Option {
	return func(c *Client) { c.password = password }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the transport. The client's jar and redirect
// policy are kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil && hc.Transport != nil {
			c.http.Transport = hc.Transport
		}
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https: %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
			// Redirects are how the service answers both a good login and a
			// missing session, so they are reported rather than followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Login posts the password and keeps the session cookie.
func (c *Client) Login(ctx context.Context, password string) error {
	const op = "POST /login"
	form := url.Values{"password": {password}}
	resp, err := c.do(ctx, http.MethodPost, "/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer drain(resp)

	if !isRedirect(resp.StatusCode) || !c.hasSession() {
		// A rejected password re-renders the login form with 200.
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: ErrUnauthorized}
	}

	c.mu.Lock()
	c.password = password
	c.mu.Unlock()
	c.logger.Debug("logged in")
	return nil
}

// Years lists the years that have entries.
func (c *Client) Years(ctx context.Context) ([]int, error) {
	body, err := c.getWithReauth(ctx, "/years")
	if err != nil {
		return nil, err
	}
	years, err := decodeYears(body)
	if err != nil {
		return nil, fmt.Errorf("decoding years: %w", err)
	}
	return years, nil
}

// DiaryDates lists the dates with entries, as the service reports them.
func (c *Client) DiaryDates(ctx context.Context) ([]string, error) {
	body, err := c.getWithReauth(ctx, "/api/diary-dates")
	if err != nil {
		return nil, err
	}
	dates, err := decodeDates(body)
	if err != nil {
		return nil, fmt.Errorf("decoding diary dates: %w", err)
	}
	return dates, nil
}

// Entry loads the text of the entry for key. The service may answer with
// JSON or with the entry page.
func (c *Client) Entry(ctx context.Context, key dateutil.Key) (string, error) {
	path := dateutil.EntryPath(key)
	resp, err := c.requestWithReauth(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer drain(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &NetworkError{Op: "GET " + path, Status: resp.StatusCode, Err: err}
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return decodeEntry(body)
	}
	return extractTextarea(body)
}

// SaveEntry stores content as the entry for key.
func (c *Client) SaveEntry(ctx context.Context, key dateutil.Key, content string) error {
	path := dateutil.EntryPath(key)
	form := url.Values{"content": {content}}
	resp, err := c.requestWithReauth(ctx, http.MethodPost, path, func() io.Reader {
		return strings.NewReader(form.Encode())
	})
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

func (c *Client) getWithReauth(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.requestWithReauth(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: "GET " + path, Status: resp.StatusCode, Err: err}
	}
	return body, nil
}

// requestWithReauth performs a request and returns a 2xx response. When
// the session is gone and a password is known, it logs in once and retries.
func (c *Client) requestWithReauth(ctx context.Context, method, path string, body func() io.Reader) (*http.Response, error) {
	resp, err := c.request(ctx, method, path, body)
	if err == nil || !errors.Is(err, ErrUnauthorized) {
		return resp, err
	}

	c.mu.Lock()
	password := c.password
	c.mu.Unlock()
	if password == "" {
		return nil, err
	}

	c.logger.Debug("session expired, logging in again", "path", path)
	if lerr := c.Login(ctx, password); lerr != nil {
		return nil, lerr
	}
	return c.request(ctx, method, path, body)
}

func (c *Client) request(ctx context.Context, method, path string, body func() io.Reader) (*http.Response, error) {
	op := method + " " + path
	var r io.Reader
	contentType := ""
	if body != nil {
		r = body()
		contentType = "application/x-www-form-urlencoded"
	}
	resp, err := c.do(ctx, method, path, r, contentType)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	drain(resp)
	if isRedirect(resp.StatusCode) || resp.StatusCode == http.StatusUnauthorized {
		return nil, &NetworkError{Op: op, Status: resp.StatusCode, Err: ErrUnauthorized}
	}
	return nil, &NetworkError{Op: op, Status: resp.StatusCode}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "err", err)
		return nil, err
	}
	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "took", time.Since(start))
	return resp, nil
}

func (c *Client) hasSession() bool {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == "auth" && ck.Value != "" {
			return true
		}
	}
	return false
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
}
