// Package dateutil provides diary date keys and calendar-day arithmetic.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat = errors.New("date must be in YYYY-MM-DD or YYYYMMDD format")
)

const (
	keyLayout     = "2006-01-02"
	compactLayout = "20060102"
)

// Key is the canonical YYYY-MM-DD encoding of a calendar date.
type Key string

// FormatKey returns the key of the calendar date of t in t's own location.
func FormatKey(t time.Time) Key {
	y, m, d := t.Date()
	return Key(fmt.Sprintf("%04d-%02d-%02d", y, int(m), d))
}

// KeyOf returns the key for a year, month and day triple.
func KeyOf(year int, month time.Month, day int) Key {
	return FormatKey(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseKey parses a date in either YYYY-MM-DD or YYYYMMDD form.
// Dates that do not exist (2023-02-29) are rejected.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	var layout string
	switch len(s) {
	case len(keyLayout):
		layout = keyLayout
	case len(compactLayout):
		layout = compactLayout
	default:
		return "", ErrInvalidDateFormat
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", ErrInvalidDateFormat
	}
	return FormatKey(t), nil
}

// MustParseKey is like ParseKey but panics on invalid input.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(fmt.Sprintf("dateutil: %q: %v", s, err))
	}
	return k
}

// String returns the canonical form.
func (k Key) String() string { return string(k) }

// Compact returns the YYYYMMDD form used by the backend's file names.
func (k Key) Compact() string {
	return strings.ReplaceAll(string(k), "-", "")
}

// Date returns the year, month and day of the key.
func (k Key) Date() (year int, month time.Month, day int) {
	t, err := time.Parse(keyLayout, string(k))
	if err != nil {
		return 0, 0, 0
	}
	return t.Date()
}

// Time returns midnight of the key's date in loc.
func (k Key) Time(loc *time.Location) time.Time {
	y, m, d := k.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// AddDays returns the key n calendar days away.
func (k Key) AddDays(n int) Key {
	y, m, d := k.Date()
	return KeyOf(y, m, d+n)
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the signed number of calendar days from a to b.
// Only the date fields are compared, as UTC midnights, so time of day and
// DST transitions in either location cannot shift the result.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int((to.Unix() - from.Unix()) / 86400)
}

// IsToday reports whether date falls on the same calendar day as now.
func IsToday(date, now time.Time) bool {
	return DaysBetween(now, date) == 0
}

// Label is a relative day name shown next to calendar days.
type Label string

const (
	LabelNone      Label = ""
	LabelYesterday Label = "yesterday"
	LabelToday     Label = "today"
	LabelTomorrow  Label = "tomorrow"
)

// RelativeLabel names date relative to today, or LabelNone when it is more
// than one day away.
func RelativeLabel(date, today time.Time) Label {
	switch DaysBetween(today, date) {
	case -1:
		return LabelYesterday
	case 0:
		return LabelToday
	case 1:
		return LabelTomorrow
	default:
		return LabelNone
	}
}

// RelativePhrase describes date relative to today ("3 days ago", "in 2 days").
func RelativePhrase(date, today time.Time) string {
	if l := RelativeLabel(date, today); l != LabelNone {
		return string(l)
	}
	n := DaysBetween(today, date)
	if n < 0 {
		return fmt.Sprintf("%d days ago", -n)
	}
	return fmt.Sprintf("in %d days", n)
}

// Neighbors returns the keys of the days before and after k.
func Neighbors(k Key) (prev, next Key) {
	return k.AddDays(-1), k.AddDays(1)
}

// EntryPath returns the route of the diary entry for k.
func EntryPath(k Key) string {
	return "/diary/" + string(k)
}

// KeyFromPath extracts the key from an entry route such as /diary/2024-02-10.
func KeyFromPath(path string) (Key, error) {
	path = strings.TrimSuffix(path, "/")
	i := strings.LastIndex(path, "/")
	return ParseKey(path[i+1:])
}

// ResolveDate parses a date argument that can be:
//   - Empty string or "today": returns the key of relativeTo
//   - Keywords: "yesterday", "tomorrow"
//   - Absolute date in either key form
//
// All inputs are case-insensitive.
func ResolveDate(s string, relativeTo time.Time) (Key, error) {
	today := FormatKey(relativeTo)
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	return ParseKey(input)
}
