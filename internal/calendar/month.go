// Package calendar builds month grids and tracks the displayed month.
package calendar

import (
	"fmt"
	"time"
)

// Month identifies a displayed calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Add moves delta months, wrapping into the year on overflow and underflow.
func (m Month) Add(delta int) Month {
	idx := m.Year*12 + int(m.Month) - 1 + delta
	y := idx / 12
	mo := idx % 12
	if mo < 0 {
		mo += 12
		y--
	}
	return Month{Year: y, Month: time.Month(mo + 1)}
}

// WithYear replaces the year and keeps the month.
func (m Month) WithYear(year int) Month {
	return Month{Year: year, Month: m.Month}
}

// First returns the first day of the month at midnight in loc.
func (m Month) First(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Title returns the display title, e.g. "October 2026".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Valid reports whether the month field is within 1..12.
func (m Month) Valid() bool {
	return m.Month >= time.January && m.Month <= time.December
}
