package calendar

import (
	"sort"
	"time"

	"github.com/javiermolinar/bitacora/internal/dateutil"
)

// Cell is one slot of the grid. Empty cells have Day == 0.
type Cell struct {
	Day      int
	Key      dateutil.Key
	HasEntry bool
	IsToday  bool
	Label    dateutil.Label
}

// Empty reports whether the cell pads the grid.
func (c Cell) Empty() bool { return c.Day == 0 }

// Week is seven cells, Monday first.
type Week [7]Cell

// Weekdays are the column headers, Monday first.
var Weekdays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// EntrySet is the set of dates that have a diary entry.
// It is built once and never mutated.
type EntrySet struct {
	keys map[dateutil.Key]struct{}
}

// NewEntrySet normalises dates in either key form. Invalid strings are dropped.
func NewEntrySet(dates []string) EntrySet {
	keys := make(map[dateutil.Key]struct{}, len(dates))
	for _, d := range dates {
		k, err := dateutil.ParseKey(d)
		if err != nil {
			continue
		}
		keys[k] = struct{}{}
	}
	return EntrySet{keys: keys}
}

// Has reports whether k has an entry.
func (s EntrySet) Has(k dateutil.Key) bool {
	_, ok := s.keys[k]
	return ok
}

// Len returns the number of entries.
func (s EntrySet) Len() int { return len(s.keys) }

// Keys returns the entry keys in ascending order.
func (s EntrySet) Keys() []dateutil.Key {
	out := make([]dateutil.Key, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Years returns the distinct years that have entries.
func (s EntrySet) Years() []int {
	seen := make(map[int]struct{})
	for k := range s.keys {
		y, _, _ := k.Date()
		seen[y] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// CountByYear returns the number of entries in each year.
func (s EntrySet) CountByYear() map[int]int {
	counts := make(map[int]int)
	for k := range s.keys {
		y, _, _ := k.Date()
		counts[y]++
	}
	return counts
}

// mondayOffset maps time.Weekday to a Monday-first column.
func mondayOffset(w time.Weekday) int {
	if w == time.Sunday {
		return 6
	}
	return int(w) - 1
}

// Build lays out m as Monday-first weeks. It is pure: today is the only
// source of wall-clock time.
func Build(m Month, entries EntrySet, today time.Time) []Week {
	first := m.First(time.UTC)
	offset := mondayOffset(first.Weekday())
	days := m.Days()

	total := offset + days
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	weeks := make([]Week, total/7)
	for day := 1; day <= days; day++ {
		slot := offset + day - 1
		date := time.Date(m.Year, m.Month, day, 0, 0, 0, 0, today.Location())
		key := dateutil.KeyOf(m.Year, m.Month, day)
		weeks[slot/7][slot%7] = Cell{
			Day:      day,
			Key:      key,
			HasEntry: entries.Has(key),
			IsToday:  dateutil.IsToday(date, today),
			Label:    dateutil.RelativeLabel(date, today),
		}
	}
	return weeks
}
