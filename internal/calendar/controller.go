package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/logger"
)

// Source provides the data the calendar highlights.
type Source interface {
	Years(ctx context.Context) ([]int, error)
	DiaryDates(ctx context.Context) ([]string, error)
}

// View is everything needed to render the calendar.
type View struct {
	Month        Month
	Title        string
	Weeks        []Week
	Years        []int // descending
	SelectedYear int
	EntryCount   int
	Today        dateutil.Key
}

// Controller owns the displayed month and the fetched entry dates.
type Controller struct {
	src    Source
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	month    Month
	entries  EntrySet
	years    []int
	selected int
}

// NewController creates a controller showing the current month.
// A nil logger discards, a nil now uses time.Now.
func NewController(src Source, l *log.Logger, now func() time.Time) *Controller {
	if l == nil {
		l = logger.Discard()
	}
	if now == nil {
		now = time.Now
	}
	current := MonthOf(now())
	return &Controller{
		src:      src,
		logger:   l,
		now:      now,
		month:    current,
		entries:  NewEntrySet(nil),
		selected: current.Year,
	}
}

// Init fetches entry dates and years. Either fetch may fail; the calendar
// still renders with what it has.
func (c *Controller) Init(ctx context.Context) View {
	dates, err := c.src.DiaryDates(ctx)
	if err != nil {
		c.logger.Warn("fetching diary dates", "err", err)
		dates = nil
	}
	years, err := c.src.Years(ctx)
	if err != nil {
		c.logger.Warn("fetching years", "err", err)
		years = nil
	}

	entries := NewEntrySet(dates)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	c.years = mergeYears(years, entries.Years(), c.now().Year())
	c.logger.Debug("calendar loaded", "entries", entries.Len(), "years", len(c.years))
	return c.viewLocked()
}

// Navigate moves the displayed month by delta.
func (c *Controller) Navigate(delta int) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.month = c.month.Add(delta)
	c.selected = c.month.Year
	return c.viewLocked()
}

// JumpToToday shows the current month.
func (c *Controller) JumpToToday() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.month = MonthOf(c.now())
	c.selected = c.month.Year
	return c.viewLocked()
}

// SetYear replaces the displayed year and keeps the month.
func (c *Controller) SetYear(year int) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.month = c.month.WithYear(year)
	c.selected = year
	return c.viewLocked()
}

// SetMonth shows m directly.
func (c *Controller) SetMonth(m Month) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.Valid() {
		c.month = m
		c.selected = m.Year
	}
	return c.viewLocked()
}

// View returns the current render state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Entries returns the fetched entry set.
func (c *Controller) Entries() EntrySet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries
}

// Route returns the entry route for a day cell. Days without an entry
// still route, so a new entry can be written.
func (c *Controller) Route(cell Cell) (string, bool) {
	if cell.Empty() {
		return "", false
	}
	return dateutil.EntryPath(cell.Key), true
}

func (c *Controller) viewLocked() View {
	now := c.now()
	years := c.years
	if len(years) == 0 {
		years = []int{now.Year()}
	}
	years = mergeYears(years, []int{c.selected}, now.Year())
	return View{
		Month:        c.month,
		Title:        c.month.Title(),
		Weeks:        Build(c.month, c.entries, now),
		Years:        years,
		SelectedYear: c.selected,
		EntryCount:   c.entries.Len(),
		Today:        dateutil.FormatKey(now),
	}
}

// mergeYears returns the union of the inputs plus current, descending.
func mergeYears(fetched, fromEntries []int, current int) []int {
	seen := map[int]struct{}{current: {}}
	for _, y := range fetched {
		seen[y] = struct{}{}
	}
	for _, y := range fromEntries {
		seen[y] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
