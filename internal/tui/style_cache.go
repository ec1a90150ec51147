package tui

import "github.com/charmbracelet/lipgloss"

// StyleCache stores width-specific styles to avoid per-cell mutations.
type StyleCache struct {
	Weekday        lipgloss.Style
	WeekdayWeekend lipgloss.Style
	Empty          lipgloss.Style
	Day            lipgloss.Style
	Weekend        lipgloss.Style
	Entry          lipgloss.Style
	Today          lipgloss.Style
	Cursor         lipgloss.Style
	CursorEntry    lipgloss.Style
}

// NewStyleCache precomputes all width-dependent styles for the month grid.
func NewStyleCache(styles *Styles, width int) StyleCache {
	return StyleCache{
		Weekday:        styles.WeekdayStyleWidth(false, width),
		WeekdayWeekend: styles.WeekdayStyleWidth(true, width),
		Empty:          styles.CellStyleWidth(styles.CellEmptyStyle, width),
		Day:            styles.CellStyleWidth(styles.CellStyle, width),
		Weekend:        styles.CellStyleWidth(styles.CellWeekendStyle, width),
		Entry:          styles.CellStyleWidth(styles.CellEntryStyle, width),
		Today:          styles.CellStyleWidth(styles.CellTodayStyle, width),
		Cursor:         styles.CellStyleWidth(styles.CellCursorStyle, width),
		CursorEntry:    styles.CellStyleWidth(styles.CellCursorEntry, width),
	}
}
