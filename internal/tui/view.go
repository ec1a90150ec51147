package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/bitacora/internal/autosave"
	"github.com/javiermolinar/bitacora/internal/calendar"
	"github.com/javiermolinar/bitacora/internal/dateutil"
)

const entryMarker = "•"

// View renders the current screen.
func (m Model) View() string {
	if m.width > 0 && (m.layout.InnerW < minCellWidth*7 || m.layout.InnerH < minEditorH) {
		return "Terminal too small"
	}

	var content string
	if m.screen == ScreenEditor && m.editor != nil {
		content = m.renderEditor()
	} else {
		content = m.renderCalendar()
	}
	return m.styles.AppStyle.Render(content)
}

func (m Model) renderCalendar() string {
	layout := m.layout
	sections := []string{
		m.renderTitle(),
		m.renderYears(layout.InnerW),
		"",
		m.renderWeekdays(layout.Cells),
		m.renderWeeks(layout.Cells),
		m.renderFooter(m.keys),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitle() string {
	title := m.styles.TitleStyle.Render(m.view.Title)
	var sub string
	switch {
	case m.loading:
		sub = "loading..."
	case m.view.EntryCount == 1:
		sub = "1 entry"
	default:
		sub = fmt.Sprintf("%d entries", m.view.EntryCount)
	}
	return title + "  " + m.styles.SubtitleStyle.Render(sub)
}

// renderYears renders the year selector, newest first, truncated to width.
func (m Model) renderYears(width int) string {
	parts := make([]string, 0, len(m.view.Years))
	for _, y := range m.view.Years {
		style := m.styles.YearStyle
		if y == m.view.SelectedYear {
			style = m.styles.YearSelectedStyle
		}
		parts = append(parts, style.Render(fmt.Sprintf("%d", y)))
	}
	return ansi.Truncate(strings.Join(parts, ""), max(1, width), "…")
}

func (m Model) renderWeekdays(cells StyleCache) string {
	cols := make([]string, len(calendar.Weekdays))
	for i, name := range calendar.Weekdays {
		style := cells.Weekday
		if isWeekendColumn(i) {
			style = cells.WeekdayWeekend
		}
		cols[i] = style.Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderWeeks(cells StyleCache) string {
	rows := make([]string, len(m.view.Weeks))
	for i, week := range m.view.Weeks {
		cols := make([]string, len(week))
		for col, cell := range week {
			cols[col] = m.renderCell(cell, col, cells)
		}
		rows[i] = lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderCell renders one day as two lines: the day number, with a marker
// when an entry exists, and the relative label.
func (m Model) renderCell(cell calendar.Cell, col int, cells StyleCache) string {
	style := cellStyle(cell, col, cell.Key == m.cursor, cells)
	if cell.Empty() {
		return style.Render("")
	}

	inner := max(1, cells.Day.GetWidth()-cells.Day.GetHorizontalPadding())
	number := fmt.Sprintf("%2d", cell.Day)
	if cell.HasEntry {
		number += " " + entryMarker
	}
	label := m.styles.CellLabelStyle.Render(ansi.Truncate(string(cell.Label), inner, "…"))
	return style.Render(ansi.Truncate(number, inner, "") + "\n" + label)
}

// cellStyle picks the style of a day cell. The cursor wins over today,
// today over entries, entries over weekends.
func cellStyle(cell calendar.Cell, col int, cursor bool, cells StyleCache) lipgloss.Style {
	switch {
	case cell.Empty():
		return cells.Empty
	case cursor && cell.HasEntry:
		return cells.CursorEntry
	case cursor:
		return cells.Cursor
	case cell.IsToday:
		return cells.Today
	case cell.HasEntry:
		return cells.Entry
	case isWeekendColumn(col):
		return cells.Weekend
	default:
		return cells.Day
	}
}

func isWeekendColumn(col int) bool {
	return col >= 5
}

func (m Model) renderEditor() string {
	e := m.editor
	header := m.renderEditorHeader(e.key)

	body := m.textarea.View()
	if e.loading {
		body = m.styles.EditorHintStyle.Render("Loading " + e.key.String() + "...")
	}
	box := m.styles.EditorBoxStyle.
		Width(m.layout.EditorW + m.styles.EditorBoxStyle.GetHorizontalPadding()).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, "", box, m.renderFooter(m.ekey))
}

// renderEditorHeader shows the entry date, how far it is from today and
// the save indicator.
func (m Model) renderEditorHeader(key dateutil.Key) string {
	date := key.Time(m.now().Location())
	title := m.styles.EditorHeaderStyle.Render(date.Format("Monday, 2 January 2006"))
	phrase := m.styles.EditorHintStyle.Render(dateutil.RelativePhrase(date, m.now()))
	header := title + "  " + phrase

	if badge := m.renderSaveStatus(); badge != "" {
		gap := m.layout.InnerW - lipgloss.Width(header) - lipgloss.Width(badge)
		if gap < 1 {
			gap = 1
		}
		header += strings.Repeat(" ", gap) + badge
	}
	return header
}

func (m Model) renderSaveStatus() string {
	s := m.saveStatus
	switch s.Kind {
	case autosave.StatusSaved:
		return m.styles.SavedStyle.Render(s.Message())
	case autosave.StatusFailed:
		return m.styles.FailedStyle.Render(s.Message())
	default:
		return ""
	}
}

func (m Model) renderFooter(keys help.KeyMap) string {
	status := m.layout.StatusStyle.Render(m.statusMsg)
	return lipgloss.JoinVertical(lipgloss.Left, status, m.layout.HelpStyle.Render(m.help.View(keys)))
}
