package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/bitacora/internal/tui/theme"
)

// Default cell width - will be recalculated dynamically.
const defaultCellWidth = 12

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	// Title style
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style

	// Year selector
	YearStyle         lipgloss.Style
	YearSelectedStyle lipgloss.Style

	// Weekday header
	WeekdayStyle        lipgloss.Style
	WeekdayWeekendStyle lipgloss.Style

	// Day cells
	CellStyle        lipgloss.Style
	CellWeekendStyle lipgloss.Style
	CellEntryStyle   lipgloss.Style
	CellTodayStyle   lipgloss.Style
	CellCursorStyle  lipgloss.Style
	CellCursorEntry  lipgloss.Style
	CellEmptyStyle   lipgloss.Style
	CellLabelStyle   lipgloss.Style

	// Editor
	EditorHeaderStyle lipgloss.Style
	EditorHintStyle   lipgloss.Style
	EditorBoxStyle    lipgloss.Style

	// Save indicator
	SavedStyle  lipgloss.Style
	FailedStyle lipgloss.Style

	// Status message
	StatusStyle lipgloss.Style

	// Help text
	HelpStyle lipgloss.Style

	// App container
	AppStyle lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	s := &Styles{palette: p}

	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent)

	s.SubtitleStyle = lipgloss.NewStyle().
		Foreground(p.FgMuted)

	s.YearStyle = lipgloss.NewStyle().
		Foreground(p.FgMuted).
		Padding(0, 1)

	s.YearSelectedStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.TextOnAccent).
		Background(p.Accent).
		Padding(0, 1)

	s.WeekdayStyle = lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Foreground(p.Fg).
		Width(defaultCellWidth)

	s.WeekdayWeekendStyle = s.WeekdayStyle.
		Foreground(p.Weekend)

	base := lipgloss.NewStyle().
		Width(defaultCellWidth).
		Height(2).
		Padding(0, 1).
		Foreground(p.Fg)

	s.CellStyle = base
	s.CellWeekendStyle = base.Foreground(p.Weekend)
	s.CellEntryStyle = base.
		Bold(true).
		Foreground(p.TextOnEntry).
		Background(p.EntryBg)
	s.CellTodayStyle = base.
		Bold(true).
		Foreground(p.TextOnToday).
		Background(p.TodayBg)
	s.CellCursorStyle = base.
		Bold(true).
		Foreground(p.Fg).
		Background(p.CursorBg)
	s.CellCursorEntry = base.
		Bold(true).
		Foreground(p.TextOnEntry).
		Background(p.CursorEntryBg)
	s.CellEmptyStyle = base
	s.CellLabelStyle = lipgloss.NewStyle().
		Italic(true)

	s.EditorHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent)

	s.EditorHintStyle = lipgloss.NewStyle().
		Foreground(p.FgMuted)

	s.EditorBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent).
		Padding(0, 1)

	s.SavedStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.TextOnSuccess).
		Background(p.Success).
		Padding(0, 1)

	s.FailedStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.TextOnWarning).
		Background(p.Warning).
		Padding(0, 1)

	s.StatusStyle = lipgloss.NewStyle().
		Foreground(p.Warning).
		Italic(true)

	s.HelpStyle = lipgloss.NewStyle().
		Foreground(p.FgMuted)

	s.AppStyle = lipgloss.NewStyle().
		Padding(0, 1)

	return s
}

// Palette returns the colors the styles were built from.
func (s *Styles) Palette() *theme.Palette {
	return s.palette
}

// CellStyleWidth returns the cell style for a given width.
func (s *Styles) CellStyleWidth(style lipgloss.Style, width int) lipgloss.Style {
	return style.Width(width)
}

// WeekdayStyleWidth returns the weekday header style for a given width.
func (s *Styles) WeekdayStyleWidth(weekend bool, width int) lipgloss.Style {
	if weekend {
		return s.WeekdayWeekendStyle.Width(width)
	}
	return s.WeekdayStyle.Width(width)
}

// applyTextarea colors the editor textarea.
func (s *Styles) applyTextarea(ta *textarea.Model) {
	p := s.palette
	text := lipgloss.NewStyle().Foreground(p.Fg)
	muted := lipgloss.NewStyle().Foreground(p.FgMuted)

	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Text = text
	ta.FocusedStyle.CursorLine = text.Background(p.BgHighlight)
	ta.FocusedStyle.Placeholder = muted
	ta.FocusedStyle.EndOfBuffer = muted

	ta.BlurredStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Text = muted
	ta.BlurredStyle.CursorLine = muted
	ta.BlurredStyle.Placeholder = muted
	ta.BlurredStyle.EndOfBuffer = muted
}

// applyHelp colors the key help line.
func (s *Styles) applyHelp(h *help.Model) {
	p := s.palette
	keyStyle := lipgloss.NewStyle().Foreground(p.Accent)
	descStyle := lipgloss.NewStyle().Foreground(p.FgMuted)
	sepStyle := lipgloss.NewStyle().Foreground(p.FgMuted)

	h.Styles.ShortKey = keyStyle
	h.Styles.ShortDesc = descStyle
	h.Styles.ShortSeparator = sepStyle
	h.Styles.FullKey = keyStyle
	h.Styles.FullDesc = descStyle
	h.Styles.FullSeparator = sepStyle
	h.Styles.Ellipsis = sepStyle
}
