package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/bitacora/internal/calendar"
	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/tui/commands"
)

type calendarKeyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Today     key.Binding
	OlderYear key.Binding
	NewerYear key.Binding
	Open      key.Binding
	Theme     key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newCalendarKeyMap() calendarKeyMap {
	return calendarKeyMap{
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev day")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev week")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next week")),
		PrevMonth: key.NewBinding(key.WithKeys("[", "p"), key.WithHelp("[/p", "prev month")),
		NextMonth: key.NewBinding(key.WithKeys("]", "n"), key.WithHelp("]/n", "next month")),
		Today:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		OlderYear: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "older year")),
		NewerYear: key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "newer year")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "write")),
		Theme:     key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k calendarKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.PrevMonth, k.NextMonth, k.Today, k.Theme, k.Help, k.Quit}
}

func (k calendarKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.PrevMonth, k.NextMonth, k.Today, k.OlderYear, k.NewerYear},
		{k.Open, k.Theme, k.Refresh, k.Help, k.Quit},
	}
}

type editorKeyMap struct {
	Yesterday key.Binding
	Tomorrow  key.Binding
	Today     key.Binding
	Save      key.Binding
	Copy      key.Binding
	Back      key.Binding
	Quit      key.Binding
}

func newEditorKeyMap() editorKeyMap {
	return editorKeyMap{
		Yesterday: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "prev day")),
		Tomorrow:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next day")),
		Today:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "today")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "calendar")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Back, k.Save, k.Yesterday, k.Tomorrow, k.Today, k.Copy, k.Quit}
}

func (k editorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Log keystroke
	LogKeyPress(msg)

	if m.screen == ScreenEditor && m.editor != nil {
		return m.handleEditorKeys(msg)
	}
	return m.handleCalendarKeys(msg)
}

// handleCalendarKeys handles keys on the calendar screen.
func (m Model) handleCalendarKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	// Day cursor
	case key.Matches(msg, k.Left):
		m.moveCursor(-1)
	case key.Matches(msg, k.Right):
		m.moveCursor(1)
	case key.Matches(msg, k.Up):
		m.moveCursor(-7)
	case key.Matches(msg, k.Down):
		m.moveCursor(7)

	// Month and year
	case key.Matches(msg, k.PrevMonth):
		m.view = m.calendar.Navigate(-1)
		m.clampCursor()
	case key.Matches(msg, k.NextMonth):
		m.view = m.calendar.Navigate(1)
		m.clampCursor()
	case key.Matches(msg, k.Today):
		m.view = m.calendar.JumpToToday()
		m.cursor = m.view.Today
	case key.Matches(msg, k.OlderYear):
		m.cycleYear(1)
	case key.Matches(msg, k.NewerYear):
		m.cycleYear(-1)

	case key.Matches(msg, k.Open):
		cell, ok := m.cursorCell()
		if !ok {
			return m, nil
		}
		if _, ok := m.calendar.Route(cell); !ok {
			return m, nil
		}
		m.openEditor(cell.Key)
		return m, tea.Batch(m.editorCmds()...)

	case key.Matches(msg, k.Theme):
		if m.deps.Theme == nil {
			return m.applyTheme(m.mode.Toggled()), nil
		}
		return m, commands.ToggleTheme(m.deps.Theme)

	case key.Matches(msg, k.Refresh):
		m.loading = true
		return m, commands.FetchCalendar(m.calendar, m.deps.Config.RequestTimeout())

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

// handleEditorKeys handles keys on the editor screen. Everything that is
// not a binding goes to the textarea.
func (m Model) handleEditorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.ekey
	switch {
	case key.Matches(msg, k.Quit):
		flush := m.closeEditor()
		return m, tea.Sequence(flush, tea.Quit)

	case key.Matches(msg, k.Back):
		flush := m.closeEditor()
		LogScreenChange(ScreenEditor, ScreenCalendar, "esc")
		m.screen = ScreenCalendar
		m.syncMonthToCursor()
		m.loading = true
		return m, tea.Batch(flush, commands.FetchCalendar(m.calendar, m.deps.Config.RequestTimeout()))

	case key.Matches(msg, k.Yesterday):
		return m.switchEntry(m.editor.key.AddDays(-1))
	case key.Matches(msg, k.Tomorrow):
		return m.switchEntry(m.editor.key.AddDays(1))
	case key.Matches(msg, k.Today):
		return m.switchEntry(dateutil.FormatKey(m.now()))

	case key.Matches(msg, k.Save):
		if m.editor.loading {
			return m, nil
		}
		return m, commands.SaveNow(m.editor.autosave, m.deps.Config.RequestTimeout())

	case key.Matches(msg, k.Copy):
		return m, commands.CopyToClipboard(m.textarea.Value())
	}

	if m.editor.loading {
		return m, nil
	}

	before := m.textarea.Value()
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if after := m.textarea.Value(); after != before {
		m.editor.autosave.OnTextChanged(after)
	}
	return m, cmd
}

// switchEntry leaves the open entry and opens k.
func (m Model) switchEntry(k dateutil.Key) (tea.Model, tea.Cmd) {
	if m.editor.key == k {
		return m, nil
	}
	flush := m.closeEditor()
	m.openEditor(k)
	m.syncMonthToCursor()
	cmds := append([]tea.Cmd{flush}, m.editorCmds()...)
	return m, tea.Batch(cmds...)
}

// moveCursor moves the day cursor, following it into adjacent months.
func (m *Model) moveCursor(days int) {
	m.cursor = m.cursor.AddDays(days)
	m.syncMonthToCursor()
	LogCursorMove(m.cursor.String(), "key")
}

// syncMonthToCursor shows the month that contains the cursor.
func (m *Model) syncMonthToCursor() {
	y, mo, _ := m.cursor.Date()
	if m.view.Month.Year != y || m.view.Month.Month != mo {
		m.view = m.calendar.SetMonth(calendar.Month{Year: y, Month: mo})
	}
}

// clampCursor keeps the cursor's day of month inside the displayed month.
func (m *Model) clampCursor() {
	_, _, d := m.cursor.Date()
	if days := m.view.Month.Days(); d > days {
		d = days
	}
	m.cursor = dateutil.KeyOf(m.view.Month.Year, m.view.Month.Month, d)
}

// cycleYear moves through the year selector. Years are listed newest
// first, so step 1 goes back in time.
func (m *Model) cycleYear(step int) {
	years := m.view.Years
	if len(years) == 0 {
		return
	}
	idx := 0
	for i, y := range years {
		if y == m.view.SelectedYear {
			idx = i
			break
		}
	}
	idx += step
	if idx < 0 || idx >= len(years) {
		return
	}
	m.view = m.calendar.SetYear(years[idx])
	m.clampCursor()
}

// cursorCell returns the grid cell under the cursor.
func (m Model) cursorCell() (calendar.Cell, bool) {
	for _, w := range m.view.Weeks {
		for _, c := range w {
			if !c.Empty() && c.Key == m.cursor {
				return c, true
			}
		}
	}
	return calendar.Cell{}, false
}
