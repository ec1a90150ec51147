package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/bitacora/internal/autosave"
	"github.com/javiermolinar/bitacora/internal/tui/commands"
	"github.com/javiermolinar/bitacora/internal/tui/theme"
)

const statusMsgDuration = 3 * time.Second

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout = m.buildLayoutCache(m.width, m.height)
		m.textarea.SetWidth(m.layout.EditorW)
		m.textarea.SetHeight(m.layout.EditorH)
		m.help.Width = m.layout.InnerW
		return m, nil

	case commands.CalendarLoadedMsg:
		// Keep the month the user navigated to while the fetch was running.
		m.view = m.calendar.View()
		m.loading = false
		return m, nil

	case commands.EntryLoadedMsg:
		return m.handleEntryLoaded(msg)

	case commands.SaveStatusMsg:
		if m.editor == nil || msg.Status.Key != m.editor.key {
			return m, nil
		}
		if msg.Status.Kind == autosave.StatusHidden {
			m.saveStatus = autosave.Status{}
		} else {
			m.saveStatus = msg.Status
		}
		return m, commands.WaitForSaveStatus(m.editor.ctx, m.editor.autosave.Statuses())

	case commands.ThemeChangedMsg:
		if msg.Err != nil {
			LogError("theme", msg.Err)
			m = m.applyTheme(msg.Mode)
			return m.setStatus(fmt.Sprintf("Theme not saved: %v", msg.Err))
		}
		return m.applyTheme(msg.Mode), nil

	case commands.ErrMsg:
		LogError("command", msg.Err)
		return m.setStatus(fmt.Sprintf("Error: %v", msg.Err))

	case commands.StatusMsgCmd:
		return m.setStatus(msg.Msg)

	case commands.ClearStatusMsg:
		if !m.now().Before(m.statusTime) {
			m.statusMsg = ""
		}
		return m, nil
	}

	// Cursor blink and other textarea internals.
	if m.screen == ScreenEditor {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleEntryLoaded installs fetched text into the editor. Results for an
// entry that is no longer open are dropped.
func (m Model) handleEntryLoaded(msg commands.EntryLoadedMsg) (tea.Model, tea.Cmd) {
	e := m.editor
	if e == nil || msg.Key != e.key || !e.loading {
		return m, nil
	}

	var cmds []tea.Cmd
	var text string
	if msg.Err != nil {
		LogError("load entry", msg.Err)
		// The server text is unknown, so cached text is shown but not pushed.
		var cached bool
		text, cached = e.autosave.OnLoadFailed(context.Background())
		status := fmt.Sprintf("Could not load %s: %v", msg.Key, msg.Err)
		if cached {
			status += " (showing local copy)"
		}
		var cmd tea.Cmd
		m, cmd = m.setStatus(status)
		cmds = append(cmds, cmd)
		e.loading = false
	} else {
		var restored bool
		text, restored = e.autosave.OnInit(context.Background(), msg.Content)
		e.loading = false
		e.restored = restored
		if restored {
			var cmd tea.Cmd
			m, cmd = m.setStatus("Restored unsaved text from local cache")
			cmds = append(cmds, cmd)
			// The server has nothing for this day; let the debounce push it.
			e.autosave.OnTextChanged(text)
		}
	}

	m.textarea.SetValue(text)
	m.textarea.CursorEnd()
	cmds = append(cmds, m.textarea.Focus())
	return m, tea.Batch(cmds...)
}

// setStatus shows a temporary message.
func (m Model) setStatus(text string) (Model, tea.Cmd) {
	m.statusMsg = text
	m.statusTime = m.now().Add(statusMsgDuration)
	return m, tea.Tick(statusMsgDuration, func(time.Time) tea.Msg {
		return commands.ClearStatusMsg{}
	})
}

// applyTheme rebuilds styles for mode.
func (m Model) applyTheme(mode theme.Mode) Model {
	t, err := theme.Load(string(mode))
	if err != nil {
		LogError("theme", err)
		return m
	}
	m.mode = mode
	m.theme = t
	m.styles = NewStyles(t)
	m.styles.applyTextarea(&m.textarea)
	m.styles.applyHelp(&m.help)
	m.layout = m.buildLayoutCache(m.width, m.height)
	return m
}
