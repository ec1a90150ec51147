// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/bitacora/internal/autosave"
	"github.com/javiermolinar/bitacora/internal/calendar"
	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/tui/theme"
)

// CalendarLoadedMsg is sent when entry dates and years are fetched.
type CalendarLoadedMsg struct {
	View calendar.View
}

// EntryLoadedMsg is sent when an entry's text has been fetched.
type EntryLoadedMsg struct {
	Key     dateutil.Key
	Content string
	Err     error // the entry still opens, empty, when set
}

// SaveStatusMsg carries an autosave status notification.
type SaveStatusMsg struct {
	Status autosave.Status
}

// ThemeChangedMsg is sent after the theme preference changed.
type ThemeChangedMsg struct {
	Mode theme.Mode
	Err  error
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// EntryLoader fetches the text of an entry.
type EntryLoader interface {
	Entry(ctx context.Context, key dateutil.Key) (string, error)
}

// FetchCalendar initializes the calendar controller off the UI goroutine.
func FetchCalendar(c *calendar.Controller, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return CalendarLoadedMsg{View: c.Init(ctx)}
	}
}

// LoadEntry fetches the text of the entry for key.
func LoadEntry(loader EntryLoader, key dateutil.Key, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		content, err := loader.Entry(ctx, key)
		return EntryLoadedMsg{Key: key, Content: content, Err: err}
	}
}

// WaitForSaveStatus blocks until the controller emits a status or ctx ends.
// Re-issue it after every SaveStatusMsg to keep listening.
func WaitForSaveStatus(ctx context.Context, statuses <-chan autosave.Status) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-statuses:
			return SaveStatusMsg{Status: s}
		case <-ctx.Done():
			return nil
		}
	}
}

// SaveNow saves the entry immediately. The outcome arrives as a status.
func SaveNow(c *autosave.Controller, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if c.Save(ctx) == autosave.ResultSkipped {
			return StatusMsgCmd{Msg: "Nothing to save"}
		}
		return nil
	}
}

// Flush makes a last save attempt for an entry that is being left.
func Flush(c *autosave.Controller, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if c.Save(ctx) == autosave.ResultFailed {
			return StatusMsgCmd{Msg: fmt.Sprintf("%s kept in local cache", c.Key())}
		}
		return nil
	}
}

// ToggleTheme flips the stored theme preference.
func ToggleTheme(p *theme.Preference) tea.Cmd {
	return func() tea.Msg {
		mode, err := p.Toggle(context.Background())
		return ThemeChangedMsg{Mode: mode, Err: err}
	}
}

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return StatusMsgCmd{Msg: "Copied entry to clipboard"}
	}
}
