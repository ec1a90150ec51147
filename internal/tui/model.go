// Package tui provides the terminal user interface for bitacora.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/bitacora/internal/autosave"
	"github.com/javiermolinar/bitacora/internal/calendar"
	"github.com/javiermolinar/bitacora/internal/config"
	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/logger"
	"github.com/javiermolinar/bitacora/internal/tui/commands"
	"github.com/javiermolinar/bitacora/internal/tui/theme"
)

// Screen is the screen currently shown.
type Screen int

const (
	ScreenCalendar Screen = iota
	ScreenEditor
)

// Client is the part of the diary service the TUI uses.
type Client interface {
	calendar.Source
	commands.EntryLoader
	autosave.Persister
}

// Deps are the collaborators of the TUI.
type Deps struct {
	Client Client
	Cache  autosave.Cache
	Theme  *theme.Preference
	Config *config.Config
	Now    func() time.Time // nil means time.Now
	Clock  autosave.Clock   // nil means the real clock
}

// editorState is the open entry. It is replaced, never mutated in place,
// when another entry is opened.
type editorState struct {
	key      dateutil.Key
	autosave *autosave.Controller
	ctx      context.Context    // lives as long as the editor is open
	cancel   context.CancelFunc // stops the status listener
	loading  bool
	restored bool
}

// Model is the main TUI model.
type Model struct {
	deps Deps
	now  func() time.Time

	// Theme and styles
	mode   theme.Mode
	theme  *theme.Theme
	styles *Styles

	// Calendar screen
	screen   Screen
	calendar *calendar.Controller
	view     calendar.View
	cursor   dateutil.Key
	loading  bool

	// Editor screen
	editor     *editorState
	textarea   textarea.Model
	saveStatus autosave.Status

	// Components
	keys calendarKeyMap
	ekey editorKeyMap
	help help.Model

	// Terminal dimensions
	width  int
	height int
	layout LayoutCache

	// Messages
	statusMsg  string    // Temporary status/error message
	statusTime time.Time // When to clear message
}

// ModelOption configures optional model behavior.
type ModelOption func(*Model)

// WithEntry starts the TUI on the editor screen for key.
func WithEntry(key dateutil.Key) ModelOption {
	return func(m *Model) {
		m.openEditor(key)
	}
}

// New creates a new TUI model.
func New(deps Deps, opts ...ModelOption) *Model {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Clock == nil {
		deps.Clock = autosave.RealClock()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	mode := theme.Light
	if deps.Theme != nil {
		mode = deps.Theme.Load(context.Background())
	} else if m, err := theme.ParseMode(deps.Config.UI.Theme); err == nil {
		mode = m
	}
	t, err := theme.Load(string(mode))
	if err != nil {
		t, _ = theme.Load(string(theme.Light))
	}
	styles := NewStyles(t)

	ta := textarea.New()
	ta.Placeholder = "Write about your day..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = ""
	styles.applyTextarea(&ta)

	ctrl := calendar.NewController(deps.Client, logger.Named("calendar"), now)

	m := &Model{
		deps:     deps,
		now:      now,
		mode:     mode,
		theme:    t,
		styles:   styles,
		screen:   ScreenCalendar,
		calendar: ctrl,
		view:     ctrl.View(),
		cursor:   dateutil.FormatKey(now()),
		loading:  true,
		textarea: ta,
		keys:     newCalendarKeyMap(),
		ekey:     newEditorKeyMap(),
		help:     help.New(),
	}
	m.styles.applyHelp(&m.help)
	m.layout = m.buildLayoutCache(80, 24)

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{commands.FetchCalendar(m.calendar, m.deps.Config.RequestTimeout())}
	if m.editor != nil {
		cmds = append(cmds, m.editorCmds()...)
	}
	return tea.Batch(cmds...)
}

// openEditor switches to the editor screen for key. The entry text is
// loaded by the commands returned from editorCmds.
func (m *Model) openEditor(key dateutil.Key) {
	cfg := m.deps.Config
	ctrl := autosave.New(autosave.Config{
		Key:           key,
		Delay:         cfg.AutosaveDelay(),
		MaxRetries:    cfg.Editor.MaxRetries,
		StatusVisible: cfg.StatusVisible(),
	}, m.deps.Client, m.deps.Cache, m.deps.Clock, logger.Named("autosave"))
	ctrl.Attach()

	ctx, cancel := context.WithCancel(context.Background())
	m.editor = &editorState{key: key, autosave: ctrl, ctx: ctx, cancel: cancel, loading: true}
	m.saveStatus = autosave.Status{}
	m.textarea.Reset()
	m.textarea.Blur()
	LogScreenChange(m.screen, ScreenEditor, key.String())
	m.screen = ScreenEditor
	m.cursor = key
}

// editorCmds loads the open entry and starts listening for save statuses.
func (m Model) editorCmds() []tea.Cmd {
	e := m.editor
	return []tea.Cmd{
		commands.LoadEntry(m.deps.Client, e.key, m.deps.Config.RequestTimeout()),
		commands.WaitForSaveStatus(e.ctx, e.autosave.Statuses()),
	}
}

// closeEditor unloads the open entry: unsynced text goes to the local
// cache, then one last save is attempted in the background.
func (m *Model) closeEditor() tea.Cmd {
	e := m.editor
	if e == nil {
		return nil
	}
	m.editor = nil
	m.saveStatus = autosave.Status{}
	m.textarea.Blur()

	dirty := e.autosave.Dirty()
	if err := e.autosave.OnUnload(context.Background()); err != nil {
		LogError("unload", err)
		logger.Error("caching entry on unload", "key", e.key, "err", err)
	}
	e.cancel()
	if !dirty || e.loading {
		return nil
	}
	return commands.Flush(e.autosave, m.deps.Config.RequestTimeout())
}

// Run starts the TUI.
func Run(deps Deps, opts ...ModelOption) error {
	return RunWithDebug(deps, false, opts...)
}

// RunWithDebug starts the TUI with optional key and event tracing.
func RunWithDebug(deps Deps, debug bool, opts ...ModelOption) error {
	InitDebugLogger(debug)
	defer CloseDebugLogger()

	model := New(deps, opts...)
	p := tea.NewProgram(*model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
