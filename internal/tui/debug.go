package tui

import (
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// DebugLogger traces keystrokes, screen changes and errors as JSON lines.
type DebugLogger struct {
	mu      sync.Mutex
	file    *os.File
	log     *log.Logger
	enabled bool
	seq     int
}

// Global debug logger instance
var debugLog *DebugLogger

// DebugLogPath is the fixed path for debug logs
const DebugLogPath = "bitacora-debug.log"

// InitDebugLogger initializes the debug logger if debug mode is enabled.
// A log file that cannot be created leaves tracing disabled.
func InitDebugLogger(enabled bool) {
	debugLog = &DebugLogger{enabled: false}
	if !enabled {
		return
	}

	// Create log file in current directory with fixed name (easy to find)
	f, err := os.Create(DebugLogPath)
	if err != nil {
		return
	}

	debugLog = &DebugLogger{
		file: f,
		log: log.NewWithOptions(f, log.Options{
			Formatter:       log.JSONFormatter,
			Level:           log.DebugLevel,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.000",
		}),
		enabled: true,
	}
	debugLog.event("DEBUG_START", "log_file", DebugLogPath)
}

// CloseDebugLogger closes the debug log file.
func CloseDebugLogger() {
	if debugLog != nil && debugLog.file != nil {
		debugLog.event("DEBUG_END")
		_ = debugLog.file.Close()
		debugLog.enabled = false
	}
}

func (d *DebugLogger) event(name string, keyvals ...any) {
	if d == nil || !d.enabled || d.log == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	d.log.Debug(name, append([]any{"seq", d.seq}, keyvals...)...)
}

// LogKeyPress logs a key press event.
func LogKeyPress(msg tea.KeyMsg) {
	debugLog.event("KEY_PRESS", "key", msg.String())
}

// LogScreenChange logs a switch between the calendar and the editor.
func LogScreenChange(from, to Screen, reason string) {
	debugLog.event("SCREEN_CHANGE", "from", from.String(), "to", to.String(), "reason", reason)
}

// LogCursorMove logs cursor movement.
func LogCursorMove(key, reason string) {
	debugLog.event("CURSOR_MOVE", "key", key, "reason", reason)
}

// LogError logs an error.
func LogError(context string, err error) {
	if err == nil {
		return
	}
	debugLog.event("ERROR", "context", context, "error", err.Error())
}

func (s Screen) String() string {
	switch s {
	case ScreenCalendar:
		return "calendar"
	case ScreenEditor:
		return "editor"
	default:
		return "unknown"
	}
}
