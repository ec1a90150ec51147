// Package theme provides the light and dark color themes for the TUI.
package theme

import (
	"embed"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
)

//go:embed embedded/*.toml
var embeddedThemes embed.FS

// Theme holds all colors for a TUI theme.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // Base background
	BgHighlight string `toml:"bg_highlight"` // Header, status bar
	BgSelection string `toml:"bg_selection"` // Cursor, selection
	Fg          string `toml:"fg"`           // Primary foreground
	FgMuted     string `toml:"fg_muted"`     // Labels, empty cells, help
	Accent      string `toml:"accent"`       // Title, borders
	Entry       string `toml:"entry"`        // Days with a diary entry
	Today       string `toml:"today"`        // Today's cell
	Weekend     string `toml:"weekend"`      // Saturday and Sunday numbers
	Success     string `toml:"success"`      // "Saved"
	Warning     string `toml:"warning"`      // "Save failed"
}

// Color returns a lipgloss.Color for the given hex string.
func Color(hex string) lipgloss.Color {
	return lipgloss.Color(hex)
}

// Load loads a theme by name from embedded files.
// Unknown names fall back to light.
func Load(name string) (*Theme, error) {
	mode, err := ParseMode(name)
	if err != nil {
		mode = Light
	}

	path := "embedded/" + string(mode) + ".toml"
	data, err := embeddedThemes.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading theme %q: %w", mode, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", mode, err)
	}
	t.applyDefaults()

	return &t, nil
}

// Mode returns the mode this theme renders.
func (t *Theme) Mode() Mode {
	if m, err := ParseMode(t.Name); err == nil {
		return m
	}
	if isLightTheme(t.Bg) {
		return Light
	}
	return Dark
}

func (t *Theme) applyDefaults() {
	if t.Success == "" {
		t.Success = t.Entry
	}
	if t.Today == "" {
		t.Today = t.Accent
	}
	if t.Weekend == "" {
		t.Weekend = t.FgMuted
	}
	if t.BgSelection == "" {
		t.BgSelection = coalesce(t.BgHighlight, t.Bg)
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns a list of available theme names.
func Available() []string {
	return []string{string(Light), string(Dark)}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	_, err := ParseMode(strings.TrimSpace(name))
	return err == nil
}
