package theme

import (
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		themeName string
		wantName  string
	}{
		{name: "load light theme", themeName: "light", wantName: "light"},
		{name: "load dark theme", themeName: "dark", wantName: "dark"},
		{name: "case insensitive", themeName: "DARK", wantName: "dark"},
		{name: "empty name defaults to light", themeName: "", wantName: "light"},
		{name: "invalid theme falls back to light", themeName: "mocha", wantName: "light"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme, err := Load(tt.themeName)
			if err != nil {
				t.Fatalf("Load(%q) unexpected error: %v", tt.themeName, err)
			}
			if theme.Name != tt.wantName {
				t.Errorf("Load(%q).Name = %q, want %q", tt.themeName, theme.Name, tt.wantName)
			}
		})
	}
}

func TestLoad_ThemeColors(t *testing.T) {
	for _, name := range Available() {
		theme, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%s) unexpected error: %v", name, err)
		}

		colors := map[string]string{
			"Bg":          theme.Bg,
			"BgHighlight": theme.BgHighlight,
			"BgSelection": theme.BgSelection,
			"Fg":          theme.Fg,
			"FgMuted":     theme.FgMuted,
			"Accent":      theme.Accent,
			"Entry":       theme.Entry,
			"Today":       theme.Today,
			"Weekend":     theme.Weekend,
			"Success":     theme.Success,
			"Warning":     theme.Warning,
		}

		for field, value := range colors {
			if value == "" {
				t.Errorf("%s: %s is empty", name, field)
			}
			if len(value) != 7 || value[0] != '#' {
				t.Errorf("%s: %s = %q, want #rrggbb", name, field, value)
			}
		}
	}
}

func TestLoad_ModeMatchesBackground(t *testing.T) {
	light, _ := Load("light")
	dark, _ := Load("dark")
	if !isLightTheme(light.Bg) || light.Mode() != Light {
		t.Errorf("light theme background %s is not light", light.Bg)
	}
	if isLightTheme(dark.Bg) || dark.Mode() != Dark {
		t.Errorf("dark theme background %s is not dark", dark.Bg)
	}
}

func TestApplyDefaults(t *testing.T) {
	th := &Theme{Bg: "#000000", Accent: "#112233", Entry: "#445566", FgMuted: "#777777"}
	th.applyDefaults()
	if th.Success != th.Entry || th.Today != th.Accent || th.Weekend != th.FgMuted || th.BgSelection != th.Bg {
		t.Errorf("defaults not applied: %+v", th)
	}
}

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"light", true},
		{"Dark", true},
		{" dark ", true},
		{"mocha", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAvailable(tt.name); got != tt.want {
			t.Errorf("IsAvailable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
