package theme

import (
	"context"
	"fmt"
	"strings"
)

// Mode is the two-state theme preference.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// PreferenceKey is the local store key of the preference.
const PreferenceKey = "theme"

// ParseMode parses "light" or "dark", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
}

// Toggled returns the other mode.
func (m Mode) Toggled() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Store persists small string values.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Preference reads and writes the theme mode.
type Preference struct {
	store    Store
	fallback Mode
}

// NewPreference returns a preference over store. fallback is used when
// nothing valid is stored; an invalid fallback means light.
func NewPreference(store Store, fallback string) *Preference {
	m, err := ParseMode(fallback)
	if err != nil {
		m = Light
	}
	return &Preference{store: store, fallback: m}
}

// Load returns the stored mode, or the fallback when none is stored or the
// stored value is unreadable.
func (p *Preference) Load(ctx context.Context) Mode {
	v, err := p.store.Get(ctx, PreferenceKey)
	if err != nil {
		return p.fallback
	}
	m, err := ParseMode(v)
	if err != nil {
		return p.fallback
	}
	return m
}

// Set stores m.
func (p *Preference) Set(ctx context.Context, m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	if err := p.store.Set(ctx, PreferenceKey, string(m)); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	return nil
}

// Toggle flips the stored mode and returns the new one.
func (p *Preference) Toggle(ctx context.Context) (Mode, error) {
	next := p.Load(ctx).Toggled()
	if err := p.Set(ctx, next); err != nil {
		return p.Load(ctx), err
	}
	return next, nil
}
