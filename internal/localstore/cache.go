package localstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/javiermolinar/bitacora/internal/dateutil"
)

// Well-known keys.
const (
	ThemeKey    = "theme"
	EntryPrefix = "diary_"
)

// EntryKey returns the cache key of a diary entry.
func EntryKey(k dateutil.Key) string {
	return EntryPrefix + k.String()
}

// CachedEntry is unsynced diary text kept locally.
type CachedEntry struct {
	Key       dateutil.Key
	Content   string
	UpdatedAt time.Time
}

// FallbackCache stores unsynced entries under diary_<key>.
type FallbackCache struct {
	store *SQLite
}

// NewFallbackCache wraps store.
func NewFallbackCache(store *SQLite) *FallbackCache {
	return &FallbackCache{store: store}
}

// Put overwrites the cached text for k.
func (c *FallbackCache) Put(ctx context.Context, k dateutil.Key, content string) error {
	return c.store.Set(ctx, EntryKey(k), content)
}

// Get returns the cached text for k and whether there was any.
func (c *FallbackCache) Get(ctx context.Context, k dateutil.Key) (string, bool, error) {
	v, err := c.store.Get(ctx, EntryKey(k))
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// List returns every cached entry, oldest date first. Keys that do not
// parse as dates are skipped.
func (c *FallbackCache) List(ctx context.Context) ([]CachedEntry, error) {
	items, err := c.store.List(ctx, EntryPrefix)
	if err != nil {
		return nil, err
	}
	entries := make([]CachedEntry, 0, len(items))
	for _, it := range items {
		k, err := dateutil.ParseKey(strings.TrimPrefix(it.Key, EntryPrefix))
		if err != nil {
			continue
		}
		entries = append(entries, CachedEntry{Key: k, Content: it.Value, UpdatedAt: it.UpdatedAt})
	}
	return entries, nil
}
