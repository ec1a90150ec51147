package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/javiermolinar/bitacora/internal/dateutil"
	"github.com/javiermolinar/bitacora/internal/logger"
)

// Defaults for Config fields left at zero.
const (
	DefaultDelay         = time.Second
	DefaultMaxRetries    = 3
	DefaultStatusVisible = 2 * time.Second
)

// Persister writes an entry to the diary service.
type Persister interface {
	SaveEntry(ctx context.Context, key dateutil.Key, content string) error
}

// Cache keeps unsynced text locally.
type Cache interface {
	Put(ctx context.Context, key dateutil.Key, content string) error
	Get(ctx context.Context, key dateutil.Key) (string, bool, error)
}

// Config configures one editor session.
type Config struct {
	Key           dateutil.Key
	Delay         time.Duration
	MaxRetries    int // retries after the first failed attempt
	StatusVisible time.Duration
}

func (c Config) withDefaults() Config {
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.StatusVisible <= 0 {
		c.StatusVisible = DefaultStatusVisible
	}
	return c
}

// DefaultConfig returns the defaults for key.
func DefaultConfig(key dateutil.Key) Config {
	return Config{
		Key:           key,
		Delay:         DefaultDelay,
		MaxRetries:    DefaultMaxRetries,
		StatusVisible: DefaultStatusVisible,
	}
}

// Buffer is a snapshot of the editor state.
type Buffer struct {
	Current    string
	Synced     string
	LastSaveAt time.Time
	// Version increases on every change to Current. SyncedVersion is the
	// version Synced was taken from.
	Version       uint64
	SyncedVersion uint64
}

// StatusKind is the kind of a status notification.
type StatusKind int

const (
	StatusSaved StatusKind = iota + 1
	StatusFailed
	StatusHidden
)

func (k StatusKind) String() string {
	switch k {
	case StatusSaved:
		return "saved"
	case StatusFailed:
		return "failed"
	case StatusHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// Status is a transient save notification.
type Status struct {
	Kind    StatusKind
	Key     dateutil.Key
	Attempt int  // 0 for the first attempt, N for retry N
	Final   bool // no further retry will happen
	Err     error
	At      time.Time
}

// Message returns the text shown to the user.
func (s Status) Message() string {
	switch s.Kind {
	case StatusSaved:
		return "Saved"
	case StatusFailed:
		if s.Final {
			return "Save failed, kept locally"
		}
		return fmt.Sprintf("Save failed, retrying (%d)", s.Attempt+1)
	default:
		return ""
	}
}

// Result is the outcome of one Save call.
type Result int

const (
	ResultSkipped Result = iota
	ResultSaved
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSaved:
		return "saved"
	case ResultFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Controller debounces edits of one entry into saves, retries failures
// and falls back to the local cache.
type Controller struct {
	cfg       Config
	persister Persister
	cache     Cache
	clock     Clock
	logger    *log.Logger

	debounce *Debouncer
	retry    *Debouncer
	hide     *Debouncer
	statuses chan Status

	mu       sync.Mutex
	buf      Buffer
	attached bool
}

// New creates a detached controller. A nil clock uses the real clock and
// a nil logger discards.
func New(cfg Config, p Persister, cache Cache, clock Clock, l *log.Logger) *Controller {
	if clock == nil {
		clock = RealClock()
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Controller{
		cfg:       cfg.withDefaults(),
		persister: p,
		cache:     cache,
		clock:     clock,
		logger:    l.With("key", cfg.Key),
		debounce:  NewDebouncer(clock),
		retry:     NewDebouncer(clock),
		hide:      NewDebouncer(clock),
		statuses:  make(chan Status, 32),
	}
}

// Key returns the entry key.
func (c *Controller) Key() dateutil.Key { return c.cfg.Key }

// Statuses delivers status notifications. Notifications are dropped when
// nobody reads.
func (c *Controller) Statuses() <-chan Status { return c.statuses }

// Attach starts reacting to edits.
func (c *Controller) Attach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached = true
}

// Detach stops every pending timer. In-flight requests complete.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.attached = false
	c.mu.Unlock()
	c.debounce.Stop()
	c.retry.Stop()
	c.hide.Stop()
}

// OnInit installs the server text. When the server has nothing and the
// cache holds text for this entry, the cached text is restored unsynced.
func (c *Controller) OnInit(ctx context.Context, loaded string) (string, bool) {
	c.mu.Lock()
	c.buf = Buffer{Current: loaded, Synced: loaded}
	c.mu.Unlock()

	if loaded != "" {
		return loaded, false
	}
	cached, ok := c.cached(ctx)
	if !ok {
		return loaded, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Current = cached
	c.buf.Version++
	c.logger.Info("restored entry from fallback cache", "bytes", len(cached))
	return cached, true
}

// OnLoadFailed installs the cached text, if any, when the server text is
// unknown. The cached text becomes the baseline: nothing is saved until
// the next edit.
func (c *Controller) OnLoadFailed(ctx context.Context) (string, bool) {
	cached, ok := c.cached(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = Buffer{Current: cached, Synced: cached}
	if ok {
		c.logger.Info("showing cached entry, server text unknown", "bytes", len(cached))
	}
	return cached, ok
}

func (c *Controller) cached(ctx context.Context) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	cached, ok, err := c.cache.Get(ctx, c.cfg.Key)
	if err != nil {
		c.logger.Warn("reading fallback cache", "err", err)
		return "", false
	}
	if !ok || cached == "" {
		return "", false
	}
	return cached, true
}

// OnTextChanged records an edit and re-arms the debounce.
func (c *Controller) OnTextChanged(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Current = text
	c.buf.Version++
	if !c.attached {
		return
	}
	c.retry.Stop()
	c.debounce.Schedule(c.cfg.Delay, c.onDebounce)
}

func (c *Controller) onDebounce() {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return
	}
	if !c.buf.LastSaveAt.IsZero() {
		since := c.clock.Now().Sub(c.buf.LastSaveAt)
		if since < c.cfg.Delay {
			c.debounce.Schedule(c.cfg.Delay-since, c.onDebounce)
			c.mu.Unlock()
			return
		}
	}
	c.mu.Unlock()
	c.save(context.Background(), 0)
}

// Save persists the current text now. It is a no-op when nothing changed
// since the last successful save.
func (c *Controller) Save(ctx context.Context) Result {
	c.retry.Stop()
	return c.save(ctx, 0)
}

func (c *Controller) save(ctx context.Context, attempt int) Result {
	c.mu.Lock()
	if c.buf.Current == c.buf.Synced {
		c.mu.Unlock()
		return ResultSkipped
	}
	content := c.buf.Current
	version := c.buf.Version
	c.mu.Unlock()

	err := c.persister.SaveEntry(ctx, c.cfg.Key, content)

	c.mu.Lock()
	now := c.clock.Now()
	if err == nil {
		current := version >= c.buf.SyncedVersion
		if current {
			c.buf.Synced = content
			c.buf.SyncedVersion = version
			c.buf.LastSaveAt = now
		} else {
			c.logger.Debug("dropping stale save result", "version", version, "synced", c.buf.SyncedVersion)
		}
		c.emitLocked(Status{Kind: StatusSaved, Key: c.cfg.Key, Attempt: attempt, At: now})
		c.mu.Unlock()
		c.logger.Debug("entry saved", "attempt", attempt, "bytes", len(content))
		// The cache mirrors the last saved text.
		if current && c.cache != nil {
			if cerr := c.cache.Put(context.WithoutCancel(ctx), c.cfg.Key, content); cerr != nil {
				c.logger.Error("writing fallback cache", "err", cerr)
			}
		}
		return ResultSaved
	}

	superseded := version != c.buf.Version
	final := attempt >= c.cfg.MaxRetries
	unsynced := c.buf.Current
	c.emitLocked(Status{Kind: StatusFailed, Key: c.cfg.Key, Attempt: attempt, Final: final && !superseded, Err: err, At: now})
	if !final && !superseded && c.attached {
		next := attempt + 1
		c.retry.Schedule(time.Duration(next)*c.cfg.Delay, func() { c.onRetry(version, next) })
	}
	c.mu.Unlock()

	c.logger.Warn("saving entry", "attempt", attempt, "final", final, "err", err)
	if c.cache != nil {
		if cerr := c.cache.Put(context.WithoutCancel(ctx), c.cfg.Key, unsynced); cerr != nil {
			c.logger.Error("writing fallback cache", "err", cerr)
		}
	}
	return ResultFailed
}

func (c *Controller) onRetry(version uint64, attempt int) {
	c.mu.Lock()
	if !c.attached || version != c.buf.Version {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.save(context.Background(), attempt)
}

// OnUnload writes unsynced text to the cache before returning, then
// detaches.
func (c *Controller) OnUnload(ctx context.Context) error {
	c.Detach()

	c.mu.Lock()
	dirty := c.buf.Current != c.buf.Synced
	content := c.buf.Current
	c.mu.Unlock()

	if !dirty || c.cache == nil {
		return nil
	}
	if err := c.cache.Put(ctx, c.cfg.Key, content); err != nil {
		return fmt.Errorf("caching unsaved entry: %w", err)
	}
	c.logger.Info("cached unsaved entry on unload", "bytes", len(content))
	return nil
}

// Snapshot returns a copy of the buffer.
func (c *Controller) Snapshot() Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf
}

// Dirty reports whether the current text differs from the last saved text.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Current != c.buf.Synced
}

func (c *Controller) emitLocked(s Status) {
	c.send(s)
	if !c.attached {
		return
	}
	c.hide.Schedule(c.cfg.StatusVisible, func() {
		c.send(Status{Kind: StatusHidden, Key: c.cfg.Key, At: c.clock.Now()})
	})
}

func (c *Controller) send(s Status) {
	select {
	case c.statuses <- s:
	default:
		c.logger.Debug("status dropped", "kind", s.Kind)
	}
}
