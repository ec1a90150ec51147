package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/javiermolinar/bitacora/internal/dateutil"
)

const testKey = dateutil.Key("2024-02-10")

var errOffline = errors.New("connection refused")

type fakePersister struct {
	mu    sync.Mutex
	saved []string
	fail  int // fail this many calls, -1 fails forever
	hook  func(call int)
}

func (p *fakePersister) SaveEntry(_ context.Context, key dateutil.Key, content string) error {
	p.mu.Lock()
	p.saved = append(p.saved, content)
	call := len(p.saved)
	hook := p.hook
	fail := p.fail == -1 || call <= p.fail
	p.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if key != testKey {
		return errors.New("wrong key")
	}
	if fail {
		return errOffline
	}
	return nil
}

func (p *fakePersister) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.saved...)
}

type memCache struct {
	mu   sync.Mutex
	data map[dateutil.Key]string
	puts int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[dateutil.Key]string)}
}

func (m *memCache) Put(_ context.Context, key dateutil.Key, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = content
	m.puts++
	return nil
}

func (m *memCache) Get(_ context.Context, key dateutil.Key) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func newTestController(p Persister, cache Cache) (*Controller, *ManualClock) {
	clock := NewManualClock(epoch)
	c := New(DefaultConfig(testKey), p, cache, clock, nil)
	c.Attach()
	return c, clock
}

func drain(c *Controller) []Status {
	var out []Status
	for {
		select {
		case s := <-c.Statuses():
			out = append(out, s)
		default:
			return out
		}
	}
}

func visible(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if s.Kind != StatusHidden {
			out = append(out, s)
		}
	}
	return out
}

func TestSave_UnchangedBufferIsNoop(t *testing.T) {
	p := &fakePersister{}
	c, _ := newTestController(p, newMemCache())
	c.OnInit(context.Background(), "hello")

	if got := c.Save(context.Background()); got != ResultSkipped {
		t.Errorf("Save = %v, want skipped", got)
	}
	if len(p.calls()) != 0 {
		t.Errorf("persister called: %v", p.calls())
	}
	if s := drain(c); len(s) != 0 {
		t.Errorf("unexpected statuses: %v", s)
	}
}

func TestDebounce_SavesLatestText(t *testing.T) {
	p := &fakePersister{}
	c, clock := newTestController(p, newMemCache())
	c.OnInit(context.Background(), "")

	c.OnTextChanged("h")
	clock.Advance(500 * time.Millisecond)
	c.OnTextChanged("he")
	clock.Advance(500 * time.Millisecond)
	c.OnTextChanged("hey")
	clock.Advance(999 * time.Millisecond)
	if n := len(p.calls()); n != 0 {
		t.Fatalf("saved before the quiet period ended: %d calls", n)
	}

	clock.Advance(time.Millisecond)
	calls := p.calls()
	if len(calls) != 1 || calls[0] != "hey" {
		t.Fatalf("calls = %v", calls)
	}
	buf := c.Snapshot()
	if buf.Synced != "hey" || !buf.LastSaveAt.Equal(clock.Now()) {
		t.Errorf("buffer = %+v", buf)
	}
	if c.Dirty() {
		t.Error("buffer should be clean after a save")
	}
	st := visible(drain(c))
	if len(st) != 1 || st[0].Kind != StatusSaved {
		t.Errorf("statuses = %v", st)
	}
}

func TestStatus_HiddenAfterVisibleWindow(t *testing.T) {
	p := &fakePersister{}
	c, clock := newTestController(p, newMemCache())
	c.OnInit(context.Background(), "")
	c.OnTextChanged("x")
	clock.Advance(time.Second)
	drain(c)

	clock.Advance(1999 * time.Millisecond)
	if s := drain(c); len(s) != 0 {
		t.Fatalf("hidden too early: %v", s)
	}
	clock.Advance(time.Millisecond)
	s := drain(c)
	if len(s) != 1 || s[0].Kind != StatusHidden {
		t.Fatalf("statuses = %v", s)
	}
}

func TestSave_PersistentFailure(t *testing.T) {
	p := &fakePersister{fail: -1}
	cache := newMemCache()
	c, clock := newTestController(p, cache)
	c.OnInit(context.Background(), "")

	c.OnTextChanged("lost thoughts")
	clock.Advance(time.Second) // first attempt
	if n := len(p.calls()); n != 1 {
		t.Fatalf("calls after debounce = %d", n)
	}
	if got := cache.data[testKey]; got != "lost thoughts" {
		t.Fatalf("cache = %q", got)
	}

	// Retry N waits N*D.
	clock.Advance(time.Second)
	if n := len(p.calls()); n != 2 {
		t.Fatalf("calls after retry 1 = %d", n)
	}
	clock.Advance(2 * time.Second)
	if n := len(p.calls()); n != 3 {
		t.Fatalf("calls after retry 2 = %d", n)
	}
	clock.Advance(2999 * time.Millisecond)
	if n := len(p.calls()); n != 3 {
		t.Fatalf("retry 3 fired early: %d", n)
	}
	clock.Advance(time.Millisecond)
	if n := len(p.calls()); n != 4 {
		t.Fatalf("calls after retry 3 = %d", n)
	}

	clock.Advance(time.Hour)
	if n := len(p.calls()); n != 4 {
		t.Errorf("retried after the last attempt: %d calls", n)
	}

	st := visible(drain(c))
	if len(st) != 4 {
		t.Fatalf("statuses = %v", st)
	}
	for i, s := range st {
		if s.Kind != StatusFailed || s.Attempt != i {
			t.Errorf("status %d = %+v", i, s)
		}
		if s.Final != (i == 3) {
			t.Errorf("status %d Final = %v", i, s.Final)
		}
		if !errors.Is(s.Err, errOffline) {
			t.Errorf("status %d Err = %v", i, s.Err)
		}
	}
	if cache.data[testKey] != "lost thoughts" {
		t.Errorf("cache = %q", cache.data[testKey])
	}
	if !c.Dirty() {
		t.Error("buffer should stay dirty")
	}
}

func TestSave_RecoversOnRetry(t *testing.T) {
	p := &fakePersister{fail: 1}
	c, clock := newTestController(p, newMemCache())
	c.OnInit(context.Background(), "")

	c.OnTextChanged("draft")
	clock.Advance(2 * time.Second)

	if n := len(p.calls()); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
	if c.Dirty() {
		t.Error("retry should have synced the buffer")
	}
	st := visible(drain(c))
	if len(st) != 2 || st[0].Kind != StatusFailed || st[1].Kind != StatusSaved {
		t.Errorf("statuses = %v", st)
	}
}

func TestRetry_DroppedAfterNewKeystroke(t *testing.T) {
	p := &fakePersister{fail: 1}
	c, clock := newTestController(p, newMemCache())
	c.OnInit(context.Background(), "")

	c.OnTextChanged("a")
	clock.Advance(time.Second) // fails, retry armed for +1s
	clock.Advance(500 * time.Millisecond)
	c.OnTextChanged("ab")

	clock.Advance(500 * time.Millisecond) // old retry time
	if n := len(p.calls()); n != 1 {
		t.Fatalf("stale retry ran: %v", p.calls())
	}
	clock.Advance(500 * time.Millisecond) // debounce of "ab"
	calls := p.calls()
	if len(calls) != 2 || calls[1] != "ab" {
		t.Fatalf("calls = %v", calls)
	}
	if c.Snapshot().Synced != "ab" {
		t.Errorf("Synced = %q", c.Snapshot().Synced)
	}
}

func TestDebounce_DeferredPastFloorAfterRecentSave(t *testing.T) {
	p := &fakePersister{}
	c, clock := newTestController(p, newMemCache())
	c.OnInit(context.Background(), "")
	p.hook = func(call int) {
		if call != 1 {
			return
		}
		// The user keeps typing while the first request is slow.
		c.OnTextChanged("ab")
		clock.Advance(800 * time.Millisecond)
	}

	c.OnTextChanged("a")
	clock.Advance(time.Second) // save "a" starts at 1s and ends at 1.8s

	if got := c.Snapshot().LastSaveAt; !got.Equal(epoch.Add(1800 * time.Millisecond)) {
		t.Fatalf("LastSaveAt = %v", got)
	}

	// The "ab" debounce falls due at 2s, only 200ms after the last save.
	clock.Advance(700 * time.Millisecond)
	if n := len(p.calls()); n != 1 {
		t.Fatalf("save not suppressed by the floor: %v", p.calls())
	}
	// Re-armed for the remaining 800ms of the floor: due at 2.8s.
	clock.Advance(299 * time.Millisecond)
	if n := len(p.calls()); n != 1 {
		t.Fatalf("re-armed save fired early: %v", p.calls())
	}
	clock.Advance(time.Millisecond)
	calls := p.calls()
	if len(calls) != 2 || calls[1] != "ab" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestSave_StaleSuccessDoesNotRewind(t *testing.T) {
	p := &fakePersister{}
	c, _ := newTestController(p, newMemCache())
	c.OnInit(context.Background(), "")
	p.hook = func(call int) {
		if call != 1 {
			return
		}
		// A newer save completes before the first one returns.
		c.OnTextChanged("ab")
		if got := c.Save(context.Background()); got != ResultSaved {
			t.Errorf("inner Save = %v", got)
		}
	}

	c.OnTextChanged("a")
	if got := c.Save(context.Background()); got != ResultSaved {
		t.Fatalf("Save = %v", got)
	}

	buf := c.Snapshot()
	if buf.Synced != "ab" || buf.Current != "ab" {
		t.Errorf("buffer = %+v", buf)
	}
	if c.Dirty() {
		t.Error("buffer should be clean")
	}
}

func TestOnUnload_WritesCacheBeforeReturning(t *testing.T) {
	p := &fakePersister{}
	cache := newMemCache()
	c, clock := newTestController(p, cache)
	c.OnInit(context.Background(), "server text")
	c.OnTextChanged("server text and more")

	if err := c.OnUnload(context.Background()); err != nil {
		t.Fatalf("OnUnload: %v", err)
	}
	if got := cache.data[testKey]; got != "server text and more" {
		t.Fatalf("cache = %q", got)
	}

	clock.Advance(time.Minute)
	if n := len(p.calls()); n != 0 {
		t.Errorf("detached controller saved: %v", p.calls())
	}
	if clock.Pending() != 0 {
		t.Errorf("%d timers still armed", clock.Pending())
	}
}

func TestOnUnload_CleanBufferSkipsCache(t *testing.T) {
	cache := newMemCache()
	c, _ := newTestController(&fakePersister{}, cache)
	c.OnInit(context.Background(), "saved")

	if err := c.OnUnload(context.Background()); err != nil {
		t.Fatalf("OnUnload: %v", err)
	}
	if cache.puts != 0 {
		t.Errorf("cache written %d times", cache.puts)
	}
}

func TestOnInit_RestoresFromCache(t *testing.T) {
	tests := []struct {
		name         string
		loaded       string
		cached       string
		wantText     string
		wantRestored bool
	}{
		{"empty server, cached text", "", "from cache", "from cache", true},
		{"server wins", "from server", "from cache", "from server", false},
		{"nothing anywhere", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newMemCache()
			if tt.cached != "" {
				cache.data[testKey] = tt.cached
			}
			c, _ := newTestController(&fakePersister{}, cache)

			text, restored := c.OnInit(context.Background(), tt.loaded)
			if text != tt.wantText || restored != tt.wantRestored {
				t.Errorf("OnInit = %q, %v", text, restored)
			}
			if c.Dirty() != tt.wantRestored {
				t.Errorf("Dirty = %v", c.Dirty())
			}
		})
	}
}

func TestOnLoadFailed_CachedTextIsBaseline(t *testing.T) {
	p := &fakePersister{}
	cache := newMemCache()
	cache.data[testKey] = "old draft"
	c, clock := newTestController(p, cache)

	text, ok := c.OnLoadFailed(context.Background())
	if text != "old draft" || !ok {
		t.Fatalf("OnLoadFailed = %q, %v", text, ok)
	}
	if c.Dirty() {
		t.Error("cached baseline should not be unsynced")
	}
	if res := c.Save(context.Background()); res != ResultSkipped {
		t.Errorf("Save = %v, want skipped", res)
	}
	clock.Advance(time.Minute)
	if n := len(p.calls()); n != 0 {
		t.Fatalf("saved without an edit: %v", p.calls())
	}

	c.OnTextChanged("old draft, edited")
	clock.Advance(time.Second)
	if calls := p.calls(); len(calls) != 1 || calls[0] != "old draft, edited" {
		t.Errorf("calls = %v", calls)
	}
}

func TestOnLoadFailed_EmptyCache(t *testing.T) {
	c, _ := newTestController(&fakePersister{}, newMemCache())
	if text, ok := c.OnLoadFailed(context.Background()); text != "" || ok {
		t.Errorf("OnLoadFailed = %q, %v", text, ok)
	}
}

func TestSave_MirrorsTextIntoCache(t *testing.T) {
	cache := newMemCache()
	cache.data[testKey] = "last week's draft"
	c, clock := newTestController(&fakePersister{}, cache)
	c.OnInit(context.Background(), "on server")

	c.OnTextChanged("on server, updated")
	clock.Advance(time.Second)
	if got := cache.data[testKey]; got != "on server, updated" {
		t.Errorf("cache = %q, want the saved text", got)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Key: testKey, MaxRetries: -1}.withDefaults()
	if cfg.Delay != time.Second || cfg.MaxRetries != 3 || cfg.StatusVisible != 2*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestStatus_Message(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{Status{Kind: StatusSaved}, "Saved"},
		{Status{Kind: StatusFailed, Attempt: 0}, "Save failed, retrying (1)"},
		{Status{Kind: StatusFailed, Attempt: 3, Final: true}, "Save failed, kept locally"},
		{Status{Kind: StatusHidden}, ""},
	}
	for _, tt := range tests {
		if got := tt.s.Message(); got != tt.want {
			t.Errorf("%v: got %q, want %q", tt.s.Kind, got, tt.want)
		}
	}
}
