package autosave

import (
	"sync"
	"time"
)

// Debouncer runs at most one pending callback. Scheduling a new one
// cancels the previous.
type Debouncer struct {
	clock Clock

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// NewDebouncer returns a debouncer driven by clock.
func NewDebouncer(clock Clock) *Debouncer {
	return &Debouncer{clock: clock}
}

// Schedule cancels any pending invocation and arms fn to run after d.
func (d *Debouncer) Schedule(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			// Replaced after the real timer already fired.
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Stop cancels the pending invocation, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether an invocation is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
