package store

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of filter toggles into one notification so
// rapid repeated input triggers a single recomputation. This is a
// scheduling policy only: the filter view is idempotent, so losing the
// debounce would waste work but never change results.
type Debouncer struct {
	window time.Duration
	fn     func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer wraps fn so that calls within window of each other fire
// it once, after the burst goes quiet. A non-positive window disables
// coalescing and fires synchronously.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger schedules a notification, resetting the quiet window if one
// is already pending.
func (d *Debouncer) Trigger() {
	if d.window <= 0 {
		d.fn()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Reset(d.window)
		return
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Stop cancels any pending notification.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
