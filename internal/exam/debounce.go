package exam

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is the quiet period applied to short answer keystrokes
// before an incremental save fires.
const DefaultDebounceDelay = 800 * time.Millisecond

// Debouncer collapses rapid repeated triggers into a single call after a
// quiet period of inactivity. Each Trigger resets the pending timer, so only
// the last scheduled function runs.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the quiet period, replacing any pending
// schedule.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending schedule without running it. A function already
// started is not interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
