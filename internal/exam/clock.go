package exam

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts wall-clock reads so countdown behavior is testable without
// real waits.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the real wall clock.
var SystemClock Clock = systemClock{}

// Countdown tracks the fixed-duration window of a timed attempt. The end time
// is derived once from start time and duration; remaining time is computed on
// each read rather than mutated by ticks.
type Countdown struct {
	clock   Clock
	endTime time.Time

	mu    sync.Mutex
	fired bool
}

func NewCountdown(clock Clock, start time.Time, duration time.Duration) *Countdown {
	if clock == nil {
		clock = SystemClock
	}
	return &Countdown{
		clock:   clock,
		endTime: start.Add(duration),
	}
}

// Remaining returns the time left, clamped at zero.
func (c *Countdown) Remaining() time.Duration {
	rem := c.endTime.Sub(c.clock.Now())
	if rem < 0 {
		return 0
	}
	return rem
}

func (c *Countdown) Expired() bool {
	return c.Remaining() == 0
}

// Tick reports expiry exactly once: the first call after the window has
// elapsed returns true, every later call returns false. Overlapping ticks
// observing the same expired state cannot both claim it.
func (c *Countdown) Tick() bool {
	if !c.Expired() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired {
		return false
	}
	c.fired = true
	return true
}

// Watch polls the countdown at the given interval and invokes onExpiry exactly
// once when the window elapses, then returns. It also returns when ctx is
// cancelled or when another watcher already claimed the expiry.
func (c *Countdown) Watch(ctx context.Context, interval time.Duration, onExpiry func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.Tick() {
				onExpiry()
				return
			}
			c.mu.Lock()
			done := c.fired
			c.mu.Unlock()
			if done {
				return
			}
		}
	}
}
