package exam

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock for countdown tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCountdown_Remaining(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	cd := NewCountdown(clock, start, 90*time.Minute)

	assert.Equal(t, 90*time.Minute, cd.Remaining())
	assert.False(t, cd.Expired())

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 60*time.Minute, cd.Remaining())

	clock.Advance(61 * time.Minute)
	assert.Equal(t, time.Duration(0), cd.Remaining(), "remaining clamps at zero after the window")
	assert.True(t, cd.Expired())
}

func TestCountdown_TickFiresOnce(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	cd := NewCountdown(clock, start, time.Minute)

	assert.False(t, cd.Tick(), "no expiry before the window elapses")

	clock.Advance(2 * time.Minute)
	assert.True(t, cd.Tick(), "first tick after expiry claims it")
	assert.False(t, cd.Tick(), "later ticks never re-fire")
	assert.False(t, cd.Tick())
}

func TestCountdown_TickConcurrent(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	cd := NewCountdown(clock, start, time.Millisecond)
	clock.Advance(time.Second)

	const workers = 16
	var wg sync.WaitGroup
	fired := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cd.Tick() {
				fired <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(fired)

	assert.Len(t, fired, 1, "exactly one goroutine claims the expiry")
}
