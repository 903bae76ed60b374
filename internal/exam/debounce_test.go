package exam

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CollapsesRapidTriggers(t *testing.T) {
	deb := NewDebouncer(30 * time.Millisecond)

	var calls atomic.Int32
	var mu sync.Mutex
	var lastText string

	// Ten keystrokes in quick succession, like a student typing an answer.
	texts := []string{"1", "1.", "1.4", "1.41", "1.414", "1.4142", "1.41421", "1.414213", "1.4142135", "1.41421356"}
	for _, text := range texts {
		text := text
		deb.Trigger(func() {
			calls.Add(1)
			mu.Lock()
			lastText = text
			mu.Unlock()
		})
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Give a stray second fire time to show up if the timer reset were broken.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "ten rapid triggers collapse into one call")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "1.41421356", lastText, "the surviving call carries the final text")
}

func TestDebouncer_SeparatedTriggersEachFire(t *testing.T) {
	deb := NewDebouncer(10 * time.Millisecond)

	var calls atomic.Int32
	deb.Trigger(func() { calls.Add(1) })
	time.Sleep(40 * time.Millisecond)
	deb.Trigger(func() { calls.Add(1) })

	assert.Eventually(t, func() bool {
		return calls.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncer_Stop(t *testing.T) {
	deb := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	deb.Trigger(func() { calls.Add(1) })
	deb.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load(), "a stopped schedule never runs")
}
