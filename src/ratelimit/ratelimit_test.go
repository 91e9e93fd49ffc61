package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-watch/src/logger"
)

func newTestLimiter(maxCalls int, window time.Duration) *SlidingWindow {
	return NewSlidingWindow(maxCalls, window, logger.NewLogger("ERROR", "test"))
}

// -----------------------------------------------------------------------------

func TestTryAdmitDeniesBeyondBudget(t *testing.T) {
	sw := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		require.True(t, sw.TryAdmit(), "call %d should be admitted", i+1)
	}

	assert.False(t, sw.TryAdmit(), "sixth call must be denied")
	assert.Equal(t, 0, sw.Remaining())
}

// -----------------------------------------------------------------------------

func TestWindowSlidesCallsBackIn(t *testing.T) {
	sw := newTestLimiter(5, time.Minute)

	now := time.Unix(1_700_000_000, 0)
	sw.SetClock(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		require.True(t, sw.TryAdmit())
		now = now.Add(time.Second)
	}
	require.False(t, sw.TryAdmit())

	// 61s after the first call its timestamp leaves the window.
	now = time.Unix(1_700_000_000, 0).Add(61 * time.Second)
	assert.True(t, sw.TryAdmit())

	// Only that one slot opened up.
	assert.False(t, sw.TryAdmit())
}

// -----------------------------------------------------------------------------

func TestDeniedCallDoesNotConsumeBudget(t *testing.T) {
	sw := newTestLimiter(2, time.Minute)

	now := time.Unix(1_700_000_000, 0)
	sw.SetClock(func() time.Time { return now })

	require.True(t, sw.TryAdmit())
	require.True(t, sw.TryAdmit())

	// Hammer the denied path; none of these may extend the window.
	for i := 0; i < 10; i++ {
		require.False(t, sw.TryAdmit())
	}

	now = now.Add(61 * time.Second)
	assert.Equal(t, 2, sw.Remaining())
}

// -----------------------------------------------------------------------------

func TestConcurrentAdmissionNeverOvershoots(t *testing.T) {
	sw := newTestLimiter(5, time.Minute)

	var admitted int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sw.TryAdmit() {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), admitted)
}
