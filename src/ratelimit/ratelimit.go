package ratelimit

import (
	"sync"
	"time"

	"stock-watch/src/logger"
)

// -----------------------------------------------------------------------------
// SlidingWindow admits at most maxCalls outbound provider calls per
// trailing window. Admission and recording happen under one lock, so two
// concurrent callers can never both pass on the same remaining slot.
// -----------------------------------------------------------------------------

type SlidingWindow struct {
	maxCalls int
	window   time.Duration
	now      func() time.Time

	mu    sync.Mutex
	calls []time.Time
	log   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSlidingWindow(maxCalls int, window time.Duration, log *logger.Logger) *SlidingWindow {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindow{
		maxCalls: maxCalls,
		window:   window,
		now:      time.Now,
		calls:    make([]time.Time, 0, maxCalls),
		log:      log,
	}
}

// -----------------------------------------------------------------------------

// TryAdmit returns true and records the call when the budget allows it.
// There is deliberately no blocking variant: a denied caller serves stale
// data instead of waiting on the provider.
func (sw *SlidingWindow) TryAdmit() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	sw.evictLocked(now)

	if len(sw.calls) >= sw.maxCalls {
		sw.log.Debug("Admission denied: %d calls in the last %v", len(sw.calls), sw.window)
		return false
	}

	sw.calls = append(sw.calls, now)
	return true
}

// -----------------------------------------------------------------------------

// Remaining returns how many calls the window still allows right now.
func (sw *SlidingWindow) Remaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.evictLocked(sw.now())
	return sw.maxCalls - len(sw.calls)
}

// -----------------------------------------------------------------------------

// evictLocked drops timestamps that have left the trailing window.
// Caller must hold sw.mu.
func (sw *SlidingWindow) evictLocked(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for i < len(sw.calls) && !sw.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		sw.calls = append(sw.calls[:0], sw.calls[i:]...)
	}
}

// -----------------------------------------------------------------------------

// SetClock replaces the time source. Used by tests to step through the
// window without sleeping.
func (sw *SlidingWindow) SetClock(now func() time.Time) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.now = now
}
