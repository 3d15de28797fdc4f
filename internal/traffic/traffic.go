// Package traffic keeps sliding windows of request outcomes for the calculation endpoints.
// Health uses it to detect overload (rate-limit denials) and to report the rejection rate.
package traffic

import (
	"sync"
	"time"
)

// Outcome classifies a finished calculation request.
type Outcome int

const (
	// Success is a request that produced an evapotranspiration value.
	Success Outcome = iota
	// Rejected is a request that failed validation or evaluation (4xx).
	Rejected
	// Denied is a request refused by the rate limiter (429).
	Denied
)

// Retention is the longest window the tracker can answer; older outcomes are pruned.
const Retention = 5 * time.Minute

var defaultTracker = NewTracker()

// Record records one outcome at the current time on the process-wide tracker.
func Record(o Outcome) {
	defaultTracker.Record(o)
}

// RecordN records n identical outcomes. For synthetic load in tests.
func RecordN(o Outcome, n int) {
	defaultTracker.RecordN(o, n)
}

// RequestCount returns all outcomes (success + rejected + denied) within the window.
func RequestCount(window time.Duration) int {
	return defaultTracker.RequestCount(window)
}

// DenialCount returns the number of rate-limit denials within the window.
func DenialCount(window time.Duration) int {
	return defaultTracker.Count(Denied, window)
}

// RejectionRate returns (rejected, total) within the window. Denials are excluded from total.
func RejectionRate(window time.Duration) (rejected, total int) {
	return defaultTracker.RejectionRate(window)
}

// Reset clears the process-wide tracker. For tests only.
func Reset() {
	defaultTracker.Reset()
}

// Tracker maintains per-outcome timestamp windows.
type Tracker struct {
	mu    sync.Mutex
	times map[Outcome][]time.Time
	now   func() time.Time
}

// NewTracker returns an empty Tracker using the wall clock.
func NewTracker() *Tracker {
	return &Tracker{times: make(map[Outcome][]time.Time), now: time.Now}
}

// Record records one outcome.
func (t *Tracker) Record(o Outcome) {
	t.RecordN(o, 1)
}

// RecordN records n outcomes with the same timestamp.
func (t *Tracker) RecordN(o Outcome, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for i := 0; i < n; i++ {
		t.times[o] = append(t.times[o], now)
	}
	t.pruneLocked(now)
}

// Count returns the number of outcomes of kind o within the window.
func (t *Tracker) Count(o Outcome, window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return countSince(t.times[o], t.now().Add(-window))
}

// RequestCount returns the number of outcomes of every kind within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	n := 0
	for _, ts := range t.times {
		n += countSince(ts, cutoff)
	}
	return n
}

// RejectionRate returns (rejected, success + rejected) within the window.
func (t *Tracker) RejectionRate(window time.Duration) (rejected, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	rejected = countSince(t.times[Rejected], cutoff)
	return rejected, rejected + countSince(t.times[Success], cutoff)
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.times = make(map[Outcome][]time.Time)
}

// countSince counts timestamps not before cutoff. Timestamps are appended in order.
func countSince(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than Retention. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-Retention)
	for o, times := range t.times {
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			t.times[o] = append(times[:0], times[i:]...)
		}
	}
}
