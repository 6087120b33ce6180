// Package server enforces the optional per-session line budget that shields
// the relay from clients flooding the protocol.
package server

import (
	"sync"
	"time"
)

// lineBudget caps how many protocol lines a session may submit per refill
// window. Accounting is a fixed window: the first line seen after a window
// elapses resets the count. A nil *lineBudget means budgeting is disabled
// and every line is allowed.
type lineBudget struct {
	mu          sync.Mutex
	burst       int
	window      time.Duration
	used        int
	windowStart time.Time
}

// newLineBudget builds a budget of burst lines per window. A non-positive
// burst disables budgeting entirely by returning nil.
func newLineBudget(burst int, window time.Duration) *lineBudget {
	if burst <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Second
	}
	return &lineBudget{
		burst:       burst,
		window:      window,
		windowStart: time.Now(),
	}
}

// allowLine consumes one unit of the budget, reporting false once the
// current window is exhausted.
func (b *lineBudget) allowLine() bool {
	if b == nil {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Sub(b.windowStart) >= b.window {
		b.windowStart = now
		b.used = 0
	}
	if b.used >= b.burst {
		return false
	}
	b.used++
	return true
}
