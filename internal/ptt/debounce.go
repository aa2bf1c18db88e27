package ptt

import (
	"sync"
	"time"
)

// ToggleDebounce gates the process-local manual-toggle control surface:
// a single monotonic timestamp of the last accepted toggle, rejecting
// any request within the debounce window of it.
type ToggleDebounce struct {
	window time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewToggleDebounce returns a gate with the given window. The control
// surface uses 400ms.
func NewToggleDebounce(window time.Duration) *ToggleDebounce {
	return &ToggleDebounce{window: window}
}

// Allow reports whether a toggle request arriving at now should be
// accepted, and records it as the new baseline if so.
func (d *ToggleDebounce) Allow(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.last.IsZero() && now.Sub(d.last) < d.window {
		return false
	}
	d.last = now
	return true
}
