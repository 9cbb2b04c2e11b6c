// Package timer provides a cancellable single-shot timer that accepts delays
// longer than the native maximum by chaining bounded timers.
//
// A reminder can be armed months ahead. Native single-shot timers on some
// platforms stop at 2^31-1 ms (about 24.8 days), so Set never hands a longer
// delay to the underlying clock: it arms a MaxNativeDelay link and re-arms the
// remainder from inside that link's callback until the rest fits.
package timer

import (
	"sync"
	"time"
)

// MaxNativeDelay is the longest delay given to a single native timer.
const MaxNativeDelay = time.Duration(1<<31-1) * time.Millisecond

// Stopper is the part of *time.Timer the chain needs to cancel a link.
type Stopper interface {
	Stop() bool
}

// Clock abstracts time so schedules can be driven by simulated time in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }

// System is the wall clock backed by time.AfterFunc.
var System Clock = systemClock{}

// Handle is an armed long-delay timer.
type Handle struct {
	mu      sync.Mutex
	clock   Clock
	due     time.Time
	current Stopper
	links   int
	cleared bool
	fired   bool
}

// Set arms f to run once after d. A zero or negative d fires as soon as the
// clock allows.
func Set(clock Clock, d time.Duration, f func()) *Handle {
	if clock == nil {
		clock = System
	}
	h := &Handle{clock: clock, due: clock.Now().Add(d)}
	h.mu.Lock()
	h.arm(d, f)
	h.mu.Unlock()
	return h
}

// arm schedules the next link. h.mu must be held.
func (h *Handle) arm(remaining time.Duration, f func()) {
	h.links++
	if remaining > MaxNativeDelay {
		rest := remaining - MaxNativeDelay
		h.current = h.clock.AfterFunc(MaxNativeDelay, func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.cleared {
				return
			}
			h.arm(rest, f)
		})
		return
	}
	h.current = h.clock.AfterFunc(remaining, func() {
		h.mu.Lock()
		if h.cleared || h.fired {
			h.mu.Unlock()
			return
		}
		h.fired = true
		h.current = nil
		h.mu.Unlock()
		f()
	})
}

// Clear cancels the outstanding link. Once Clear returns the callback will
// not start. Clearing twice, or after the callback ran, is a no-op.
func (h *Handle) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cleared {
		return
	}
	h.cleared = true
	if h.current != nil {
		h.current.Stop()
		h.current = nil
	}
}

// Due is the instant the callback is scheduled for.
func (h *Handle) Due() time.Time { return h.due }

// Links reports how many native timers have been armed so far.
func (h *Handle) Links() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.links
}

// Fired reports whether the callback has started.
func (h *Handle) Fired() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}
