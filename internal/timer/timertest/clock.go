// Package timertest provides a manually advanced clock for timer.Clock users.
package timertest

import (
	"sort"
	"sync"
	"time"

	"github.com/tbourn/pill-mate/internal/timer"
)

// Clock is a fake timer.Clock. Timers only fire from Advance, in due order,
// on the calling goroutine.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*fakeTimer
	armed   []time.Duration
}

type fakeTimer struct {
	c       *Clock
	seq     int
	due     time.Time
	f       func()
	stopped bool
}

// New returns a Clock reading now.
func New(now time.Time) *Clock { return &Clock{now: now} }

// Now returns the simulated time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to run once the clock reaches Now()+d.
func (c *Clock) AfterFunc(d time.Duration, f func()) timer.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	c.seq++
	t := &fakeTimer{c: c, seq: c.seq, due: c.now.Add(d), f: f}
	c.pending = append(c.pending, t)
	c.armed = append(c.armed, d)
	return t
}

// Stop cancels the timer; it reports whether it was still pending.
func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	for i, p := range t.c.pending {
		if p == t {
			t.c.pending = append(t.c.pending[:i], t.c.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves time forward by d, firing every timer that comes due,
// including timers armed by callbacks during the advance.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.pending, func(i, j int) bool {
			if c.pending[i].due.Equal(c.pending[j].due) {
				return c.pending[i].seq < c.pending[j].seq
			}
			return c.pending[i].due.Before(c.pending[j].due)
		})
		if len(c.pending) == 0 || c.pending[0].due.After(target) {
			c.now = target
			c.mu.Unlock()
			return
		}
		t := c.pending[0]
		c.pending = c.pending[1:]
		t.stopped = true
		if t.due.After(c.now) {
			c.now = t.due
		}
		c.mu.Unlock()
		t.f()
	}
}

// Pending reports the number of timers waiting to fire.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Armed returns the delays passed to AfterFunc, in call order.
func (c *Clock) Armed() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.armed...)
}
