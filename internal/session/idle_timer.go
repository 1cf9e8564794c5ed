package session

import (
	"sync"
	"time"
)

// idleTimer is a single restartable countdown. Every Arm cancels the
// previous countdown; a callback from a superseded countdown is dropped
// by comparing generations, so onExpire runs at most once per arming.
type idleTimer struct {
	clock    Clock
	duration time.Duration
	onExpire func()

	mu     sync.Mutex
	timer  Timer
	gen    uint64
	closed bool
}

func newIdleTimer(clock Clock, d time.Duration, onExpire func()) *idleTimer {
	return &idleTimer{clock: clock, duration: d, onExpire: onExpire}
}

// Arm starts a fresh countdown, replacing any outstanding one.
func (t *idleTimer) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.duration, func() { t.fire(gen) })
}

// Disarm cancels the outstanding countdown, if any.
func (t *idleTimer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Close disarms and rejects further arming.
func (t *idleTimer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.closed = true
}

// Armed reports whether a countdown is outstanding.
func (t *idleTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *idleTimer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

func (t *idleTimer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.timer == nil {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	t.onExpire()
}
