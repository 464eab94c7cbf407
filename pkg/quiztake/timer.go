package quiztake

import (
	"sync"
	"time"
)

// Timer is a countdown owned by a Session, armed on entering Ready and
// stopped on leaving it. A Timer created without a time limit is inert:
// it never ticks and never expires.
//
// Ticking is split from scheduling: Tick advances the countdown by one
// second and can be driven by Run's once-per-second loop or directly by the
// caller.
type Timer struct {
	mu        sync.Mutex
	remaining int
	armed     bool
	inert     bool
	fired     bool
	stopCh    chan struct{}
}

// NewTimer creates a Timer counting down from the given limit in minutes.
// A nil limit produces an inert timer.
func NewTimer(limitMinutes *int) *Timer {
	if limitMinutes == nil {
		return &Timer{inert: true}
	}
	return &Timer{remaining: *limitMinutes * 60}
}

// Remaining returns the seconds left. Inert timers report -1.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inert {
		return -1
	}
	return t.remaining
}

// Arm enables the countdown. A fired or inert timer cannot be re-armed.
func (t *Timer) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inert || t.fired || t.remaining <= 0 {
		return
	}
	t.armed = true
}

// Tick decrements the countdown by one second. It returns true exactly once,
// on the tick that reaches zero; later ticks (scheduled before a stop landed,
// or arriving after the value is clamped) return false. Ticks on an inert or
// stopped timer are no-ops.
func (t *Timer) Tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inert || !t.armed || t.fired || t.remaining <= 0 {
		return false
	}

	t.remaining--
	if t.remaining == 0 {
		t.fired = true
		t.armed = false
		return true
	}
	return false
}

// Run drives the countdown on a real once-per-second clock, invoking
// onExpire on the single tick that reaches zero. It returns immediately; the
// loop runs on its own goroutine until expiry or Stop. No-op for inert or
// unarmed timers.
func (t *Timer) Run(onExpire func()) {
	t.mu.Lock()
	if t.inert || !t.armed || t.stopCh != nil {
		t.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	t.stopCh = stopCh
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				if t.Tick() {
					onExpire()
					return
				}
			}
		}
	}()
}

// Stop halts the countdown immediately. Ticks already scheduled become
// no-ops, so a stop racing a tick cannot trigger a second expiry.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
}
