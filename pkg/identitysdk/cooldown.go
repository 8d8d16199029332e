package identitysdk

import (
	"sync"
	"time"
)

// CooldownTimer tracks the resend window for one active challenge. It is
// deadline-based rather than tick-based: callers sample Remaining on their
// own cadence (typically once per second) and there is no goroutine to leak
// when a flow is torn down.
//
// Starting an already-running timer restarts it; windows never stack. There
// is exactly one timer per challenge, owned by the challenge's Flow.
type CooldownTimer struct {
	mu       sync.Mutex
	deadline time.Time

	now func() time.Time // test hook
}

func NewCooldownTimer() *CooldownTimer {
	return &CooldownTimer{now: time.Now}
}

// Start begins (or restarts) the window.
func (t *CooldownTimer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deadline = t.now().Add(d)
}

// Cancel ends the window immediately, re-allowing resend.
func (t *CooldownTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deadline = time.Time{}
}

// Remaining returns the whole seconds left in the window, rounding up so a
// displayed countdown only reaches 0 when resend is genuinely allowed.
func (t *CooldownTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	left := t.deadline.Sub(t.now())
	if left <= 0 {
		return 0
	}
	secs := int(left / time.Second)
	if left%time.Second != 0 {
		secs++
	}
	return secs
}

// ResendAllowed reports whether the window has elapsed (or never started).
func (t *CooldownTimer) ResendAllowed() bool {
	return t.Remaining() == 0
}
