package identitysdk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock drives a CooldownTimer deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeTimer() (*CooldownTimer, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	t := NewCooldownTimer()
	t.now = func() time.Time { return clock.now }
	return t, clock
}

func TestCooldownCountsDownToZero(t *testing.T) {
	t.Parallel()
	timer, clock := newFakeTimer()

	timer.Start(30 * time.Second)
	require.Equal(t, 30, timer.Remaining())
	require.False(t, timer.ResendAllowed())

	// Remaining strictly decreases second by second.
	prev := timer.Remaining()
	for i := 0; i < 30; i++ {
		clock.advance(time.Second)
		cur := timer.Remaining()
		require.Less(t, cur, prev)
		prev = cur
	}
	require.Equal(t, 0, timer.Remaining())
	require.True(t, timer.ResendAllowed())
}

func TestCooldownRestartsNotStacks(t *testing.T) {
	t.Parallel()
	timer, clock := newFakeTimer()

	timer.Start(30 * time.Second)
	clock.advance(20 * time.Second)
	require.Equal(t, 10, timer.Remaining())

	// A resend restarts the window from the full duration.
	timer.Start(30 * time.Second)
	require.Equal(t, 30, timer.Remaining())
}

func TestCooldownCancel(t *testing.T) {
	t.Parallel()
	timer, _ := newFakeTimer()

	timer.Start(30 * time.Second)
	timer.Cancel()
	require.True(t, timer.ResendAllowed())
	require.Equal(t, 0, timer.Remaining())
}

func TestCooldownRoundsUp(t *testing.T) {
	t.Parallel()
	timer, clock := newFakeTimer()

	timer.Start(30 * time.Second)
	clock.advance(29*time.Second + 500*time.Millisecond)

	// Half a second left still displays as 1, not 0.
	require.Equal(t, 1, timer.Remaining())
	require.False(t, timer.ResendAllowed())
}

func TestCooldownIdleByDefault(t *testing.T) {
	t.Parallel()
	timer, _ := newFakeTimer()
	require.True(t, timer.ResendAllowed())
}
