package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func failing() error { return errUpstream }
func passing() error { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("github", WithFailureThreshold(3))

	for range 3 {
		require.ErrorIs(t, b.Do(failing, nil), errUpstream)
	}
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil }, nil)
	require.ErrorIs(t, err, ErrOpen)
	assert.False(t, called, "open circuit must not call upstream")
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("discord", WithFailureThreshold(2))

	_ = b.Do(failing, nil)
	require.NoError(t, b.Do(passing, nil))
	_ = b.Do(failing, nil)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	b := New("twitch", WithFailureThreshold(1))
	errBadCode := errors.New("bad code")

	err := b.Do(func() error { return errBadCode }, func(err error) bool { return errors.Is(err, errBadCode) })

	require.ErrorIs(t, err, errBadCode)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenProbes(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var transitions []State
	b := New("youtube",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithCoolDown(time.Minute),
		WithClock(func() time.Time { return now }),
		WithStateChange(func(_ string, _, to State) { transitions = append(transitions, to) }),
	)

	_ = b.Do(failing, nil)
	require.ErrorIs(t, b.Do(passing, nil), ErrOpen)

	now = now.Add(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())

	t.Run("probe failure reopens", func(t *testing.T) {
		require.ErrorIs(t, b.Do(failing, nil), errUpstream)
		assert.Equal(t, StateOpen, b.State())
	})

	now = now.Add(time.Minute)
	require.NoError(t, b.Do(passing, nil))
	require.NoError(t, b.Do(passing, nil))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestBreaker_Reset(t *testing.T) {
	b := New("linkedin", WithFailureThreshold(1))
	_ = b.Do(failing, nil)
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "linkedin", b.Name())
}
