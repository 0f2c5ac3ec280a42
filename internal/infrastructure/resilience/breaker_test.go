package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func call(b *Breaker, fail bool) error {
	_, err := Do(b, func() (string, error) {
		if fail {
			return "", errBoom
		}
		return "ok", nil
	})
	return err
}

// fakeClock lets tests move past the cooldown without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(settings Settings) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := New("test", settings)
	b.now = clock.now
	return b, clock
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		threshold     uint32
		calls         []bool // true = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			threshold:     2,
			calls:         []bool{false, false, false},
			expectedState: StateClosed,
		},
		{
			name:          "opens after consecutive failures",
			threshold:     3,
			calls:         []bool{true, true, true},
			expectedState: StateOpen,
		},
		{
			name:          "success resets the streak",
			threshold:     3,
			calls:         []bool{true, true, false, true, true},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBreaker(Settings{FailureThreshold: tt.threshold, Cooldown: time.Minute})
			for _, fail := range tt.calls {
				call(b, fail)
			}
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	b, _ := newTestBreaker(Settings{FailureThreshold: 1, Cooldown: time.Minute})

	assert.ErrorIs(t, call(b, true), errBoom)
	assert.ErrorIs(t, call(b, false), ErrCircuitOpen)

	counts := b.Counts()
	assert.Equal(t, uint64(1), counts.Calls)
	assert.Equal(t, uint64(1), counts.Failures)
	assert.Equal(t, uint64(1), counts.Rejected)
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b, clock := newTestBreaker(Settings{FailureThreshold: 1, Cooldown: time.Minute})
	call(b, true)
	require.Equal(t, StateOpen, b.State())

	clock.advance(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())

	// A failed probe reopens.
	assert.ErrorIs(t, call(b, true), errBoom)
	assert.Equal(t, StateOpen, b.State())

	clock.advance(time.Minute)
	require.NoError(t, call(b, false))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerSingleProbe(t *testing.T) {
	b, clock := newTestBreaker(Settings{FailureThreshold: 1, Cooldown: time.Second})
	call(b, true)
	clock.advance(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := Do(b, func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- err
	}()

	<-started
	assert.ErrorIs(t, call(b, false), ErrCircuitOpen, "second probe rejected")
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerIsFailure(t *testing.T) {
	b, _ := newTestBreaker(Settings{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return err != nil && !errors.Is(err, errBoom) },
	})
	call(b, true)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	b, clock := newTestBreaker(Settings{
		FailureThreshold: 2,
		Cooldown:         time.Second,
		OnStateChange: func(name string, from State, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	call(b, true)
	call(b, true)
	clock.advance(time.Second)
	call(b, false)

	assert.Equal(t, []string{
		"test:closed->open",
		"test:open->half-open",
		"test:half-open->closed",
	}, transitions)
}
