package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	mock   *clock.Mock
	sleeps []time.Duration
}

func newRecordingSleeper() *recordingSleeper {
	return &recordingSleeper{mock: clock.NewMock()}
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	s.mock.Add(d)
	return nil
}

func TestRetrier_SucceedsAfterThreeFailures(t *testing.T) {
	sleeper := newRecordingSleeper()
	r := NewRetrier(3, 2*time.Second, sleeper.Sleep)

	var states []State
	r.OnTransition = func(tr Transition) { states = append(states, tr.State) }

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls <= 3 {
			return errors.New("rpc unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeper.sleeps)
	assert.Equal(t, Succeeded, states[len(states)-1])
	assert.Contains(t, states, Waiting)
	assert.Contains(t, states, Retrying)
}

func TestRetrier_Exhausted(t *testing.T) {
	sleeper := newRecordingSleeper()
	r := NewRetrier(3, 2*time.Second, sleeper.Sleep)

	calls := 0
	cause := errors.New("not found")
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return cause
	})
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 4, calls)
	assert.Len(t, sleeper.sleeps, 3)
}

func TestRetrier_PermanentStops(t *testing.T) {
	sleeper := newRecordingSleeper()
	r := NewRetrier(3, time.Second, sleeper.Sleep)

	cause := errors.New("bad signature")
	err := r.Do(context.Background(), func(context.Context) error {
		return backoff.Permanent(cause)
	})
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, sleeper.sleeps)
}

func TestRetrier_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrier(3, time.Second, ClockSleeper(clock.NewMock()))
	err := r.Do(ctx, func(context.Context) error { return errors.New("boom") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoller_DoneWithinTimeout(t *testing.T) {
	sleeper := newRecordingSleeper()
	p := NewPoller(15*time.Second, 220*time.Second, sleeper.mock, sleeper.Sleep)

	var failures int
	p.OnError = func(int, error) { failures++ }

	checks := 0
	err := p.Poll(context.Background(), func(context.Context) (bool, error) {
		checks++
		switch checks {
		case 1:
			return false, errors.New("account not found")
		case 2:
			return false, nil
		default:
			return true, nil
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, checks)
	assert.Equal(t, 1, failures)
	assert.Len(t, sleeper.sleeps, 2)
}

func TestPoller_TimesOut(t *testing.T) {
	sleeper := newRecordingSleeper()
	p := NewPoller(15*time.Second, 220*time.Second, sleeper.mock, sleeper.Sleep)

	checks := 0
	err := p.Poll(context.Background(), func(context.Context) (bool, error) {
		checks++
		return false, nil
	})
	assert.ErrorIs(t, err, ErrTimedOut)
	// Checks at 0s, 15s, ..., 210s. The 225s deadline test fails.
	assert.Equal(t, 15, checks)
}

func TestPoller_Transitions(t *testing.T) {
	sleeper := newRecordingSleeper()
	p := NewPoller(15*time.Second, 20*time.Second, sleeper.mock, sleeper.Sleep)

	var got []Transition
	p.OnTransition = func(tr Transition) { got = append(got, tr) }

	err := p.Poll(context.Background(), func(context.Context) (bool, error) { return false, nil })
	require.ErrorIs(t, err, ErrTimedOut)

	var states []State
	for _, tr := range got {
		states = append(states, tr.State)
	}
	// Checks at 0s and 15s; the 30s deadline test fails.
	assert.Equal(t, []State{Attempting, Waiting, Attempting, Waiting, TimedOut}, states)
	assert.Equal(t, 15*time.Second, got[1].Delay)
	assert.Equal(t, 2, got[len(got)-1].Attempt)

	got = nil
	err = p.Poll(context.Background(), func(context.Context) (bool, error) { return true, nil })
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Succeeded, got[1].State)
}

func TestClockSleeper(t *testing.T) {
	mock := clock.NewMock()
	sleep := ClockSleeper(mock)

	done := make(chan error, 1)
	go func() { done <- sleep(context.Background(), time.Minute) }()

	require.Eventually(t, func() bool {
		mock.Add(time.Minute)
		select {
		case err := <-done:
			return err == nil
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
