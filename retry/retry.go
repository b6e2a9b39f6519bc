// Package retry implements bounded retry with exponential backoff and bounded polling.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
)

var (
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrTimedOut         = errors.New("polling timed out")
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ClockSleeper sleeps on c.
func ClockSleeper(c clock.Clock) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		t := c.Timer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}

type State int

const (
	Attempting State = iota
	Waiting
	Retrying
	Succeeded
	Exhausted
	TimedOut
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Waiting:
		return "waiting"
	case Retrying:
		return "retrying"
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	case TimedOut:
		return "timed_out"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transition is reported to observers on every state change.
type Transition struct {
	State   State
	Attempt int
	Delay   time.Duration
	Err     error
}

// Retrier runs an operation up to MaxRetries+1 times, sleeping between attempts
// for InitialDelay, InitialDelay*Multiplier, and so on.
type Retrier struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
	Sleep        Sleeper
	OnTransition func(Transition)
}

func NewRetrier(maxRetries int, initialDelay time.Duration, sleep Sleeper) *Retrier {
	return &Retrier{
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		Multiplier:   2,
		Sleep:        sleep,
	}
}

func (r *Retrier) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialDelay
	b.Multiplier = r.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(1<<63 - 1)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (r *Retrier) emit(t Transition) {
	if r.OnTransition != nil {
		r.OnTransition(t)
	}
}

// Do returns nil on the first successful attempt. Errors wrapped with
// backoff.Permanent stop retrying immediately.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	schedule := r.schedule()
	sleep := r.Sleep
	if sleep == nil {
		sleep = ClockSleeper(clock.New())
	}

	for attempt := 1; ; attempt++ {
		r.emit(Transition{State: Attempting, Attempt: attempt})
		err := op(ctx)
		if err == nil {
			r.emit(Transition{State: Succeeded, Attempt: attempt})
			return nil
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if attempt > r.MaxRetries {
			r.emit(Transition{State: Exhausted, Attempt: attempt, Err: err})
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}

		delay := schedule.NextBackOff()
		r.emit(Transition{State: Waiting, Attempt: attempt, Delay: delay, Err: err})
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		r.emit(Transition{State: Retrying, Attempt: attempt + 1})
	}
}
