package retry

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Poller repeats a check every Interval until it reports done or Timeout has
// elapsed since the first check. The deadline is tested before each check.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    clock.Clock
	Sleep    Sleeper

	// OnError observes check errors. They never stop polling.
	OnError func(attempt int, err error)
	// OnTransition observes Attempting, Waiting, Succeeded and TimedOut.
	OnTransition func(Transition)
}

func NewPoller(interval, timeout time.Duration, c clock.Clock, sleep Sleeper) *Poller {
	if c == nil {
		c = clock.New()
	}
	if sleep == nil {
		sleep = ClockSleeper(c)
	}
	return &Poller{Interval: interval, Timeout: timeout, Clock: c, Sleep: sleep}
}

func (p *Poller) emit(t Transition) {
	if p.OnTransition != nil {
		p.OnTransition(t)
	}
}

func (p *Poller) Poll(ctx context.Context, check func(ctx context.Context) (bool, error)) error {
	start := p.Clock.Now()
	for attempt := 1; ; attempt++ {
		if p.Clock.Since(start) > p.Timeout {
			p.emit(Transition{State: TimedOut, Attempt: attempt - 1, Err: ErrTimedOut})
			return ErrTimedOut
		}

		p.emit(Transition{State: Attempting, Attempt: attempt})
		done, err := check(ctx)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if p.OnError != nil {
				p.OnError(attempt, err)
			}
		case done:
			p.emit(Transition{State: Succeeded, Attempt: attempt})
			return nil
		}

		p.emit(Transition{State: Waiting, Attempt: attempt, Delay: p.Interval, Err: err})
		if err := p.Sleep(ctx, p.Interval); err != nil {
			return err
		}
	}
}
