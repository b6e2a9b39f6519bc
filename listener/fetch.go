package listener

import (
	"context"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/poolsniper/retry"
)

func (l *Listener) fetch(ctx context.Context, log logrus.FieldLogger, signature string) (*rpc.GetParsedTransactionResult, error) {
	r := retry.NewRetrier(l.cfg.MaxRetries, l.cfg.InitialDelay, l.deps.Sleep)
	r.OnTransition = func(t retry.Transition) {
		if t.State == retry.Waiting {
			l.m.FetchRetries.Inc()
			log.WithError(t.Err).WithFields(logrus.Fields{
				"attempt": t.Attempt,
				"delay":   t.Delay,
			}).Warn("transaction fetch failed, retrying")
		}
	}

	var tx *rpc.GetParsedTransactionResult
	err := r.Do(ctx, func(ctx context.Context) error {
		if err := l.throttle(ctx, log); err != nil {
			return err
		}
		var err error
		tx, err = l.deps.Fetcher.FetchTransaction(ctx, signature)
		return err
	})
	return tx, err
}

// throttle blocks while too many positions are open. Count failures let processing continue.
func (l *Listener) throttle(ctx context.Context, log logrus.FieldLogger) error {
	if l.deps.Positions == nil {
		return nil
	}
	for {
		open, err := l.deps.Positions.CountOpen(ctx)
		if err != nil {
			log.WithError(err).Warn("open positions unavailable")
			return nil
		}
		if open <= l.cfg.PositionThreshold {
			return nil
		}
		l.m.Throttled.Inc()
		log.WithFields(logrus.Fields{
			"open_positions": open,
			"cooldown":       l.cfg.ThrottleCooldown,
		}).Info("too many open positions, pausing")
		if err := l.deps.Sleep(ctx, l.cfg.ThrottleCooldown); err != nil {
			return err
		}
	}
}
