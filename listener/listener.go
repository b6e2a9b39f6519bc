// Package listener turns program log notifications into verified buy commands.
package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/poolsniper/execution"
	"github.com/franco-bianco/poolsniper/metrics"
	"github.com/franco-bianco/poolsniper/poolparse"
	"github.com/franco-bianco/poolsniper/raydium"
	"github.com/franco-bianco/poolsniper/retry"
	"github.com/franco-bianco/poolsniper/rugcheck"
)

// ErrStreamClosed is returned by a LogStream whose upstream has gone away.
var ErrStreamClosed = errors.New("log stream closed")

// LogEvent is one logs notification for a transaction mentioning the program.
type LogEvent struct {
	Signature string
	Logs      []string
	Err       any
}

type (
	LogStream interface {
		Recv(ctx context.Context) (*LogEvent, error)
	}

	TransactionFetcher interface {
		FetchTransaction(ctx context.Context, signature string) (*rpc.GetParsedTransactionResult, error)
	}

	PositionCounter interface {
		CountOpen(ctx context.Context) (int64, error)
	}

	Verifier interface {
		Verify(ctx context.Context, pool *raydium.PoolDescriptor) rugcheck.Verdict
	}

	Publisher interface {
		Publish(ctx context.Context, cmd *execution.BuyCommand) error
	}
)

type Config struct {
	ProgramID  solana.PublicKey
	NativeMint solana.PublicKey
	TradeSize  decimal.Decimal

	MaxRetries   int
	InitialDelay time.Duration

	// Processing pauses for ThrottleCooldown while more than PositionThreshold positions are open.
	PositionThreshold int64
	ThrottleCooldown  time.Duration

	DedupCapacity int
}

func DefaultConfig() Config {
	return Config{
		ProgramID:         raydium.RAYDIUM_V4_PROGRAM_ID,
		NativeMint:        raydium.NATIVE_SOL_MINT_PROGRAM_ID,
		TradeSize:         decimal.RequireFromString("0.005"),
		MaxRetries:        3,
		InitialDelay:      2 * time.Second,
		PositionThreshold: 3,
		ThrottleCooldown:  600 * time.Second,
		DedupCapacity:     10000,
	}
}

type Deps struct {
	Stream    LogStream
	Fetcher   TransactionFetcher
	Accounts  raydium.AccountFetcher
	Positions PositionCounter
	Verifier  Verifier
	Publisher Publisher

	Sleep   retry.Sleeper
	Metrics *metrics.Metrics
}

type Listener struct {
	cfg  Config
	deps Deps
	seen *lru.Cache[string, struct{}]
	m    *metrics.Metrics
	log  logrus.FieldLogger
}

func New(cfg Config, deps Deps, log logrus.FieldLogger) (*Listener, error) {
	seen, err := lru.New[string, struct{}](cfg.DedupCapacity)
	if err != nil {
		return nil, fmt.Errorf("dedup cache: %w", err)
	}
	if deps.Sleep == nil {
		deps.Sleep = retry.ClockSleeper(clock.New())
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Listener{cfg: cfg, deps: deps, seen: seen, m: m, log: log}, nil
}

// Run processes events one at a time until the stream closes or ctx is done.
// A closed stream ends the run without error.
func (l *Listener) Run(ctx context.Context) error {
	l.log.WithField("program", l.cfg.ProgramID).Info("listening for new pools")
	for {
		ev, err := l.deps.Stream.Recv(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) || errors.Is(err, ErrStreamClosed) {
				l.log.Info("log stream closed")
				return nil
			}
			return fmt.Errorf("receive log event: %w", err)
		}
		if ev == nil {
			continue
		}
		l.HandleEvent(ctx, ev)
	}
}

func hasInitMarker(logs []string) bool {
	for _, line := range logs {
		if strings.Contains(line, raydium.InitLogMarker) {
			return true
		}
	}
	return false
}

// HandleEvent filters, deduplicates and processes a single event. It never fails:
// every problem ends with the candidate being logged and dropped.
func (l *Listener) HandleEvent(ctx context.Context, ev *LogEvent) {
	if ev.Err != nil {
		l.m.FailedTxs.Inc()
		return
	}
	if !hasInitMarker(ev.Logs) {
		return
	}
	l.m.EventsSeen.Inc()

	if found, _ := l.seen.ContainsOrAdd(ev.Signature, struct{}{}); found {
		l.m.Duplicates.Inc()
		l.log.WithField("signature", ev.Signature).Debug("duplicate signature")
		return
	}

	l.process(ctx, l.log.WithField("signature", ev.Signature), ev.Signature)
}

func (l *Listener) drop(log logrus.FieldLogger, reason string, err error) {
	l.m.Dropped.WithLabelValues(reason).Inc()
	entry := log.WithField("reason", reason)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("candidate dropped")
}

func (l *Listener) process(ctx context.Context, log logrus.FieldLogger, signature string) {
	tx, err := l.fetch(ctx, log, signature)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		l.m.Dropped.WithLabelValues("fetch").Inc()
		log.WithError(err).Error("transaction fetch failed, dropping candidate")
		return
	}
	if poolparse.Failed(tx.Meta) {
		l.drop(log, "failed_tx", nil)
		return
	}

	pool, err := poolparse.Assemble(tx, l.cfg.ProgramID, l.cfg.NativeMint, log)
	switch {
	case err != nil:
		l.drop(log, "insufficient_data", err)
		return
	case pool == nil:
		l.drop(log, "not_pool", nil)
		return
	}
	log = log.WithFields(logrus.Fields{"pool": pool.ID, "base_mint": pool.BaseMint})
	log.WithField("open_time", pool.OpenTime).Info("new pool")

	start := time.Now()
	verdict := l.deps.Verifier.Verify(ctx, pool)
	l.m.VerifyDuration.Observe(time.Since(start).Seconds())
	l.m.Verdicts.WithLabelValues(verdict.Outcome.String()).Inc()
	if !verdict.Accepted() {
		log.WithField("verdict", verdict.Outcome).Info(verdict.String())
		return
	}

	if err := l.buy(ctx, log, pool); err != nil {
		l.m.PublishErrors.Inc()
		log.WithError(err).Error("buy not sent")
	}
}

func (l *Listener) buy(ctx context.Context, log logrus.FieldLogger, pool *raydium.PoolDescriptor) error {
	market, err := raydium.FetchMarketState(ctx, l.deps.Accounts, pool.MarketID)
	if err != nil {
		return err
	}
	keys, err := raydium.NewPoolKeys(pool, market)
	if err != nil {
		return err
	}

	cmd := execution.NewBuyCommand(keys, l.cfg.TradeSize)
	if err := l.deps.Publisher.Publish(ctx, cmd); err != nil {
		return err
	}
	l.m.BuysPublished.Inc()
	log.WithField("amount_in", cmd.InputAmount).Info("buy command published")
	return nil
}
