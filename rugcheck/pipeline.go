package rugcheck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/poolsniper/raydium"
	"github.com/franco-bianco/poolsniper/retry"
	"github.com/franco-bianco/poolsniper/spltoken"
	"github.com/franco-bianco/poolsniper/spltoken/holder"
)

type (
	AccountFetcher interface {
		GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
	}

	BalanceFetcher interface {
		TokenAccountBalance(ctx context.Context, account solana.PublicKey) (spltoken.Amount, error)
	}

	PriceSource interface {
		NativeUSD(ctx context.Context) (decimal.Decimal, error)
	}

	HolderSource interface {
		TopHolders(ctx context.Context, mint solana.PublicKey) ([]holder.Holder, spltoken.Amount, error)
	}

	ReportSource interface {
		Report(ctx context.Context, mint solana.PublicKey) (*Report, error)
	}
)

type Config struct {
	NativeMint solana.PublicKey
	// PoolOwner owns every AMM vault and must be the largest base holder.
	PoolOwner solana.PublicKey

	BurnInterval time.Duration
	BurnTimeout  time.Duration
	MinBurnPct   decimal.Decimal

	// MinLiquidityUSD of zero skips the liquidity stage.
	MinLiquidityUSD decimal.Decimal
	MaxHolderPct    decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		NativeMint:      raydium.NATIVE_SOL_MINT_PROGRAM_ID,
		PoolOwner:       raydium.RAYDIUM_AUTHORITY_V4_ID,
		BurnInterval:    15 * time.Second,
		BurnTimeout:     220 * time.Second,
		MinBurnPct:      decimal.NewFromInt(80),
		MinLiquidityUSD: decimal.NewFromInt(1000),
		MaxHolderPct:    holder.DefaultMaxPct,
	}
}

// Deps are the collaborators of a pipeline. Reports is optional.
type Deps struct {
	Accounts AccountFetcher
	Balances BalanceFetcher
	Prices   PriceSource
	Holders  HolderSource
	Reports  ReportSource

	Clock clock.Clock
	Sleep retry.Sleeper
}

type Pipeline struct {
	cfg  Config
	deps Deps
	log  logrus.FieldLogger
}

func NewPipeline(cfg Config, deps Deps, log logrus.FieldLogger) *Pipeline {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Sleep == nil {
		deps.Sleep = retry.ClockSleeper(deps.Clock)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{cfg: cfg, deps: deps, log: log}
}

// Verify runs every stage in order and stops at the first rejection.
func (p *Pipeline) Verify(ctx context.Context, pool *raydium.PoolDescriptor) Verdict {
	log := p.log.WithFields(logrus.Fields{"pool": pool.ID, "base_mint": pool.BaseMint})

	if pool.BaseMint.Equals(p.cfg.NativeMint) {
		return reject(RejectedBaseIsNativeToken, "base mint %s is the native mint", pool.BaseMint)
	}

	report, verdict := p.checkAuthority(ctx, log, pool.BaseMint)
	if !verdict.Accepted() {
		return verdict
	}

	if verdict := p.checkBurn(ctx, log, pool); !verdict.Accepted() {
		return verdict
	}

	if verdict := p.checkLiquidity(ctx, log, pool); !verdict.Accepted() {
		return verdict
	}

	return p.checkHolders(ctx, log, pool.BaseMint, report)
}

// checkAuthority decodes the base mint on chain, then consults the report when
// one is configured. A failed report fetch falls back to the on-chain result.
func (p *Pipeline) checkAuthority(ctx context.Context, log logrus.FieldLogger, mint solana.PublicKey) (*Report, Verdict) {
	data, err := p.deps.Accounts.GetAccountData(ctx, mint)
	if err != nil {
		return nil, failed(fmt.Errorf("fetch base mint: %w", err))
	}
	decoded, err := spltoken.DecodeMint(data)
	if err != nil {
		return nil, failed(fmt.Errorf("decode base mint: %w", err))
	}
	if decoded.MintAuthority != nil {
		return nil, reject(RejectedAuthorityPresent, "mint authority %s", decoded.MintAuthority)
	}
	if decoded.FreezeAuthority != nil {
		return nil, reject(RejectedAuthorityPresent, "freeze authority %s", decoded.FreezeAuthority)
	}

	if p.deps.Reports == nil {
		return nil, accept()
	}
	report, err := p.deps.Reports.Report(ctx, mint)
	if err != nil {
		log.WithError(err).Warn("trust report unavailable, using on-chain checks only")
		return nil, accept()
	}
	if report.HasAuthority() {
		return nil, reject(RejectedAuthorityPresent, "report lists a live authority")
	}
	log.WithField("score", report.Score).Debug("trust report")
	return report, accept()
}

// BurnPercent is (reserve - supply) / reserve * 100, both scaled by decimals.
func BurnPercent(lpReserve, onChainSupply uint64, decimals uint8) decimal.Decimal {
	reserve := spltoken.Amount{Raw: lpReserve, Decimals: decimals}.UI()
	supply := spltoken.Amount{Raw: onChainSupply, Decimals: decimals}.UI()
	return spltoken.Percent(reserve.Sub(supply), reserve)
}

func (p *Pipeline) checkBurn(ctx context.Context, log logrus.FieldLogger, pool *raydium.PoolDescriptor) Verdict {
	poller := retry.NewPoller(p.cfg.BurnInterval, p.cfg.BurnTimeout, p.deps.Clock, p.deps.Sleep)
	poller.OnError = func(attempt int, err error) {
		log.WithError(err).WithField("attempt", attempt).Debug("burn poll failed")
	}
	poller.OnTransition = func(t retry.Transition) {
		if t.State == retry.TimedOut {
			log.WithField("checks", t.Attempt).Info("lp burn polling timed out")
		}
	}

	var last decimal.Decimal
	err := poller.Poll(ctx, func(ctx context.Context) (bool, error) {
		data, err := p.deps.Accounts.GetAccountData(ctx, pool.LpMint)
		if err != nil {
			return false, err
		}
		lp, err := spltoken.DecodeMint(data)
		if err != nil {
			return false, err
		}
		last = BurnPercent(pool.LpReserve, lp.Supply, pool.LpDecimals)
		log.WithField("burn_pct", last.StringFixed(2)).Debug("lp burn")
		return last.GreaterThan(p.cfg.MinBurnPct), nil
	})

	switch {
	case err == nil:
		return accept()
	case errors.Is(err, retry.ErrTimedOut):
		return reject(RejectedLowBurn, "burn %s%% after %s", last.StringFixed(2), p.cfg.BurnTimeout)
	default:
		return failed(fmt.Errorf("burn polling: %w", err))
	}
}

// LiquidityUSD values both vaults in USD, pricing the base side at the pool ratio.
func LiquidityUSD(base, quote spltoken.Amount, nativeUSD decimal.Decimal) decimal.Decimal {
	baseUI, quoteUI := base.UI(), quote.UI()
	value := quoteUI.Mul(nativeUSD)
	if !baseUI.IsZero() {
		basePriceInNative := quoteUI.Div(baseUI)
		value = value.Add(baseUI.Mul(basePriceInNative).Mul(nativeUSD))
	}
	return value
}

func (p *Pipeline) checkLiquidity(ctx context.Context, log logrus.FieldLogger, pool *raydium.PoolDescriptor) Verdict {
	if !p.cfg.MinLiquidityUSD.IsPositive() {
		return accept()
	}

	base, err := p.deps.Balances.TokenAccountBalance(ctx, pool.BaseVault)
	if err != nil {
		return failed(fmt.Errorf("base vault balance: %w", err))
	}
	quote, err := p.deps.Balances.TokenAccountBalance(ctx, pool.QuoteVault)
	if err != nil {
		return failed(fmt.Errorf("quote vault balance: %w", err))
	}
	usd, err := p.deps.Prices.NativeUSD(ctx)
	if err != nil {
		return failed(fmt.Errorf("native price: %w", err))
	}

	liquidity := LiquidityUSD(base, quote, usd)
	log.WithField("liquidity_usd", liquidity.StringFixed(2)).Debug("pool liquidity")
	if liquidity.LessThan(p.cfg.MinLiquidityUSD) {
		return reject(RejectedLowLiquidity, "liquidity $%s below $%s", liquidity.StringFixed(2), p.cfg.MinLiquidityUSD)
	}
	return accept()
}

func (p *Pipeline) checkHolders(ctx context.Context, log logrus.FieldLogger, mint solana.PublicKey, report *Report) Verdict {
	holders := reportHolders(report)
	if len(holders) == 0 {
		list, supply, err := p.deps.Holders.TopHolders(ctx, mint)
		if err != nil {
			return failed(fmt.Errorf("top holders: %w", err))
		}
		if supply.IsZero() {
			return failed(errors.New("base mint has zero supply"))
		}
		holders = list
	}

	if err := holder.Analyze(holders, p.cfg.PoolOwner, p.cfg.MaxHolderPct); err != nil {
		if errors.Is(err, holder.ErrTopHolderNotPool) || errors.Is(err, holder.ErrConcentrated) {
			return reject(RejectedConcentratedHolder, "%s", err)
		}
		return failed(err)
	}
	log.WithField("holders", len(holders)).Debug("holder concentration ok")
	return accept()
}

func reportHolders(report *Report) []holder.Holder {
	if report == nil {
		return nil
	}
	out := make([]holder.Holder, 0, len(report.TopHolders))
	for _, h := range report.TopHolders {
		addr, err := solana.PublicKeyFromBase58(h.Address)
		if err != nil {
			continue
		}
		owner, _ := solana.PublicKeyFromBase58(h.Owner)
		out = append(out, holder.Holder{
			Address: addr,
			Owner:   owner,
			Amount:  spltoken.Amount{Raw: h.Amount, Decimals: report.Token.Decimals},
			Pct:     h.Pct,
		})
	}
	return out
}
