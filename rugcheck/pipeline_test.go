package rugcheck

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franco-bianco/poolsniper/raydium"
	"github.com/franco-bianco/poolsniper/spltoken"
	"github.com/franco-bianco/poolsniper/spltoken/holder"
)

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func mintData(authority *solana.PublicKey, freeze *solana.PublicKey, supply uint64, decimals uint8) []byte {
	buf := make([]byte, spltoken.MintSize)
	if authority != nil {
		binary.LittleEndian.PutUint32(buf[0:4], 1)
		copy(buf[4:36], authority[:])
	}
	binary.LittleEndian.PutUint64(buf[36:44], supply)
	buf[44] = decimals
	buf[45] = 1
	if freeze != nil {
		binary.LittleEndian.PutUint32(buf[46:50], 1)
		copy(buf[50:82], freeze[:])
	}
	return buf
}

type fakeAccounts struct {
	data  map[solana.PublicKey][]byte
	errs  map[solana.PublicKey]error
	calls map[solana.PublicKey]int
}

func (f *fakeAccounts) GetAccountData(_ context.Context, account solana.PublicKey) ([]byte, error) {
	if f.calls == nil {
		f.calls = map[solana.PublicKey]int{}
	}
	f.calls[account]++
	if err := f.errs[account]; err != nil {
		return nil, err
	}
	return f.data[account], nil
}

type fakeBalances map[solana.PublicKey]spltoken.Amount

func (f fakeBalances) TokenAccountBalance(_ context.Context, account solana.PublicKey) (spltoken.Amount, error) {
	amount, ok := f[account]
	if !ok {
		return spltoken.Amount{}, errors.New("could not find account")
	}
	return amount, nil
}

type fakePrice struct {
	usd decimal.Decimal
	err error
}

func (f fakePrice) NativeUSD(context.Context) (decimal.Decimal, error) { return f.usd, f.err }

type fakeHolders struct {
	holders []holder.Holder
	supply  spltoken.Amount
	err     error
	calls   int
}

func (f *fakeHolders) TopHolders(context.Context, solana.PublicKey) ([]holder.Holder, spltoken.Amount, error) {
	f.calls++
	return f.holders, f.supply, f.err
}

type fakeReports struct {
	report *Report
	err    error
}

func (f fakeReports) Report(context.Context, solana.PublicKey) (*Report, error) { return f.report, f.err }

var (
	baseMint   = key(1)
	lpMint     = key(2)
	baseVault  = key(3)
	quoteVault = key(4)
)

func testPool() *raydium.PoolDescriptor {
	return &raydium.PoolDescriptor{
		ID:           key(9),
		BaseMint:     baseMint,
		QuoteMint:    raydium.NATIVE_SOL_MINT_PROGRAM_ID,
		LpMint:       lpMint,
		BaseVault:    baseVault,
		QuoteVault:   quoteVault,
		BaseDecimals: 6,
		LpDecimals:   0,
		LpReserve:    1000,
	}
}

type harness struct {
	accounts *fakeAccounts
	balances fakeBalances
	price    fakePrice
	holders  *fakeHolders
	reports  ReportSource
	mock     *clock.Mock
	sleeps   int
	cfg      Config
}

func newHarness() *harness {
	supply := spltoken.Amount{Raw: 1000}
	return &harness{
		accounts: &fakeAccounts{data: map[solana.PublicKey][]byte{
			baseMint: mintData(nil, nil, 1000, 6),
			lpMint:   mintData(nil, nil, 150, 0),
		}},
		balances: fakeBalances{
			baseVault:  {Raw: 800_000_000, Decimals: 6},
			quoteVault: {Raw: 10_000_000_000, Decimals: 9},
		},
		price: fakePrice{usd: decimal.NewFromInt(150)},
		holders: &fakeHolders{
			supply: supply,
			holders: holder.WithPercentages([]holder.Holder{
				{Address: key(20), Owner: raydium.RAYDIUM_AUTHORITY_V4_ID, Amount: spltoken.Amount{Raw: 700}},
				{Address: key(21), Amount: spltoken.Amount{Raw: 190}},
			}, supply),
		},
		mock: clock.NewMock(),
		cfg:  DefaultConfig(),
	}
}

func (h *harness) pipeline() *Pipeline {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewPipeline(h.cfg, Deps{
		Accounts: h.accounts,
		Balances: h.balances,
		Prices:   h.price,
		Holders:  h.holders,
		Reports:  h.reports,
		Clock:    h.mock,
		Sleep: func(_ context.Context, d time.Duration) error {
			h.sleeps++
			h.mock.Add(d)
			return nil
		},
	}, log)
}

func TestVerify_Accepted(t *testing.T) {
	h := newHarness()
	v := h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, Accepted, v.Outcome, v.String())
	assert.True(t, v.Accepted())
	assert.Zero(t, h.sleeps)
}

func TestVerify_NativeBase(t *testing.T) {
	h := newHarness()
	pool := testPool()
	pool.BaseMint = raydium.NATIVE_SOL_MINT_PROGRAM_ID

	v := h.pipeline().Verify(context.Background(), pool)
	assert.Equal(t, RejectedBaseIsNativeToken, v.Outcome)
	assert.Empty(t, h.accounts.calls)
}

func TestVerify_AuthorityPresent(t *testing.T) {
	auth := key(50)
	for name, data := range map[string][]byte{
		"mint":   mintData(&auth, nil, 1000, 6),
		"freeze": mintData(nil, &auth, 1000, 6),
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			h.accounts.data[baseMint] = data
			v := h.pipeline().Verify(context.Background(), testPool())
			assert.Equal(t, RejectedAuthorityPresent, v.Outcome)
			assert.Zero(t, h.accounts.calls[lpMint])
		})
	}
}

func TestVerify_ReportAuthority(t *testing.T) {
	h := newHarness()
	report := &Report{}
	auth := key(50).String()
	report.Token.FreezeAuthority = &auth
	h.reports = fakeReports{report: report}

	v := h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedAuthorityPresent, v.Outcome)
}

func TestVerify_ReportFailureFallsBack(t *testing.T) {
	h := newHarness()
	h.reports = fakeReports{err: errors.New("http 502")}

	v := h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, Accepted, v.Outcome, v.String())
	assert.Equal(t, 1, h.holders.calls)
}

func TestVerify_ReportHoldersUsed(t *testing.T) {
	h := newHarness()
	report := &Report{TopHolders: []ReportHolder{
		{Address: key(30).String(), Owner: key(31).String(), Pct: decimal.NewFromInt(55)},
		{Address: key(20).String(), Owner: raydium.RAYDIUM_AUTHORITY_V4_ID.String(), Pct: decimal.NewFromInt(40)},
	}}
	h.reports = fakeReports{report: report}

	v := h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedConcentratedHolder, v.Outcome)
	assert.Zero(t, h.holders.calls)
}

func TestVerify_BurnAcceptedAfterPolling(t *testing.T) {
	h := newHarness()
	h.accounts.data[lpMint] = mintData(nil, nil, 300, 0)
	h.accounts.errs = map[solana.PublicKey]error{}

	p := h.pipeline()
	polls := 0
	accounts := h.accounts
	p.deps.Accounts = accountFunc(func(ctx context.Context, pk solana.PublicKey) ([]byte, error) {
		if pk.Equals(lpMint) {
			polls++
			switch polls {
			case 1:
				return nil, errors.New("timeout")
			case 2:
				return mintData(nil, nil, 300, 0), nil
			}
			return mintData(nil, nil, 150, 0), nil
		}
		return accounts.GetAccountData(ctx, pk)
	})

	v := p.Verify(context.Background(), testPool())
	assert.Equal(t, Accepted, v.Outcome, v.String())
	assert.Equal(t, 3, polls)
	assert.Equal(t, 2, h.sleeps)
}

type accountFunc func(ctx context.Context, pk solana.PublicKey) ([]byte, error)

func (f accountFunc) GetAccountData(ctx context.Context, pk solana.PublicKey) ([]byte, error) {
	return f(ctx, pk)
}

func TestVerify_LowBurnTimesOut(t *testing.T) {
	h := newHarness()
	h.accounts.data[lpMint] = mintData(nil, nil, 300, 0)

	v := h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedLowBurn, v.Outcome)
	assert.Equal(t, 15, h.accounts.calls[lpMint])
	assert.Contains(t, v.Reason, "70.00")
}

func TestVerify_LowLiquidity(t *testing.T) {
	h := newHarness()
	h.balances[quoteVault] = spltoken.Amount{Raw: 1_000_000_000, Decimals: 9}

	v := h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedLowLiquidity, v.Outcome)

	h = newHarness()
	h.cfg.MinLiquidityUSD = decimal.Zero
	h.balances = fakeBalances{}
	v = h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, Accepted, v.Outcome, v.String())
}

func TestVerify_Holders(t *testing.T) {
	h := newHarness()
	h.holders.holders = holder.WithPercentages([]holder.Holder{
		{Address: key(20), Owner: raydium.RAYDIUM_AUTHORITY_V4_ID, Amount: spltoken.Amount{Raw: 700}},
		{Address: key(21), Amount: spltoken.Amount{Raw: 210}},
	}, h.holders.supply)
	v := h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedConcentratedHolder, v.Outcome)

	h = newHarness()
	h.holders.holders = holder.WithPercentages([]holder.Holder{
		{Address: key(22), Amount: spltoken.Amount{Raw: 800}},
		{Address: key(20), Owner: raydium.RAYDIUM_AUTHORITY_V4_ID, Amount: spltoken.Amount{Raw: 100}},
	}, h.holders.supply)
	v = h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedConcentratedHolder, v.Outcome)

	h = newHarness()
	h.holders.supply = spltoken.Amount{}
	v = h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedOther, v.Outcome)
}

func TestVerify_IOErrorsAreRejectedOther(t *testing.T) {
	h := newHarness()
	h.accounts.errs = map[solana.PublicKey]error{baseMint: errors.New("connection reset")}
	v := h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedOther, v.Outcome)
	require.Error(t, v.Err)

	h = newHarness()
	h.price.err = errors.New("http 503")
	v = h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedOther, v.Outcome)

	h = newHarness()
	h.holders.err = errors.New("rate limited")
	v = h.pipeline().Verify(context.Background(), testPool())
	assert.Equal(t, RejectedOther, v.Outcome)
}

func TestBurnPercent(t *testing.T) {
	assert.True(t, BurnPercent(1000, 150, 0).Equal(decimal.NewFromInt(85)))
	assert.True(t, BurnPercent(1000, 300, 0).Equal(decimal.NewFromInt(70)))
	assert.True(t, BurnPercent(0, 0, 9).IsZero())
	assert.True(t, BurnPercent(5_000_000_000, 0, 9).Equal(decimal.NewFromInt(100)))
}

func TestLiquidityUSD(t *testing.T) {
	base := spltoken.Amount{Raw: 800_000_000, Decimals: 6}
	quote := spltoken.Amount{Raw: 10_000_000_000, Decimals: 9}
	got := LiquidityUSD(base, quote, decimal.NewFromInt(150))
	assert.True(t, got.Equal(decimal.NewFromInt(3000)), got.String())

	got = LiquidityUSD(spltoken.Amount{}, quote, decimal.NewFromInt(150))
	assert.True(t, got.Equal(decimal.NewFromInt(1500)), got.String())
}
