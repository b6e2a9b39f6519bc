package poolparse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/poolsniper/raydium"
	"github.com/franco-bianco/poolsniper/spltoken"
)

type Parser struct {
	tx           *rpc.GetParsedTransactionResult
	programID    solana.PublicKey
	nativeMint   solana.PublicKey
	tokenProgram solana.PublicKey
	Log          logrus.FieldLogger
}

// NewPoolParser parses tx for pools of programID. A nil log falls back to the standard logger.
func NewPoolParser(tx *rpc.GetParsedTransactionResult, programID, nativeMint solana.PublicKey, log logrus.FieldLogger) (*Parser, error) {
	if tx == nil || tx.Meta == nil {
		return nil, stepErr("transaction", ErrMissingMeta)
	}
	if tx.Transaction == nil {
		return nil, stepErr("transaction", ErrMissingMessage)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Parser{
		tx:           tx,
		programID:    programID,
		nativeMint:   nativeMint,
		tokenProgram: spltoken.ProgramToken,
		Log:          log,
	}, nil
}

// Assemble builds the pool descriptor of a pool-creation transaction. It returns
// (nil, nil) when the transaction does not create a pool, and an error matching
// ErrInsufficientData when it does but a required field cannot be read.
func Assemble(tx *rpc.GetParsedTransactionResult, programID, nativeMint solana.PublicKey, log logrus.FieldLogger) (*raydium.PoolDescriptor, error) {
	p, err := NewPoolParser(tx, programID, nativeMint, log)
	if err != nil {
		return nil, err
	}
	pool, err := p.ParsePoolInfo()
	switch {
	case err == nil:
		return pool, nil
	case isNotPool(err):
		return nil, nil
	default:
		return nil, err
	}
}

func isNotPool(err error) bool {
	return err == ErrNoPoolInstruction || err == ErrNotPoolCreation
}

// ParsePoolInfo returns ErrNoPoolInstruction or ErrNotPoolCreation unwrapped for
// transactions that are not pool creations.
func (p *Parser) ParsePoolInfo() (*raydium.PoolDescriptor, error) {
	ix, ok := findPoolInstruction(p.tx.Transaction.Message.Instructions, p.programID)
	if !ok {
		return nil, ErrNoPoolInstruction
	}

	accs, err := readPoolAccounts(ix)
	if err != nil {
		return nil, err
	}

	inner := p.tx.Meta.InnerInstructions
	mintTo, ok := findMintTo(inner, accs.LpMint)
	if !ok {
		p.Log.WithField("lp_mint", accs.LpMint).Debug("no lp mintTo, skipping")
		return nil, ErrNotPoolCreation
	}

	initMint, ok := findInitializeMint(inner, accs.LpMint)
	if !ok {
		return nil, stepErr("lp decimals", ErrMissingInitializeMint)
	}
	lpVault, err := solana.PublicKeyFromBase58(mintTo.Account)
	if err != nil {
		return nil, stepErr("lp vault", fmt.Errorf("%w: %s", ErrBadAccount, err))
	}
	lpReserve, err := parseRaw("lp reserve", mintTo.Amount)
	if err != nil {
		return nil, err
	}

	baseTransfer, ok := findTransferTo(inner, accs.BaseVault, p.tokenProgram)
	if !ok {
		return nil, stepErr("base reserve", ErrMissingBaseTransfer)
	}
	baseReserve, err := parseRaw("base reserve", baseTransfer.Amount)
	if err != nil {
		return nil, err
	}
	quoteTransfer, ok := findTransferTo(inner, accs.QuoteVault, p.tokenProgram)
	if !ok {
		return nil, stepErr("quote reserve", ErrMissingQuoteTransfer)
	}
	quoteReserve, err := parseRaw("quote reserve", quoteTransfer.Amount)
	if err != nil {
		return nil, err
	}

	openTime, err := extractOpenTime(p.tx.Meta.LogMessages)
	if err != nil {
		return nil, err
	}

	pool := &raydium.PoolDescriptor{
		ID:              accs.ID,
		BaseMint:        accs.BaseMint,
		QuoteMint:       accs.QuoteMint,
		LpMint:          accs.LpMint,
		LpDecimals:      initMint.Decimals,
		Version:         raydium.POOL_VERSION,
		ProgramID:       p.programID,
		Authority:       accs.Authority,
		OpenOrders:      accs.OpenOrders,
		TargetOrders:    accs.TargetOrders,
		BaseVault:       accs.BaseVault,
		QuoteVault:      accs.QuoteVault,
		WithdrawQueue:   raydium.WITHDRAW_QUEUE_UNUSED,
		LpVault:         lpVault,
		MarketVersion:   raydium.MARKET_VERSION,
		MarketProgramID: accs.MarketProgramID,
		MarketID:        accs.MarketID,
		BaseReserve:     baseReserve,
		QuoteReserve:    quoteReserve,
		LpReserve:       lpReserve,
		OpenTime:        openTime,
	}

	if pool.BaseMint.Equals(p.nativeMint) {
		pool.BaseMint, pool.QuoteMint = pool.QuoteMint, pool.BaseMint
		pool.BaseVault, pool.QuoteVault = pool.QuoteVault, pool.BaseVault
		pool.BaseReserve, pool.QuoteReserve = pool.QuoteReserve, pool.BaseReserve
	}

	baseDecimals, ok := findPreBalanceDecimals(p.tx.Meta.PreTokenBalances, pool.BaseMint)
	if !ok {
		return nil, stepErr("base decimals", ErrMissingBaseBalance)
	}
	pool.BaseDecimals = baseDecimals

	pool.QuoteDecimals = raydium.NATIVE_DECIMALS
	if !pool.QuoteMint.Equals(p.nativeMint) {
		if pool.QuoteDecimals, ok = findPreBalanceDecimals(p.tx.Meta.PreTokenBalances, pool.QuoteMint); !ok {
			return nil, stepErr("quote decimals", ErrMissingQuoteBalance)
		}
	}

	return pool, nil
}
