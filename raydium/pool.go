package raydium

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PoolDescriptor is the canonical description of a freshly initialized AMM v4 pool.
// Base and quote are normalized so the native mint is never the base side.
type PoolDescriptor struct {
	ID        solana.PublicKey
	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey
	LpMint    solana.PublicKey

	BaseDecimals  uint8
	QuoteDecimals uint8
	LpDecimals    uint8

	Version      uint8
	ProgramID    solana.PublicKey
	Authority    solana.PublicKey
	OpenOrders   solana.PublicKey
	TargetOrders solana.PublicKey

	BaseVault     solana.PublicKey
	QuoteVault    solana.PublicKey
	WithdrawQueue solana.PublicKey
	LpVault       solana.PublicKey

	MarketVersion   uint8
	MarketProgramID solana.PublicKey
	MarketID        solana.PublicKey

	BaseReserve  uint64
	QuoteReserve uint64
	LpReserve    uint64

	OpenTime uint64
}

// PoolKeys is the string-serialized pool description handed to the execution layer.
type PoolKeys struct {
	ID               string `json:"id"`
	BaseMint         string `json:"base_mint"`
	QuoteMint        string `json:"quote_mint"`
	LpMint           string `json:"lp_mint"`
	BaseDecimals     uint8  `json:"base_decimals"`
	QuoteDecimals    uint8  `json:"quote_decimals"`
	LpDecimals       uint8  `json:"lp_decimals"`
	Version          uint8  `json:"version"`
	ProgramID        string `json:"program_id"`
	Authority        string `json:"authority"`
	OpenOrders       string `json:"open_orders"`
	TargetOrders     string `json:"target_orders"`
	BaseVault        string `json:"base_vault"`
	QuoteVault       string `json:"quote_vault"`
	WithdrawQueue    string `json:"withdraw_queue"`
	LpVault          string `json:"lp_vault"`
	MarketVersion    uint8  `json:"market_version"`
	MarketProgramID  string `json:"market_program_id"`
	MarketID         string `json:"market_id"`
	MarketAuthority  string `json:"market_authority"`
	MarketBaseVault  string `json:"market_base_vault"`
	MarketQuoteVault string `json:"market_quote_vault"`
	MarketBids       string `json:"market_bids"`
	MarketAsks       string `json:"market_asks"`
	MarketEventQueue string `json:"market_event_queue"`
}

// NewPoolKeys combines a descriptor with its decoded market and derived market authority.
func NewPoolKeys(pool *PoolDescriptor, market *MarketStateV3) (*PoolKeys, error) {
	marketAuthority, err := DeriveAuthority(pool.MarketProgramID, pool.MarketID)
	if err != nil {
		return nil, fmt.Errorf("market authority for %s: %w", pool.MarketID, err)
	}

	return &PoolKeys{
		ID:               pool.ID.String(),
		BaseMint:         pool.BaseMint.String(),
		QuoteMint:        pool.QuoteMint.String(),
		LpMint:           pool.LpMint.String(),
		BaseDecimals:     pool.BaseDecimals,
		QuoteDecimals:    pool.QuoteDecimals,
		LpDecimals:       pool.LpDecimals,
		Version:          pool.Version,
		ProgramID:        pool.ProgramID.String(),
		Authority:        pool.Authority.String(),
		OpenOrders:       pool.OpenOrders.String(),
		TargetOrders:     pool.TargetOrders.String(),
		BaseVault:        pool.BaseVault.String(),
		QuoteVault:       pool.QuoteVault.String(),
		WithdrawQueue:    pool.WithdrawQueue.String(),
		LpVault:          pool.LpVault.String(),
		MarketVersion:    pool.MarketVersion,
		MarketProgramID:  pool.MarketProgramID.String(),
		MarketID:         pool.MarketID.String(),
		MarketAuthority:  marketAuthority.String(),
		MarketBaseVault:  market.BaseVault.String(),
		MarketQuoteVault: market.QuoteVault.String(),
		MarketBids:       market.Bids.String(),
		MarketAsks:       market.Asks.String(),
		MarketEventQueue: market.EventQueue.String(),
	}, nil
}
