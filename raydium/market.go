package raydium

import (
	"context"
	"errors"
	"fmt"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrMarketLayout is returned when account data does not match the v3 market layout.
var ErrMarketLayout = errors.New("market layout mismatch")

// MarketStateV3Size is the exact byte length of an OpenBook/Serum v3 market account.
const MarketStateV3Size = 388

// MarketStateV3 mirrors the on-chain market account byte for byte.
type MarketStateV3 struct {
	Padding [13]byte

	OwnAddress       solana.PublicKey
	VaultSignerNonce uint64

	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey

	BaseVault         solana.PublicKey
	BaseDepositsTotal uint64
	BaseFeesAccrued   uint64

	QuoteVault         solana.PublicKey
	QuoteDepositsTotal uint64
	QuoteFeesAccrued   uint64

	QuoteDustThreshold uint64

	RequestQueue solana.PublicKey
	EventQueue   solana.PublicKey

	Bids solana.PublicKey
	Asks solana.PublicKey

	BaseLotSize  uint64
	QuoteLotSize uint64

	FeeRateBps uint64

	ReferrerRebatesAccrued uint64

	PaddingEnd [7]byte
}

// DecodeMarketState decodes a market account blob. It is all-or-nothing.
func DecodeMarketState(data []byte) (*MarketStateV3, error) {
	if len(data) != MarketStateV3Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrMarketLayout, len(data), MarketStateV3Size)
	}

	var market MarketStateV3
	decoder := ag_binary.NewBorshDecoder(data)
	if err := decoder.Decode(&market); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMarketLayout, err)
	}
	if decoder.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMarketLayout, decoder.Remaining())
	}
	return &market, nil
}

// AccountFetcher returns the raw data of an account.
type AccountFetcher interface {
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

// FetchMarketState loads and decodes the market account of a pool.
func FetchMarketState(ctx context.Context, fetcher AccountFetcher, marketID solana.PublicKey) (*MarketStateV3, error) {
	data, err := fetcher.GetAccountData(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market %s: %w", marketID, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to fetch market %s: empty data", marketID)
	}
	market, err := DecodeMarketState(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode market %s: %w", marketID, err)
	}
	return market, nil
}
