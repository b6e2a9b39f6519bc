package poolparse

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/franco-bianco/poolsniper/spltoken"
)

// Account positions of the AMM v4 initialize2 instruction.
const (
	accPoolID       = 4
	accAuthority    = 5
	accOpenOrders   = 6
	accLpMint       = 7
	accBaseMint     = 8
	accQuoteMint    = 9
	accBaseVault    = 10
	accQuoteVault   = 11
	accTargetOrders = 13
	accMarketProg   = 15
	accMarketID     = 16

	minPoolAccounts = accMarketID + 1
)

type poolAccounts struct {
	ID, Authority, OpenOrders, TargetOrders solana.PublicKey
	LpMint, BaseMint, QuoteMint             solana.PublicKey
	BaseVault, QuoteVault                   solana.PublicKey
	MarketProgramID, MarketID               solana.PublicKey
}

// findPoolInstruction returns the first partially decoded top-level instruction of programID.
func findPoolInstruction(instructions []*rpc.ParsedInstruction, programID solana.PublicKey) (*rpc.ParsedInstruction, bool) {
	for _, ix := range instructions {
		if ix != nil && isPartiallyDecoded(ix) && ix.ProgramId.Equals(programID) {
			return ix, true
		}
	}
	return nil, false
}

func readPoolAccounts(ix *rpc.ParsedInstruction) (*poolAccounts, error) {
	if len(ix.Accounts) < minPoolAccounts {
		return nil, stepErr("pool accounts", fmt.Errorf("%w: got %d, want %d", ErrMissingAccounts, len(ix.Accounts), minPoolAccounts))
	}
	at := func(i int) solana.PublicKey { return ix.Accounts[i] }

	return &poolAccounts{
		ID:              at(accPoolID),
		Authority:       at(accAuthority),
		OpenOrders:      at(accOpenOrders),
		TargetOrders:    at(accTargetOrders),
		LpMint:          at(accLpMint),
		BaseMint:        at(accBaseMint),
		QuoteMint:       at(accQuoteMint),
		BaseVault:       at(accBaseVault),
		QuoteVault:      at(accQuoteVault),
		MarketProgramID: at(accMarketProg),
		MarketID:        at(accMarketID),
	}, nil
}

// eachInner visits every decodable inner instruction in order until fn returns true.
func eachInner(groups []rpc.ParsedInnerInstruction, fn func(ix *rpc.ParsedInstruction, decoded TokenInstruction) bool) {
	for g := range groups {
		for _, ix := range groups[g].Instructions {
			if ix == nil {
				continue
			}
			decoded, err := DecodeInstruction(ix)
			if err != nil {
				continue
			}
			if fn(ix, decoded) {
				return
			}
		}
	}
}

func findInitializeMint(groups []rpc.ParsedInnerInstruction, mint solana.PublicKey) (*InitializeMint, bool) {
	var found *InitializeMint
	want := mint.String()
	eachInner(groups, func(_ *rpc.ParsedInstruction, decoded TokenInstruction) bool {
		if v, ok := decoded.(InitializeMint); ok && v.Mint == want {
			found = &v
			return true
		}
		return false
	})
	return found, found != nil
}

func findMintTo(groups []rpc.ParsedInnerInstruction, mint solana.PublicKey) (*MintTo, bool) {
	var found *MintTo
	want := mint.String()
	eachInner(groups, func(_ *rpc.ParsedInstruction, decoded TokenInstruction) bool {
		if v, ok := decoded.(MintTo); ok && v.Mint == want {
			found = &v
			return true
		}
		return false
	})
	return found, found != nil
}

// findTransferTo returns the first transfer into destination. A zero tokenProgram skips the program filter.
func findTransferTo(groups []rpc.ParsedInnerInstruction, destination, tokenProgram solana.PublicKey) (*Transfer, bool) {
	var found *Transfer
	want := destination.String()
	eachInner(groups, func(ix *rpc.ParsedInstruction, decoded TokenInstruction) bool {
		v, ok := decoded.(Transfer)
		if !ok || v.Destination != want {
			return false
		}
		if !tokenProgram.IsZero() && !ix.ProgramId.Equals(tokenProgram) {
			return false
		}
		found = &v
		return true
	})
	return found, found != nil
}

func findPreBalanceDecimals(balances []rpc.TokenBalance, mint solana.PublicKey) (uint8, bool) {
	for _, b := range balances {
		if b.Mint.Equals(mint) && b.UiTokenAmount != nil {
			return b.UiTokenAmount.Decimals, true
		}
	}
	return 0, false
}

func parseRaw(step, raw string) (uint64, error) {
	amount, err := spltoken.ParseAmount(raw, 0)
	if err != nil {
		return 0, stepErr(step, fmt.Errorf("%w: %s", ErrBadAmount, err))
	}
	return amount.Raw, nil
}
