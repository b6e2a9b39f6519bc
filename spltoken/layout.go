package spltoken

import (
	"errors"
	"fmt"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	ProgramToken     = solana.TokenProgramID
	ProgramToken2022 = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

const (
	MintSize    = 82
	AccountSize = 165
)

var ErrLayout = errors.New("token layout mismatch")

type mintLayout struct {
	MintAuthorityOption   uint32
	MintAuthority         solana.PublicKey
	Supply                uint64
	Decimals              uint8
	IsInitialized         uint8
	FreezeAuthorityOption uint32
	FreezeAuthority       solana.PublicKey
}

// Mint is a decoded token mint. Absent authorities are nil.
type Mint struct {
	MintAuthority   *solana.PublicKey
	FreezeAuthority *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
}

func (m *Mint) SupplyAmount() Amount { return Amount{Raw: m.Supply, Decimals: m.Decimals} }

// HasAuthority reports whether the issuer can still mint or freeze.
func (m *Mint) HasAuthority() bool { return m.MintAuthority != nil || m.FreezeAuthority != nil }

// DecodeMint decodes a mint account. Token-2022 mints carry extensions after the
// base layout, so only the leading 82 bytes are read.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) < MintSize {
		return nil, fmt.Errorf("%w: mint has %d bytes, want %d", ErrLayout, len(data), MintSize)
	}
	var raw mintLayout
	if err := ag_binary.NewBorshDecoder(data[:MintSize]).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLayout, err)
	}

	mint := &Mint{
		Supply:        raw.Supply,
		Decimals:      raw.Decimals,
		IsInitialized: raw.IsInitialized != 0,
	}
	if raw.MintAuthorityOption != 0 {
		mint.MintAuthority = &raw.MintAuthority
	}
	if raw.FreezeAuthorityOption != 0 {
		mint.FreezeAuthority = &raw.FreezeAuthority
	}
	return mint, nil
}

type accountLayout struct {
	Mint                 solana.PublicKey
	Owner                solana.PublicKey
	Amount               uint64
	DelegateOption       uint32
	Delegate             solana.PublicKey
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       solana.PublicKey
}

// Account is the subset of a token account the pipeline reads.
type Account struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

func DecodeAccount(data []byte) (*Account, error) {
	if len(data) < AccountSize {
		return nil, fmt.Errorf("%w: token account has %d bytes, want %d", ErrLayout, len(data), AccountSize)
	}
	var raw accountLayout
	if err := ag_binary.NewBorshDecoder(data[:AccountSize]).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLayout, err)
	}
	return &Account{Mint: raw.Mint, Owner: raw.Owner, Amount: raw.Amount}, nil
}
