package raydium

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ErrAuthorityNotFound means no nonce in the search range produced an off-curve address.
var ErrAuthorityNotFound = errors.New("unable to find a valid program address")

const authorityNonceLimit = 100

// DeriveAuthority finds the market vault signer: the first nonce in [0, 100) for which
// seeds (market, nonce, 7 zero bytes) derive a valid program address.
func DeriveAuthority(programID, marketID solana.PublicKey) (solana.PublicKey, error) {
	return deriveAuthority(programID, marketID, authorityNonceLimit)
}

func deriveAuthority(programID, marketID solana.PublicKey, limit int) (solana.PublicKey, error) {
	padding := make([]byte, 7)
	for nonce := 0; nonce < limit; nonce++ {
		seeds := [][]byte{marketID.Bytes(), {byte(nonce)}, padding}
		addr, err := solana.CreateProgramAddress(seeds, programID)
		if err != nil {
			continue
		}
		return addr, nil
	}
	return solana.PublicKey{}, ErrAuthorityNotFound
}
