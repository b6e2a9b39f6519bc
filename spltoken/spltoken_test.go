package spltoken

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func mintBlob(mintAuth, freezeAuth *solana.PublicKey, supply uint64, decimals uint8) []byte {
	buf := make([]byte, MintSize)
	if mintAuth != nil {
		binary.LittleEndian.PutUint32(buf[0:4], 1)
		copy(buf[4:36], mintAuth[:])
	}
	binary.LittleEndian.PutUint64(buf[36:44], supply)
	buf[44] = decimals
	buf[45] = 1
	if freezeAuth != nil {
		binary.LittleEndian.PutUint32(buf[46:50], 1)
		copy(buf[50:82], freezeAuth[:])
	}
	return buf
}

func TestDecodeMint(t *testing.T) {
	auth := key(7)

	mint, err := DecodeMint(mintBlob(nil, nil, 1_000_000, 6))
	require.NoError(t, err)
	assert.Nil(t, mint.MintAuthority)
	assert.Nil(t, mint.FreezeAuthority)
	assert.False(t, mint.HasAuthority())
	assert.True(t, mint.IsInitialized)
	assert.Equal(t, uint64(1_000_000), mint.Supply)
	assert.Equal(t, "1", mint.SupplyAmount().String())

	mint, err = DecodeMint(mintBlob(&auth, nil, 5, 0))
	require.NoError(t, err)
	require.NotNil(t, mint.MintAuthority)
	assert.Equal(t, auth, *mint.MintAuthority)
	assert.True(t, mint.HasAuthority())

	mint, err = DecodeMint(mintBlob(nil, &auth, 5, 0))
	require.NoError(t, err)
	require.NotNil(t, mint.FreezeAuthority)
	assert.True(t, mint.HasAuthority())

	// Token-2022 extensions trail the base layout.
	_, err = DecodeMint(append(mintBlob(nil, nil, 1, 0), make([]byte, 90)...))
	assert.NoError(t, err)

	_, err = DecodeMint(make([]byte, MintSize-1))
	assert.ErrorIs(t, err, ErrLayout)
}

func TestDecodeAccount(t *testing.T) {
	buf := make([]byte, AccountSize)
	mint, owner := key(1), key(2)
	copy(buf[0:32], mint[:])
	copy(buf[32:64], owner[:])
	binary.LittleEndian.PutUint64(buf[64:72], 4242)

	acct, err := DecodeAccount(buf)
	require.NoError(t, err)
	assert.Equal(t, mint, acct.Mint)
	assert.Equal(t, owner, acct.Owner)
	assert.Equal(t, uint64(4242), acct.Amount)

	_, err = DecodeAccount(buf[:100])
	assert.ErrorIs(t, err, ErrLayout)
}

func TestAmount(t *testing.T) {
	a, err := ParseAmount("123456789", 6)
	require.NoError(t, err)
	assert.True(t, a.UI().Equal(decimal.RequireFromString("123.456789")))
	assert.False(t, a.IsZero())

	_, err = ParseAmount("12.5", 6)
	assert.Error(t, err)
	_, err = ParseAmount("", 6)
	assert.Error(t, err)

	assert.True(t, Percent(decimal.NewFromInt(850), decimal.NewFromInt(1000)).Equal(decimal.NewFromInt(85)))
	assert.True(t, Percent(decimal.NewFromInt(1), decimal.Zero).IsZero())
}
