package holder

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/franco-bianco/poolsniper/spltoken"
)

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

var poolOwner = key(99)

func holders(t *testing.T, second uint64) []Holder {
	t.Helper()
	supply := spltoken.Amount{Raw: 1000, Decimals: 0}
	return WithPercentages([]Holder{
		{Address: key(2), Amount: spltoken.Amount{Raw: second}},
		{Address: key(1), Owner: poolOwner, Amount: spltoken.Amount{Raw: 600}},
		{Address: key(3), Amount: spltoken.Amount{Raw: 50}},
	}, supply)
}

func TestAnalyze(t *testing.T) {
	assert.NoError(t, Analyze(holders(t, 190), poolOwner, DefaultMaxPct))
	assert.ErrorIs(t, Analyze(holders(t, 210), poolOwner, DefaultMaxPct), ErrConcentrated)
	assert.ErrorIs(t, Analyze(nil, poolOwner, DefaultMaxPct), ErrNoHolders)
}

func TestAnalyze_BoundaryIsAccepted(t *testing.T) {
	assert.NoError(t, Analyze(holders(t, 200), poolOwner, DefaultMaxPct))
}

func TestAnalyze_TopHolderMustBePool(t *testing.T) {
	list := []Holder{
		{Address: key(5), Pct: decimal.NewFromInt(40)},
		{Address: key(1), Owner: poolOwner, Pct: decimal.NewFromInt(30)},
		{Address: key(6), Pct: decimal.NewFromInt(1)},
	}
	assert.ErrorIs(t, Analyze(list, poolOwner, DefaultMaxPct), ErrTopHolderNotPool)

	// Matching by account address covers reports that only list the owner.
	list = []Holder{{Address: poolOwner, Pct: decimal.NewFromInt(70)}}
	assert.NoError(t, Analyze(list, poolOwner, DefaultMaxPct))
}

func TestWithPercentages(t *testing.T) {
	list := holders(t, 190)
	assert.Equal(t, key(1), list[0].Address)
	assert.True(t, list[0].Pct.Equal(decimal.NewFromInt(60)))
	assert.True(t, list[1].Pct.Equal(decimal.NewFromInt(19)))

	zero := WithPercentages([]Holder{{Address: key(1), Amount: spltoken.Amount{Raw: 5}}}, spltoken.Amount{})
	assert.True(t, zero[0].Pct.IsZero())
}
