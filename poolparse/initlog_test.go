package poolparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairRelaxedJSON(t *testing.T) {
	got := RepairRelaxedJSON("{ nonce: 254, open_time: 1700000000, init_pc_amount: 5 }")
	assert.Equal(t, `{ "nonce": 254, "open_time": 1700000000, "init_pc_amount": 5 }`, got)

	// Already quoted keys are left alone.
	assert.Equal(t, `{"a": 1}`, RepairRelaxedJSON(`{"a": 1}`))
}

func TestParseInitLog(t *testing.T) {
	entry, err := ParseInitLog(defaultInitLog)
	require.NoError(t, err)
	require.NotNil(t, entry.OpenTime)
	assert.Equal(t, uint64(1700000000), *entry.OpenTime)
	assert.Equal(t, uint64(254), entry.Nonce)
	assert.Equal(t, uint64(5000000000), entry.InitPcAmount)
	assert.Equal(t, uint64(800000000000), entry.InitCoinAmount)

	_, err = ParseInitLog("Program log: init_pc_amount without payload")
	assert.ErrorIs(t, err, ErrMalformedInitLog)

	_, err = ParseInitLog("Program log: { nonce: 1, init_pc_amount: 2 }")
	assert.ErrorIs(t, err, ErrMissingOpenTime)
}

func TestFindLogEntry(t *testing.T) {
	logs := []string{"Program log: a", defaultInitLog, "Program log: init_pc_amount second"}
	line, ok := FindLogEntry(logs, "init_pc_amount")
	assert.True(t, ok)
	assert.Equal(t, defaultInitLog, line)

	_, ok = FindLogEntry(logs[:1], "init_pc_amount")
	assert.False(t, ok)
}
