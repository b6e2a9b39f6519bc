// Package spltoken decodes SPL token program accounts and normalizes token amounts.
package spltoken

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a raw token quantity in the smallest unit together with its mint decimals.
type Amount struct {
	Raw      uint64
	Decimals uint8
}

// ParseAmount reads the decimal-string amounts used by jsonParsed RPC payloads.
func ParseAmount(raw string, decimals uint8) (Amount, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid token amount %q: %w", raw, err)
	}
	return Amount{Raw: v, Decimals: decimals}, nil
}

// UI returns the amount scaled down by 10^decimals.
func (a Amount) UI() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(a.Raw), -int32(a.Decimals))
}

func (a Amount) IsZero() bool { return a.Raw == 0 }

func (a Amount) String() string { return a.UI().String() }

// Percent returns part/whole*100 on UI values. A zero whole yields zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100))
}
