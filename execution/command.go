// Package execution hands buy commands to the separate trade execution process.
package execution

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/franco-bianco/poolsniper/raydium"
)

const (
	ActionBuy      = "buy"
	DefaultChannel = "trading"
)

// BuyCommand is the message read by the execution process.
type BuyCommand struct {
	Action      string            `json:"type_"`
	InputToken  string            `json:"in_token"`
	OutputToken string            `json:"out_token"`
	InputAmount float64           `json:"amount_in"`
	PoolKeys    *raydium.PoolKeys `json:"key_z"`
	LpDecimals  uint8             `json:"lp_decimals"`
}

// NewBuyCommand spends amount of the quote token on the base token of keys.
func NewBuyCommand(keys *raydium.PoolKeys, amount decimal.Decimal) *BuyCommand {
	f, _ := amount.Float64()
	return &BuyCommand{
		Action:      ActionBuy,
		InputToken:  keys.QuoteMint,
		OutputToken: keys.BaseMint,
		InputAmount: f,
		PoolKeys:    keys,
		LpDecimals:  keys.LpDecimals,
	}
}

type Publisher interface {
	Publish(ctx context.Context, cmd *BuyCommand) error
	Close() error
}
