package holder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/franco-bianco/poolsniper/spltoken"
)

var (
	ErrNoHolders        = errors.New("no holders")
	ErrTopHolderNotPool = errors.New("largest holder is not the pool")
	ErrConcentrated     = errors.New("holder concentration above limit")
)

// DefaultMaxPct is the largest share any non-pool holder may own.
var DefaultMaxPct = decimal.NewFromInt(20)

// WithPercentages fills Pct from supply and sorts by amount, largest first.
func WithPercentages(holders []Holder, supply spltoken.Amount) []Holder {
	total := supply.UI()
	for i := range holders {
		holders[i].Pct = spltoken.Percent(holders[i].Amount.UI(), total)
	}
	sortHolders(holders)
	return holders
}

func sortHolders(holders []Holder) {
	sort.SliceStable(holders, func(i, j int) bool {
		return holders[i].Pct.GreaterThan(holders[j].Pct)
	})
}

// Analyze accepts only when poolOwner is the largest holder and no other holder
// owns more than maxPct of supply. Holders must carry percentages.
func Analyze(holders []Holder, poolOwner solana.PublicKey, maxPct decimal.Decimal) error {
	if len(holders) == 0 {
		return ErrNoHolders
	}
	sorted := append([]Holder(nil), holders...)
	sortHolders(sorted)

	if !sorted[0].Is(poolOwner) {
		return fmt.Errorf("%w: %s holds %s%%", ErrTopHolderNotPool, sorted[0].Address, sorted[0].Pct.StringFixed(2))
	}
	for _, h := range sorted[1:] {
		if h.Is(poolOwner) {
			continue
		}
		if h.Pct.GreaterThan(maxPct) {
			return fmt.Errorf("%w: %s holds %s%%", ErrConcentrated, h.Address, h.Pct.StringFixed(2))
		}
	}
	return nil
}
