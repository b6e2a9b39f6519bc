// Package holder fetches the largest holders of a mint and applies the concentration rule.
package holder

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/franco-bianco/poolsniper/retry"
	"github.com/franco-bianco/poolsniper/spltoken"
)

// Holder is one token account among the largest holders of a mint.
type Holder struct {
	Address solana.PublicKey
	Owner   solana.PublicKey // zero when unresolved
	Amount  spltoken.Amount
	Pct     decimal.Decimal
}

// Is reports whether the holder account or its owner is addr.
func (h Holder) Is(addr solana.PublicKey) bool {
	return h.Address.Equals(addr) || (!h.Owner.IsZero() && h.Owner.Equals(addr))
}

type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType

	maxAttempts int
	base        time.Duration
	sleep       retry.Sleeper
}

func NewClient(client *rpc.Client) *Client {
	return &Client{
		rpc:         client,
		commitment:  rpc.CommitmentConfirmed,
		maxAttempts: 8,
		base:        250 * time.Millisecond,
		sleep:       retry.ClockSleeper(clock.New()),
	}
}

// withRetry retries throttling errors with a linear jittered delay and returns all other errors as is.
// A cancelled ctx ends the wait with ctx's error.
func withRetry[T any](ctx context.Context, c *Client, fn func() (T, error)) (T, error) {
	var out T
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		out, err = fn()
		if err == nil || !isRetryable(err) {
			return out, err
		}
		j := time.Duration(rand.Int63n(int64(150 * time.Millisecond)))
		if serr := c.sleep(ctx, c.base*time.Duration(attempt)+j); serr != nil {
			return out, serr
		}
	}
	return out, err
}

func (c *Client) Supply(ctx context.Context, mint solana.PublicKey) (spltoken.Amount, error) {
	out, err := withRetry(ctx, c, func() (*rpc.GetTokenSupplyResult, error) {
		return c.rpc.GetTokenSupply(ctx, mint, c.commitment)
	})
	if err != nil {
		return spltoken.Amount{}, fmt.Errorf("token supply of %s: %w", mint, err)
	}
	if out == nil || out.Value == nil {
		return spltoken.Amount{}, fmt.Errorf("token supply of %s: empty result", mint)
	}
	return spltoken.ParseAmount(out.Value.Amount, out.Value.Decimals)
}

// TopHolders returns the largest holder accounts of mint ordered by amount, with
// their owners resolved and percentages of the current supply filled in.
func (c *Client) TopHolders(ctx context.Context, mint solana.PublicKey) ([]Holder, spltoken.Amount, error) {
	supply, err := c.Supply(ctx, mint)
	if err != nil {
		return nil, spltoken.Amount{}, err
	}

	largest, err := withRetry(ctx, c, func() (*rpc.GetTokenLargestAccountsResult, error) {
		return c.rpc.GetTokenLargestAccounts(ctx, mint, c.commitment)
	})
	if err != nil {
		return nil, supply, fmt.Errorf("largest accounts of %s: %w", mint, err)
	}

	holders := make([]Holder, 0, len(largest.Value))
	addrs := make([]solana.PublicKey, 0, len(largest.Value))
	for _, v := range largest.Value {
		if v == nil {
			continue
		}
		amount, err := spltoken.ParseAmount(v.Amount, v.Decimals)
		if err != nil {
			return nil, supply, err
		}
		holders = append(holders, Holder{Address: v.Address, Amount: amount})
		addrs = append(addrs, v.Address)
	}

	if len(addrs) > 0 {
		owners, err := c.owners(ctx, addrs)
		if err != nil {
			return nil, supply, err
		}
		for i := range holders {
			holders[i].Owner = owners[holders[i].Address]
		}
	}

	return WithPercentages(holders, supply), supply, nil
}

func (c *Client) owners(ctx context.Context, addrs []solana.PublicKey) (map[solana.PublicKey]solana.PublicKey, error) {
	out, err := withRetry(ctx, c, func() (*rpc.GetMultipleAccountsResult, error) {
		return c.rpc.GetMultipleAccountsWithOpts(ctx, addrs, &rpc.GetMultipleAccountsOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.commitment,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("holder accounts: %w", err)
	}

	owners := make(map[solana.PublicKey]solana.PublicKey, len(addrs))
	for i, acct := range out.Value {
		if acct == nil || acct.Data == nil || i >= len(addrs) {
			continue
		}
		decoded, err := spltoken.DecodeAccount(acct.Data.GetBinary())
		if err != nil {
			continue
		}
		owners[addrs[i]] = decoded.Owner
	}
	return owners, nil
}
