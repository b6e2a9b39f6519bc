// Package chain adapts the solana-go RPC and websocket clients to the interfaces used by the listener and rug checks.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlekSi/pointer"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/franco-bianco/poolsniper/spltoken"
)

// ErrTransactionNotFound is returned while a signature is not yet visible at confirmed commitment.
var ErrTransactionNotFound = errors.New("transaction not found")

type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

func NewClient(client *rpc.Client) *Client {
	return &Client{rpc: client, commitment: rpc.CommitmentConfirmed}
}

// FetchTransaction loads a transaction in jsonParsed encoding.
func (c *Client) FetchTransaction(ctx context.Context, signature string) (*rpc.GetParsedTransactionResult, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	tx, err := c.rpc.GetParsedTransaction(ctx, sig, &rpc.GetParsedTransactionOpts{
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: pointer.ToUint64(0),
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getTransaction(%s): %w", signature, err)
	}
	return tx, nil
}

func (c *Client) GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	out, err := c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo(%s): %w", account, err)
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return nil, fmt.Errorf("getAccountInfo(%s): %w", account, rpc.ErrNotFound)
	}
	return out.Value.Data.GetBinary(), nil
}

func (c *Client) TokenAccountBalance(ctx context.Context, account solana.PublicKey) (spltoken.Amount, error) {
	out, err := c.rpc.GetTokenAccountBalance(ctx, account, c.commitment)
	if err != nil {
		return spltoken.Amount{}, fmt.Errorf("getTokenAccountBalance(%s): %w", account, err)
	}
	if out == nil || out.Value == nil {
		return spltoken.Amount{}, fmt.Errorf("getTokenAccountBalance(%s): empty result", account)
	}
	return spltoken.ParseAmount(out.Value.Amount, out.Value.Decimals)
}
