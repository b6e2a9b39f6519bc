package listener

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/poolsniper/poolparse"
	"github.com/franco-bianco/poolsniper/raydium"
)

// Inspect fetches one transaction and assembles its pool descriptor without
// verifying or buying. Non-pool transactions return poolparse.ErrNotPoolCreation.
func Inspect(ctx context.Context, fetcher TransactionFetcher, signature string, programID, nativeMint solana.PublicKey, log logrus.FieldLogger) (*raydium.PoolDescriptor, error) {
	tx, err := fetcher.FetchTransaction(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", signature, err)
	}
	pool, err := poolparse.Assemble(tx, programID, nativeMint, log)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, poolparse.ErrNotPoolCreation
	}
	return pool, nil
}
