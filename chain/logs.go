package chain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"

	"github.com/franco-bianco/poolsniper/listener"
)

// LogStream receives processed-commitment log notifications for every transaction mentioning a program.
type LogStream struct {
	client *ws.Client
	sub    *ws.LogSubscription
}

func SubscribeLogs(ctx context.Context, wssURL string, program solana.PublicKey) (*LogStream, error) {
	client, err := ws.Connect(ctx, wssURL)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", wssURL, err)
	}
	sub, err := client.LogsSubscribeMentions(program, rpc.CommitmentProcessed)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("logsSubscribe(%s): %w", program, err)
	}
	return &LogStream{client: client, sub: sub}, nil
}

// Recv blocks for the next notification. Any subscription failure ends the stream.
func (s *LogStream) Recv(ctx context.Context) (*listener.LogEvent, error) {
	res, err := s.sub.Recv(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", listener.ErrStreamClosed, err)
	}
	if res == nil {
		return nil, listener.ErrStreamClosed
	}
	return &listener.LogEvent{
		Signature: res.Value.Signature.String(),
		Logs:      res.Value.Logs,
		Err:       res.Value.Err,
	}, nil
}

func (s *LogStream) Close() {
	s.sub.Unsubscribe()
	s.client.Close()
}
