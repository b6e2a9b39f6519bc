package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/franco-bianco/poolsniper/chain"
	"github.com/franco-bianco/poolsniper/execution"
	"github.com/franco-bianco/poolsniper/listener"
	"github.com/franco-bianco/poolsniper/metrics"
	"github.com/franco-bianco/poolsniper/ops"
	"github.com/franco-bianco/poolsniper/positions"
	"github.com/franco-bianco/poolsniper/raydium"
	"github.com/franco-bianco/poolsniper/rugcheck"
	"github.com/franco-bianco/poolsniper/spltoken/holder"
	"github.com/franco-bianco/poolsniper/spltoken/price"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Subscribe to program logs and process new pools until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListener(cmd.Context())
	},
}

func openPublisher(ctx context.Context) (execution.Publisher, error) {
	if cfg.DryRunFile != "" {
		logger.WithField("file", cfg.DryRunFile).Warn("dry run, buy commands are written to file")
		return execution.OpenJSONLPublisher(cfg.DryRunFile)
	}
	return execution.NewRedisPublisher(ctx, cfg.RedisURL, cfg.PublishChannel)
}

func runListener(ctx context.Context) error {
	rpcClient := rpc.New(cfg.RPCURL)
	chainClient := chain.NewClient(rpcClient)
	m := metrics.New()

	counter, err := positions.New(ctx, cfg.Positions)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	defer func() { _ = counter.Close(context.Background()) }()

	publisher, err := openPublisher(ctx)
	if err != nil {
		return fmt.Errorf("publisher: %w", err)
	}
	defer publisher.Close()

	verifier := rugcheck.NewPipeline(cfg.Trust.Pipeline(), rugcheck.Deps{
		Accounts: chainClient,
		Balances: chainClient,
		Prices:   price.NewClient(cfg.Trust.BinanceBase),
		Holders:  holder.NewClient(rpcClient),
		Reports:  reportSource(cfg.Trust.RugcheckURL),
	}, logger.WithField("component", "rugcheck"))

	stream, err := chain.SubscribeLogs(ctx, cfg.WSSURL, cfg.ProgramAddress)
	if err != nil {
		return err
	}
	defer stream.Close()

	lcfg := listener.DefaultConfig()
	lcfg.ProgramID = cfg.ProgramAddress
	lcfg.NativeMint = raydium.NATIVE_SOL_MINT_PROGRAM_ID
	lcfg.TradeSize = cfg.TradeSizeSOL
	lcfg.MaxRetries = cfg.Listener.MaxRetries
	lcfg.InitialDelay = cfg.Listener.InitialDelay
	lcfg.PositionThreshold = cfg.Listener.PositionThreshold
	lcfg.ThrottleCooldown = cfg.Listener.ThrottleCooldown
	lcfg.DedupCapacity = cfg.Listener.DedupCapacity

	l, err := listener.New(lcfg, listener.Deps{
		Stream:    stream,
		Fetcher:   chainClient,
		Accounts:  chainClient,
		Positions: counter,
		Verifier:  verifier,
		Publisher: publisher,
		Metrics:   m,
	}, logger.WithField("component", "listener"))
	if err != nil {
		return err
	}

	srv := &ops.Server{
		Fetcher:    chainClient,
		ProgramID:  cfg.ProgramAddress,
		NativeMint: raydium.NATIVE_SOL_MINT_PROGRAM_ID,
		Metrics:    m.Handler(),
		Log:        logger.WithField("component", "ops"),
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		// A closed stream ends the process, ops server included.
		defer cancel()
		err := l.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if cfg.OpsAddr != "" {
		g.Go(func() error {
			logger.WithField("addr", cfg.OpsAddr).Info("ops server listening")
			return srv.ListenAndServe(gctx, cfg.OpsAddr)
		})
	}
	return g.Wait()
}

func reportSource(url string) rugcheck.ReportSource {
	if url == "" {
		return nil
	}
	return rugcheck.NewReportClient(url)
}
