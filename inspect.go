package main

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"github.com/franco-bianco/poolsniper/chain"
	"github.com/franco-bianco/poolsniper/listener"
	"github.com/franco-bianco/poolsniper/raydium"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <signature>",
	Short: "Print the pool descriptor assembled from one transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := chain.NewClient(rpc.New(cfg.RPCURL))
		pool, err := listener.Inspect(cmd.Context(), client, args[0], cfg.ProgramAddress, raydium.NATIVE_SOL_MINT_PROGRAM_ID, logger)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(pool, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
