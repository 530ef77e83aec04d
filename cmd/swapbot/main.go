package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "swapbot",
		Short:        "Randomized Uniswap V3 swap agent for Base",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the swap loop and the daily summary flusher",
		RunE:  runBot,
	}

	addChainFlags(runCmd.Flags())
	runCmd.Flags().Int("min-pct", 10, "minimum percentage of the balance to trade")
	runCmd.Flags().Int("max-pct", 50, "maximum percentage of the balance to trade")
	runCmd.Flags().Duration("min-sleep", time.Second, "minimum pause between iterations (whole seconds)")
	runCmd.Flags().Duration("max-sleep", 10*time.Second, "maximum pause between iterations (whole seconds)")
	runCmd.Flags().Duration("flush-interval", 24*time.Hour, "interval between summary file flushes")
	runCmd.Flags().String("log-dir", ".", "directory for daily transaction summaries")
	runCmd.Flags().String("events-out", "./data/events.jsonl", "event journal JSONL path (empty to disable)")
	runCmd.Flags().String("tx-out", "./data/transactions.jsonl", "transaction ledger JSONL path")
	runCmd.Flags().String("snapshots-out", "./data/balances.jsonl", "balance snapshot JSONL path")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for the transaction ledger (optional)")
	runCmd.Flags().String("state-file", "./data/flusher_state.json", "flusher state file used without Postgres")
	runCmd.Flags().String("http-addr", ":9090", "ops HTTP address for /health, /status and /metrics (empty to disable)")
	runCmd.Flags().String("explorer-url", "https://basescan.org/tx/", "block explorer transaction URL prefix")

	root.AddCommand(runCmd)

	balancesCmd := &cobra.Command{
		Use:   "balances",
		Short: "Print the token balances of every configured account",
		RunE:  runBalances,
	}

	addChainFlags(balancesCmd.Flags())

	root.AddCommand(balancesCmd)

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Resolve the traded pool and print its metadata",
		RunE:  runPool,
	}

	addChainFlags(poolCmd.Flags())
	poolCmd.Flags().Bool("include-live-meta", false, "include liquidity and slot0")

	root.AddCommand(poolCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "Base RPC URL")
	flags.Duration("rpc-timeout", 30*time.Second, "timeout for a single RPC call")
	flags.Duration("receipt-timeout", 5*time.Minute, "maximum wait for a transaction receipt")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
