package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapPilot/internal/bot"
	"swapPilot/internal/dex"
	"swapPilot/internal/model"
	"swapPilot/internal/wallet"
)

type poolReport struct {
	Pool   model.Pool        `json:"pool"`
	Tokens []model.TokenMeta `json:"tokens"`
}

func runBalances(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	accounts, err := wallet.NewPool(cfg.PrivateKeys)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, uniswap, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	pair := bot.DefaultPair()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ACCOUNT\t%s\t%s\n", pair.Native.Symbol, pair.Stable.Symbol)
	for _, account := range accounts.Accounts() {
		native, err := uniswap.BalanceOf(ctx, pair.Native.Address, account.Address)
		if err != nil {
			return fmt.Errorf("%s balance of %s: %w", pair.Native.Symbol, account, err)
		}
		stable, err := uniswap.BalanceOf(ctx, pair.Stable.Address, account.Address)
		if err != nil {
			return fmt.Errorf("%s balance of %s: %w", pair.Stable.Symbol, account, err)
		}
		logger.Debug("balances",
			zap.String("account", account.Address.Hex()),
			zap.String("native", native.String()),
			zap.String("stable", stable.String()),
		)
		fmt.Fprintf(w, "%s\t%s\t%s\n", account.Address.Hex(), pair.Native.Format(native), pair.Stable.Format(stable))
	}
	return w.Flush()
}

func runPool(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	includeLive, _ := cmd.Flags().GetBool("include-live-meta")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, uniswap, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	pool, err := uniswap.Pool(ctx, dex.WETH.Address, dex.USDC.Address, dex.FeeTier)
	if err != nil {
		return err
	}
	if includeLive {
		pool.PoolMeta = dex.FetchPoolState(ctx, chainClient, common.HexToAddress(pool.Address), pool.PoolMeta, logger)
	}

	report := poolReport{Pool: pool}
	for _, token := range []string{pool.Token0, pool.Token1} {
		meta, err := dex.FetchTokenMeta(ctx, chainClient, common.HexToAddress(token), logger)
		if err != nil {
			return fmt.Errorf("token %s: %w", token, err)
		}
		report.Tokens = append(report.Tokens, meta)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
