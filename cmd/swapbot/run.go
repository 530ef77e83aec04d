package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapPilot/internal/bot"
	"swapPilot/internal/chain"
	"swapPilot/internal/config"
	"swapPilot/internal/dex"
	"swapPilot/internal/event"
	"swapPilot/internal/journal"
	"swapPilot/internal/observability"
	"swapPilot/internal/storage"
	"swapPilot/internal/storage/postgres"
	"swapPilot/internal/wallet"
)

const (
	recentEvents     = 200
	pgConnectRetries = 5
)

// loadConfig reads .env, then the config file, env and flags.
func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotenv(envFile); err != nil {
		return config.Config{}, nil, err
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// connect dials the RPC endpoint and checks it serves Base.
func connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*chain.Client, *dex.Uniswap, error) {
	if cfg.RPCURL == "" {
		return nil, nil, fmt.Errorf("rpc url is required")
	}
	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		CallTimeout:    cfg.RPCTimeout,
		ReceiptTimeout: cfg.ReceiptTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		chainClient.Close()
		return nil, nil, fmt.Errorf("read chain id: %w", err)
	}
	if chainID.Uint64() != dex.BaseChainID {
		logger.Warn("rpc is not Base mainnet; contract addresses may not exist",
			zap.Uint64("chain_id", chainID.Uint64()))
	}
	return chainClient, dex.NewUniswap(chainClient, chainID, logger.Named("dex")), nil
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
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

	stores := storage.Multi{storage.NewJsonlStorage(cfg.TxOut, cfg.SnapshotsOut)}
	var flushState journal.StateStore = &journal.FileStateStore{Path: cfg.StateFile}
	if cfg.PostgresDSN != "" {
		pg, err := postgres.Connect(ctx, cfg.PostgresDSN, pgConnectRetries, time.Second, logger.Named("postgres"))
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		stores = append(stores, pg)
		flushState = &journal.DBStateStore{Store: pg, Name: "summary_flusher"}
	}

	recent := event.NewRecent(recentEvents)
	sinks := event.Fanout{event.NewLogSink(logger.Named("events")), observability.EventCounter{}, recent}
	if cfg.EventsOut != "" {
		sinks = append(sinks, event.NewJournalSink(cfg.EventsOut, logger))
	}

	session, err := bot.NewSession(bot.SessionOptions{
		Config: bot.Config{
			MinPercent: cfg.MinPercent,
			MaxPercent: cfg.MaxPercent,
			MinSleep:   cfg.MinSleep,
			MaxSleep:   cfg.MaxSleep,
		},
		ChainID:     uniswap.ChainID(),
		ExplorerURL: cfg.ExplorerURL,
		Flusher:     journal.FlusherConfig{Dir: cfg.LogDir, Interval: cfg.FlushInterval},
		FlushState:  flushState,
		Accounts:    accounts,
		Ledger:      uniswap,
		Sink:        sinks,
		Store:       stores,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if cfg.HTTPAddr != "" {
		ops := newOpsServer(cfg.HTTPAddr, session, recent, logger.Named("ops"))
		go ops.serve(ctx)
	}

	logger.Info("swapbot start",
		zap.Int("accounts", accounts.Len()),
		zap.Int("min_pct", cfg.MinPercent),
		zap.Int("max_pct", cfg.MaxPercent),
		zap.Duration("min_sleep", cfg.MinSleep),
		zap.Duration("max_sleep", cfg.MaxSleep),
		zap.String("log_dir", cfg.LogDir),
		zap.Duration("flush_interval", cfg.FlushInterval),
		zap.Bool("postgres", cfg.PostgresDSN != ""),
	)

	return session.Run(ctx)
}
