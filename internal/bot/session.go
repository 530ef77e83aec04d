package bot

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swapPilot/internal/dex"
	"swapPilot/internal/event"
	"swapPilot/internal/journal"
	"swapPilot/internal/model"
	"swapPilot/internal/storage"
	"swapPilot/internal/wallet"
)

// SessionOptions wires a session. Zero values fall back to the Base
// deployment defaults.
type SessionOptions struct {
	Config      Config
	Pair        Pair
	ChainID     uint64
	ExplorerURL string
	Flusher     journal.FlusherConfig
	FlushState  journal.StateStore
	Accounts    *wallet.Pool
	Ledger      Ledger
	Sink        event.Sink
	Store       storage.Storage
	Rand        Rand
	Logger      *zap.Logger
}

// DefaultPair trades the WETH slot against USDC with minimums of 0.01 and 10.
func DefaultPair() Pair {
	return Pair{
		Native:    dex.WETH,
		Stable:    dex.USDC,
		MinNative: mustParse(dex.WETH, "0.01"),
		MinStable: dex.USDC.Units(10),
	}
}

// Session owns the summary buffer, the loop and the daily flusher and runs
// them under one context.
type Session struct {
	buffer  *journal.Buffer
	flusher *journal.Flusher
	bot     *Bot
	logger  *zap.Logger
}

func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Accounts == nil || opts.Accounts.Len() == 0 {
		return nil, wallet.ErrNoAccounts
	}
	if opts.Ledger == nil {
		return nil, errors.New("session requires a ledger")
	}
	if opts.Config == (Config{}) {
		opts.Config = DefaultConfig()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Pair.MinNative == nil || opts.Pair.MinStable == nil {
		opts.Pair = DefaultPair()
	}
	if opts.ChainID == 0 {
		opts.ChainID = dex.BaseChainID
	}
	if opts.Sink == nil {
		opts.Sink = event.Discard
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	buffer := journal.NewBuffer()
	flusher, err := journal.NewFlusher(opts.Flusher, buffer, opts.FlushState, opts.Logger.Named("journal"))
	if err != nil {
		return nil, err
	}
	executor := NewExecutor(ExecutorConfig{
		ChainID:     opts.ChainID,
		FeeTier:     dex.FeeTier,
		ExplorerURL: opts.ExplorerURL,
	}, opts.Ledger, opts.Sink, buffer, opts.Store, opts.Logger.Named("executor"))

	loop := newBot(opts.Config, opts.Pair, opts.ChainID, opts.Accounts, opts.Ledger, executor, opts.Sink, opts.Store, opts.Rand, opts.Logger.Named("loop"))

	return &Session{buffer: buffer, flusher: flusher, bot: loop, logger: opts.Logger}, nil
}

// Run blocks until ctx is cancelled or a component fails. The flusher is
// stopped only after the loop has returned, so its shutdown flush sees every
// line the last iteration wrote.
func (s *Session) Run(ctx context.Context) error {
	flushCtx, stopFlusher := context.WithCancel(context.WithoutCancel(ctx))
	defer stopFlusher()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.flusher.Run(flushCtx)
	})
	g.Go(func() error {
		defer stopFlusher()
		return s.bot.Run(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Info("session stopped")
		return nil
	}
	return err
}

// Status reports loop progress and the number of unflushed summary lines.
func (s *Session) Status() Snapshot {
	snap := s.bot.status.Snapshot()
	snap.PendingLines = s.buffer.Len()
	return snap
}

// Buffer exposes the summary buffer.
func (s *Session) Buffer() *journal.Buffer {
	return s.buffer
}

func mustParse(token model.Token, value string) *big.Int {
	v, err := token.Parse(value)
	if err != nil {
		panic(fmt.Sprintf("parse constant %q: %v", value, err))
	}
	return v
}
