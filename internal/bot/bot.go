package bot

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"swapPilot/internal/event"
	"swapPilot/internal/model"
	"swapPilot/internal/observability"
	"swapPilot/internal/storage"
	"swapPilot/internal/wallet"
)

// Iteration outcomes, also used as metric labels.
const (
	OutcomeSwapped      = "swapped"
	OutcomeBelowMinimum = "below_minimum"
	OutcomeInsufficient = "insufficient"
	OutcomeFailed       = "failed"
)

// Config tunes trade sizing and pacing.
type Config struct {
	MinPercent int
	MaxPercent int
	MinSleep   time.Duration
	MaxSleep   time.Duration
}

// DefaultConfig trades 10-50% of a balance and sleeps 1-10 seconds.
func DefaultConfig() Config {
	return Config{MinPercent: 10, MaxPercent: 50, MinSleep: time.Second, MaxSleep: 10 * time.Second}
}

// Validate checks percentage and sleep bounds. Sleeps are whole seconds.
func (c Config) Validate() error {
	if c.MinPercent < 0 || c.MaxPercent > 100 || c.MinPercent > c.MaxPercent {
		return fmt.Errorf("%w: min=%d max=%d", ErrAmountRange, c.MinPercent, c.MaxPercent)
	}
	if c.MinSleep < time.Second || c.MaxSleep < c.MinSleep {
		return fmt.Errorf("invalid sleep range: min=%s max=%s", c.MinSleep, c.MaxSleep)
	}
	if c.MinSleep%time.Second != 0 || c.MaxSleep%time.Second != 0 {
		return fmt.Errorf("sleep bounds must be whole seconds: min=%s max=%s", c.MinSleep, c.MaxSleep)
	}
	return nil
}

// Pair is the traded token pair with the minimum trade size of each side.
type Pair struct {
	Native    model.Token
	Stable    model.Token
	MinNative *big.Int
	MinStable *big.Int
}

// Bot is the swap loop. Only one account and one trade are in flight at a time.
type Bot struct {
	cfg      Config
	pair     Pair
	chainID  uint64
	accounts *wallet.Pool
	ledger   Ledger
	executor *Executor
	sink     event.Sink
	store    storage.Storage
	status   *Status
	rand     Rand
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	logger   *zap.Logger
}

func newBot(cfg Config, pair Pair, chainID uint64, accounts *wallet.Pool, ledger Ledger, executor *Executor, sink event.Sink, store storage.Storage, rnd Rand, logger *zap.Logger) *Bot {
	return &Bot{
		cfg:      cfg,
		pair:     pair,
		chainID:  chainID,
		accounts: accounts,
		ledger:   ledger,
		executor: executor,
		sink:     sink,
		store:    store,
		status:   newStatus(time.Now()),
		rand:     rnd,
		sleep:    sleepContext,
		now:      time.Now,
		logger:   logger,
	}
}

// Run loops until ctx is cancelled. Iteration failures are reported and
// never stop the loop.
func (b *Bot) Run(ctx context.Context) error {
	b.publishLog("Starting swap bot...")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := b.now()
		outcome, err := b.iterate(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				b.sink.Publish(event.NewError(err, b.now()))
			}
			b.logger.Warn("iteration failed", zap.Error(err))
			b.status.recordError(err, b.now())
			outcome = OutcomeFailed
		}
		b.status.recordIteration(outcome)
		observability.RecordIteration(outcome, b.now().Sub(start).Seconds())

		if err := b.pause(ctx); err != nil {
			return err
		}
	}
}

func (b *Bot) iterate(ctx context.Context) (string, error) {
	account := b.accounts.Pick(b.rand)
	b.publishLog("Using account: " + account.Address.Hex())

	nativeBal, err := b.ledger.BalanceOf(ctx, b.pair.Native.Address, account.Address)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("read %s balance: %w", b.pair.Native.Symbol, err)
	}
	stableBal, err := b.ledger.BalanceOf(ctx, b.pair.Stable.Address, account.Address)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("read %s balance: %w", b.pair.Stable.Symbol, err)
	}
	b.publishBalances(ctx, account, nativeBal, stableBal)

	if err := ctx.Err(); err != nil {
		return OutcomeFailed, err
	}

	switch {
	case nativeBal.Cmp(b.pair.MinNative) >= 0:
		return b.trade(ctx, account, b.pair.Native, b.pair.Stable, nativeBal, b.pair.MinNative)
	case stableBal.Cmp(b.pair.MinStable) >= 0:
		return b.trade(ctx, account, b.pair.Stable, b.pair.Native, stableBal, b.pair.MinStable)
	default:
		b.publishLog("Insufficient balance to perform any swap.")
		return OutcomeInsufficient, nil
	}
}

func (b *Bot) trade(ctx context.Context, account *wallet.Account, tokenIn, tokenOut model.Token, balance, minimum *big.Int) (string, error) {
	amount, err := RandomAmount(balance, b.cfg.MinPercent, b.cfg.MaxPercent, b.rand)
	if err != nil {
		return OutcomeFailed, err
	}
	if amount.Cmp(minimum) < 0 {
		b.publishLog(fmt.Sprintf("The %s amount to swap is below the allowed minimum.", tokenIn.Symbol))
		return OutcomeBelowMinimum, nil
	}
	if err := b.executor.Execute(ctx, account, tokenIn, tokenOut, amount); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeSwapped, nil
}

func (b *Bot) publishBalances(ctx context.Context, account *wallet.Account, nativeBal, stableBal *big.Int) {
	now := b.now()
	address := account.Address.Hex()
	nativeAmt := b.pair.Native.Format(nativeBal)
	stableAmt := b.pair.Stable.Format(stableBal)

	b.sink.Publish(event.NewBalance(address, nativeAmt, stableAmt, now))
	observability.SetBalance(address, b.pair.Native.Symbol, nativeAmt.InexactFloat64())
	observability.SetBalance(address, b.pair.Stable.Symbol, stableAmt.InexactFloat64())
	b.status.recordBalances(address, map[string]string{
		b.pair.Native.Symbol: nativeAmt.String(),
		b.pair.Stable.Symbol: stableAmt.String(),
	})

	if b.store == nil {
		return
	}
	snap := model.BalanceSnapshot{
		ChainID: b.chainID,
		Account: address,
		WETH:    nativeAmt.String(),
		USDC:    stableAmt.String(),
		TakenAt: now.UTC(),
	}
	if err := b.store.PutBalanceSnapshots(ctx, []model.BalanceSnapshot{snap}); err != nil {
		b.logger.Warn("balance snapshot write failed", zap.String("account", address), zap.Error(err))
	}
}

// pause sleeps a uniformly random whole number of seconds within the
// configured bounds.
func (b *Bot) pause(ctx context.Context) error {
	minS := int(b.cfg.MinSleep / time.Second)
	maxS := int(b.cfg.MaxSleep / time.Second)
	secs := minS + b.rand.Intn(maxS-minS+1)
	b.publishLog(fmt.Sprintf("Waiting %d seconds before the next iteration.", secs))
	return b.sleep(ctx, time.Duration(secs)*time.Second)
}

func (b *Bot) publishLog(msg string) {
	b.sink.Publish(event.NewLog(msg, b.now()))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
