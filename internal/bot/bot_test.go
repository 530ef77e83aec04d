package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapPilot/internal/dex"
	"swapPilot/internal/event"
	"swapPilot/internal/journal"
	"swapPilot/internal/model"
	"swapPilot/internal/wallet"
)

type harness struct {
	session *Session
	ledger  *fakeLedger
	events  *event.Recent
	store   *memStore
	sleeps  []time.Duration
}

// newHarness wires a session around the fake ledger with an in-memory sink.
func newHarness(t *testing.T, ledger *fakeLedger, rnd Rand) *harness {
	t.Helper()
	h := &harness{ledger: ledger, events: event.NewRecent(0), store: &memStore{}}
	session, err := NewSession(SessionOptions{
		Accounts: testAccounts(t),
		Ledger:   ledger,
		Sink:     h.events,
		Store:    h.store,
		Rand:     rnd,
		Flusher:  journal.FlusherConfig{Dir: t.TempDir(), Interval: time.Hour},
	})
	require.NoError(t, err)
	h.session = session
	return h
}

func (h *harness) runIterations(t *testing.T, n int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.session.bot.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		if len(h.sleeps) >= n {
			cancel()
			return ctx.Err()
		}
		return nil
	}
	err := h.session.bot.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func (h *harness) logs() []string {
	var out []string
	for _, e := range h.events.OfType(event.TypeLog) {
		out = append(out, e.Message())
	}
	return out
}

func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func TestInsufficientBalanceEmitsOneLogAndNoTransactions(t *testing.T) {
	ledger := newFakeLedger()
	ledger.setBalance(dex.WETH, "0.009")
	ledger.setBalance(dex.USDC, "9.99")
	h := newHarness(t, ledger, newSeqRand(0, 0))

	h.runIterations(t, 1)

	assert.Equal(t, 1, countPrefix(h.logs(), "Insufficient balance"))
	assert.Empty(t, h.events.OfType(event.TypeTransaction))
	assert.Empty(t, h.events.OfType(event.TypeError))
	assert.Len(t, h.events.OfType(event.TypeBalance), 1)
	assert.Equal(t, 0, ledger.count("approve"))
	assert.Equal(t, OutcomeInsufficient, firstOutcome(h))
}

func TestAmountBelowMinimumSkipsExecution(t *testing.T) {
	ledger := newFakeLedger()
	ledger.setBalance(dex.WETH, "0.015")
	// draw index 0 over [10,50] picks 10%: 0.0015 < 0.01
	h := newHarness(t, ledger, newSeqRand(0, 0, 0))

	h.runIterations(t, 1)

	assert.Equal(t, 1, countPrefix(h.logs(), "The KNRT amount to swap is below the allowed minimum."))
	assert.Zero(t, ledger.count("approve"))
	assert.Zero(t, ledger.count("pool"))
	assert.Zero(t, ledger.count("quote"))
	assert.Zero(t, ledger.count("swap"))
	assert.Empty(t, h.events.OfType(event.TypeTransaction))
}

func TestStableDirectionBelowMinimum(t *testing.T) {
	ledger := newFakeLedger()
	ledger.setBalance(dex.USDC, "50")
	h := newHarness(t, ledger, newSeqRand(0, 0, 0))

	h.runIterations(t, 1)

	assert.Equal(t, 1, countPrefix(h.logs(), "The USDC amount to swap is below the allowed minimum."))
	assert.Zero(t, ledger.count("approve"))
}

func TestSwapScenarioEmitsEventsInOrder(t *testing.T) {
	ledger := newFakeLedger()
	ledger.setBalance(dex.WETH, "1")
	// account 0, 30% of balance, sleep 5s
	h := newHarness(t, ledger, newSeqRand(0, 20, 4))

	h.runIterations(t, 1)

	var sequence []string
	for _, e := range h.events.Events() {
		label := string(e.Type)
		if e.Type == event.TypeTransaction {
			label += ":" + e.Payload.(event.Transaction).Type
		}
		if e.Type == event.TypeLog {
			label += ":" + strings.SplitN(e.Message(), ":", 2)[0]
		}
		sequence = append(sequence, label)
	}
	assert.Equal(t, []string{
		"log:Starting swap bot...",
		"log:Using account",
		"balance",
		"transaction:approval",
		"log:Approval transaction confirmed",
		"log:Fetching quote for",
		"log:Swap amount",
		"quote",
		"transaction:swap",
		"log:Swap transaction confirmed",
		"log:Waiting 5 seconds before the next iteration.",
	}, sequence)
	assert.Equal(t, []time.Duration{5 * time.Second}, h.sleeps)

	approval := h.events.OfType(event.TypeTransaction)[0].Payload.(event.Transaction)
	assert.Equal(t, "300000000000000000", approval.Amount)
	assert.Equal(t, dex.WETH.Address.Hex(), approval.Token)

	quote := h.events.OfType(event.TypeQuote)[0].Payload.(event.Quote)
	assert.Equal(t, "KNRT", quote.TokenIn)
	assert.Equal(t, "USDC", quote.TokenOut)
	assert.Equal(t, "0.3", quote.AmountIn.String())
	assert.Equal(t, "750", quote.EstimatedAmountOut.String())

	swap := h.events.OfType(event.TypeTransaction)[1].Payload.(event.Transaction)
	assert.Equal(t, "0.3", swap.AmountIn.String())
	assert.Equal(t, "750", swap.AmountOut.String())

	require.NotNil(t, ledger.lastSwap)
	assert.Equal(t, "735000000", ledger.lastSwap.AmountOutMinimum.String())
	assert.Equal(t, dex.FeeTier, ledger.lastSwap.Fee)
	assert.Equal(t, dex.WETH.Address, ledger.lastSwap.TokenIn)
	assert.Equal(t, dex.USDC.Address, ledger.lastSwap.TokenOut)

	assert.Len(t, h.store.txs, 2)
	assert.Len(t, h.store.snapshots, 1)
	assert.Equal(t, OutcomeSwapped, firstOutcome(h))
}

func TestApprovalFailureEmitsExactlyOneError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.setBalance(dex.WETH, "1")
	ledger.approveErr = errors.New("insufficient funds for gas")
	h := newHarness(t, ledger, newSeqRand(0, 20, 0))

	h.runIterations(t, 1)

	errs := h.events.OfType(event.TypeError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message(), "token approval failed")
	assert.Contains(t, errs[0].Message(), "insufficient funds for gas")
	assert.Empty(t, h.events.OfType(event.TypeTransaction))
	assert.Zero(t, ledger.count("pool"))
	assert.Zero(t, ledger.count("quote"))
	assert.Zero(t, ledger.count("swap"))
	assert.Len(t, h.sleeps, 1, "loop must still sleep after a failure")
	assert.Equal(t, OutcomeFailed, firstOutcome(h))
}

func TestPoolNotFoundIsReportedOnce(t *testing.T) {
	ledger := newFakeLedger()
	ledger.setBalance(dex.WETH, "1")
	ledger.poolErr = dex.ErrPoolNotFound
	h := newHarness(t, ledger, newSeqRand(0, 20, 0))

	h.runIterations(t, 1)

	errs := h.events.OfType(event.TypeError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message(), "pool lookup failed")
	assert.Len(t, h.events.OfType(event.TypeTransaction), 1, "only the approval was sent")
	assert.Zero(t, ledger.count("quote"))
}

func TestQuoteFailureStopsBeforeSwap(t *testing.T) {
	ledger := newFakeLedger()
	ledger.setBalance(dex.USDC, "100")
	ledger.quoteErr = errors.New("execution reverted")
	h := newHarness(t, ledger, newSeqRand(0, 20, 0))

	h.runIterations(t, 1)

	require.Len(t, h.events.OfType(event.TypeError), 1)
	assert.Empty(t, h.events.OfType(event.TypeQuote))
	assert.Zero(t, ledger.count("swap"))
}

func TestRevertedSwapIsAFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.setBalance(dex.WETH, "1")
	h := newHarness(t, ledger, newSeqRand(0, 20, 0))
	// approvals succeed; flip the status once the swap is sent
	h.session.bot.executor.ledger = &revertOnSwap{fakeLedger: ledger}

	h.runIterations(t, 1)

	errs := h.events.OfType(event.TypeError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message(), "swap execution failed")
	assert.Len(t, h.events.OfType(event.TypeTransaction), 2)
	assert.Zero(t, countPrefix(h.logs(), "Swap transaction confirmed"))
}

type revertOnSwap struct {
	*fakeLedger
}

func (r *revertOnSwap) ExactInputSingle(ctx context.Context, signer *wallet.Account, params model.SwapParams) (*types.Transaction, error) {
	tx, err := r.fakeLedger.ExactInputSingle(ctx, signer, params)
	r.mu.Lock()
	r.status = types.ReceiptStatusFailed
	r.mu.Unlock()
	return tx, err
}

func TestBalanceReadFailureReportedAndLoopContinues(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balanceErr = errors.New("connection refused")
	h := newHarness(t, ledger, newSeqRand(0, 0, 0, 0))

	h.runIterations(t, 2)

	errs := h.events.OfType(event.TypeError)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Message(), "connection refused")
	assert.Len(t, h.sleeps, 2)
	assert.Equal(t, 2, countPrefix(h.logs(), "Using account"))
}

func TestSummaryBufferRecordsGasCost(t *testing.T) {
	ledger := newFakeLedger()
	ledger.setBalance(dex.WETH, "1")
	h := newHarness(t, ledger, newSeqRand(0, 20, 0))

	h.runIterations(t, 1)

	lines := strings.Join(h.session.Buffer().Drain(), "")
	assert.Contains(t, lines, "Approval transaction sent: 0x")
	assert.Contains(t, lines, "Total gas spent on approval: 46000000000 WEI")
	assert.Contains(t, lines, "Total gas spent on approval: 0.000000046 ETH")
	assert.Contains(t, lines, "Approval transaction confirmed: https://basescan.org/tx/0x")
	assert.Contains(t, lines, "| Gas used: 46000 | Gas price: 1000000")
	assert.Contains(t, lines, "Swap transaction confirmed:")
}

func TestSleepObservesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := sleepContext(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepRangeIsWholeSecondsWithinBounds(t *testing.T) {
	ledger := newFakeLedger()
	h := newHarness(t, ledger, newSeqRand(0, 0, 0, 9, 0, 10))

	h.runIterations(t, 3)

	assert.Equal(t, []time.Duration{time.Second, 10 * time.Second, time.Second}, h.sleeps)
}

func firstOutcome(h *harness) string {
	for outcome, n := range h.session.Status().Outcomes {
		if n > 0 {
			return outcome
		}
	}
	return ""
}
