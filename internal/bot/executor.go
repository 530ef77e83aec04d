package bot

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapPilot/internal/event"
	"swapPilot/internal/journal"
	"swapPilot/internal/model"
	"swapPilot/internal/observability"
	"swapPilot/internal/storage"
	"swapPilot/internal/wallet"
)

// DefaultExplorerURL prefixes transaction hashes in confirmation logs.
const DefaultExplorerURL = "https://basescan.org/tx/"

// ExecutorConfig holds executor settings.
type ExecutorConfig struct {
	ChainID     uint64
	FeeTier     uint32
	ExplorerURL string
}

// Executor runs approve, pool lookup, quote and swap for one trade. It never
// retries; the first failing step ends the trade.
type Executor struct {
	cfg    ExecutorConfig
	ledger Ledger
	sink   event.Sink
	buffer *journal.Buffer
	store  storage.Storage
	logger *zap.Logger
	now    func() time.Time
}

// NewExecutor builds an executor. store may be nil.
func NewExecutor(cfg ExecutorConfig, ledger Ledger, sink event.Sink, buffer *journal.Buffer, store storage.Storage, logger *zap.Logger) *Executor {
	if cfg.ExplorerURL == "" {
		cfg.ExplorerURL = DefaultExplorerURL
	}
	if sink == nil {
		sink = event.Discard
	}
	if buffer == nil {
		buffer = journal.NewBuffer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		cfg:    cfg,
		ledger: ledger,
		sink:   sink,
		buffer: buffer,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Execute swaps amountIn of tokenIn for tokenOut on behalf of signer. A
// failed step is published once as an error event and returned as *StepError.
func (e *Executor) Execute(ctx context.Context, signer *wallet.Account, tokenIn, tokenOut model.Token, amountIn *big.Int) error {
	if err := e.approve(ctx, signer, tokenIn, amountIn); err != nil {
		return e.fail(ctx, StepApproval, err)
	}

	pool, err := e.ledger.Pool(ctx, tokenIn.Address, tokenOut.Address, e.cfg.FeeTier)
	if err != nil {
		return e.fail(ctx, StepPool, err)
	}
	observability.RecordStep(string(StepPool), nil)

	e.publishLog(fmt.Sprintf("Fetching quote for: %s to %s", tokenIn.Symbol, tokenOut.Symbol))
	e.publishLog(fmt.Sprintf("Swap amount: %s %s", tokenIn.Format(amountIn), tokenIn.Symbol))

	quoted, err := e.quote(ctx, pool.Fee, tokenIn, tokenOut, amountIn)
	if err != nil {
		return e.fail(ctx, StepQuote, err)
	}
	amountOut, err := tokenOut.Parse(quoted)
	if err != nil {
		return e.fail(ctx, StepQuote, err)
	}

	params := PlanSwap(signer.Address, amountIn, amountOut, tokenIn, tokenOut, pool.Fee, e.now())
	if err := e.swap(ctx, signer, params, tokenIn, tokenOut, amountOut); err != nil {
		return e.fail(ctx, StepSwap, err)
	}
	return nil
}

func (e *Executor) approve(ctx context.Context, signer *wallet.Account, token model.Token, amount *big.Int) error {
	tx, err := e.ledger.Approve(ctx, signer, token.Address, amount)
	if err != nil {
		return fmt.Errorf("send approval: %w", err)
	}
	hash := tx.Hash().Hex()
	e.sink.Publish(event.NewTransaction(event.Transaction{
		Type:   event.TxApproval,
		Hash:   hash,
		From:   signer.Address.Hex(),
		Token:  token.Address.Hex(),
		Amount: amount.String(),
	}, e.now()))
	e.buffer.Logf("Approval transaction sent: %s", hash)

	receipt, err := e.confirm(ctx, tx)
	if err != nil {
		return err
	}
	cost := gasCost(receipt)
	e.buffer.Logf("Total gas spent on approval: %s WEI", cost)
	e.buffer.Logf("Total gas spent on approval: %s ETH", formatEther(cost))

	link := e.txLink(hash)
	e.publishLog("Approval transaction confirmed: " + link)
	e.buffer.Logf("Approval transaction confirmed: %s | Gas used: %d | Gas price: %s", link, receipt.GasUsed, gasPrice(receipt))

	observability.RecordStep(string(StepApproval), nil)
	observability.RecordGas(string(model.TxKindApproval), cost)
	e.record(ctx, model.TxRecord{
		TxHash:   hash,
		Kind:     model.TxKindApproval,
		Account:  signer.Address.Hex(),
		TokenIn:  token.Address.Hex(),
		AmountIn: amount.String(),
	}, receipt)
	return nil
}

// quote returns the expected output of tokenOut as a decimal string.
func (e *Executor) quote(ctx context.Context, fee uint32, tokenIn, tokenOut model.Token, amountIn *big.Int) (string, error) {
	out, err := e.ledger.QuoteExactInputSingle(ctx, tokenIn.Address, tokenOut.Address, fee, amountIn)
	if err != nil {
		return "", err
	}
	formatted := tokenOut.Format(out)
	e.sink.Publish(event.NewQuote(tokenIn.Symbol, tokenOut.Symbol, tokenIn.Format(amountIn), formatted, e.now()))
	observability.RecordStep(string(StepQuote), nil)
	return formatted.String(), nil
}

func (e *Executor) swap(ctx context.Context, signer *wallet.Account, params model.SwapParams, tokenIn, tokenOut model.Token, quotedOut *big.Int) error {
	tx, err := e.ledger.ExactInputSingle(ctx, signer, params)
	if err != nil {
		return fmt.Errorf("send swap: %w", err)
	}
	hash := tx.Hash().Hex()
	e.sink.Publish(event.NewTransaction(event.Transaction{
		Type:      event.TxSwap,
		Hash:      hash,
		From:      signer.Address.Hex(),
		TokenIn:   tokenIn.Symbol,
		TokenOut:  tokenOut.Symbol,
		AmountIn:  event.Number(tokenIn.Format(params.AmountIn)),
		AmountOut: event.Number(tokenOut.Format(quotedOut)),
	}, e.now()))
	e.buffer.Logf("Swap transaction sent: %s", hash)

	receipt, err := e.confirm(ctx, tx)
	if err != nil {
		return err
	}
	cost := gasCost(receipt)
	link := e.txLink(hash)
	e.publishLog("Swap transaction confirmed: " + link)
	e.buffer.Logf("Swap transaction confirmed: %s | Gas used: %d | Gas price: %s", link, receipt.GasUsed, gasPrice(receipt))
	e.buffer.Logf("Total gas spent on swap: %s WEI", cost)

	observability.RecordStep(string(StepSwap), nil)
	observability.RecordGas(string(model.TxKindSwap), cost)
	observability.RecordSwap(e.now().Unix())
	e.record(ctx, model.TxRecord{
		TxHash:           hash,
		Kind:             model.TxKindSwap,
		Account:          signer.Address.Hex(),
		TokenIn:          tokenIn.Address.Hex(),
		TokenOut:         tokenOut.Address.Hex(),
		AmountIn:         params.AmountIn.String(),
		AmountOutMinimum: params.AmountOutMinimum.String(),
		QuotedAmountOut:  quotedOut.String(),
	}, receipt)
	return nil
}

func (e *Executor) confirm(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := e.ledger.WaitReceipt(ctx, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}

func (e *Executor) fail(ctx context.Context, step Step, err error) error {
	observability.RecordStep(string(step), err)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	stepErr := &StepError{Step: step, Err: err}
	e.sink.Publish(event.NewError(stepErr, e.now()))
	e.buffer.Logf("%s", stepErr.Error())
	e.logger.Error("swap step failed", zap.String("step", string(step)), zap.Error(err))
	return stepErr
}

// record writes a confirmed transaction to the ledger. Storage failures are
// logged only; the transaction is already on chain.
func (e *Executor) record(ctx context.Context, rec model.TxRecord, receipt *types.Receipt) {
	if e.store == nil {
		return
	}
	rec.ChainID = e.cfg.ChainID
	if receipt.BlockNumber != nil {
		rec.BlockNumber = receipt.BlockNumber.Uint64()
	}
	rec.GasUsed = receipt.GasUsed
	rec.EffectiveGasPrice = gasPrice(receipt).String()
	rec.GasCostWei = gasCost(receipt).String()
	rec.Status = receipt.Status
	rec.ConfirmedAt = e.now().UTC()
	if err := e.store.PutTransactions(ctx, []model.TxRecord{rec}); err != nil {
		e.logger.Warn("transaction ledger write failed", zap.String("tx", rec.TxHash), zap.Error(err))
	}
}

func (e *Executor) publishLog(msg string) {
	e.sink.Publish(event.NewLog(msg, e.now()))
}

func (e *Executor) txLink(hash string) string {
	if strings.HasSuffix(e.cfg.ExplorerURL, "/") {
		return e.cfg.ExplorerURL + hash
	}
	return e.cfg.ExplorerURL + "/" + hash
}

func gasPrice(receipt *types.Receipt) *big.Int {
	if receipt.EffectiveGasPrice == nil {
		return new(big.Int)
	}
	return receipt.EffectiveGasPrice
}

func gasCost(receipt *types.Receipt) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), gasPrice(receipt))
}

func formatEther(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -18).String()
}
