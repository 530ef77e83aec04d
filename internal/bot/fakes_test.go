package bot

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"swapPilot/internal/dex"
	"swapPilot/internal/model"
	"swapPilot/internal/wallet"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

// seqRand returns scripted draws, reduced modulo n.
type seqRand struct {
	mu     sync.Mutex
	values []int
	next   int
}

func newSeqRand(values ...int) *seqRand {
	return &seqRand{values: values}
}

func (r *seqRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.values) {
		return 0
	}
	v := r.values[r.next]
	r.next++
	return v % n
}

type fakeLedger struct {
	mu sync.Mutex

	balances map[common.Address]*big.Int
	quote    *big.Int
	status   uint64

	balanceErr error
	approveErr error
	poolErr    error
	quoteErr   error
	swapErr    error

	calls    []string
	nonce    uint64
	lastSwap *model.SwapParams
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: map[common.Address]*big.Int{},
		quote:    big.NewInt(750_000_000),
		status:   types.ReceiptStatusSuccessful,
	}
}

func (f *fakeLedger) setBalance(token model.Token, value string) {
	amount, err := token.Parse(value)
	if err != nil {
		panic(err)
	}
	f.balances[token.Address] = amount
}

func (f *fakeLedger) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeLedger) newTx() *types.Transaction {
	f.nonce++
	return types.NewTx(&types.LegacyTx{Nonce: f.nonce, GasPrice: big.NewInt(1), Gas: 21000})
}

func (f *fakeLedger) BalanceOf(_ context.Context, token, _ common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("balanceOf")
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if b, ok := f.balances[token]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (f *fakeLedger) Approve(_ context.Context, _ *wallet.Account, _ common.Address, _ *big.Int) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("approve")
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	return f.newTx(), nil
}

func (f *fakeLedger) WaitReceipt(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("wait")
	return &types.Receipt{
		Status:            f.status,
		TxHash:            tx.Hash(),
		GasUsed:           46_000,
		EffectiveGasPrice: big.NewInt(1_000_000),
		BlockNumber:       big.NewInt(100),
	}, nil
}

func (f *fakeLedger) Pool(_ context.Context, tokenA, tokenB common.Address, fee uint32) (model.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pool")
	if f.poolErr != nil {
		return model.Pool{}, f.poolErr
	}
	return model.Pool{
		ChainID: dex.BaseChainID,
		Address: "0x00000000000000000000000000000000000000aa",
		PoolMeta: model.PoolMeta{
			Token0: tokenA.Hex(),
			Token1: tokenB.Hex(),
			Fee:    fee,
		},
	}, nil
}

func (f *fakeLedger) QuoteExactInputSingle(_ context.Context, _, _ common.Address, _ uint32, _ *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("quote")
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return new(big.Int).Set(f.quote), nil
}

func (f *fakeLedger) ExactInputSingle(_ context.Context, _ *wallet.Account, params model.SwapParams) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("swap")
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	p := params
	f.lastSwap = &p
	return f.newTx(), nil
}

func (f *fakeLedger) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

type memStore struct {
	mu        sync.Mutex
	txs       []model.TxRecord
	snapshots []model.BalanceSnapshot
}

func (m *memStore) PutTransactions(_ context.Context, records []model.TxRecord) error {
	m.mu.Lock()
	m.txs = append(m.txs, records...)
	m.mu.Unlock()
	return nil
}

func (m *memStore) PutBalanceSnapshots(_ context.Context, snapshots []model.BalanceSnapshot) error {
	m.mu.Lock()
	m.snapshots = append(m.snapshots, snapshots...)
	m.mu.Unlock()
	return nil
}

func testAccounts(t *testing.T) *wallet.Pool {
	t.Helper()
	pool, err := wallet.NewPool([]string{testKey})
	require.NoError(t, err)
	return pool
}
