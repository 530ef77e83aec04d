package bot

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapPilot/internal/model"
	"swapPilot/internal/wallet"
)

// Ledger is the on-chain surface the bot needs. dex.Uniswap implements it.
type Ledger interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Approve(ctx context.Context, signer *wallet.Account, token common.Address, amount *big.Int) (*types.Transaction, error)
	WaitReceipt(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	Pool(ctx context.Context, tokenA, tokenB common.Address, fee uint32) (model.Pool, error)
	QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error)
	ExactInputSingle(ctx context.Context, signer *wallet.Account, params model.SwapParams) (*types.Transaction, error)
}
