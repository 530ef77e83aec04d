package bot

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"swapPilot/internal/model"
)

const (
	// DeadlineWindow is how long a submitted swap stays valid.
	DeadlineWindow = 10 * time.Minute

	slippageNumerator   = 98
	slippageDenominator = 100
)

// MinimumOut applies the fixed 2% slippage tolerance to a quoted output.
func MinimumOut(quoted *big.Int) *big.Int {
	if quoted == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(quoted, big.NewInt(slippageNumerator))
	return out.Quo(out, big.NewInt(slippageDenominator))
}

// PlanSwap builds the parameters of one exact-input single-pool swap.
func PlanSwap(recipient common.Address, amountIn, quotedOut *big.Int, tokenIn, tokenOut model.Token, fee uint32, now time.Time) model.SwapParams {
	return model.SwapParams{
		TokenIn:           tokenIn.Address,
		TokenOut:          tokenOut.Address,
		Fee:               fee,
		Recipient:         recipient,
		Deadline:          now.Add(DeadlineWindow).Unix(),
		AmountIn:          new(big.Int).Set(amountIn),
		AmountOutMinimum:  MinimumOut(quotedOut),
		SqrtPriceLimitX96: new(big.Int),
	}
}
