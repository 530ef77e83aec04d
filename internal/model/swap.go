package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapParams describes one exact-input single-pool swap.
type SwapParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               uint32
	Recipient         common.Address
	Deadline          int64
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}
