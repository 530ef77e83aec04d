package bot

import (
	"fmt"
	"math/big"
)

// Rand is the subset of *rand.Rand the bot draws from.
type Rand interface {
	Intn(n int) int
}

// RandomAmount returns balance * p / 100 with p drawn uniformly from the
// integer range [minPct, maxPct]. The result is floored.
func RandomAmount(balance *big.Int, minPct, maxPct int, r Rand) (*big.Int, error) {
	if minPct < 0 || maxPct > 100 || minPct > maxPct {
		return nil, fmt.Errorf("%w: min=%d max=%d", ErrAmountRange, minPct, maxPct)
	}
	if balance == nil || balance.Sign() <= 0 {
		return new(big.Int), nil
	}
	pct := minPct + r.Intn(maxPct-minPct+1)
	amount := new(big.Int).Mul(balance, big.NewInt(int64(pct)))
	return amount.Quo(amount, big.NewInt(100)), nil
}
