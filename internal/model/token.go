package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token is a fixed ERC20 descriptor known at compile time.
type Token struct {
	ChainID  uint64
	Address  common.Address
	Decimals uint8
	Symbol   string
	Name     string
}

// Format converts a raw on-chain amount into whole-token units.
func (t Token) Format(amount *big.Int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(t.Decimals))
}

// Parse converts a decimal string into raw units. Digits beyond the token
// precision are truncated.
func (t Token) Parse(value string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("parse %s amount %q: %w", t.Symbol, value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("parse %s amount %q: negative", t.Symbol, value)
	}
	return d.Shift(int32(t.Decimals)).BigInt(), nil
}

// Units returns n whole tokens in raw units.
func (t Token) Units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(t.Decimals)), nil))
}

func (t Token) String() string {
	return t.Symbol
}
