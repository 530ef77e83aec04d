package bot

import (
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapPilot/internal/dex"
)

func TestRandomAmountStaysWithinBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	balances := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(99),
		big.NewInt(10_000_000),
		dex.WETH.Units(3),
		new(big.Int).Lsh(big.NewInt(1), 200),
	}
	ranges := [][2]int{{10, 50}, {10, 10}, {10, 100}, {50, 100}, {100, 100}}

	for _, b := range balances {
		for _, r := range ranges {
			lo := new(big.Int).Quo(new(big.Int).Mul(b, big.NewInt(int64(r[0]))), big.NewInt(100))
			hi := new(big.Int).Quo(new(big.Int).Mul(b, big.NewInt(int64(r[1]))), big.NewInt(100))
			for i := 0; i < 50; i++ {
				got, err := RandomAmount(b, r[0], r[1], rnd)
				require.NoError(t, err)
				assert.True(t, got.Cmp(lo) >= 0 && got.Cmp(hi) <= 0, "balance %s range %v got %s", b, r, got)
			}
		}
	}
}

func TestRandomAmountDeterministicForFixedDraw(t *testing.T) {
	balance := dex.WETH.Units(1)
	got, err := RandomAmount(balance, 10, 50, newSeqRand(20))
	require.NoError(t, err)
	want, err := dex.WETH.Parse("0.3")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := RandomAmount(balance, 10, 50, newSeqRand(20))
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestRandomAmountFloors(t *testing.T) {
	got, err := RandomAmount(big.NewInt(99), 10, 10, newSeqRand(0))
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Int64())
}

func TestRandomAmountZeroBalance(t *testing.T) {
	got, err := RandomAmount(big.NewInt(0), 10, 50, newSeqRand(7))
	require.NoError(t, err)
	assert.Zero(t, got.Sign())

	got, err = RandomAmount(nil, 10, 50, newSeqRand(7))
	require.NoError(t, err)
	assert.Zero(t, got.Sign())
}

func TestRandomAmountRejectsBadRange(t *testing.T) {
	for _, r := range [][2]int{{-1, 10}, {10, 101}, {60, 50}} {
		_, err := RandomAmount(big.NewInt(100), r[0], r[1], newSeqRand(0))
		assert.ErrorIs(t, err, ErrAmountRange, "range %v", r)
	}
}

func TestMinimumOutIsFloorOfNinetyEightPercent(t *testing.T) {
	cases := map[string]string{
		"0":                     "0",
		"1":                     "0",
		"100":                   "98",
		"101":                   "98",
		"750000000":             "735000000",
		"123456789123456789":    "120987653340987653",
		"999999999999999999999": "979999999999999999999",
	}
	for in, want := range cases {
		quoted, _ := new(big.Int).SetString(in, 10)
		assert.Equal(t, want, MinimumOut(quoted).String(), "quoted %s", in)
	}
}

func TestPlanSwap(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	recipient := common.HexToAddress("0x1111111111111111111111111111111111111111")
	amountIn := big.NewInt(10_000_000)

	params := PlanSwap(recipient, amountIn, big.NewInt(1_000), dex.USDC, dex.WETH, dex.FeeTier, now)

	assert.Equal(t, dex.USDC.Address, params.TokenIn)
	assert.Equal(t, dex.WETH.Address, params.TokenOut)
	assert.Equal(t, uint32(3000), params.Fee)
	assert.Equal(t, recipient, params.Recipient)
	assert.Equal(t, int64(1_700_000_600), params.Deadline)
	assert.Equal(t, "10000000", params.AmountIn.String())
	assert.Equal(t, "980", params.AmountOutMinimum.String())
	assert.Zero(t, params.SqrtPriceLimitX96.Sign())

	amountIn.SetInt64(1)
	assert.Equal(t, "10000000", params.AmountIn.String(), "params must not alias the input")
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{MinPercent: 60, MaxPercent: 50, MinSleep: time.Second, MaxSleep: time.Second},
		{MinPercent: 10, MaxPercent: 50, MinSleep: 0, MaxSleep: time.Second},
		{MinPercent: 10, MaxPercent: 50, MinSleep: 5 * time.Second, MaxSleep: time.Second},
		{MinPercent: 10, MaxPercent: 50, MinSleep: 1500 * time.Millisecond, MaxSleep: 3 * time.Second},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate(), "%+v", c)
	}
}
