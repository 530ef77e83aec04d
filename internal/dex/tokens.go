package dex

import (
	"github.com/ethereum/go-ethereum/common"

	"swapPilot/internal/model"
)

// BaseChainID is the chain the bot trades on.
const BaseChainID uint64 = 8453

// FeeTier is the only pool fee tier the bot trades through (0.3%).
const FeeTier uint32 = 3000

// Deployed Uniswap V3 periphery on Base.
var (
	FactoryAddress      = common.HexToAddress("0x33128a8fC17869897dcE68Ed026d694621f6FDfD")
	QuoterV2Address     = common.HexToAddress("0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a")
	SwapRouter02Address = common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481")
)

// WETH is the wrapped-native trading slot. On this deployment it holds the
// KNRT token rather than canonical WETH.
var WETH = model.Token{
	ChainID:  BaseChainID,
	Address:  common.HexToAddress("0x54de10FADF4Ea2fbAD10Ebfc96979D0885dd36fA"),
	Decimals: 18,
	Symbol:   "KNRT",
	Name:     "Koolinart",
}

// USDC is the stable side of the pair.
var USDC = model.Token{
	ChainID:  BaseChainID,
	Address:  common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
	Decimals: 6,
	Symbol:   "USDC",
	Name:     "USD Coin",
}
