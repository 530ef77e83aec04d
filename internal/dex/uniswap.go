package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"swapPilot/internal/chain"
	"swapPilot/internal/model"
	"swapPilot/internal/wallet"
)

// ErrPoolNotFound is returned when the factory has no pool for a pair and fee.
var ErrPoolNotFound = errors.New("pool not found")

type quoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// Uniswap talks to the V3 factory, QuoterV2, SwapRouter02 and ERC20 tokens.
type Uniswap struct {
	chain   *chain.Client
	chainID *big.Int
	factory common.Address
	quoter  common.Address
	router  common.Address
	logger  *zap.Logger
}

// NewUniswap binds the Base deployment addresses to a chain client.
func NewUniswap(chainClient *chain.Client, chainID *big.Int, logger *zap.Logger) *Uniswap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uniswap{
		chain:   chainClient,
		chainID: chainID,
		factory: FactoryAddress,
		quoter:  QuoterV2Address,
		router:  SwapRouter02Address,
		logger:  logger,
	}
}

// ChainID returns the chain the client signs transactions for.
func (u *Uniswap) ChainID() uint64 {
	return u.chainID.Uint64()
}

// Router returns the spender address used for approvals.
func (u *Uniswap) Router() common.Address {
	return u.router
}

// BalanceOf reads an ERC20 balance at the latest block.
func (u *Uniswap) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	parsed, err := erc20ABIString.get()
	if err != nil {
		return nil, err
	}
	values, err := callMethod(ctx, u.chain, token, parsed, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("balance of %s on %s: %w", owner.Hex(), token.Hex(), err)
	}
	return asBigInt(values[0])
}

// Approve lets the router spend amount of token on behalf of signer.
func (u *Uniswap) Approve(ctx context.Context, signer *wallet.Account, token common.Address, amount *big.Int) (*types.Transaction, error) {
	parsed, err := erc20ABIString.get()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("approve", u.router, amount)
	if err != nil {
		return nil, fmt.Errorf("pack approve: %w", err)
	}
	return u.send(ctx, signer, token, data, "approve")
}

// WaitReceipt waits for tx to be mined successfully.
func (u *Uniswap) WaitReceipt(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return u.chain.WaitMined(ctx, tx)
}

// Pool resolves the pool for a pair and fee tier and reads its metadata.
func (u *Uniswap) Pool(ctx context.Context, tokenA, tokenB common.Address, fee uint32) (model.Pool, error) {
	parsed, err := V3FactoryABI()
	if err != nil {
		return model.Pool{}, err
	}
	values, err := callMethod(ctx, u.chain, u.factory, parsed, "getPool", tokenA, tokenB, new(big.Int).SetUint64(uint64(fee)))
	if err != nil {
		return model.Pool{}, err
	}
	address, err := asAddress(values[0])
	if err != nil {
		return model.Pool{}, fmt.Errorf("getPool: %w", err)
	}
	if address == (common.Address{}) {
		return model.Pool{}, fmt.Errorf("%s/%s fee %d: %w", tokenA.Hex(), tokenB.Hex(), fee, ErrPoolNotFound)
	}

	meta, err := FetchPoolMeta(ctx, u.chain, address)
	if err != nil {
		return model.Pool{}, fmt.Errorf("pool %s: %w", address.Hex(), err)
	}
	u.logger.Debug("pool resolved",
		zap.String("pool", address.Hex()),
		zap.String("token0", meta.Token0),
		zap.String("token1", meta.Token1),
		zap.Uint32("fee", meta.Fee),
	)
	return model.Pool{
		ChainID:  u.chainID.Uint64(),
		Address:  address.Hex(),
		PoolMeta: meta,
	}, nil
}

// QuoteExactInputSingle simulates a single-pool exact-input swap.
func (u *Uniswap) QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error) {
	parsed, err := QuoterV2ABI()
	if err != nil {
		return nil, err
	}
	params := quoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceLimitX96: big.NewInt(0),
	}
	values, err := callMethod(ctx, u.chain, u.quoter, parsed, "quoteExactInputSingle", params)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// ExactInputSingle submits the swap through the router's deadline-checked multicall.
func (u *Uniswap) ExactInputSingle(ctx context.Context, signer *wallet.Account, params model.SwapParams) (*types.Transaction, error) {
	data, err := swapCallData(params)
	if err != nil {
		return nil, err
	}
	return u.send(ctx, signer, u.router, data, "exactInputSingle")
}

func (u *Uniswap) send(ctx context.Context, signer *wallet.Account, to common.Address, data []byte, method string) (*types.Transaction, error) {
	opts, err := signer.Transactor(ctx, u.chainID)
	if err != nil {
		return nil, err
	}
	backend := u.chain.Backend()
	contract := bind.NewBoundContract(to, abi.ABI{}, backend, backend, backend)
	tx, err := contract.RawTransact(opts, data)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}
	u.logger.Debug("transaction sent",
		zap.String("method", method),
		zap.String("from", signer.Address.Hex()),
		zap.String("to", to.Hex()),
		zap.String("tx", tx.Hash().Hex()),
	)
	return tx, nil
}

// swapCallData encodes multicall(deadline, [exactInputSingle(params)]).
func swapCallData(params model.SwapParams) ([]byte, error) {
	parsed, err := SwapRouter02ABI()
	if err != nil {
		return nil, err
	}
	sqrtLimit := params.SqrtPriceLimitX96
	if sqrtLimit == nil {
		sqrtLimit = big.NewInt(0)
	}
	inner, err := parsed.Pack("exactInputSingle", exactInputSingleParams{
		TokenIn:           params.TokenIn,
		TokenOut:          params.TokenOut,
		Fee:               new(big.Int).SetUint64(uint64(params.Fee)),
		Recipient:         params.Recipient,
		AmountIn:          params.AmountIn,
		AmountOutMinimum:  params.AmountOutMinimum,
		SqrtPriceLimitX96: sqrtLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("pack exactInputSingle: %w", err)
	}
	data, err := parsed.Pack("multicall", big.NewInt(params.Deadline), [][]byte{inner})
	if err != nil {
		return nil, fmt.Errorf("pack multicall: %w", err)
	}
	return data, nil
}
