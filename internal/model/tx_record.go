package model

import "time"

// TxKind labels ledger rows.
type TxKind string

const (
	TxKindApproval TxKind = "approval"
	TxKindSwap     TxKind = "swap"
)

// TxRecord is a confirmed transaction sent by the bot.
type TxRecord struct {
	ChainID           uint64    `json:"chain_id"`
	TxHash            string    `json:"tx_hash"`
	Kind              TxKind    `json:"kind"`
	Account           string    `json:"account"`
	TokenIn           string    `json:"token_in"`
	TokenOut          string    `json:"token_out,omitempty"`
	AmountIn          string    `json:"amount_in"`
	AmountOutMinimum  string    `json:"amount_out_minimum,omitempty"`
	QuotedAmountOut   string    `json:"quoted_amount_out,omitempty"`
	BlockNumber       uint64    `json:"block_number"`
	GasUsed           uint64    `json:"gas_used"`
	EffectiveGasPrice string    `json:"effective_gas_price"`
	GasCostWei        string    `json:"gas_cost_wei"`
	Status            uint64    `json:"status"`
	ConfirmedAt       time.Time `json:"confirmed_at"`
}

// BalanceSnapshot stores the balances read at the start of an iteration.
type BalanceSnapshot struct {
	ChainID uint64    `json:"chain_id"`
	Account string    `json:"account"`
	WETH    string    `json:"weth"`
	USDC    string    `json:"usdc"`
	TakenAt time.Time `json:"taken_at"`
}
