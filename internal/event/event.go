package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type names an event stream channel.
type Type string

const (
	TypeBalance     Type = "balance"
	TypeTransaction Type = "transaction"
	TypeQuote       Type = "quote"
	TypeLog         Type = "log"
	TypeError       Type = "error"
)

// Transaction kinds.
const (
	TxApproval = "approval"
	TxSwap     = "swap"
)

// Event is one published progress notification.
type Event struct {
	Type      Type
	Payload   any
	Timestamp time.Time
}

// Balance reports the balances of the account selected for an iteration.
type Balance struct {
	Account     string      `json:"account"`
	WETHBalance json.Number `json:"wethBalance"`
	USDCBalance json.Number `json:"usdcBalance"`
	Timestamp   int64       `json:"timestamp"`
}

// Transaction reports a submitted approval or swap.
type Transaction struct {
	Type      string      `json:"type"`
	Hash      string      `json:"hash"`
	From      string      `json:"from"`
	Token     string      `json:"token,omitempty"`
	Amount    string      `json:"amount,omitempty"`
	TokenIn   string      `json:"tokenIn,omitempty"`
	TokenOut  string      `json:"tokenOut,omitempty"`
	AmountIn  json.Number `json:"amountIn,omitempty"`
	AmountOut json.Number `json:"amountOut,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Quote reports the expected output of a pending swap.
type Quote struct {
	TokenIn            string      `json:"tokenIn"`
	TokenOut           string      `json:"tokenOut"`
	AmountIn           json.Number `json:"amountIn"`
	EstimatedAmountOut json.Number `json:"estimatedAmountOut"`
	Timestamp          int64       `json:"timestamp"`
}

// Error reports a failed step or iteration.
type Error struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Number renders a decimal as a JSON number.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func NewBalance(account string, weth, usdc decimal.Decimal, at time.Time) Event {
	return Event{Type: TypeBalance, Timestamp: at, Payload: Balance{
		Account:     account,
		WETHBalance: Number(weth),
		USDCBalance: Number(usdc),
		Timestamp:   at.UnixMilli(),
	}}
}

func NewTransaction(tx Transaction, at time.Time) Event {
	tx.Timestamp = at.UnixMilli()
	return Event{Type: TypeTransaction, Timestamp: at, Payload: tx}
}

func NewQuote(tokenIn, tokenOut string, amountIn, estimatedOut decimal.Decimal, at time.Time) Event {
	return Event{Type: TypeQuote, Timestamp: at, Payload: Quote{
		TokenIn:            tokenIn,
		TokenOut:           tokenOut,
		AmountIn:           Number(amountIn),
		EstimatedAmountOut: Number(estimatedOut),
		Timestamp:          at.UnixMilli(),
	}}
}

func NewLog(message string, at time.Time) Event {
	return Event{Type: TypeLog, Timestamp: at, Payload: message}
}

func NewError(err error, at time.Time) Event {
	return Event{Type: TypeError, Timestamp: at, Payload: Error{
		Message:   err.Error(),
		Timestamp: at.UnixMilli(),
	}}
}

// Encode returns the stream name and data of the event. Log events carry
// their text verbatim, every other type is JSON.
func (e Event) Encode() (string, []byte, error) {
	if e.Type == TypeLog {
		msg, ok := e.Payload.(string)
		if !ok {
			return "", nil, fmt.Errorf("log event payload is %T", e.Payload)
		}
		return string(e.Type), []byte(msg), nil
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return string(e.Type), data, nil
}

// Message returns the human readable text of log and error events.
func (e Event) Message() string {
	switch p := e.Payload.(type) {
	case string:
		return p
	case Error:
		return p.Message
	default:
		return ""
	}
}
