package event

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestEncodeBalanceUsesNumbers(t *testing.T) {
	ev := NewBalance("0xabc", decimal.RequireFromString("1.5"), decimal.RequireFromString("20.25"), testTime)

	name, data, err := ev.Encode()
	require.NoError(t, err)
	assert.Equal(t, "balance", name)
	assert.JSONEq(t, `{"account":"0xabc","wethBalance":1.5,"usdcBalance":20.25,"timestamp":1714564800000}`, string(data))
}

func TestEncodeLogIsRaw(t *testing.T) {
	name, data, err := NewLog("Starting bot", testTime).Encode()
	require.NoError(t, err)
	assert.Equal(t, "log", name)
	assert.Equal(t, "Starting bot", string(data))
}

func TestEncodeApprovalOmitsSwapFields(t *testing.T) {
	ev := NewTransaction(Transaction{
		Type:   TxApproval,
		Hash:   "0x01",
		From:   "0xabc",
		Token:  "0xdef",
		Amount: "1000",
	}, testTime)

	_, data, err := ev.Encode()
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "approval", fields["type"])
	assert.Equal(t, "1000", fields["amount"])
	assert.NotContains(t, fields, "tokenIn")
	assert.NotContains(t, fields, "amountOut")
}

func TestEncodeSwapAndQuote(t *testing.T) {
	swap := NewTransaction(Transaction{
		Type:      TxSwap,
		Hash:      "0x02",
		From:      "0xabc",
		TokenIn:   "KNRT",
		TokenOut:  "USDC",
		AmountIn:  Number(decimal.RequireFromString("0.25")),
		AmountOut: Number(decimal.RequireFromString("700.1")),
	}, testTime)
	_, data, err := swap.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"swap","hash":"0x02","from":"0xabc","tokenIn":"KNRT","tokenOut":"USDC","amountIn":0.25,"amountOut":700.1,"timestamp":1714564800000}`, string(data))

	quote := NewQuote("KNRT", "USDC", decimal.RequireFromString("0.25"), decimal.RequireFromString("714.4"), testTime)
	name, data, err := quote.Encode()
	require.NoError(t, err)
	assert.Equal(t, "quote", name)
	assert.JSONEq(t, `{"tokenIn":"KNRT","tokenOut":"USDC","amountIn":0.25,"estimatedAmountOut":714.4,"timestamp":1714564800000}`, string(data))
}

func TestEncodeError(t *testing.T) {
	ev := NewError(errors.New("Pool does not exist"), testTime)
	_, data, err := ev.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Pool does not exist","timestamp":1714564800000}`, string(data))
	assert.Equal(t, "Pool does not exist", ev.Message())
}

func TestFanoutAndRecent(t *testing.T) {
	first := NewRecent(0)
	second := NewRecent(2)
	sink := Fanout{first, nil, second}

	sink.Publish(NewLog("a", testTime))
	sink.Publish(NewLog("b", testTime))
	sink.Publish(NewError(errors.New("c"), testTime))

	assert.Len(t, first.Events(), 3)
	kept := second.Events()
	require.Len(t, kept, 2)
	assert.Equal(t, "b", kept[0].Message())
	assert.Equal(t, "c", kept[1].Message())
	assert.Len(t, first.OfType(TypeLog), 2)
}

func TestJournalSinkAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	sink := NewJournalSink(path, nil)

	sink.Publish(NewLog("hello", testTime))
	sink.Publish(NewError(errors.New("boom"), testTime))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []journalRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec journalRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, records, 2)
	assert.Equal(t, "log", records[0].Event)
	assert.Equal(t, "hello", records[0].Data)
	assert.Equal(t, "error", records[1].Event)
	assert.True(t, records[1].TS.Equal(testTime))
}
