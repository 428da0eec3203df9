package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalWritesAllFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	signalsPath := filepath.Join(dir, "signals.csv")
	balancePath := filepath.Join(dir, "balance.csv")

	j, err := NewCSV(tradesPath, signalsPath, balancePath)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	winRate := 0.72

	require.NoError(t, j.RecordTrade(TradeRecord{
		TradeID: "t1", Time: now, Market: "btc-150k-2026/YES", Title: "BTC 150k",
		Side: "BUY", Price: 0.65, Size: 100, Notional: 65, Kind: "MARKET",
		Status: "OPEN", Note: "copy of 0xwhale",
	}))
	require.NoError(t, j.RecordSignal(SignalRecord{
		SignalID: "s1", Time: now, Market: "btc-150k-2026/YES", Wallet: "0xwhale",
		WhaleSide: "BUY", WhalePrice: 0.65, WhaleSize: 25000, WhaleNotional: 16250,
		WalletWinRate: &winRate, MeanEstimate: 0.78, Agreement: 1.0,
		Decision: "COPIED", Reason: "copied 100.00 shares at 0.65",
		CopiedSize: 100, TradeID: "t1",
	}))
	require.NoError(t, j.RecordSignal(SignalRecord{
		SignalID: "s2", Time: now, Market: "eth-flip/NO", Wallet: "0xnew",
		WhaleSide: "BUY", WhalePrice: 0.20, WhaleSize: 60000, WhaleNotional: 12000,
		Decision: "INELIGIBLE", Reason: "wallet below 60% win-rate gate",
	}))
	require.NoError(t, j.RecordBalance(BalanceSnapshot{
		Time: now, Balance: 9935, RealizedPL: 0, UnrealizedPL: 0, Equity: 10000,
	}))
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, "trade_id", trades[0][0])
	assert.Equal(t, "t1", trades[1][0])
	assert.Equal(t, "0.650000", trades[1][5])

	signals := readCSV(t, signalsPath)
	require.Len(t, signals, 3)
	assert.Equal(t, "0.720000", signals[1][9])
	// Unknown win rate stays empty, never zero.
	assert.Equal(t, "", signals[2][9])
	assert.Equal(t, "INELIGIBLE", signals[2][12])

	balance := readCSV(t, balancePath)
	require.Len(t, balance, 2)
	assert.Equal(t, "9935.000000", balance[1][1])
}
