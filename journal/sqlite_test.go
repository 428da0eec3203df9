package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLiteJournal {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "whalecopy.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteTradeRoundTrip(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(TradeRecord{
		TradeID: "t1", Time: now, Market: "btc-150k-2026/YES", Title: "BTC 150k",
		Side: "BUY", Price: 0.65, Size: 100, Notional: 65, Kind: "MARKET",
		Status: "OPEN", Note: "copy of 0xwhale",
	}))

	rec, err := j.GetTrade("t1")
	require.NoError(t, err)
	assert.Equal(t, "btc-150k-2026/YES", rec.Market)
	assert.InDelta(t, 0.65, rec.Price, 1e-9)
	assert.Equal(t, "OPEN", rec.Status)

	_, err = j.GetTrade("missing")
	assert.Error(t, err)
}

func TestSQLiteListTradesBetween(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, j.RecordTrade(TradeRecord{
			TradeID: id, Time: base.Add(time.Duration(i) * time.Hour),
			Market: "m/YES", Side: "BUY", Price: 0.5, Size: 10, Notional: 5,
			Kind: "MARKET", Status: "OPEN",
		}))
	}

	got, err := j.ListTradesBetween(base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TradeID)
	assert.Equal(t, "t2", got[1].TradeID)
}

func TestSQLiteSignalNullWinRate(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	winRate := 0.72

	require.NoError(t, j.RecordSignal(SignalRecord{
		SignalID: "s1", Time: now, Market: "m/YES", Wallet: "0xa",
		WhaleSide: "BUY", WhalePrice: 0.6, WhaleSize: 20000, WhaleNotional: 12000,
		WalletWinRate: &winRate, Decision: "COPIED", Reason: "ok",
	}))
	require.NoError(t, j.RecordSignal(SignalRecord{
		SignalID: "s2", Time: now.Add(time.Minute), Market: "m/YES", Wallet: "0xb",
		WhaleSide: "BUY", WhalePrice: 0.6, WhaleSize: 20000, WhaleNotional: 12000,
		Decision: "INELIGIBLE", Reason: "no track record",
	}))

	got, err := j.ListSignalsBetween(now, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].WalletWinRate)
	assert.InDelta(t, 0.72, *got[0].WalletWinRate, 1e-9)
	assert.Nil(t, got[1].WalletWinRate)
}

func TestSQLiteDecisionCounts(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)
	now := time.Now().UTC()

	for i, d := range []string{"COPIED", "SKIPPED", "SKIPPED", "INELIGIBLE"} {
		require.NoError(t, j.RecordSignal(SignalRecord{
			SignalID: string(rune('a' + i)), Time: now, Market: "m/YES",
			Wallet: "0xa", WhaleSide: "BUY", WhalePrice: 0.5, WhaleSize: 1,
			WhaleNotional: 1, Decision: d, Reason: "r",
		}))
	}

	counts, err := j.DecisionCounts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts["COPIED"])
	assert.Equal(t, 2, counts["SKIPPED"])
	assert.Equal(t, 1, counts["INELIGIBLE"])
}

func TestSQLiteLatestBalance(t *testing.T) {
	t.Parallel()

	j := newTestDB(t)

	_, ok, err := j.LatestBalance()
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, bal := range []float64{10000, 9935, 9950} {
		require.NoError(t, j.RecordBalance(BalanceSnapshot{
			Time: base.Add(time.Duration(i) * time.Minute), Balance: bal, Equity: bal,
		}))
	}

	b, ok, err := j.LatestBalance()
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 9950, b.Balance, 1e-9)
}
