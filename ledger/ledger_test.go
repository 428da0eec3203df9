package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/rustyeddy/whalecopy/journal"
	"github.com/rustyeddy/whalecopy/market"
)

type testJournal struct {
	trades   []journal.TradeRecord
	balances []journal.BalanceSnapshot
	closed   bool
}

func (j *testJournal) RecordTrade(rec journal.TradeRecord) error {
	j.trades = append(j.trades, rec)
	return nil
}

func (j *testJournal) RecordSignal(journal.SignalRecord) error { return nil }

func (j *testJournal) RecordBalance(rec journal.BalanceSnapshot) error {
	j.balances = append(j.balances, rec)
	return nil
}

func (j *testJournal) Close() error {
	j.closed = true
	return nil
}

func newLedger(t *testing.T, balance float64) (*Ledger, *testJournal) {
	t.Helper()
	j := &testJournal{}
	return New(balance, j, nil), j
}

func buy(t *testing.T, l *Ledger, key market.Key, price, size float64) Trade {
	t.Helper()
	tr, err := l.Execute(ExecuteRequest{
		Market: key,
		Side:   market.Buy,
		Price:  price,
		Size:   size,
	})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	return tr
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestExecuteBuyDebitsBalanceAndOpensPosition(t *testing.T) {
	l, _ := newLedger(t, 10000)
	m1 := market.Key{Slug: "M1", Outcome: "YES"}

	tr := buy(t, l, m1, 0.65, 100)

	if tr.Status != StatusOpen {
		t.Fatalf("expected OPEN trade, got %s", tr.Status)
	}
	if tr.RealizedPL != nil {
		t.Fatalf("open trade must not carry realized P&L")
	}
	if !approxEqual(l.Balance(), 9935.00, 1e-9) {
		t.Fatalf("balance mismatch: got %.6f want 9935.00", l.Balance())
	}

	pos, ok := l.Position(m1)
	if !ok {
		t.Fatalf("expected position for %s", m1)
	}
	if !approxEqual(pos.Quantity, 100, 1e-9) || !approxEqual(pos.AvgEntry, 0.65, 1e-9) {
		t.Fatalf("position mismatch: qty %.2f avg %.4f", pos.Quantity, pos.AvgEntry)
	}
}

func TestClosePositionRealizesPL(t *testing.T) {
	l, _ := newLedger(t, 10000)
	m1 := market.Key{Slug: "M1", Outcome: "YES"}

	opening := buy(t, l, m1, 0.65, 100)

	tr, err := l.ClosePosition(m1, 0.80)
	if err != nil {
		t.Fatalf("close position: %v", err)
	}
	if tr.RealizedPL == nil || !approxEqual(*tr.RealizedPL, 15.00, 1e-9) {
		t.Fatalf("realized P&L mismatch: %v", tr.RealizedPL)
	}
	if !approxEqual(l.Balance(), 9950.00, 1e-9) {
		t.Fatalf("balance mismatch: got %.6f want 9950.00", l.Balance())
	}
	if _, ok := l.Position(m1); ok {
		t.Fatalf("expected position to be removed after close")
	}

	// The opening trade flips to CLOSED without its price/size changing.
	for _, rec := range l.TradeHistory() {
		if rec.ID != opening.ID {
			continue
		}
		if rec.Status != StatusClosed {
			t.Fatalf("opening trade should be CLOSED, got %s", rec.Status)
		}
		if rec.Price != 0.65 || rec.Size != 100 {
			t.Fatalf("opening trade mutated: price %.2f size %.2f", rec.Price, rec.Size)
		}
		if rec.RealizedPL == nil || !approxEqual(*rec.RealizedPL, 15.00, 1e-9) {
			t.Fatalf("opening trade realized P&L mismatch: %v", rec.RealizedPL)
		}
	}
}

func TestRoundTripAtSamePriceRestoresBalance(t *testing.T) {
	l, _ := newLedger(t, 10000)
	m1 := market.Key{Slug: "M1", Outcome: "YES"}

	buy(t, l, m1, 0.42, 250)
	tr, err := l.ClosePosition(m1, 0.42)
	if err != nil {
		t.Fatalf("close position: %v", err)
	}

	if !approxEqual(*tr.RealizedPL, 0, 1e-9) {
		t.Fatalf("expected zero P&L, got %v", *tr.RealizedPL)
	}
	if !approxEqual(l.Balance(), 10000, 1e-9) {
		t.Fatalf("balance should return to start, got %.6f", l.Balance())
	}
}

func TestWeightedAverageEntryAccumulation(t *testing.T) {
	l, _ := newLedger(t, 10000)
	m1 := market.Key{Slug: "M1", Outcome: "YES"}

	buy(t, l, m1, 0.50, 100)
	buy(t, l, m1, 0.70, 100)

	pos, ok := l.Position(m1)
	if !ok {
		t.Fatalf("expected position")
	}
	if !approxEqual(pos.Quantity, 200, 1e-9) {
		t.Fatalf("quantity mismatch: %.2f", pos.Quantity)
	}
	if !approxEqual(pos.AvgEntry, 0.60, 1e-9) {
		t.Fatalf("avg entry mismatch: %.4f", pos.AvgEntry)
	}
}

func TestConservationAcrossBuys(t *testing.T) {
	l, _ := newLedger(t, 10000)

	buy(t, l, market.Key{Slug: "M1", Outcome: "YES"}, 0.50, 100)
	buy(t, l, market.Key{Slug: "M2", Outcome: "NO"}, 0.30, 500)
	buy(t, l, market.Key{Slug: "M1", Outcome: "YES"}, 0.55, 40)

	total := l.Balance()
	for _, p := range l.Positions() {
		total += p.EntryNotional()
	}
	if !approxEqual(total, 10000, 1e-9) {
		t.Fatalf("value created or destroyed: %.6f", total)
	}
}

func TestPartialSellFIFO(t *testing.T) {
	l, _ := newLedger(t, 10000)
	m1 := market.Key{Slug: "M1", Outcome: "YES"}

	first := buy(t, l, m1, 0.50, 100)
	second := buy(t, l, m1, 0.70, 100)

	// Sell 50: first buy only partially consumed, both stay OPEN.
	sell1, err := l.Execute(ExecuteRequest{Market: m1, Side: market.Sell, Price: 0.80, Size: 50})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if !approxEqual(*sell1.RealizedPL, 50*(0.80-0.60), 1e-9) {
		t.Fatalf("sell realized P&L mismatch: %v", *sell1.RealizedPL)
	}
	status := map[string]Status{}
	for _, rec := range l.TradeHistory() {
		status[rec.ID] = rec.Status
	}
	if status[first.ID] != StatusOpen || status[second.ID] != StatusOpen {
		t.Fatalf("partial consume must not flip opening trades")
	}

	// Sell another 60: the first buy's 100 shares are fully consumed.
	if _, err := l.Execute(ExecuteRequest{Market: m1, Side: market.Sell, Price: 0.80, Size: 60}); err != nil {
		t.Fatalf("sell: %v", err)
	}
	for _, rec := range l.TradeHistory() {
		if rec.ID == first.ID {
			if rec.Status != StatusClosed {
				t.Fatalf("first buy should be CLOSED after FIFO consume")
			}
			if rec.RealizedPL == nil || !approxEqual(*rec.RealizedPL, 100*(0.80-0.50), 1e-9) {
				t.Fatalf("first buy P&L mismatch: %v", rec.RealizedPL)
			}
		}
		if rec.ID == second.ID && rec.Status != StatusOpen {
			t.Fatalf("second buy should remain OPEN")
		}
	}

	pos, ok := l.Position(m1)
	if !ok || !approxEqual(pos.Quantity, 90, 1e-9) {
		t.Fatalf("expected 90 shares remaining, got %+v ok=%v", pos, ok)
	}
}

func TestInsufficientBalance(t *testing.T) {
	l, j := newLedger(t, 50)

	_, err := l.Execute(ExecuteRequest{
		Market: market.Key{Slug: "M1", Outcome: "YES"},
		Side:   market.Buy,
		Price:  0.65,
		Size:   100,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if l.Balance() != 50 {
		t.Fatalf("balance must be untouched on failure")
	}
	if len(j.trades) != 0 {
		t.Fatalf("no trade may be journaled on failure")
	}
}

func TestInsufficientPosition(t *testing.T) {
	l, _ := newLedger(t, 10000)
	m1 := market.Key{Slug: "M1", Outcome: "YES"}
	buy(t, l, m1, 0.50, 10)

	_, err := l.Execute(ExecuteRequest{Market: m1, Side: market.Sell, Price: 0.60, Size: 20})
	if !errors.Is(err, ErrInsufficientPosition) {
		t.Fatalf("expected ErrInsufficientPosition, got %v", err)
	}
}

func TestCloseWithoutPosition(t *testing.T) {
	l, _ := newLedger(t, 10000)

	_, err := l.ClosePosition(market.Key{Slug: "M1", Outcome: "YES"}, 0.5)
	if !errors.Is(err, ErrNoOpenPosition) {
		t.Fatalf("expected ErrNoOpenPosition, got %v", err)
	}
}

func TestPriceAndSizeBounds(t *testing.T) {
	l, _ := newLedger(t, 10000)
	m1 := market.Key{Slug: "M1", Outcome: "YES"}

	cases := []ExecuteRequest{
		{Market: m1, Side: market.Buy, Price: 0, Size: 10},
		{Market: m1, Side: market.Buy, Price: 1.2, Size: 10},
		{Market: m1, Side: market.Buy, Price: -0.1, Size: 10},
		{Market: m1, Side: market.Buy, Price: 0.5, Size: 0},
		{Market: m1, Side: market.Buy, Price: 0.5, Size: -5},
	}
	for _, req := range cases {
		if _, err := l.Execute(req); err == nil {
			t.Fatalf("expected rejection for price=%v size=%v", req.Price, req.Size)
		}
	}

	// Price of exactly 1 is a valid settlement-adjacent fill.
	if _, err := l.Execute(ExecuteRequest{Market: m1, Side: market.Buy, Price: 1, Size: 10}); err != nil {
		t.Fatalf("price 1.0 should be accepted: %v", err)
	}
}

func TestJournalReceivesTradeAndBalanceRecords(t *testing.T) {
	l, j := newLedger(t, 10000)
	m1 := market.Key{Slug: "M1", Outcome: "YES"}

	buy(t, l, m1, 0.65, 100)
	if _, err := l.ClosePosition(m1, 0.80); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(j.trades) != 2 {
		t.Fatalf("expected 2 journaled trades, got %d", len(j.trades))
	}
	if len(j.balances) != 2 {
		t.Fatalf("expected 2 balance snapshots, got %d", len(j.balances))
	}
	last := j.balances[len(j.balances)-1]
	if !approxEqual(last.Balance, 9950, 1e-9) || !approxEqual(last.Equity, 9950, 1e-9) {
		t.Fatalf("snapshot mismatch: %+v", last)
	}
}

func TestPerformanceSummary(t *testing.T) {
	l, _ := newLedger(t, 10000)
	m1 := market.Key{Slug: "M1", Outcome: "YES"}
	m2 := market.Key{Slug: "M2", Outcome: "NO"}

	buy(t, l, m1, 0.50, 100)
	if _, err := l.ClosePosition(m1, 0.70); err != nil { // +20
		t.Fatalf("close: %v", err)
	}
	buy(t, l, m2, 0.40, 100)
	if _, err := l.ClosePosition(m2, 0.30); err != nil { // -10
		t.Fatalf("close: %v", err)
	}

	s := l.Performance()
	if s.ClosedTrades != 2 || s.WinningTrades != 1 || s.LosingTrades != 1 {
		t.Fatalf("trade counts mismatch: %+v", s)
	}
	if !approxEqual(s.WinRate, 0.5, 1e-9) {
		t.Fatalf("win rate mismatch: %.4f", s.WinRate)
	}
	if !approxEqual(s.TotalPL, 10, 1e-9) {
		t.Fatalf("total P&L mismatch: %.4f", s.TotalPL)
	}
	if !approxEqual(s.AvgWin, 20, 1e-9) || !approxEqual(s.AvgLoss, -10, 1e-9) {
		t.Fatalf("avg win/loss mismatch: %+v", s)
	}
}
