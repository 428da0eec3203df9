// Package ledger is the simulated execution engine. It is the only component
// that mutates monetary state: balance, open positions, and the append-only
// trade log live behind a single mutex so no caller can ever observe a
// balance update torn from its position update.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/whalecopy/journal"
	"github.com/rustyeddy/whalecopy/market"
	"github.com/rustyeddy/whalecopy/pkg/id"
)

type Ledger struct {
	mu        sync.Mutex
	starting  float64
	balance   float64
	realized  float64
	positions map[market.Key]*Position
	trades    []*Trade
	openQty   map[string]float64 // remaining open quantity per opening trade ID
	journal   journal.Journal
	log       *zap.Logger
}

// ExecuteRequest describes one simulated fill.
type ExecuteRequest struct {
	Market market.Key
	Title  string
	Side   market.Side
	Price  float64
	Size   float64
	Kind   market.OrderKind
	Note   string
	Time   time.Time // zero means now
}

func New(startingBalance float64, j journal.Journal, log *zap.Logger) *Ledger {
	if j == nil {
		j = journal.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		starting:  startingBalance,
		balance:   startingBalance,
		positions: make(map[market.Key]*Position),
		openQty:   make(map[string]float64),
		journal:   j,
		log:       log,
	}
}

// Execute fills a simulated order at the given price. Buys debit balance and
// accumulate the position with weighted-average entry accounting; sells are
// bounded by the held quantity, credit balance, and realize P&L against the
// average entry. The returned Trade is the appended record.
func (l *Ledger) Execute(req ExecuteRequest) (Trade, error) {
	if !market.ValidPrice(req.Price) {
		return Trade{}, fmt.Errorf("ledger: price %v outside (0,1]", req.Price)
	}
	if req.Size <= 0 {
		return Trade{}, fmt.Errorf("ledger: size %v must be positive", req.Size)
	}
	if req.Kind == "" {
		req.Kind = market.MarketOrder
	}
	if req.Time.IsZero() {
		req.Time = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch req.Side {
	case market.Buy:
		return l.executeBuyLocked(req)
	case market.Sell:
		return l.executeSellLocked(req)
	default:
		return Trade{}, fmt.Errorf("ledger: unknown side %q", req.Side)
	}
}

func (l *Ledger) executeBuyLocked(req ExecuteRequest) (Trade, error) {
	notional := req.Price * req.Size
	if notional > l.balance {
		return Trade{}, fmt.Errorf("ledger: buy %s for %.2f with balance %.2f: %w",
			req.Market, notional, l.balance, ErrInsufficientBalance)
	}

	l.balance -= notional

	pos, ok := l.positions[req.Market]
	if !ok {
		pos = &Position{
			Market:   req.Market,
			Title:    req.Title,
			Mark:     req.Price,
			OpenedAt: req.Time,
		}
		l.positions[req.Market] = pos
	}
	newQty := pos.Quantity + req.Size
	pos.AvgEntry = (pos.Quantity*pos.AvgEntry + notional) / newQty
	pos.Quantity = newQty
	pos.Mark = req.Price

	t := &Trade{
		ID:       id.New(),
		Time:     req.Time,
		Market:   req.Market,
		Title:    req.Title,
		Side:     market.Buy,
		Price:    req.Price,
		Size:     req.Size,
		Notional: notional,
		Kind:     req.Kind,
		Status:   StatusOpen,
		Note:     req.Note,
	}
	l.trades = append(l.trades, t)
	l.openQty[t.ID] = req.Size

	l.recordLocked(*t)
	l.snapshotLocked(req.Time)

	l.log.Info("paper buy filled",
		zap.String("market", req.Market.String()),
		zap.Float64("price", req.Price),
		zap.Float64("size", req.Size),
		zap.Float64("balance", l.balance),
	)
	return *t, nil
}

func (l *Ledger) executeSellLocked(req ExecuteRequest) (Trade, error) {
	pos, ok := l.positions[req.Market]
	if !ok || pos.Quantity < req.Size {
		held := 0.0
		if ok {
			held = pos.Quantity
		}
		return Trade{}, fmt.Errorf("ledger: sell %v of %s with %v held: %w",
			req.Size, req.Market, held, ErrInsufficientPosition)
	}

	notional := req.Price * req.Size
	pl := realizedPL(req.Size, pos.AvgEntry, req.Price)

	l.balance += notional
	l.realized += pl
	pos.Quantity -= req.Size
	pos.Mark = req.Price

	t := &Trade{
		ID:         id.New(),
		Time:       req.Time,
		Market:     req.Market,
		Title:      req.Title,
		Side:       market.Sell,
		Price:      req.Price,
		Size:       req.Size,
		Notional:   notional,
		Kind:       req.Kind,
		Status:     StatusClosed,
		RealizedPL: &pl,
		Note:       req.Note,
	}
	l.trades = append(l.trades, t)

	l.consumeFIFOLocked(req.Market, req.Size, req.Price)
	if pos.Quantity == 0 {
		delete(l.positions, req.Market)
	}

	l.recordLocked(*t)
	l.snapshotLocked(req.Time)

	l.log.Info("paper sell filled",
		zap.String("market", req.Market.String()),
		zap.Float64("price", req.Price),
		zap.Float64("size", req.Size),
		zap.Float64("realized_pl", pl),
		zap.Float64("balance", l.balance),
	)
	return *t, nil
}

// ClosePosition unwinds the whole position for key at exitPrice. P&L is
// qty × (exit − avg entry); balance is credited by qty × exit. The opening
// trades are flipped to CLOSED via FIFO matching; the position is removed.
func (l *Ledger) ClosePosition(key market.Key, exitPrice float64) (Trade, error) {
	if !market.ValidPrice(exitPrice) {
		return Trade{}, fmt.Errorf("ledger: exit price %v outside (0,1]", exitPrice)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[key]
	if !ok {
		return Trade{}, fmt.Errorf("ledger: close %s: %w", key, ErrNoOpenPosition)
	}

	now := time.Now().UTC()
	qty := pos.Quantity
	pl := realizedPL(qty, pos.AvgEntry, exitPrice)

	l.balance += qty * exitPrice
	l.realized += pl

	side := market.Sell
	if qty < 0 {
		side = market.Buy
	}
	size := qty
	if size < 0 {
		size = -size
	}

	t := &Trade{
		ID:         id.New(),
		Time:       now,
		Market:     key,
		Title:      pos.Title,
		Side:       side,
		Price:      exitPrice,
		Size:       size,
		Notional:   size * exitPrice,
		Kind:       market.MarketOrder,
		Status:     StatusClosed,
		RealizedPL: &pl,
		Note:       "position close",
	}
	l.trades = append(l.trades, t)

	l.consumeFIFOLocked(key, size, exitPrice)
	delete(l.positions, key)

	l.recordLocked(*t)
	l.snapshotLocked(now)

	l.log.Info("position closed",
		zap.String("market", key.String()),
		zap.Float64("exit", exitPrice),
		zap.Float64("realized_pl", pl),
		zap.Float64("balance", l.balance),
	)
	return *t, nil
}

// consumeFIFOLocked matches size shares of closing volume against the oldest
// open trades for key. A trade whose remaining open quantity reaches zero is
// flipped to CLOSED with its own entry-vs-exit P&L; price and size of the
// opening record are never touched.
func (l *Ledger) consumeFIFOLocked(key market.Key, size float64, exitPrice float64) {
	remaining := size
	for _, t := range l.trades {
		if remaining <= 0 {
			break
		}
		if t.Market != key || t.Status != StatusOpen {
			continue
		}
		open := l.openQty[t.ID]
		if open <= 0 {
			continue
		}

		matched := open
		if matched > remaining {
			matched = remaining
		}
		open -= matched
		remaining -= matched
		l.openQty[t.ID] = open

		if open == 0 {
			pl := realizedPL(t.Size, t.Price, exitPrice)
			t.Status = StatusClosed
			t.RealizedPL = &pl
			delete(l.openQty, t.ID)
		}
	}
}

// MarkPrice updates the unrealized mark for any open position on key.
// No-op when no position is held.
func (l *Ledger) MarkPrice(key market.Key, price float64) {
	if !market.ValidPrice(price) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if pos, ok := l.positions[key]; ok {
		pos.Mark = price
	}
}

// Balance returns the current simulated cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// StartingBalance returns the balance the ledger was created with.
func (l *Ledger) StartingBalance() float64 {
	return l.starting
}

// Positions returns a snapshot of all open positions, ordered by market key.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Market.String() < out[j].Market.String()
	})
	return out
}

// Position returns the open position for key, if any.
func (l *Ledger) Position(key market.Key) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[key]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// TradeHistory returns a copy of the append-only trade log, oldest first.
func (l *Ledger) TradeHistory() []Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Trade, len(l.trades))
	for i, t := range l.trades {
		out[i] = *t
	}
	return out
}

func (l *Ledger) recordLocked(t Trade) {
	var pl float64
	if t.RealizedPL != nil {
		pl = *t.RealizedPL
	}
	err := l.journal.RecordTrade(journal.TradeRecord{
		TradeID:    t.ID,
		Time:       t.Time,
		Market:     t.Market.String(),
		Title:      t.Title,
		Side:       string(t.Side),
		Price:      t.Price,
		Size:       t.Size,
		Notional:   t.Notional,
		Kind:       string(t.Kind),
		Status:     string(t.Status),
		RealizedPL: pl,
		Note:       t.Note,
	})
	if err != nil {
		l.log.Warn("journal trade record failed", zap.Error(err))
	}
}

func (l *Ledger) snapshotLocked(at time.Time) {
	var unrealized, held float64
	for _, p := range l.positions {
		unrealized += p.UnrealizedPL()
		held += p.Quantity * p.Mark
	}
	err := l.journal.RecordBalance(journal.BalanceSnapshot{
		Time:         at,
		Balance:      l.balance,
		RealizedPL:   l.realized,
		UnrealizedPL: unrealized,
		Equity:       l.balance + held,
	})
	if err != nil {
		l.log.Warn("journal balance snapshot failed", zap.Error(err))
	}
}
