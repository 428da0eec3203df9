package journal

import "time"

// TradeRecord is the journaled form of a single simulated fill.
type TradeRecord struct {
	TradeID    string
	Time       time.Time
	Market     string
	Title      string
	Side       string
	Price      float64
	Size       float64
	Notional   float64
	Kind       string
	Status     string
	RealizedPL float64 // 0 until the fill's position is closed
	Note       string
}

// SignalRecord is the auditable outcome of one copy-decision cycle. Exactly
// one is recorded per ingested whale trade, whatever the terminal state.
type SignalRecord struct {
	SignalID      string
	Time          time.Time
	Market        string
	Title         string
	Wallet        string
	WhaleSide     string
	WhalePrice    float64
	WhaleSize     float64
	WhaleNotional float64
	WalletWinRate *float64 // nil when the wallet has no resolved trades yet
	MeanEstimate  float64
	Agreement     float64
	Decision      string
	Reason        string
	CopiedSize    float64 // shares copied; 0 unless Decision is "copied"
	TradeID       string  // ledger trade ID when copied
}

// BalanceSnapshot is appended after every mutating ledger operation.
type BalanceSnapshot struct {
	Time         time.Time
	Balance      float64
	RealizedPL   float64
	UnrealizedPL float64
	Equity       float64
}

// Journal is the append-only persistence sink. The core writes to it and
// never reads state back at runtime; queries exist for offline reporting.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordSignal(SignalRecord) error
	RecordBalance(BalanceSnapshot) error
	Close() error
}

// Nop discards all records. Useful for demos and tests that only care about
// in-memory state.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error       { return nil }
func (Nop) RecordSignal(SignalRecord) error     { return nil }
func (Nop) RecordBalance(BalanceSnapshot) error { return nil }
func (Nop) Close() error                        { return nil }
