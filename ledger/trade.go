package ledger

import (
	"time"

	"github.com/rustyeddy/whalecopy/market"
)

// Status tracks whether the position a trade originated is still open.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Trade is an immutable record of a single simulated fill. Price and Size are
// never mutated after the fill; closing a position flips Status and sets
// RealizedPL but touches nothing else.
type Trade struct {
	ID       string
	Time     time.Time
	Market   market.Key
	Title    string
	Side     market.Side
	Price    float64
	Size     float64
	Notional float64
	Kind     market.OrderKind

	Status     Status
	RealizedPL *float64 // nil until Status is CLOSED
	Note       string   // why the fill happened, e.g. "whale copy 0xabc…"
}

// Position is the net open exposure to one outcome token of one market.
type Position struct {
	Market   market.Key
	Title    string
	Quantity float64 // signed share count; positive is long
	AvgEntry float64 // weighted average entry price
	Mark     float64 // last observed trade price
	OpenedAt time.Time
}

// EntryNotional is the capital committed at entry.
func (p Position) EntryNotional() float64 {
	return p.Quantity * p.AvgEntry
}

// UnrealizedPL marks the position against the last observed price.
func (p Position) UnrealizedPL() float64 {
	return p.Quantity * (p.Mark - p.AvgEntry)
}

// realizedPL is the P&L of unwinding qty shares entered at avg and exited at
// exit. Signed: a long (qty > 0) profits when exit > avg.
func realizedPL(qty, avg, exit float64) float64 {
	return qty * (exit - avg)
}
