package market

import (
	"fmt"
	"time"
)

// Side is the direction of a fill on an outcome token.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderKind distinguishes simulated market fills from limit fills. The paper
// engine fills both at the given price; the kind is carried for the journal.
type OrderKind string

const (
	MarketOrder OrderKind = "MARKET"
	LimitOrder  OrderKind = "LIMIT"
)

// Key identifies one outcome token of one market. At most one open position
// exists per Key.
type Key struct {
	Slug    string // market identifier, e.g. "presidential-election-2028"
	Outcome string // outcome token, e.g. "YES" or "NO"
}

func (k Key) String() string {
	return k.Slug + "/" + k.Outcome
}

// ValidPrice reports whether p is a valid probability-token price.
// Outcome tokens trade in (0, 1]: a fill at exactly 0 carries no notional.
func ValidPrice(p float64) bool {
	return p > 0 && p <= 1
}

// RawEvent is a venue trade event as delivered by the stream provider,
// before classification. Fields mirror the venue's orders_matched payload.
type RawEvent struct {
	Slug    string
	Title   string
	Outcome string
	Wallet  string
	Side    Side
	Price   float64
	Size    float64
	Time    time.Time
}

// Notional returns the USD value of the event.
func (e RawEvent) Notional() float64 {
	return e.Price * e.Size
}

// Key returns the market key the event trades on.
func (e RawEvent) Key() Key {
	return Key{Slug: e.Slug, Outcome: e.Outcome}
}

// Validate checks the fields the pipeline depends on.
func (e RawEvent) Validate() error {
	if e.Slug == "" {
		return fmt.Errorf("market: event missing slug")
	}
	if !ValidPrice(e.Price) {
		return fmt.Errorf("market: event price %v outside (0,1]", e.Price)
	}
	if e.Size <= 0 {
		return fmt.Errorf("market: event size %v must be positive", e.Size)
	}
	return nil
}
