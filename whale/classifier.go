// Package whale classifies raw venue trade events into whale trades worth
// evaluating for a copy.
package whale

import (
	"time"

	"github.com/rustyeddy/whalecopy/market"
)

// Trade is the canonical whale-trade record: a single venue fill whose
// notional cleared the configured threshold.
type Trade struct {
	Market   market.Key
	Title    string
	Wallet   string
	Side     market.Side
	Price    float64
	Size     float64
	Notional float64
	Time     time.Time
}

// Classifier filters and normalizes raw venue events. It is a pure function
// of its input plus the threshold; it never touches shared state.
type Classifier struct {
	minNotional float64
}

func NewClassifier(minNotional float64) *Classifier {
	return &Classifier{minNotional: minNotional}
}

// Classify returns the normalized whale trade, or nil when the event's
// notional is below the threshold or the event is malformed. Neither case is
// an error: small trades are simply not signals.
func (c *Classifier) Classify(ev market.RawEvent) *Trade {
	if ev.Validate() != nil {
		return nil
	}

	notional := ev.Notional()
	if notional < c.minNotional {
		return nil
	}

	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return &Trade{
		Market:   ev.Key(),
		Title:    ev.Title,
		Wallet:   ev.Wallet,
		Side:     ev.Side,
		Price:    ev.Price,
		Size:     ev.Size,
		Notional: notional,
		Time:     ts,
	}
}
