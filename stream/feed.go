// Package stream provides trade-event feeds: a live venue websocket, a CSV
// replay for scripted scenarios, and an in-memory channel feed for tests.
package stream

import (
	"context"

	"github.com/rustyeddy/whalecopy/market"
)

// Feed yields raw venue trade events one at a time. ok is false when the
// feed is exhausted (replay reached EOF, or the feed was closed). A live feed
// never exhausts on its own; it reports gaps as silence, not errors.
type Feed interface {
	Next(ctx context.Context) (ev market.RawEvent, ok bool, err error)
	Close() error
}

// ChanFeed adapts a channel of events into a Feed. The producer closes the
// channel to end the feed.
type ChanFeed struct {
	C chan market.RawEvent
}

func NewChanFeed(buf int) *ChanFeed {
	return &ChanFeed{C: make(chan market.RawEvent, buf)}
}

func (f *ChanFeed) Next(ctx context.Context) (market.RawEvent, bool, error) {
	select {
	case <-ctx.Done():
		return market.RawEvent{}, false, ctx.Err()
	case ev, ok := <-f.C:
		return ev, ok, nil
	}
}

func (f *ChanFeed) Close() error { return nil }
