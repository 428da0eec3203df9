package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/rustyeddy/whalecopy/market"
)

const pingInterval = 5 * time.Second

// subscribeMsg asks the venue's activity channel for matched orders.
var subscribeMsg = map[string]any{
	"action": "subscribe",
	"subscriptions": []map[string]string{
		{"topic": "activity", "type": "orders_matched"},
	},
}

type wsEnvelope struct {
	Topic   string  `json:"topic"`
	Type    string  `json:"type"`
	Payload wsTrade `json:"payload"`
}

type wsTrade struct {
	EventSlug string  `json:"eventSlug"`
	Title     string  `json:"title"`
	Outcome   string  `json:"outcome"`
	Trader    string  `json:"trader"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Timestamp int64   `json:"timestamp"`
}

// WSFeed is the live venue feed. It dials the websocket, subscribes, keeps
// the connection alive with pings, and transparently reconnects with
// exponential backoff. Disconnects surface downstream only as a gap in
// events, never as an error.
type WSFeed struct {
	url    string
	events chan market.RawEvent
	cancel context.CancelFunc
	done   chan struct{}
	log    *zap.Logger
	once   sync.Once
}

// NewWS starts the feed's connection loop immediately.
func NewWS(url string, log *zap.Logger) *WSFeed {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &WSFeed{
		url:    url,
		events: make(chan market.RawEvent, 256),
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log,
	}
	go f.run(ctx)
	return f
}

func (f *WSFeed) Next(ctx context.Context) (market.RawEvent, bool, error) {
	select {
	case <-ctx.Done():
		return market.RawEvent{}, false, ctx.Err()
	case <-f.done:
		return market.RawEvent{}, false, nil
	case ev := <-f.events:
		return ev, true, nil
	}
}

func (f *WSFeed) Close() error {
	f.once.Do(func() {
		f.cancel()
		close(f.done)
	})
	return nil
}

func (f *WSFeed) run(ctx context.Context) {
	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    time.Minute,
		Jitter: true,
	}

	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			d := b.Duration()
			f.log.Warn("websocket dial failed",
				zap.String("url", f.url),
				zap.Duration("retry_in", d),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(d):
			}
			continue
		}

		if err := conn.WriteJSON(subscribeMsg); err != nil {
			f.log.Warn("subscribe failed", zap.Error(err))
			conn.Close()
			continue
		}
		b.Reset()
		f.log.Info("websocket connected", zap.String("url", f.url))

		f.readLoop(ctx, conn)
		conn.Close()
	}
}

// readLoop pumps one connection until it breaks. Pings run on a side
// goroutine; a failed ping shows up here as a read error.
func (f *WSFeed) readLoop(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				f.log.Warn("websocket read failed, reconnecting", zap.Error(err))
			}
			return
		}

		var env wsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		if env.Topic != "activity" || env.Type != "orders_matched" {
			continue
		}

		ts := time.Now().UTC()
		if env.Payload.Timestamp > 0 {
			ts = time.UnixMilli(env.Payload.Timestamp).UTC()
		}
		ev := market.RawEvent{
			Slug:    env.Payload.EventSlug,
			Title:   env.Payload.Title,
			Outcome: env.Payload.Outcome,
			Wallet:  env.Payload.Trader,
			Side:    market.Side(env.Payload.Side),
			Price:   env.Payload.Price,
			Size:    env.Payload.Size,
			Time:    ts,
		}

		select {
		case <-ctx.Done():
			return
		case f.events <- ev:
		default:
			// Queue full: drop the oldest pending event rather than
			// stall the read loop.
			select {
			case <-f.events:
			default:
			}
			select {
			case f.events <- ev:
			default:
			}
		}
	}
}
