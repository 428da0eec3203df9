// Package tracker wires the feed, decision engine, scorer, and ledger into
// one long-running pipeline and exposes the read facade over its state.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/whalecopy/engine"
	"github.com/rustyeddy/whalecopy/ledger"
	"github.com/rustyeddy/whalecopy/market"
	"github.com/rustyeddy/whalecopy/scorer"
	"github.com/rustyeddy/whalecopy/stream"
)

// Config tunes the pipeline's scheduling. Zero values fall back to defaults:
// a 256-event queue drained by a single sequential worker.
type Config struct {
	QueueSize      int
	Workers        int
	StatusInterval time.Duration // 0 disables periodic status logging
}

func (c *Config) applyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

type stats struct {
	received  int64
	dropped   int64
	whales    int64
	validated int64
	copied    int64
}

// Tracker runs one ingestion task feeding a bounded queue and a worker pool
// that drives the decision engine per event.
type Tracker struct {
	cfg    Config
	feed   stream.Feed
	engine *engine.Engine
	ledger *ledger.Ledger
	scorer *scorer.Scorer
	log    *zap.Logger

	queue chan market.RawEvent

	mu sync.Mutex
	st stats
}

func New(cfg Config, feed stream.Feed, e *engine.Engine, l *ledger.Ledger, s *scorer.Scorer, log *zap.Logger) *Tracker {
	cfg.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		cfg:    cfg,
		feed:   feed,
		engine: e,
		ledger: l,
		scorer: s,
		log:    log,
		queue:  make(chan market.RawEvent, cfg.QueueSize),
	}
}

// Run drives the pipeline until the feed exhausts or ctx is cancelled.
// Cancellation is cooperative: it takes effect at the checkpoint between
// events, never mid-decision.
func (t *Tracker) Run(ctx context.Context) error {
	sctx, stopStatus := context.WithCancel(ctx)
	defer stopStatus()

	var wg sync.WaitGroup
	if t.cfg.StatusInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.statusLoop(sctx)
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(t.queue)
		return t.ingest(gctx)
	})

	for i := 0; i < t.cfg.Workers; i++ {
		g.Go(func() error {
			return t.work(gctx)
		})
	}

	err := g.Wait()
	stopStatus()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("tracker: %w", err)
	}
	return nil
}

func (t *Tracker) ingest(ctx context.Context) error {
	for {
		ev, ok, err := t.feed.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			t.log.Info("feed exhausted")
			return nil
		}

		t.mu.Lock()
		t.st.received++
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case t.queue <- ev:
		default:
			t.mu.Lock()
			t.st.dropped++
			t.mu.Unlock()
			t.log.Warn("queue full, event dropped",
				zap.String("market", ev.Key().String()),
			)
		}
	}
}

func (t *Tracker) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-t.queue:
			if !ok {
				return nil
			}
			t.process(ctx, ev)
		}
	}
}

func (t *Tracker) process(ctx context.Context, ev market.RawEvent) {
	// Every valid event is a fresh mark for any position we hold on it,
	// whale-sized or not.
	if ev.Validate() == nil {
		t.ledger.MarkPrice(ev.Key(), ev.Price)
	}

	sig, err := t.engine.Process(ctx, ev)
	if err != nil {
		t.log.Error("decision cycle failed",
			zap.String("market", ev.Key().String()),
			zap.Error(err),
		)
		return
	}
	if sig == nil {
		return
	}

	t.mu.Lock()
	t.st.whales++
	if sig.Consensus != nil && sig.Decision != engine.Inconclusive {
		t.st.validated++
	}
	if sig.Decision == engine.Copied {
		t.st.copied++
	}
	t.mu.Unlock()
}

func (t *Tracker) statusLoop(ctx context.Context) {
	tick := time.NewTicker(t.cfg.StatusInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			t.mu.Lock()
			st := t.st
			t.mu.Unlock()

			t.log.Info("tracker status",
				zap.Int64("events_received", st.received),
				zap.Int64("events_dropped", st.dropped),
				zap.Int64("whale_trades", st.whales),
				zap.Int64("consensus_validated", st.validated),
				zap.Int64("copies", st.copied),
				zap.Int("wallets_tracked", t.scorer.Wallets()),
				zap.Float64("balance", t.ledger.Balance()),
				zap.Int("open_positions", len(t.ledger.Positions())),
			)
		}
	}
}

// SubmitRawEvent runs one event through the pipeline synchronously, bypassing
// the queue. Intended for callers embedding the tracker without a feed.
func (t *Tracker) SubmitRawEvent(ctx context.Context, ev market.RawEvent) error {
	t.mu.Lock()
	t.st.received++
	t.mu.Unlock()

	t.process(ctx, ev)
	return nil
}

// GetBalance returns the simulated cash balance.
func (t *Tracker) GetBalance() float64 { return t.ledger.Balance() }

// GetPositions returns a snapshot of open positions.
func (t *Tracker) GetPositions() []ledger.Position { return t.ledger.Positions() }

// GetTradeHistory returns the append-only simulated trade log.
func (t *Tracker) GetTradeHistory() []ledger.Trade { return t.ledger.TradeHistory() }

// GetWalletProfile returns the tracked profile for wallet, if any.
func (t *Tracker) GetWalletProfile(wallet string) (scorer.Profile, bool) {
	return t.scorer.Profile(wallet)
}

// Performance returns the simulated account's aggregate performance.
func (t *Tracker) Performance() ledger.Summary { return t.ledger.Performance() }
