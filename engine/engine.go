// Package engine runs the copy-decision pipeline: for each classified whale
// trade it checks wallet eligibility, requests consensus, sizes the copy, and
// submits the simulated order. Every event ends in exactly one terminal
// decision, recorded to the journal.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/whalecopy/consensus"
	"github.com/rustyeddy/whalecopy/journal"
	"github.com/rustyeddy/whalecopy/ledger"
	"github.com/rustyeddy/whalecopy/market"
	"github.com/rustyeddy/whalecopy/pkg/id"
	"github.com/rustyeddy/whalecopy/scorer"
	"github.com/rustyeddy/whalecopy/whale"
)

// Config is the immutable decision policy, fixed at construction. Re-create
// the engine to change it; there are no ambient globals.
type Config struct {
	// MinWinRate a wallet must clear to be copied.
	MinWinRate float64
	// MaxCopyNotional caps the dollar size of any single copy.
	MaxCopyNotional float64
	// CopyPercent of the whale's notional to mirror, in (0,1].
	CopyPercent float64
	// AutoCopy false puts the engine in observation mode: wallets are still
	// scored, but every event terminates at FILTERED_OUT.
	AutoCopy bool
}

func (c Config) validate() error {
	if c.CopyPercent <= 0 || c.CopyPercent > 1 {
		return fmt.Errorf("engine: copy percent %v outside (0,1]", c.CopyPercent)
	}
	if c.MaxCopyNotional <= 0 {
		return fmt.Errorf("engine: max copy notional %v must be positive", c.MaxCopyNotional)
	}
	if c.MinWinRate < 0 || c.MinWinRate > 1 {
		return fmt.Errorf("engine: min win rate %v outside [0,1]", c.MinWinRate)
	}
	return nil
}

// Engine orchestrates one decision cycle per classified whale trade.
type Engine struct {
	cfg        Config
	classifier *whale.Classifier
	scorer     *scorer.Scorer
	validator  *consensus.Validator
	ledger     *ledger.Ledger
	journal    journal.Journal
	log        *zap.Logger
}

func New(cfg Config, c *whale.Classifier, s *scorer.Scorer, v *consensus.Validator, l *ledger.Ledger, j journal.Journal, log *zap.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if j == nil {
		j = journal.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		classifier: c,
		scorer:     s,
		validator:  v,
		ledger:     l,
		journal:    j,
		log:        log,
	}, nil
}

// Process runs one raw venue event through the full pipeline and returns the
// terminal signal. A nil return means the event did not classify as a whale
// trade at all; no record is produced for sub-threshold noise.
func (e *Engine) Process(ctx context.Context, ev market.RawEvent) (*Signal, error) {
	trade := e.classifier.Classify(ev)
	if trade == nil {
		return nil, nil
	}

	// Wallets are scored even in observation mode so the track record is
	// warm when auto-copy turns on.
	e.scorer.Observe(trade)
	e.ledger.MarkPrice(trade.Market, trade.Price)

	sig := &Signal{
		ID:            id.New(),
		Time:          time.Now().UTC(),
		Trade:         trade,
		WalletWinRate: e.scorer.WinRate(trade.Wallet),
	}

	if !e.cfg.AutoCopy {
		return e.finish(sig, FilteredOut, "auto-copy disabled, observing only"), nil
	}

	if !e.scorer.IsEligible(trade.Wallet, e.cfg.MinWinRate) {
		return e.finish(sig, Ineligible, fmt.Sprintf("wallet below %.0f%% win-rate gate", e.cfg.MinWinRate*100)), nil
	}

	res, err := e.validator.Evaluate(ctx, consensus.Request{
		Market:      trade.Market,
		Title:       trade.Title,
		Side:        trade.Side,
		CurrentOdds: trade.Price,
	})
	if err != nil {
		if errors.Is(err, consensus.ErrInconclusive) {
			sig.Consensus = &res
			return e.finish(sig, Inconclusive, fmt.Sprintf("%d of quorum responded", res.Respondents)), nil
		}
		return nil, err
	}
	sig.Consensus = &res

	if !e.validator.Confirmed(res, trade.Price) {
		return e.finish(sig, Skipped,
			fmt.Sprintf("agreement %.2f, edge %.3f insufficient", res.Agreement, math.Abs(res.MeanEstimate-trade.Price))), nil
	}

	size := e.copySize(trade)
	if size <= 0 {
		return e.finish(sig, Skipped, "no position to reduce"), nil
	}

	t, err := e.ledger.Execute(ledger.ExecuteRequest{
		Market: trade.Market,
		Title:  trade.Title,
		Side:   trade.Side,
		Price:  trade.Price,
		Size:   size,
		Kind:   market.MarketOrder,
		Note:   "copy of " + trade.Wallet,
		Time:   sig.Time,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return e.finish(sig, CapExceeded, "sized order exceeds remaining balance"), nil
		}
		// A sizing bug; abort this cycle only, the pipeline continues.
		e.log.Error("copy execution failed",
			zap.String("market", trade.Market.String()),
			zap.Error(err),
		)
		return e.finish(sig, Skipped, "execution rejected: "+err.Error()), nil
	}

	sig.CopiedSize = size
	sig.TradeID = t.ID
	return e.finish(sig, Copied, fmt.Sprintf("copied %.2f shares at %.2f", size, trade.Price)), nil
}

// copySize mirrors a fraction of the whale's notional, capped in dollars and
// converted back to shares at the whale's fill price. Sells are additionally
// bounded by what the simulated account actually holds.
func (e *Engine) copySize(t *whale.Trade) float64 {
	notional := t.Notional * e.cfg.CopyPercent
	if notional > e.cfg.MaxCopyNotional {
		notional = e.cfg.MaxCopyNotional
	}
	size := notional / t.Price

	if t.Side == market.Sell {
		pos, ok := e.ledger.Position(t.Market)
		if !ok {
			return 0
		}
		if size > pos.Quantity {
			size = pos.Quantity
		}
	}
	return size
}

func (e *Engine) finish(sig *Signal, d Decision, reason string) *Signal {
	sig.Decision = d
	sig.Reason = reason

	rec := journal.SignalRecord{
		SignalID:      sig.ID,
		Time:          sig.Time,
		Market:        sig.Trade.Market.String(),
		Title:         sig.Trade.Title,
		Wallet:        sig.Trade.Wallet,
		WhaleSide:     string(sig.Trade.Side),
		WhalePrice:    sig.Trade.Price,
		WhaleSize:     sig.Trade.Size,
		WhaleNotional: sig.Trade.Notional,
		WalletWinRate: sig.WalletWinRate,
		Decision:      string(d),
		Reason:        reason,
		CopiedSize:    sig.CopiedSize,
		TradeID:       sig.TradeID,
	}
	if sig.Consensus != nil {
		rec.MeanEstimate = sig.Consensus.MeanEstimate
		rec.Agreement = sig.Consensus.Agreement
	}
	if err := e.journal.RecordSignal(rec); err != nil {
		e.log.Warn("journal signal record failed", zap.Error(err))
	}

	e.log.Info("whale signal decided",
		zap.String("market", sig.Trade.Market.String()),
		zap.String("wallet", sig.Trade.Wallet),
		zap.Float64("notional", sig.Trade.Notional),
		zap.String("decision", string(d)),
		zap.String("reason", reason),
	)
	return sig
}
