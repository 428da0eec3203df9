// Package scorer maintains running quality statistics per whale wallet.
// Profiles are owned exclusively here; the decision engine reads eligibility
// through the exported methods and never mutates profiles directly.
package scorer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/whalecopy/whale"
)

// Profile is the accumulated view of one wallet's observed activity.
type Profile struct {
	Wallet        string
	TradeCount    int
	TotalVolume   float64
	ResolvedCount int
	WinCount      int
	// ExternalPL is the wallet's lifetime profit/loss as reported by an
	// external stats provider, when one is wired in. Informational only;
	// eligibility is gated on resolved outcomes, not on this figure.
	ExternalPL float64
	FirstSeen  time.Time
	LastSeen   time.Time
}

// WinRate returns wins over resolved trades, or nil while nothing has
// resolved. Callers must treat nil as unknown, never as zero.
func (p Profile) WinRate() *float64 {
	if p.ResolvedCount == 0 {
		return nil
	}
	r := float64(p.WinCount) / float64(p.ResolvedCount)
	return &r
}

// Scorer upserts wallet profiles as whale trades are observed and as the
// resolution feed reports outcomes. Updates are serialized; a single wallet's
// trades are therefore scored in arrival order.
type Scorer struct {
	mu          sync.Mutex
	profiles    map[string]*Profile
	minResolved int
	log         *zap.Logger
}

// New creates a scorer. minResolved is the number of resolved trades required
// before a win rate is trusted for eligibility.
func New(minResolved int, log *zap.Logger) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{
		profiles:    make(map[string]*Profile),
		minResolved: minResolved,
		log:         log,
	}
}

// Observe records a whale trade against its wallet's profile. Trade count and
// volume grow unconditionally; win attribution waits for RecordOutcome.
func (s *Scorer) Observe(t *whale.Trade) {
	if t == nil || t.Wallet == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[t.Wallet]
	if !ok {
		p = &Profile{Wallet: t.Wallet, FirstSeen: t.Time}
		s.profiles[t.Wallet] = p
	}
	p.TradeCount++
	p.TotalVolume += t.Notional
	if t.Time.After(p.LastSeen) {
		p.LastSeen = t.Time
	}
}

// RecordOutcome is the resolution-feed seam: it attributes one resolved trade
// to the wallet. Outcomes may arrive arbitrarily later than the observation;
// an outcome for a never-observed wallet still creates a profile so the
// history isn't lost.
func (s *Scorer) RecordOutcome(wallet string, won bool) {
	if wallet == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[wallet]
	if !ok {
		p = &Profile{Wallet: wallet}
		s.profiles[wallet] = p
	}
	p.ResolvedCount++
	if won {
		p.WinCount++
	}

	s.log.Debug("wallet outcome recorded",
		zap.String("wallet", wallet),
		zap.Bool("won", won),
		zap.Int("resolved", p.ResolvedCount),
	)
}

// SetExternalPL stores the lifetime profit/loss an external stats provider
// reports for the wallet.
func (s *Scorer) SetExternalPL(wallet string, pl float64) {
	if wallet == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[wallet]
	if !ok {
		p = &Profile{Wallet: wallet}
		s.profiles[wallet] = p
	}
	p.ExternalPL = pl
}

// IsEligible reports whether the wallet's track record clears minWinRate.
// Wallets with fewer than the configured minimum of resolved trades are never
// eligible, regardless of win rate: early small samples are noise.
func (s *Scorer) IsEligible(wallet string, minWinRate float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[wallet]
	if !ok || p.ResolvedCount < s.minResolved {
		return false
	}
	return float64(p.WinCount)/float64(p.ResolvedCount) >= minWinRate
}

// WinRate returns the wallet's win rate, or nil when unknown.
func (s *Scorer) WinRate(wallet string) *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[wallet]
	if !ok {
		return nil
	}
	return p.WinRate()
}

// Profile returns a snapshot of the wallet's profile, if one exists.
func (s *Scorer) Profile(wallet string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[wallet]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// Wallets returns the number of distinct wallets tracked.
func (s *Scorer) Wallets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}
