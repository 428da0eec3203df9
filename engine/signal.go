package engine

import (
	"time"

	"github.com/rustyeddy/whalecopy/consensus"
	"github.com/rustyeddy/whalecopy/whale"
)

// Decision is the terminal state of one copy-decision cycle.
type Decision string

const (
	// FilteredOut: below the whale threshold, malformed, or observation mode.
	FilteredOut Decision = "FILTERED_OUT"
	// Ineligible: the wallet's track record does not clear the win-rate gate.
	Ineligible Decision = "INELIGIBLE"
	// Inconclusive: too few estimator backends answered.
	Inconclusive Decision = "INCONCLUSIVE"
	// Skipped: consensus reached but agreement or edge insufficient.
	Skipped Decision = "SKIPPED"
	// CapExceeded: sized order would not fit the remaining balance.
	CapExceeded Decision = "CAP_EXCEEDED"
	// Copied: a simulated order was filled.
	Copied Decision = "COPIED"
)

// Signal is the auditable record of one decision cycle. One is produced per
// incoming event regardless of outcome; it is persisted and then discarded,
// never retained as live state.
type Signal struct {
	ID            string
	Time          time.Time
	Trade         *whale.Trade
	WalletWinRate *float64
	Consensus     *consensus.Result
	Decision      Decision
	Reason        string
	CopiedSize    float64
	TradeID       string
}
