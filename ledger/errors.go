package ledger

import "errors"

// Invariant violations. These indicate a sizing bug in the caller and are
// always surfaced, never swallowed.
var (
	ErrInsufficientBalance  = errors.New("ledger: insufficient balance")
	ErrInsufficientPosition = errors.New("ledger: insufficient position")
	ErrNoOpenPosition       = errors.New("ledger: no open position")
)
