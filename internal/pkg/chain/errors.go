package chain

import "errors"

var (
	// ErrChainInvariantViolation reports corrupted input or a programming
	// error: a parent hash mismatch on append, a rollback on an empty chain,
	// or a position beyond the indexed chain. Callers treat it as fatal.
	ErrChainInvariantViolation = errors.New("chain invariant violation")
)
