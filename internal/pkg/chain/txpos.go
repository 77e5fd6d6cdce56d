package chain

import "fmt"

// TxPos is a global, chain-wide ordinal of a transaction across all indexed
// blocks. Every block advances the counter by its transaction count, so
// positions never decrease along the chain.
type TxPos uint64

// OffsetFrom returns the intra-block offset of p relative to the end position
// of the previous block.
func (p TxPos) OffsetFrom(prev TxPos) (uint64, error) {
	if p < prev {
		return 0, fmt.Errorf("position %d is before %d: %w", p, prev, ErrChainInvariantViolation)
	}

	return uint64(p - prev), nil
}
