package chain

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Chain is an ordered, hash-verified sequence of block headers. It is owned
// exclusively by the sync loop: appends and rollbacks are sequential, and
// locations resolved from it are only used within the pass that produced
// them.
type Chain struct {
	rows []*Header
}

// New builds a chain from already persisted header rows, verifying the hash
// links from the first row (whose parent must be the zero hash) up to the
// tip.
func New(rows []*Header) (*Chain, error) {
	var prev chainhash.Hash

	for height, row := range rows {
		if row.PrevHash() != prev {
			return nil, fmt.Errorf(
				"header at height %d links to %s, expected %s: %w",
				height, row.PrevHash(), prev, ErrChainInvariantViolation,
			)
		}

		prev = row.Hash()
	}

	return &Chain{rows: rows}, nil
}

// TipHash returns the hash of the last header, or the zero hash when the
// chain is empty.
func (c *Chain) TipHash() chainhash.Hash {
	if len(c.rows) == 0 {
		return chainhash.Hash{}
	}

	return c.rows[len(c.rows)-1].Hash()
}

// TipHeight returns the height of the last header; ok is false when the chain
// is empty.
func (c *Chain) TipHeight() (height int, ok bool) {
	if len(c.rows) == 0 {
		return 0, false
	}

	return len(c.rows) - 1, true
}

// NextTxPos returns the position just past the current tip.
func (c *Chain) NextTxPos() TxPos {
	if len(c.rows) == 0 {
		return 0
	}

	return c.rows[len(c.rows)-1].NextTxPos()
}

func (c *Chain) HeaderByHeight(height int) (*Header, bool) {
	if height < 0 || height >= len(c.rows) {
		return nil, false
	}

	return c.rows[height], true
}

// Append connects a new tip. The header must link to the current tip hash
// (the zero hash when the chain is empty).
func (c *Chain) Append(h *Header) error {
	if h.PrevHash() != c.TipHash() {
		return fmt.Errorf(
			"header %s links to %s, tip is %s: %w",
			h.Hash(), h.PrevHash(), c.TipHash(), ErrChainInvariantViolation,
		)
	}

	c.rows = append(c.rows, h)

	return nil
}

// Rollback removes the current tip and returns the removed header.
func (c *Chain) Rollback() (*Header, error) {
	if len(c.rows) == 0 {
		return nil, fmt.Errorf("rollback on an empty chain: %w", ErrChainInvariantViolation)
	}

	tip := c.rows[len(c.rows)-1]
	c.rows = c.rows[:len(c.rows)-1]

	return tip, nil
}

// Resolve maps a global transaction position to its location. The block is
// the first one whose end position is greater than pos; a position exactly
// equal to a block's end position therefore belongs to the following block at
// offset zero.
func (c *Chain) Resolve(pos TxPos) (Location, error) {
	height := sort.Search(len(c.rows), func(i int) bool {
		return c.rows[i].NextTxPos() > pos
	})

	if height >= len(c.rows) {
		return Location{}, fmt.Errorf(
			"position %d is beyond the indexed chain (next position is %d): %w",
			pos, c.NextTxPos(), ErrChainInvariantViolation,
		)
	}

	var prevPos TxPos
	if height > 0 {
		prevPos = c.rows[height-1].NextTxPos()
	}

	offset, err := pos.OffsetFrom(prevPos)
	if err != nil {
		return Location{}, err
	}

	return Location{
		Height: height,
		Offset: offset,
		Header: c.rows[height],
	}, nil
}
