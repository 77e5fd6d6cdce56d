package chain

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Header is the per-block record kept by the chain: the block hash, the hash
// it links to, the block wall-clock time and the cumulative transaction count
// through this block. Headers are immutable once created and shared by
// pointer, so a Location holding one always reads a consistent record even
// after the chain itself rolled past it.
type Header struct {
	hash      chainhash.Hash
	prevHash  chainhash.Hash
	time      time.Time
	nextTxPos TxPos
}

func NewHeader(hash, prevHash chainhash.Hash, blockTime time.Time, nextTxPos TxPos) *Header {
	return &Header{
		hash:      hash,
		prevHash:  prevHash,
		time:      blockTime,
		nextTxPos: nextTxPos,
	}
}

func (h *Header) Hash() chainhash.Hash {
	return h.hash
}

func (h *Header) PrevHash() chainhash.Hash {
	return h.prevHash
}

func (h *Header) Time() time.Time {
	return h.time
}

// NextTxPos returns the position just past the last transaction of this
// block. A transaction at exactly this position belongs to the next block.
func (h *Header) NextTxPos() TxPos {
	return h.nextTxPos
}
