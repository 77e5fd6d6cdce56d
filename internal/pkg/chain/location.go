package chain

import "cmp"

// Location points at one transaction: the block height, the transaction's
// offset inside that block, and the header record of the block.
type Location struct {
	Height int
	Offset uint64
	Header *Header
}

// Compare orders locations chronologically: by height, then by intra-block
// offset.
func (l Location) Compare(other Location) int {
	if c := cmp.Compare(l.Height, other.Height); c != 0 {
		return c
	}

	return cmp.Compare(l.Offset, other.Offset)
}

// Equal reports whether both locations point at the same transaction slot.
func (l Location) Equal(other Location) bool {
	return l.Height == other.Height && l.Offset == other.Offset
}
