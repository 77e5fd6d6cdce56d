package addressindex

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ciricc/btc-address-indexer/internal/pkg/chain"
)

// headerRow is the persisted form of a chain header.
type headerRow struct {
	Hash      string `msgpack:"hash"`
	PrevHash  string `msgpack:"prevHash"`
	Time      int64  `msgpack:"time"`
	NextTxPos uint64 `msgpack:"nextTxPos"`
}

func newHeaderRow(header *chain.Header) *headerRow {
	hash := header.Hash()
	prevHash := header.PrevHash()

	return &headerRow{
		Hash:      hash.String(),
		PrevHash:  prevHash.String(),
		Time:      header.Time().Unix(),
		NextTxPos: uint64(header.NextTxPos()),
	}
}

func (r *headerRow) toHeader() (*chain.Header, error) {
	hash, err := chainhash.NewHashFromStr(r.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header hash %q: %w", r.Hash, err)
	}

	prevHash, err := chainhash.NewHashFromStr(r.PrevHash)
	if err != nil {
		return nil, fmt.Errorf("failed to parse parent hash %q: %w", r.PrevHash, err)
	}

	return chain.NewHeader(*hash, *prevHash, time.Unix(r.Time, 0), chain.TxPos(r.NextTxPos)), nil
}

// outpointRow attributes a created output to the script that owns it, so a
// later spend of the outpoint is credited to the same script.
type outpointRow struct {
	ScriptHash string `msgpack:"scriptHash"`
}

// undoRow records everything a block added to the index, so a reorg rollback
// removes exactly those entries again.
type undoRow struct {
	// Scripts maps a script hash to the positions this block appended to
	// its list.
	Scripts map[string][]uint64 `msgpack:"scripts"`

	// Outpoints are the outpoint attribution keys this block created.
	Outpoints []string `msgpack:"outpoints"`
}
