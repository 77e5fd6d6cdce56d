package addressindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ciricc/btc-address-indexer/internal/pkg/chain"
	"github.com/ciricc/btc-address-indexer/internal/pkg/keyvalueabstraction/keyvaluestore"
	"github.com/ciricc/btc-address-indexer/internal/pkg/nodeclient"
	"github.com/rs/zerolog"
)

// NodeClient is the part of the node REST interface the index needs.
type NodeClient interface {
	GetBlockHashByHeight(ctx context.Context, height int64) (chainhash.Hash, error)
	GetRawBlock(ctx context.Context, hash chainhash.Hash) ([]byte, error)
}

// Index maintains, per output script, the ordered list of global transaction
// positions touching that script, on top of a hash-verified header chain.
// All methods are driven by a single sync loop; the index is not safe for
// concurrent use.
type Index struct {
	logger *zerolog.Logger
	store  keyvaluestore.Store
	node   NodeClient
	chain  *chain.Chain
}

// Open loads the persisted header rows from the store, verifies their hash
// links and returns an index continuing from the stored tip.
func Open(store keyvaluestore.Store, node NodeClient, logger *zerolog.Logger) (*Index, error) {
	var headers []*chain.Header

	err := store.ListKeys(headerKeyPrefix, func(key string, getValue func(v any) error) (bool, error) {
		var row headerRow
		if err := getValue(&row); err != nil {
			return false, fmt.Errorf("failed to decode header row %q: %w", key, err)
		}

		header, err := row.toHeader()
		if err != nil {
			return false, err
		}

		headers = append(headers, header)

		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load header rows: %w", err)
	}

	headerChain, err := chain.New(headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptedIndex, err)
	}

	if tipHeight, ok := headerChain.TipHeight(); ok {
		logger.Info().
			Int("tipHeight", tipHeight).
			Stringer("tipHash", headerChain.TipHash()).
			Msg("opened address index")
	}

	return &Index{
		logger: logger,
		store:  store,
		node:   node,
		chain:  headerChain,
	}, nil
}

// Chain returns the header chain of the index. Callers must not retain
// locations resolved from it across sync calls.
func (i *Index) Chain() *chain.Chain {
	return i.chain
}

// Sync rolls back reorged tip blocks, then appends up to maxBlocks new blocks
// from the node. It returns the number of blocks indexed; zero means the index
// has caught up with the node's active chain.
func (i *Index) Sync(ctx context.Context, maxBlocks int) (int, error) {
	if err := i.rollbackReorged(ctx); err != nil {
		return 0, err
	}

	synced := 0

	for synced < maxBlocks {
		nextHeight := 0
		if tipHeight, ok := i.chain.TipHeight(); ok {
			nextHeight = tipHeight + 1
		}

		hash, err := i.node.GetBlockHashByHeight(ctx, int64(nextHeight))
		if err != nil {
			if errors.Is(err, nodeclient.ErrBlockNotFound) {
				break
			}

			return synced, err
		}

		rawBlock, err := i.node.GetRawBlock(ctx, hash)
		if err != nil {
			return synced, err
		}

		block, err := btcutil.NewBlockFromBytes(rawBlock)
		if err != nil {
			return synced, fmt.Errorf("failed to parse block %s: %w", hash, err)
		}

		if block.MsgBlock().Header.PrevBlock != i.chain.TipHash() {
			// The node reorged under us mid-batch. Stop here; the next
			// call starts with a rollback.
			i.logger.Warn().
				Stringer("blockHash", hash).
				Int("height", nextHeight).
				Msg("block does not extend the indexed tip, deferring to next sync")

			break
		}

		if err := i.indexBlock(block, nextHeight); err != nil {
			return synced, err
		}

		synced++
	}

	return synced, nil
}

// rollbackReorged removes tip blocks no longer on the node's active chain.
func (i *Index) rollbackReorged(ctx context.Context) error {
	for {
		tipHeight, ok := i.chain.TipHeight()
		if !ok {
			return nil
		}

		nodeHash, err := i.node.GetBlockHashByHeight(ctx, int64(tipHeight))
		if err != nil && !errors.Is(err, nodeclient.ErrBlockNotFound) {
			return err
		}

		if err == nil && nodeHash == i.chain.TipHash() {
			return nil
		}

		i.logger.Warn().
			Int("height", tipHeight).
			Stringer("staleHash", i.chain.TipHash()).
			Msg("rolling back reorged block")

		if err := i.rollbackTip(); err != nil {
			return err
		}
	}
}

func (i *Index) indexBlock(block *btcutil.Block, height int) error {
	startPos := i.chain.NextTxPos()
	transactions := block.Transactions()

	// Positions to append per script hash; one position per script per
	// transaction, no matter how many inputs and outputs touch it.
	pending := map[string][]uint64{}

	undo := undoRow{Scripts: map[string][]uint64{}}

	for txIndex, tx := range transactions {
		pos := uint64(startPos) + uint64(txIndex)
		seenScripts := map[string]struct{}{}

		markScript := func(scriptHashHex string) {
			if _, ok := seenScripts[scriptHashHex]; ok {
				return
			}

			seenScripts[scriptHashHex] = struct{}{}
			pending[scriptHashHex] = append(pending[scriptHashHex], pos)
		}

		for outIndex, out := range tx.MsgTx().TxOut {
			scriptHash := NewScriptHash(out.PkScript)
			markScript(scriptHash.String())

			outpointKey := newOutpointKey(wire.OutPoint{
				Hash:  *tx.Hash(),
				Index: uint32(outIndex),
			})

			if err := i.store.Set(outpointKey, &outpointRow{ScriptHash: scriptHash.String()}); err != nil {
				return fmt.Errorf("failed to store outpoint row: %w", err)
			}

			undo.Outpoints = append(undo.Outpoints, outpointKey)
		}

		for _, in := range tx.MsgTx().TxIn {
			if isCoinbaseInput(in) {
				continue
			}

			var funding outpointRow

			found, err := i.store.Get(newOutpointKey(in.PreviousOutPoint), &funding)
			if err != nil {
				return fmt.Errorf("failed to look up spent outpoint: %w", err)
			}

			if !found {
				// Spend of an output created before the index started.
				continue
			}

			markScript(funding.ScriptHash)
		}
	}

	for scriptHashHex, positions := range pending {
		if err := i.appendScriptPositions(scriptHashHex, positions); err != nil {
			return err
		}

		undo.Scripts[scriptHashHex] = positions
	}

	if err := i.store.Set(newUndoKey(height), &undo); err != nil {
		return fmt.Errorf("failed to store undo row: %w", err)
	}

	header := chain.NewHeader(
		*block.Hash(),
		block.MsgBlock().Header.PrevBlock,
		block.MsgBlock().Header.Timestamp,
		startPos+chain.TxPos(len(transactions)),
	)

	if err := i.store.Set(newHeaderKey(height), newHeaderRow(header)); err != nil {
		return fmt.Errorf("failed to store header row: %w", err)
	}

	if err := i.chain.Append(header); err != nil {
		return err
	}

	i.logger.Debug().
		Int("height", height).
		Stringer("blockHash", block.Hash()).
		Int("transactions", len(transactions)).
		Msg("indexed block")

	return nil
}

func (i *Index) appendScriptPositions(scriptHashHex string, positions []uint64) error {
	key := newScriptKeyFromHex(scriptHashHex)

	var existing []uint64
	if _, err := i.store.Get(key, &existing); err != nil {
		return fmt.Errorf("failed to load script positions: %w", err)
	}

	if err := i.store.Set(key, append(existing, positions...)); err != nil {
		return fmt.Errorf("failed to store script positions: %w", err)
	}

	return nil
}

// rollbackTip undoes the tip block using its undo row and removes the tip
// header.
func (i *Index) rollbackTip() error {
	tipHeight, ok := i.chain.TipHeight()
	if !ok {
		return fmt.Errorf("%w: rollback on an empty index", ErrCorruptedIndex)
	}

	var undo undoRow

	found, err := i.store.Get(newUndoKey(tipHeight), &undo)
	if err != nil {
		return fmt.Errorf("failed to load undo row: %w", err)
	}

	if !found {
		return fmt.Errorf("%w: missing undo row at height %d", ErrCorruptedIndex, tipHeight)
	}

	for scriptHashHex, removed := range undo.Scripts {
		if err := i.removeScriptPositions(scriptHashHex, removed); err != nil {
			return err
		}
	}

	for _, outpointKey := range undo.Outpoints {
		if err := i.store.Delete(outpointKey); err != nil {
			return fmt.Errorf("failed to delete outpoint row: %w", err)
		}
	}

	if err := i.store.Delete(newUndoKey(tipHeight)); err != nil {
		return fmt.Errorf("failed to delete undo row: %w", err)
	}

	if err := i.store.Delete(newHeaderKey(tipHeight)); err != nil {
		return fmt.Errorf("failed to delete header row: %w", err)
	}

	if _, err := i.chain.Rollback(); err != nil {
		return err
	}

	return nil
}

func (i *Index) removeScriptPositions(scriptHashHex string, removed []uint64) error {
	key := newScriptKeyFromHex(scriptHashHex)

	var positions []uint64
	if _, err := i.store.Get(key, &positions); err != nil {
		return fmt.Errorf("failed to load script positions: %w", err)
	}

	removedSet := map[uint64]struct{}{}
	for _, pos := range removed {
		removedSet[pos] = struct{}{}
	}

	kept := positions[:0]
	for _, pos := range positions {
		if _, ok := removedSet[pos]; !ok {
			kept = append(kept, pos)
		}
	}

	if len(kept) == 0 {
		if err := i.store.Delete(key); err != nil {
			return fmt.Errorf("failed to delete script positions: %w", err)
		}

		return nil
	}

	if err := i.store.Set(key, kept); err != nil {
		return fmt.Errorf("failed to store script positions: %w", err)
	}

	return nil
}

// Find returns the locations of all transactions touching the given output
// script, in chain order. The locations are only valid until the next Sync.
func (i *Index) Find(script []byte) ([]chain.Location, error) {
	var positions []uint64

	found, err := i.store.Get(newScriptKey(NewScriptHash(script)), &positions)
	if err != nil {
		return nil, fmt.Errorf("failed to load script positions: %w", err)
	}

	if !found {
		return nil, nil
	}

	locations := make([]chain.Location, 0, len(positions))

	for _, pos := range positions {
		loc, err := i.chain.Resolve(chain.TxPos(pos))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCorruptedIndex, err)
		}

		locations = append(locations, loc)
	}

	return locations, nil
}

// GetTxBytes fetches the block holding the given location from the node and
// returns the serialized transaction at the location's offset.
func (i *Index) GetTxBytes(ctx context.Context, loc chain.Location) ([]byte, error) {
	rawBlock, err := i.node.GetRawBlock(ctx, loc.Header.Hash())
	if err != nil {
		return nil, err
	}

	block, err := btcutil.NewBlockFromBytes(rawBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to parse block %s: %w", loc.Header.Hash(), err)
	}

	transactions := block.Transactions()
	if loc.Offset >= uint64(len(transactions)) {
		return nil, fmt.Errorf(
			"%w: offset %d in block %s with %d transactions",
			ErrTxNotFound, loc.Offset, loc.Header.Hash(), len(transactions),
		)
	}

	var buf bytes.Buffer
	if err := transactions[loc.Offset].MsgTx().Serialize(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	return buf.Bytes(), nil
}

func isCoinbaseInput(in *wire.TxIn) bool {
	return in.PreviousOutPoint.Index == wire.MaxPrevOutIndex &&
		in.PreviousOutPoint.Hash == (chainhash.Hash{})
}
