package ledger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ciricc/btc-address-indexer/internal/pkg/chain"
	"github.com/ciricc/btc-address-indexer/internal/pkg/history"
)

// TxBytesFetcher fetches the serialized transaction at a location.
type TxBytesFetcher interface {
	GetTxBytes(ctx context.Context, loc chain.Location) ([]byte, error)
}

// Entry is one confirmed transaction in the watchlist's history, with its
// signed balance change and the running balance after it.
type Entry struct {
	TxID      chainhash.Hash
	Time      time.Time
	Height    int
	Offset    uint64
	Delta     btcutil.Amount
	Balance   btcutil.Amount
	FetchTime time.Duration
	Size      int
}

// Result is the replayed ledger of a watchlist history.
type Result struct {
	Entries []Entry

	// Balance is the confirmed balance after the last entry. It always
	// equals UnspentTotal.
	Balance btcutil.Amount

	UnspentTotal btcutil.Amount
	UnspentCount int
	TotalBytes   int
}

// Replay walks the history in chain order, tracking the unspent outputs
// locked to watched scripts, and derives per-transaction deltas and running
// balances. A transaction moving funds between watched scripts contributes a
// single entry whose delta is the net change.
func Replay(ctx context.Context, status *history.Status, fetcher TxBytesFetcher) (*Result, error) {
	res := &Result{}

	unspent := map[wire.OutPoint]btcutil.Amount{}

	var balance btcutil.Amount

	for _, loc := range status.Locations() {
		fetchStart := time.Now()

		txBytes, err := fetcher.GetTxBytes(ctx, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch transaction at height %d offset %d: %w", loc.Height, loc.Offset, err)
		}

		fetchTime := time.Since(fetchStart)

		tx, err := ParseTx(txBytes)
		if err != nil {
			return nil, err
		}

		txID := tx.TxHash()

		var delta btcutil.Amount

		for _, in := range tx.TxIn {
			value, ok := unspent[in.PreviousOutPoint]
			if !ok {
				continue
			}

			delta, err = addAmounts(delta, -value)
			if err != nil {
				return nil, err
			}

			delete(unspent, in.PreviousOutPoint)
		}

		for outIndex, out := range tx.TxOut {
			if out.Value < 0 || out.Value > btcutil.MaxSatoshi {
				return nil, fmt.Errorf("%w: output %d of %s has value %d", ErrMalformedTx, outIndex, txID, out.Value)
			}

			if !status.IsWatched(out.PkScript) {
				continue
			}

			value := btcutil.Amount(out.Value)
			unspent[wire.OutPoint{Hash: txID, Index: uint32(outIndex)}] = value

			delta, err = addAmounts(delta, value)
			if err != nil {
				return nil, err
			}
		}

		balance, err = addAmounts(balance, delta)
		if err != nil {
			return nil, err
		}

		res.Entries = append(res.Entries, Entry{
			TxID:      txID,
			Time:      loc.Header.Time(),
			Height:    loc.Height,
			Offset:    loc.Offset,
			Delta:     delta,
			Balance:   balance,
			FetchTime: fetchTime,
			Size:      len(txBytes),
		})

		res.TotalBytes += len(txBytes)
	}

	res.Balance = balance
	res.UnspentCount = len(unspent)

	for _, value := range unspent {
		var err error

		res.UnspentTotal, err = addAmounts(res.UnspentTotal, value)
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

// ParseTx deserializes a raw transaction.
func ParseTx(txBytes []byte) (*wire.MsgTx, error) {
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedTx, err)
	}

	return &tx, nil
}

func addAmounts(a, b btcutil.Amount) (btcutil.Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a, b)
	}

	return sum, nil
}
