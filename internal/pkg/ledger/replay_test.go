package ledger_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ciricc/btc-address-indexer/internal/pkg/chain"
	"github.com/ciricc/btc-address-indexer/internal/pkg/history"
	"github.com/ciricc/btc-address-indexer/internal/pkg/ledger"
	"github.com/ciricc/btc-address-indexer/internal/pkg/watchlist"
	"github.com/stretchr/testify/require"
)

var (
	watchedA  = []byte{0x51, 0x01}
	watchedC  = []byte{0x51, 0x02}
	unwatched = []byte{0x51, 0xff}
)

type fakeFetcher map[[2]uint64][]byte

func (f fakeFetcher) GetTxBytes(_ context.Context, loc chain.Location) ([]byte, error) {
	return f[[2]uint64{uint64(loc.Height), loc.Offset}], nil
}

func serializeTx(t *testing.T, tx *wire.MsgTx) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	return buf.Bytes()
}

func payTx(inputs []wire.OutPoint, values []int64, scripts ...[]byte) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)

	if len(inputs) == 0 {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Index: wire.MaxPrevOutIndex},
		})
	}

	for _, prev := range inputs {
		tx.AddTxIn(&wire.TxIn{PreviousOutPoint: prev})
	}

	for n, script := range scripts {
		tx.AddTxOut(wire.NewTxOut(values[n], script))
	}

	return tx
}

func headerAt(height int) *chain.Header {
	var hash chainhash.Hash
	hash[0] = byte(height + 1)

	return chain.NewHeader(hash, chainhash.Hash{}, time.Unix(1700000000+int64(height), 0), 0)
}

// buildStatus wires the given per-script locations into a gathered status.
func buildStatus(t *testing.T, byScript map[string][]chain.Location, scripts ...[]byte) *history.Status {
	t.Helper()

	finder := finderFunc(func(script []byte) ([]chain.Location, error) {
		return byScript[string(script)], nil
	})

	watched := make([]watchlist.Script, 0, len(scripts))
	for _, script := range scripts {
		watched = append(watched, watchlist.Script{Address: "addr", PkScript: script})
	}

	status, err := history.Gather(finder, watched)
	require.NoError(t, err)

	return status
}

type finderFunc func(script []byte) ([]chain.Location, error)

func (f finderFunc) Find(script []byte) ([]chain.Location, error) {
	return f(script)
}

func TestReplayFundSpendRefund(t *testing.T) {
	fund := payTx(nil, []int64{1_0000_0000}, watchedA)
	spend := payTx(
		[]wire.OutPoint{{Hash: fund.TxHash(), Index: 0}},
		[]int64{1_0000_0000}, unwatched,
	)
	refund := payTx(nil, []int64{5000_0000}, watchedA)

	locations := []chain.Location{
		{Height: 0, Offset: 0, Header: headerAt(0)},
		{Height: 1, Offset: 0, Header: headerAt(1)},
		{Height: 2, Offset: 0, Header: headerAt(2)},
	}

	status := buildStatus(t, map[string][]chain.Location{
		string(watchedA): locations,
	}, watchedA)

	fetcher := fakeFetcher{
		{0, 0}: serializeTx(t, fund),
		{1, 0}: serializeTx(t, spend),
		{2, 0}: serializeTx(t, refund),
	}

	res, err := ledger.Replay(context.Background(), status, fetcher)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	require.Equal(t, btcutil.Amount(1_0000_0000), res.Entries[0].Delta)
	require.Equal(t, btcutil.Amount(1_0000_0000), res.Entries[0].Balance)

	require.Equal(t, btcutil.Amount(-1_0000_0000), res.Entries[1].Delta)
	require.Equal(t, btcutil.Amount(0), res.Entries[1].Balance)

	require.Equal(t, btcutil.Amount(5000_0000), res.Entries[2].Delta)
	require.Equal(t, btcutil.Amount(5000_0000), res.Entries[2].Balance)

	require.Equal(t, res.Balance, res.UnspentTotal)
	require.Equal(t, 1, res.UnspentCount)

	require.Equal(t, headerAt(1).Time(), res.Entries[1].Time)
	require.Equal(t, len(serializeTx(t, fund)), res.Entries[0].Size)
	require.Positive(t, res.TotalBytes)
}

func TestReplayTransferBetweenWatchedScripts(t *testing.T) {
	fund := payTx(nil, []int64{1_0000_0000}, watchedA)
	transfer := payTx(
		[]wire.OutPoint{{Hash: fund.TxHash(), Index: 0}},
		[]int64{6000_0000, 4000_0000}, watchedC, unwatched,
	)

	locA := []chain.Location{
		{Height: 0, Offset: 0, Header: headerAt(0)},
		{Height: 1, Offset: 0, Header: headerAt(1)},
	}
	locC := []chain.Location{
		{Height: 1, Offset: 0, Header: headerAt(1)},
	}

	status := buildStatus(t, map[string][]chain.Location{
		string(watchedA): locA,
		string(watchedC): locC,
	}, watchedA, watchedC)

	fetcher := fakeFetcher{
		{0, 0}: serializeTx(t, fund),
		{1, 0}: serializeTx(t, transfer),
	}

	res, err := ledger.Replay(context.Background(), status, fetcher)
	require.NoError(t, err)

	// The transfer touches both watched scripts but yields one entry with
	// the net change.
	require.Len(t, res.Entries, 2)
	require.Equal(t, btcutil.Amount(-4000_0000), res.Entries[1].Delta)
	require.Equal(t, btcutil.Amount(6000_0000), res.Entries[1].Balance)
	require.Equal(t, res.Balance, res.UnspentTotal)
	require.Equal(t, 1, res.UnspentCount)
}

func TestReplayMalformedTx(t *testing.T) {
	status := buildStatus(t, map[string][]chain.Location{
		string(watchedA): {{Height: 0, Offset: 0, Header: headerAt(0)}},
	}, watchedA)

	fetcher := fakeFetcher{
		{0, 0}: []byte{0xde, 0xad},
	}

	_, err := ledger.Replay(context.Background(), status, fetcher)
	require.ErrorIs(t, err, ledger.ErrMalformedTx)
}
