package display

import (
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ciricc/btc-address-indexer/internal/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func testEntries(n int) []ledger.Entry {
	entries := make([]ledger.Entry, 0, n)

	for i := 0; i < n; i++ {
		var txID chainhash.Hash
		txID[0] = byte(i + 1)

		entries = append(entries, ledger.Entry{
			TxID:      txID,
			Time:      time.Unix(1700000000+int64(i), 0),
			Height:    i,
			Offset:    0,
			Delta:     btcutil.Amount(1_0000_0000),
			Balance:   btcutil.Amount(int64(i+1) * 1_0000_0000),
			FetchTime: 1500 * time.Microsecond,
			Size:      100,
		})
	}

	return entries
}

func TestBuildRowsNewestFirst(t *testing.T) {
	entries := testEntries(3)

	rows := buildRows(entries, 10)
	require.Len(t, rows, 3)

	require.Equal(t, entries[2].TxID.String(), rows[0][0])
	require.Equal(t, entries[0].TxID.String(), rows[2][0])
	require.Equal(t, "2", rows[0][2])
	require.Equal(t, "+1.00000000", rows[0][4])
	require.Equal(t, "3.00000000", rows[0][5])
	require.Equal(t, "1.5", rows[0][6])
}

func TestBuildRowsTruncates(t *testing.T) {
	rows := buildRows(testEntries(5), 2)
	require.Len(t, rows, 3)
	require.Equal(t, truncatedMarker, rows[2][0])

	// The newest two entries survive the cut.
	require.Equal(t, "4", rows[0][2])
	require.Equal(t, "3", rows[1][2])
}

func TestBuildRowsNoLimit(t *testing.T) {
	rows := buildRows(testEntries(5), 0)
	require.Len(t, rows, 5)
}

func TestFormatDelta(t *testing.T) {
	require.Equal(t, "+0.50000000", formatDelta(5000_0000))
	require.Equal(t, "-0.40000000", formatDelta(-4000_0000))
	require.Equal(t, "+0.00000000", formatDelta(0))
}

func TestHistoryRenders(t *testing.T) {
	var sb strings.Builder

	History(&sb, testEntries(2), 10)

	out := sb.String()
	require.Contains(t, out, "txid")
	require.Contains(t, out, "+1.00000000")
}
