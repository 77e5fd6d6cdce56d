package display

import (
	"io"
	"strconv"
	"time"

	"github.com/ciricc/btc-address-indexer/internal/pkg/ledger"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

const truncatedMarker = "..."

// History renders the replayed ledger as a table, newest entry first,
// truncated to the given limit. A limit of zero or less shows everything.
func History(w io.Writer, entries []ledger.Entry, limit int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"txid", "time", "height", "offset", "btc", "balance", "ms", "bytes"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	table.AppendBulk(buildRows(entries, limit))
	table.Render()
}

// buildRows reverses the chronological entries so the newest comes first and
// cuts the list down to limit rows plus a single truncation marker.
func buildRows(entries []ledger.Entry, limit int) [][]string {
	rows := make([][]string, 0, len(entries))

	for n := len(entries) - 1; n >= 0; n-- {
		entry := entries[n]

		rows = append(rows, []string{
			entry.TxID.String(),
			entry.Time.UTC().Format("2006-01-02 15:04:05 MST"),
			strconv.Itoa(entry.Height),
			strconv.FormatUint(entry.Offset, 10),
			formatDelta(int64(entry.Delta)),
			formatAmount(int64(entry.Balance)),
			formatMillis(entry.FetchTime),
			strconv.Itoa(entry.Size),
		})
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		rows = append(rows, []string{
			truncatedMarker, truncatedMarker, truncatedMarker, truncatedMarker,
			truncatedMarker, truncatedMarker, truncatedMarker, truncatedMarker,
		})
	}

	return rows
}

func formatAmount(satoshi int64) string {
	return decimal.New(satoshi, -8).StringFixed(8)
}

func formatDelta(satoshi int64) string {
	s := formatAmount(satoshi)
	if satoshi >= 0 {
		return "+" + s
	}

	return s
}

func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Microseconds())/1000, 'f', 1, 64)
}
