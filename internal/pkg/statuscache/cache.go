package statuscache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ciricc/btc-address-indexer/internal/pkg/addressindex"
	"github.com/ciricc/btc-address-indexer/internal/pkg/history"
	"github.com/ciricc/btc-address-indexer/internal/pkg/ledger"
	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// The column layout is compatibility-bearing: other readers of the cache
// rely on it.
const schema = `
CREATE TABLE IF NOT EXISTS history (
	script_hash  TEXT    NOT NULL,
	block_hash   TEXT    NOT NULL,
	block_offset INTEGER NOT NULL,
	block_height INTEGER NOT NULL,
	PRIMARY KEY (script_hash, block_hash, block_offset)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS txcache (
	block_hash   TEXT    NOT NULL,
	block_offset INTEGER NOT NULL,
	tx_id        TEXT,
	tx_bytes     BLOB,
	PRIMARY KEY (block_hash, block_offset)
) WITHOUT ROWID;
`

// Cache persists the watchlist history and lazily fetched transaction bytes
// in SQLite.
type Cache struct {
	logger *zerolog.Logger
	db     *sql.DB
}

// Open opens or creates the cache database at the given path and ensures the
// schema exists.
func Open(path string, logger *zerolog.Logger) (*Cache, error) {
	if path == "" {
		return nil, ErrCachePathNotSpecified
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open status cache at %q: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to create status cache schema: %w", err)
	}

	return &Cache{
		logger: logger,
		db:     db,
	}, nil
}

func (c *Cache) Shutdown() error {
	return c.db.Close()
}

// SyncStats reports what one sync pass added.
type SyncStats struct {
	HistoryRows int
	TxCacheRows int
}

// Sync writes the gathered status into the cache in a single transaction.
// History rows are keyed by script hash and transaction slot; transaction
// bytes are fetched only for slots the pass actually added, so existing bytes
// are never fetched again or overwritten. Re-running with an identical status
// adds nothing.
func (c *Cache) Sync(ctx context.Context, status *history.Status, fetcher ledger.TxBytesFetcher) (*SyncStats, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stats := &SyncStats{}

	insertHistory, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO history (script_hash, block_hash, block_offset, block_height)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer insertHistory.Close()

	for pkScript, locations := range status.PerScript() {
		scriptHash := addressindex.NewScriptHash([]byte(pkScript)).String()

		for _, loc := range locations {
			res, err := insertHistory.ExecContext(ctx, scriptHash, loc.Header.Hash().String(), loc.Offset, loc.Height)
			if err != nil {
				return nil, fmt.Errorf("failed to insert history row: %w", err)
			}

			added, err := res.RowsAffected()
			if err != nil {
				return nil, fmt.Errorf("failed to read affected rows: %w", err)
			}

			stats.HistoryRows += int(added)
		}
	}

	insertSlot, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO txcache (block_hash, block_offset)
		VALUES (?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare txcache insert: %w", err)
	}
	defer insertSlot.Close()

	for _, loc := range status.Locations() {
		blockHash := loc.Header.Hash().String()

		res, err := insertSlot.ExecContext(ctx, blockHash, loc.Offset)
		if err != nil {
			return nil, fmt.Errorf("failed to insert txcache slot: %w", err)
		}

		added, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read affected rows: %w", err)
		}

		if added == 0 {
			// Slot already cached; its bytes must not be touched.
			continue
		}

		txBytes, err := fetcher.GetTxBytes(ctx, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch transaction bytes for cache: %w", err)
		}

		parsed, err := ledger.ParseTx(txBytes)
		if err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE txcache SET tx_id = ?, tx_bytes = ?
			WHERE block_hash = ? AND block_offset = ?`,
			parsed.TxHash().String(), txBytes, blockHash, loc.Offset,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to store transaction bytes: %w", err)
		}

		stats.TxCacheRows++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cache transaction: %w", err)
	}

	if stats.HistoryRows != 0 || stats.TxCacheRows != 0 {
		c.logger.Debug().
			Int("historyRows", stats.HistoryRows).
			Int("txCacheRows", stats.TxCacheRows).
			Msg("status cache updated")
	}

	return stats, nil
}
