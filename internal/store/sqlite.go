package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	apperrors "nifty-alerts/internal/errors"
	"nifty-alerts/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Candle table for 1-minute OHLCV data
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timestamp)
	);

	-- Sent-alerts ledger. One row per delivered zone alert; the unique
	-- index makes the second concurrent insert fail instead of duplicating.
	CREATE TABLE IF NOT EXISTS vob_signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		zone_type TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		base_level REAL NOT NULL,
		sent_time DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(zone_type, start_time, base_level)
	);

	CREATE INDEX IF NOT EXISTS idx_candles_symbol ON candles(symbol);
	CREATE INDEX IF NOT EXISTS idx_candles_timestamp ON candles(timestamp);
	CREATE INDEX IF NOT EXISTS idx_vob_signals_sent ON vob_signals(sent_time);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCandles upserts candles. Re-inserting identical rows is a no-op; a
// row whose timestamp collides with an existing one replaces it
// (last-write-wins).
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, c.Timestamp.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetCandles retrieves candles with timestamp >= since, ascending.
// An empty result is an empty slice, not an error.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol string, since time.Time) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`, symbol, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candles: %w", err)
	}

	return candles, nil
}

// GetCandlesFreshness returns the timestamp of the most recent candle.
func (s *SQLiteStore) GetCandlesFreshness(ctx context.Context, symbol string) (time.Time, error) {
	var timestamp sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(timestamp) FROM candles WHERE symbol = ?
	`, symbol).Scan(&timestamp)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("failed to get candles freshness: %w", err)
	}
	if !timestamp.Valid {
		return time.Time{}, nil
	}
	return timestamp.Time, nil
}

// PruneCandles deletes candles older than the retention cutoff and returns
// the number of rows removed.
func (s *SQLiteStore) PruneCandles(ctx context.Context, symbol string, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM candles WHERE symbol = ? AND timestamp < ?
	`, symbol, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune candles: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// WasZoneSent reports whether an alert for the zone key was already
// delivered.
func (s *SQLiteStore) WasZoneSent(ctx context.Context, key models.ZoneKey) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM vob_signals
		WHERE zone_type = ? AND start_time = ? AND base_level = ?
	`, string(key.Type), key.StartTime.UTC(), key.BaseLevel).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sent status: %w", err)
	}
	return count > 0, nil
}

// MarkZoneSent records a delivered zone alert. A unique-constraint
// violation means a concurrent writer already recorded the zone and is
// reported as success; any other failure surfaces as ErrStoreUnavailable so
// the caller retries next cycle.
func (s *SQLiteStore) MarkZoneSent(ctx context.Context, key models.ZoneKey, sentTime time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vob_signals (zone_type, start_time, base_level, sent_time)
		VALUES (?, ?, ?, ?)
	`, string(key.Type), key.StartTime.UTC(), key.BaseLevel, sentTime.UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil
		}
		return fmt.Errorf("%w: marking zone sent: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// GetSentAlerts returns the most recent ledger rows, newest first.
func (s *SQLiteStore) GetSentAlerts(ctx context.Context, limit int) ([]models.SentAlert, error) {
	query := `
		SELECT zone_type, start_time, base_level, sent_time
		FROM vob_signals
		ORDER BY sent_time DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.SentAlert
	for rows.Next() {
		var a models.SentAlert
		var zoneType string
		if err := rows.Scan(&zoneType, &a.StartTime, &a.BaseLevel, &a.SentTime); err != nil {
			return nil, fmt.Errorf("failed to scan sent alert: %w", err)
		}
		a.ZoneType = models.ZoneType(zoneType)
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}
