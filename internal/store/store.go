// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"nifty-alerts/internal/models"
)

// DataStore defines the interface for data persistence: the candle table
// and the sent-alerts ledger.
type DataStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, since time.Time) ([]models.Candle, error)
	GetCandlesFreshness(ctx context.Context, symbol string) (time.Time, error)
	PruneCandles(ctx context.Context, symbol string, before time.Time) (int64, error)

	// Sent-alerts ledger. WasZoneSent reports whether the zone key has a
	// ledger record; MarkZoneSent inserts one. A failed MarkZoneSent must be
	// treated by callers as "not yet sent" so the next cycle retries; a
	// unique-constraint violation means another writer got there first and
	// is reported as success.
	WasZoneSent(ctx context.Context, key models.ZoneKey) (bool, error)
	MarkZoneSent(ctx context.Context, key models.ZoneKey, sentTime time.Time) error
	GetSentAlerts(ctx context.Context, limit int) ([]models.SentAlert, error)

	// Lifecycle
	Close() error
}
