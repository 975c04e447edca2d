package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nifty-alerts/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "alerts_test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testCandles(start time.Time, n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		price := 24000.0 + float64(i)
		candles[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price + 5,
			Low:       price - 5,
			Close:     price + 2,
			Volume:    int64(1000 + i),
		}
	}
	return candles
}

func TestCandleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	start := time.Date(2025, 8, 1, 9, 15, 0, 0, time.UTC)
	candles := testCandles(start, 10)

	if err := store.SaveCandles(ctx, "NIFTY", candles); err != nil {
		t.Fatalf("SaveCandles failed: %v", err)
	}

	got, err := store.GetCandles(ctx, "NIFTY", start)
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if len(got) != len(candles) {
		t.Fatalf("expected %d candles, got %d", len(candles), len(got))
	}
	for i := range candles {
		if !got[i].Timestamp.Equal(candles[i].Timestamp) {
			t.Errorf("candle %d timestamp = %v, want %v", i, got[i].Timestamp, candles[i].Timestamp)
		}
		if got[i].Open != candles[i].Open || got[i].Close != candles[i].Close ||
			got[i].High != candles[i].High || got[i].Low != candles[i].Low ||
			got[i].Volume != candles[i].Volume {
			t.Errorf("candle %d = %+v, want %+v", i, got[i], candles[i])
		}
	}
}

func TestSaveCandlesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	start := time.Date(2025, 8, 1, 9, 15, 0, 0, time.UTC)
	candles := testCandles(start, 5)

	for i := 0; i < 3; i++ {
		if err := store.SaveCandles(ctx, "NIFTY", candles); err != nil {
			t.Fatalf("SaveCandles failed: %v", err)
		}
	}

	got, err := store.GetCandles(ctx, "NIFTY", start)
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("expected 5 candles after repeated saves, got %d", len(got))
	}
}

func TestSaveCandlesLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	start := time.Date(2025, 8, 1, 9, 15, 0, 0, time.UTC)
	candles := testCandles(start, 3)

	if err := store.SaveCandles(ctx, "NIFTY", candles); err != nil {
		t.Fatalf("SaveCandles failed: %v", err)
	}

	candles[1].Close = 99999
	if err := store.SaveCandles(ctx, "NIFTY", candles[1:2]); err != nil {
		t.Fatalf("SaveCandles failed: %v", err)
	}

	got, err := store.GetCandles(ctx, "NIFTY", start)
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(got))
	}
	if got[1].Close != 99999 {
		t.Errorf("expected replaced close 99999, got %f", got[1].Close)
	}
}

func TestGetCandlesFiltersBySymbolAndTime(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	start := time.Date(2025, 8, 1, 9, 15, 0, 0, time.UTC)

	if err := store.SaveCandles(ctx, "NIFTY", testCandles(start, 10)); err != nil {
		t.Fatalf("SaveCandles failed: %v", err)
	}
	if err := store.SaveCandles(ctx, "BANKNIFTY", testCandles(start, 10)); err != nil {
		t.Fatalf("SaveCandles failed: %v", err)
	}

	got, err := store.GetCandles(ctx, "NIFTY", start.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("expected 5 candles at or after cutoff, got %d", len(got))
	}
}

func TestPruneCandles(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	start := time.Date(2025, 8, 1, 9, 15, 0, 0, time.UTC)

	if err := store.SaveCandles(ctx, "NIFTY", testCandles(start, 10)); err != nil {
		t.Fatalf("SaveCandles failed: %v", err)
	}

	pruned, err := store.PruneCandles(ctx, "NIFTY", start.Add(4*time.Minute))
	if err != nil {
		t.Fatalf("PruneCandles failed: %v", err)
	}
	if pruned != 4 {
		t.Errorf("expected 4 pruned rows, got %d", pruned)
	}

	got, err := store.GetCandles(ctx, "NIFTY", start)
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if len(got) != 6 {
		t.Errorf("expected 6 remaining candles, got %d", len(got))
	}
}

func TestGetCandlesFreshness(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	start := time.Date(2025, 8, 1, 9, 15, 0, 0, time.UTC)

	fresh, err := store.GetCandlesFreshness(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("GetCandlesFreshness failed: %v", err)
	}
	if !fresh.IsZero() {
		t.Errorf("expected zero time for empty table, got %v", fresh)
	}

	if err := store.SaveCandles(ctx, "NIFTY", testCandles(start, 5)); err != nil {
		t.Fatalf("SaveCandles failed: %v", err)
	}

	fresh, err = store.GetCandlesFreshness(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("GetCandlesFreshness failed: %v", err)
	}
	want := start.Add(4 * time.Minute)
	if !fresh.Equal(want) {
		t.Errorf("freshness = %v, want %v", fresh, want)
	}
}

func TestZoneLedger(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	key := models.ZoneKey{
		Type:      models.ZoneBullish,
		StartTime: time.Date(2025, 8, 1, 10, 5, 0, 0, time.UTC),
		BaseLevel: 24412.35,
	}

	sent, err := store.WasZoneSent(ctx, key)
	if err != nil {
		t.Fatalf("WasZoneSent failed: %v", err)
	}
	if sent {
		t.Error("fresh ledger must report zone as unsent")
	}

	now := time.Date(2025, 8, 1, 10, 6, 0, 0, time.UTC)
	if err := store.MarkZoneSent(ctx, key, now); err != nil {
		t.Fatalf("MarkZoneSent failed: %v", err)
	}

	sent, err = store.WasZoneSent(ctx, key)
	if err != nil {
		t.Fatalf("WasZoneSent failed: %v", err)
	}
	if !sent {
		t.Error("ledger must report zone as sent after MarkZoneSent")
	}

	// A second mark hits the unique constraint and is reported as success.
	if err := store.MarkZoneSent(ctx, key, now.Add(time.Minute)); err != nil {
		t.Errorf("duplicate MarkZoneSent must succeed, got %v", err)
	}

	// A zone differing in any component of the key is distinct.
	other := key
	other.BaseLevel += 0.01
	sent, err = store.WasZoneSent(ctx, other)
	if err != nil {
		t.Fatalf("WasZoneSent failed: %v", err)
	}
	if sent {
		t.Error("distinct base level must not collide in the ledger")
	}
}

func TestGetSentAlertsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		key := models.ZoneKey{
			Type:      models.ZoneBearish,
			StartTime: base.Add(time.Duration(i) * time.Minute),
			BaseLevel: 24000 + float64(i),
		}
		if err := store.MarkZoneSent(ctx, key, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("MarkZoneSent failed: %v", err)
		}
	}

	alerts, err := store.GetSentAlerts(ctx, 3)
	if err != nil {
		t.Fatalf("GetSentAlerts failed: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts with limit, got %d", len(alerts))
	}
	for i := 1; i < len(alerts); i++ {
		if alerts[i].SentTime.After(alerts[i-1].SentTime) {
			t.Errorf("alerts not ordered newest first at %d", i)
		}
	}
	if alerts[0].BaseLevel != 24004 {
		t.Errorf("expected newest alert first, got base %f", alerts[0].BaseLevel)
	}

	all, err := store.GetSentAlerts(ctx, 0)
	if err != nil {
		t.Fatalf("GetSentAlerts failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("expected all 5 alerts with no limit, got %d", len(all))
	}
}
