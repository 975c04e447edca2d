// Package alert decides which detections become notifications.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"nifty-alerts/internal/analysis/indicators"
	"nifty-alerts/internal/logging"
	"nifty-alerts/internal/models"
	"nifty-alerts/internal/notify"
	"nifty-alerts/internal/store"
)

// Ledger is the subset of the data store the evaluator needs for
// zone-alert deduplication.
type Ledger interface {
	WasZoneSent(ctx context.Context, key models.ZoneKey) (bool, error)
	MarkZoneSent(ctx context.Context, key models.ZoneKey, sentTime time.Time) error
}

var _ Ledger = (store.DataStore)(nil)

// Evaluator applies alert rules to detections and dispatches through the
// notifier. Zone alerts are deduplicated against the persistent ledger;
// level-proximity alerts fire on current state and are not recorded.
type Evaluator struct {
	symbol           string
	notifier         notify.Notifier
	ledger           Ledger
	proximityPercent float64
	recencyWindow    time.Duration
	logger           zerolog.Logger
}

// NewEvaluator creates an alert evaluator.
func NewEvaluator(symbol string, notifier notify.Notifier, ledger Ledger, proximityPercent float64, recencyWindow time.Duration, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		symbol:           symbol,
		notifier:         notifier,
		ledger:           ledger,
		proximityPercent: proximityPercent,
		recencyWindow:    recencyWindow,
		logger:           logger.With().Str("component", "alert").Logger(),
	}
}

// EvaluateZones dispatches alerts for zones that are recent and not yet in
// the ledger. Every zone in the batch is considered, not only the latest
// one. The ledger is checked before dispatch and written only after the
// notifier reports success, so a failed delivery is retried on the next
// cycle rather than silently lost.
//
// Returns the number of alerts actually dispatched.
func (e *Evaluator) EvaluateZones(ctx context.Context, zones []models.Zone, tf models.Timeframe, price float64, now time.Time) (int, error) {
	sent := 0
	for _, zone := range zones {
		// Recency is judged on the crossover, not the zone start: the
		// anchor bar can sit a full lookback window before the signal.
		if e.recencyWindow > 0 && now.Sub(zone.CrossoverTime) > e.recencyWindow {
			continue
		}

		key := zone.Key()
		already, err := e.ledger.WasZoneSent(ctx, key)
		if err != nil {
			return sent, fmt.Errorf("checking zone ledger: %w", err)
		}
		if already {
			e.logger.Debug().
				Str("zone_type", string(zone.Type)).
				Time("start_time", zone.StartTime).
				Msg("zone alert already sent, skipping")
			continue
		}

		if err := e.notifier.SendZoneAlert(ctx, zone, tf, price); err != nil {
			e.logger.Warn().Err(err).
				Str("zone_type", string(zone.Type)).
				Time("start_time", zone.StartTime).
				Msg("zone alert delivery failed, will retry next cycle")
			continue
		}

		if err := e.ledger.MarkZoneSent(ctx, key, now); err != nil {
			// Alert went out but the ledger write failed. The worst
			// case is a duplicate on the next cycle, which beats a
			// missed alert.
			e.logger.Error().Err(err).
				Str("zone_type", string(zone.Type)).
				Time("start_time", zone.StartTime).
				Msg("failed to record sent zone alert")
		}

		logging.LogZoneAlert(logging.WithTimeframe(e.logger, int(tf)), string(zone.Type), zone.BaseLevel, zone.CrossoverTime)
		sent++
	}
	return sent, nil
}

// EvaluateLevels dispatches a proximity alert for every level the price is
// within the configured percentage of. These alerts describe current state
// and are re-sent each cycle the condition holds.
func (e *Evaluator) EvaluateLevels(ctx context.Context, levels []indicators.Level, price float64) (int, error) {
	if price <= 0 {
		return 0, nil
	}

	sent := 0
	for _, level := range levels {
		distance := price - level.Value
		if distance < 0 {
			distance = -distance
		}
		if distance/price*100 > e.proximityPercent {
			continue
		}

		above := price > level.Value
		if err := e.notifier.SendLevelAlert(ctx, e.symbol, level, price, above); err != nil {
			e.logger.Warn().Err(err).
				Str("method", level.Method).
				Str("level", level.Name).
				Msg("level alert delivery failed")
			continue
		}

		logging.LogLevelAlert(e.logger, level.Method, level.Name, level.Value, price)
		sent++
	}
	return sent, nil
}
