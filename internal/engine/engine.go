// Package engine runs the periodic fetch, analyze, alert cycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nifty-alerts/internal/alert"
	"nifty-alerts/internal/analysis/indicators"
	"nifty-alerts/internal/config"
	apperrors "nifty-alerts/internal/errors"
	"nifty-alerts/internal/logging"
	"nifty-alerts/internal/marketdata"
	"nifty-alerts/internal/models"
	"nifty-alerts/internal/notify"
	"nifty-alerts/internal/store"
	"nifty-alerts/pkg/utils"
)

// CycleResult summarizes one completed engine cycle.
type CycleResult struct {
	CycleID       string
	Timeframe     map[models.Timeframe]TimeframeResult
	CandlesSaved  int
	CandlesPruned int64
	SpotPrice     float64
	ZoneAlerts    int
	LevelAlerts   int
	Duration      time.Duration
}

// TimeframeResult holds the per-timeframe analysis output of a cycle.
type TimeframeResult struct {
	Candles int
	Zones   []models.Zone
}

// Engine coordinates the market data source, the store, the indicators and
// the alert evaluator. One Engine instance runs one instrument.
type Engine struct {
	cfg       *config.Config
	source    marketdata.Source
	store     store.DataStore
	evaluator *alert.Evaluator
	notifier  notify.Notifier
	detector  *indicators.VOB
	logger    zerolog.Logger

	// IgnoreMarketHours disables the trading-hours gate. Used by the CLI
	// for one-shot inspection commands.
	IgnoreMarketHours bool

	// now is replaceable for tests.
	now func() time.Time
}

// New creates an engine wired to the given collaborators. The notifier is
// used for error notifications only; alert dispatch goes through the
// evaluator.
func New(cfg *config.Config, source marketdata.Source, st store.DataStore, evaluator *alert.Evaluator, notifier notify.Notifier, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		source:    source,
		store:     st,
		evaluator: evaluator,
		notifier:  notifier,
		detector:  indicators.NewVOB(cfg.Engine.VOBSensitivity),
		logger:    logger.With().Str("component", "engine").Logger(),
		now:       time.Now,
	}
}

// SetClock replaces the engine's time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Run executes cycles at the configured refresh interval until the context
// is cancelled. Cycle errors are logged and do not stop the loop; the only
// terminal error is context cancellation.
func (e *Engine) Run(ctx context.Context) error {
	interval := time.Duration(e.cfg.Engine.RefreshSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info().
		Str("symbol", e.cfg.Instrument.Symbol).
		Dur("interval", interval).
		Ints("timeframes", e.cfg.Engine.Timeframes).
		Msg("engine started")

	for {
		if _, err := e.RunCycle(ctx); err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			case errors.Is(err, apperrors.ErrMarketClosed):
				e.logger.Debug().
					Time("next_open", utils.NextMarketOpen(e.now())).
					Msg("market closed, idling")
			default:
				e.logger.Error().Err(err).Msg("cycle failed")
				if nerr := e.notifier.SendError(ctx, err, "engine cycle"); nerr != nil {
					e.logger.Debug().Err(nerr).Msg("error notification failed")
				}
			}
		}

		select {
		case <-ctx.Done():
			e.logger.Info().Msg("engine stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle executes a single fetch, analyze, alert cycle.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	now := e.now()
	if !e.IgnoreMarketHours && !utils.IsMarketOpen(now) {
		return nil, apperrors.ErrMarketClosed
	}

	start := time.Now()
	cycleID := uuid.NewString()[:8]
	logger := logging.WithCycle(e.logger, cycleID)

	result := &CycleResult{
		CycleID:   cycleID,
		Timeframe: make(map[models.Timeframe]TimeframeResult),
	}

	// A source outage is soft: the cycle analyzes whatever the store
	// already holds and the next tick retries the fetch.
	if err := e.refreshCandles(ctx, logger, now, result); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Warn().Err(err).Msg("candle refresh failed, analyzing stored data")
	}

	retention := time.Duration(e.cfg.Engine.RetentionHours) * time.Hour
	series, err := e.store.GetCandles(ctx, e.cfg.Instrument.Symbol, now.Add(-retention))
	if err != nil {
		return nil, fmt.Errorf("loading candles: %w", err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no candles in retention window", apperrors.ErrDataUnavailable)
	}

	result.SpotPrice = e.spotPrice(ctx, logger, series)

	for _, minutes := range e.cfg.Engine.Timeframes {
		tf := models.Timeframe(minutes)
		if err := e.analyzeTimeframe(ctx, logger, series, tf, result, now); err != nil {
			logger.Warn().Err(err).Int("timeframe_min", minutes).Msg("timeframe analysis failed")
		}
	}

	// Proximity alerts run on the base series once per cycle.
	levels := indicators.AllLevels(series)
	if len(levels) > 0 && result.SpotPrice > 0 {
		sent, err := e.evaluator.EvaluateLevels(ctx, levels, result.SpotPrice)
		if err != nil {
			logger.Warn().Err(err).Msg("level evaluation failed")
		}
		result.LevelAlerts = sent
	}

	result.Duration = time.Since(start)
	logger.Info().
		Int("candles", len(series)).
		Int("zone_alerts", result.ZoneAlerts).
		Int("level_alerts", result.LevelAlerts).
		Dur("duration", result.Duration).
		Msg("cycle complete")

	return result, nil
}

// refreshCandles fetches the recent history, upserts it and prunes rows
// past retention.
func (e *Engine) refreshCandles(ctx context.Context, logger zerolog.Logger, now time.Time, result *CycleResult) error {
	from := now.AddDate(0, 0, -e.cfg.Engine.HistoryDays)

	fetchStart := time.Now()
	candles, err := utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() ([]models.Candle, error) {
		return e.source.GetIntraday(ctx, from, now)
	})
	logging.LogAPICall(logger, "POST", "/charts/intraday", time.Since(fetchStart), err)
	if err != nil {
		return fmt.Errorf("fetching intraday data: %w", err)
	}

	if err := e.store.SaveCandles(ctx, e.cfg.Instrument.Symbol, candles); err != nil {
		return fmt.Errorf("saving candles: %w", err)
	}
	result.CandlesSaved = len(candles)

	retention := time.Duration(e.cfg.Engine.RetentionHours) * time.Hour
	pruned, err := e.store.PruneCandles(ctx, e.cfg.Instrument.Symbol, now.Add(-retention))
	if err != nil {
		logger.Warn().Err(err).Msg("candle pruning failed")
	}
	result.CandlesPruned = pruned

	return nil
}

// spotPrice returns the live quote, falling back to the last stored close
// when the quote endpoint is unavailable.
func (e *Engine) spotPrice(ctx context.Context, logger zerolog.Logger, series []models.Candle) float64 {
	price, err := e.source.GetSpotPrice(ctx)
	if err == nil && price > 0 {
		return price
	}
	if err != nil {
		logger.Warn().Err(err).Msg("quote unavailable, using last close")
	}
	return series[len(series)-1].Close
}

// analyzeTimeframe resamples the base series to the timeframe, runs zone
// detection and dispatches zone alerts.
func (e *Engine) analyzeTimeframe(ctx context.Context, logger zerolog.Logger, series []models.Candle, tf models.Timeframe, result *CycleResult, now time.Time) error {
	tfLogger := logging.WithTimeframe(logger, int(tf))

	resampled, err := marketdata.Resample(series, models.Timeframe1Min.Duration(), tf.Duration())
	if err != nil {
		return fmt.Errorf("resampling to %dm: %w", int(tf), err)
	}

	tfResult := TimeframeResult{Candles: len(resampled)}

	if len(resampled) >= e.cfg.Engine.MinSeriesForZones {
		zones, err := e.detector.Detect(resampled)
		if err != nil {
			return fmt.Errorf("zone detection on %dm: %w", int(tf), err)
		}
		tfResult.Zones = zones

		if len(zones) > 0 {
			sent, err := e.evaluator.EvaluateZones(ctx, zones, tf, result.SpotPrice, now)
			if err != nil {
				tfLogger.Warn().Err(err).Msg("zone evaluation failed")
			}
			result.ZoneAlerts += sent
		}
	} else {
		tfLogger.Debug().
			Int("candles", len(resampled)).
			Int("required", e.cfg.Engine.MinSeriesForZones).
			Msg("series too short for zone detection")
	}

	result.Timeframe[tf] = tfResult
	return nil
}
