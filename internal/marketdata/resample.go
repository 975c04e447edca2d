package marketdata

import (
	"time"

	apperrors "nifty-alerts/internal/errors"
	"nifty-alerts/internal/models"
)

// Resample aggregates 1-unit-interval candles into coarser candles.
// Each output candle covers one bucket of the target interval: open is the
// first input open, high/low the extremes, close the last input close and
// volume the sum. Buckets with no input candles are omitted.
//
// The input must be sorted ascending by timestamp and target must be an
// integer multiple of base; violations fail with ErrUnsortedSeries or
// ErrInvalidInterval. Resampling an already-bucketed series at its own
// interval returns it unchanged.
func Resample(candles []models.Candle, base, target time.Duration) ([]models.Candle, error) {
	if base <= 0 || target <= 0 || target%base != 0 {
		return nil, apperrors.ErrInvalidInterval
	}
	if len(candles) == 0 {
		return nil, nil
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return nil, apperrors.ErrUnsortedSeries
		}
	}

	if target == base {
		return candles, nil
	}

	out := make([]models.Candle, 0, len(candles)/int(target/base)+1)
	var cur models.Candle
	var curBucket time.Time
	open := false

	for _, c := range candles {
		bucket := c.Timestamp.Truncate(target)
		if !open || !bucket.Equal(curBucket) {
			if open {
				out = append(out, cur)
			}
			curBucket = bucket
			cur = models.Candle{
				Timestamp: bucket,
				Open:      c.Open,
				High:      c.High,
				Low:       c.Low,
				Close:     c.Close,
				Volume:    c.Volume,
			}
			open = true
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if open {
		out = append(out, cur)
	}

	return out, nil
}
