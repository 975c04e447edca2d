package indicators

import (
	"nifty-alerts/internal/models"
)

// atrWindow is the rolling true-range window. The ATR multiplier of 3 and
// the half-ATR minimum zone width follow the VOB indicator definition.
const (
	atrWindow        = 200
	atrMultiplier    = 3.0
	minWidthFraction = 0.5
	slowSpanOffset   = 13
)

// VOB detects supply/demand zones from EMA crossovers of the close price.
// A fast EMA (span = sensitivity) crossing a slow EMA (span = sensitivity+13)
// marks a zone anchored at the extremum of the preceding lookback window,
// with a minimum width proportional to recent volatility.
type VOB struct {
	sensitivity int
}

// NewVOB creates a new VOB zone detector. Sensitivity is the fast EMA span;
// values below 1 are invalid.
func NewVOB(sensitivity int) *VOB {
	return &VOB{sensitivity: sensitivity}
}

func (v *VOB) Name() string {
	return "VOB"
}

// LookbackPeriod returns the crossover lookback window length.
func (v *VOB) LookbackPeriod() int {
	return v.sensitivity + slowSpanOffset
}

// Detect scans the series and returns one zone per EMA crossover, in
// chronological order. Zones are only emitted once the rolling ATR is
// defined (after atrWindow complete true-range values), so series shorter
// than the warmup produce no zones. Zones are never retracted or merged.
func (v *VOB) Detect(candles []models.Candle) ([]models.Zone, error) {
	if v.sensitivity < 1 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < 2 {
		return nil, nil
	}

	closes := closePrices(candles)
	emaFast := emaSeries(closes, v.sensitivity)
	emaSlow := emaSeries(closes, v.sensitivity+slowSpanOffset)

	// True range needs a previous close, so tr[0] stays undefined and the
	// first defined ATR lands at index atrWindow.
	n := len(candles)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = trueRange(candles[i], candles[i-1])
	}

	var zones []models.Zone
	lookback := v.LookbackPeriod()

	for i := 1; i < n; i++ {
		crossUp := emaFast[i] > emaSlow[i] && emaFast[i-1] <= emaSlow[i-1]
		crossDn := emaFast[i] < emaSlow[i] && emaFast[i-1] >= emaSlow[i-1]
		if !crossUp && !crossDn {
			continue
		}
		if i < atrWindow {
			continue
		}
		atr := mean(tr[i-atrWindow+1:i+1]) * atrMultiplier

		start := i - lookback
		if start < 0 {
			start = 0
		}

		if crossUp {
			window := lowPrices(candles[start : i+1])
			j := start + lowestIndex(window)
			if j < 0 || j > i {
				continue
			}
			low := candles[j].Low
			base := min(candles[j].Open, candles[j].Close)
			if base-low < atr*minWidthFraction {
				base = low + atr*minWidthFraction
			}
			zones = append(zones, models.Zone{
				Type:          models.ZoneBullish,
				StartTime:     candles[j].Timestamp,
				EndTime:       candles[i].Timestamp,
				CrossoverTime: candles[i].Timestamp,
				BaseLevel:     base,
				ExtremeLevel:  low,
			})
		} else {
			window := highPrices(candles[start : i+1])
			j := start + highestIndex(window)
			if j < 0 || j > i {
				continue
			}
			high := candles[j].High
			base := max(candles[j].Open, candles[j].Close)
			if high-base < atr*minWidthFraction {
				base = high - atr*minWidthFraction
			}
			zones = append(zones, models.Zone{
				Type:          models.ZoneBearish,
				StartTime:     candles[j].Timestamp,
				EndTime:       candles[i].Timestamp,
				CrossoverTime: candles[i].Timestamp,
				BaseLevel:     base,
				ExtremeLevel:  high,
			})
		}
	}

	return zones, nil
}
