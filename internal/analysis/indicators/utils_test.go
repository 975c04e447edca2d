package indicators

import (
	"math"
	"testing"

	"nifty-alerts/internal/models"
)

func TestEMASeriesSeeding(t *testing.T) {
	values := []float64{100, 110, 120}
	ema := emaSeries(values, 5)

	if len(ema) != 3 {
		t.Fatalf("expected 3 values, got %d", len(ema))
	}
	if ema[0] != 100 {
		t.Errorf("EMA must seed from the first value, got %f", ema[0])
	}

	// multiplier = 2/(5+1) = 1/3
	want1 := 100 + (110-100.0)/3
	if math.Abs(ema[1]-want1) > 1e-9 {
		t.Errorf("ema[1] = %f, want %f", ema[1], want1)
	}
	want2 := want1 + (120-want1)/3
	if math.Abs(ema[2]-want2) > 1e-9 {
		t.Errorf("ema[2] = %f, want %f", ema[2], want2)
	}
}

func TestEMASeriesConstantInput(t *testing.T) {
	values := []float64{50, 50, 50, 50}
	for _, v := range emaSeries(values, 9) {
		if v != 50 {
			t.Errorf("EMA of a constant series must stay constant, got %f", v)
		}
	}
}

func TestEMASeriesInvalidInput(t *testing.T) {
	if ema := emaSeries(nil, 5); ema != nil {
		t.Error("expected nil for empty input")
	}
	if ema := emaSeries([]float64{1, 2}, 0); ema != nil {
		t.Error("expected nil for non-positive span")
	}
}

func TestTrueRange(t *testing.T) {
	prev := models.Candle{Close: 100}

	// Range dominated by high-low.
	c := models.Candle{High: 105, Low: 98, Close: 103}
	if tr := trueRange(c, prev); tr != 7 {
		t.Errorf("trueRange = %f, want 7", tr)
	}

	// Gap up: high-prevClose dominates.
	c = models.Candle{High: 112, Low: 110, Close: 111}
	if tr := trueRange(c, prev); tr != 12 {
		t.Errorf("trueRange = %f, want 12", tr)
	}

	// Gap down: low-prevClose dominates.
	c = models.Candle{High: 92, Low: 90, Close: 91}
	if tr := trueRange(c, prev); tr != 10 {
		t.Errorf("trueRange = %f, want 10", tr)
	}
}

func TestExtremeIndexes(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5}
	if idx := highestIndex(values); idx != 4 {
		t.Errorf("highestIndex = %d, want 4", idx)
	}
	if idx := lowestIndex(values); idx != 1 {
		t.Errorf("lowestIndex = %d, want first occurrence 1", idx)
	}
	if idx := highestIndex(nil); idx != -1 {
		t.Errorf("highestIndex(nil) = %d, want -1", idx)
	}
}
