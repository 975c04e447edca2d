package indicators

import (
	"nifty-alerts/internal/models"
)

// Level is a named support/resistance price derived from a candle window.
// Levels are recomputed every cycle and never persisted.
type Level struct {
	Method string
	Name   string
	Value  float64
}

// Level calculation methods.
const (
	MethodPivot     = "pivot"
	MethodFibonacci = "fibonacci"
	MethodCamarilla = "camarilla"
)

// windowHLC reduces a candle window to the three scalars every level method
// is built from: highest high, lowest low, last close.
func windowHLC(candles []models.Candle) (high, low, close float64) {
	high = highest(highPrices(candles))
	low = lowest(lowPrices(candles))
	close = candles[len(candles)-1].Close
	return high, low, close
}

// PivotPoints represents standard pivot point levels.
type PivotPoints struct {
	Pivot float64
	R1    float64
	R2    float64
	R3    float64
	S1    float64
	S2    float64
	S3    float64
}

// StandardPivotPoints calculates standard pivot points.
type StandardPivotPoints struct{}

// NewStandardPivotPoints creates a new Standard Pivot Points calculator.
func NewStandardPivotPoints() *StandardPivotPoints {
	return &StandardPivotPoints{}
}

func (s *StandardPivotPoints) Name() string {
	return "StandardPivotPoints"
}

// Calculate calculates pivot points from a window's high, low and close.
func (s *StandardPivotPoints) Calculate(high, low, close float64) *PivotPoints {
	pivot := (high + low + close) / 3

	return &PivotPoints{
		Pivot: pivot,
		R1:    2*pivot - low,
		R2:    pivot + (high - low),
		R3:    high + 2*(pivot-low),
		S1:    2*pivot - high,
		S2:    pivot - (high - low),
		S3:    low - 2*(high-pivot),
	}
}

// CalculateFromCandles calculates pivot points over a candle window.
// Windows shorter than 2 candles yield nil ("insufficient data", not an
// error).
func (s *StandardPivotPoints) CalculateFromCandles(candles []models.Candle) *PivotPoints {
	if len(candles) < 2 {
		return nil
	}
	return s.Calculate(windowHLC(candles))
}

// Levels flattens the pivot points into named levels.
func (p *PivotPoints) Levels() []Level {
	return []Level{
		{Method: MethodPivot, Name: "S3", Value: p.S3},
		{Method: MethodPivot, Name: "S2", Value: p.S2},
		{Method: MethodPivot, Name: "S1", Value: p.S1},
		{Method: MethodPivot, Name: "PP", Value: p.Pivot},
		{Method: MethodPivot, Name: "R1", Value: p.R1},
		{Method: MethodPivot, Name: "R2", Value: p.R2},
		{Method: MethodPivot, Name: "R3", Value: p.R3},
	}
}

// FibonacciLevels represents Fibonacci retracement levels between a window
// high and low, descending from the high.
type FibonacciLevels struct {
	High     float64
	Low      float64
	Level0   float64 // 0%
	Level236 float64 // 23.6%
	Level382 float64 // 38.2%
	Level500 float64 // 50%
	Level618 float64 // 61.8%
	Level100 float64 // 100%
}

// FibonacciRetracement calculates Fibonacci retracement levels.
type FibonacciRetracement struct{}

// NewFibonacciRetracement creates a new Fibonacci Retracement calculator.
func NewFibonacciRetracement() *FibonacciRetracement {
	return &FibonacciRetracement{}
}

func (f *FibonacciRetracement) Name() string {
	return "FibonacciRetracement"
}

// Calculate computes retracement levels from a window high and low.
func (f *FibonacciRetracement) Calculate(high, low float64) *FibonacciLevels {
	diff := high - low

	return &FibonacciLevels{
		High:     high,
		Low:      low,
		Level0:   high,
		Level236: high - diff*0.236,
		Level382: high - diff*0.382,
		Level500: high - diff*0.500,
		Level618: high - diff*0.618,
		Level100: low,
	}
}

// CalculateFromCandles computes retracement levels over a candle window.
func (f *FibonacciRetracement) CalculateFromCandles(candles []models.Candle) *FibonacciLevels {
	if len(candles) < 2 {
		return nil
	}
	high, low, _ := windowHLC(candles)
	return f.Calculate(high, low)
}

// Levels flattens the retracement levels into named levels.
func (l *FibonacciLevels) Levels() []Level {
	return []Level{
		{Method: MethodFibonacci, Name: "0.0%", Value: l.Level0},
		{Method: MethodFibonacci, Name: "23.6%", Value: l.Level236},
		{Method: MethodFibonacci, Name: "38.2%", Value: l.Level382},
		{Method: MethodFibonacci, Name: "50.0%", Value: l.Level500},
		{Method: MethodFibonacci, Name: "61.8%", Value: l.Level618},
		{Method: MethodFibonacci, Name: "100.0%", Value: l.Level100},
	}
}

// CamarillaPivotPoints calculates Camarilla pivot points.
type CamarillaPivotPoints struct{}

// NewCamarillaPivotPoints creates a new Camarilla Pivot Points calculator.
func NewCamarillaPivotPoints() *CamarillaPivotPoints {
	return &CamarillaPivotPoints{}
}

func (c *CamarillaPivotPoints) Name() string {
	return "CamarillaPivotPoints"
}

// CamarillaLevels represents Camarilla pivot levels. The four pairs sit at
// close ∓ range*1.1/{12,6,4,2}.
type CamarillaLevels struct {
	Pivot float64
	R1    float64
	R2    float64
	R3    float64
	R4    float64
	S1    float64
	S2    float64
	S3    float64
	S4    float64
}

// Calculate calculates Camarilla levels from a window's high, low and close.
func (c *CamarillaPivotPoints) Calculate(high, low, close float64) *CamarillaLevels {
	diff := high - low

	return &CamarillaLevels{
		Pivot: (high + low + close) / 3,
		R1:    close + diff*1.1/12,
		R2:    close + diff*1.1/6,
		R3:    close + diff*1.1/4,
		R4:    close + diff*1.1/2,
		S1:    close - diff*1.1/12,
		S2:    close - diff*1.1/6,
		S3:    close - diff*1.1/4,
		S4:    close - diff*1.1/2,
	}
}

// CalculateFromCandles calculates Camarilla levels over a candle window.
func (c *CamarillaPivotPoints) CalculateFromCandles(candles []models.Candle) *CamarillaLevels {
	if len(candles) < 2 {
		return nil
	}
	return c.Calculate(windowHLC(candles))
}

// Levels flattens the Camarilla levels into named levels.
func (l *CamarillaLevels) Levels() []Level {
	return []Level{
		{Method: MethodCamarilla, Name: "S4", Value: l.S4},
		{Method: MethodCamarilla, Name: "S3", Value: l.S3},
		{Method: MethodCamarilla, Name: "S2", Value: l.S2},
		{Method: MethodCamarilla, Name: "S1", Value: l.S1},
		{Method: MethodCamarilla, Name: "PP", Value: l.Pivot},
		{Method: MethodCamarilla, Name: "R1", Value: l.R1},
		{Method: MethodCamarilla, Name: "R2", Value: l.R2},
		{Method: MethodCamarilla, Name: "R3", Value: l.R3},
		{Method: MethodCamarilla, Name: "R4", Value: l.R4},
	}
}

// AllLevels computes every level method over one candle window and returns
// the combined named levels. An empty result means the window was too short.
func AllLevels(candles []models.Candle) []Level {
	if len(candles) < 2 {
		return nil
	}

	var out []Level
	if pp := NewStandardPivotPoints().CalculateFromCandles(candles); pp != nil {
		out = append(out, pp.Levels()...)
	}
	if fib := NewFibonacciRetracement().CalculateFromCandles(candles); fib != nil {
		out = append(out, fib.Levels()...)
	}
	if cam := NewCamarillaPivotPoints().CalculateFromCandles(candles); cam != nil {
		out = append(out, cam.Levels()...)
	}
	return out
}
