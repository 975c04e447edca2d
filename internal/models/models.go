// Package models provides domain models for the alert engine.
package models

import (
	"time"
)

// MarketStatus represents the current market status.
type MarketStatus string

const (
	MarketOpen   MarketStatus = "OPEN"
	MarketClosed MarketStatus = "CLOSED"
)

// Timeframe is a candle interval in minutes.
type Timeframe int

const (
	Timeframe1Min  Timeframe = 1
	Timeframe3Min  Timeframe = 3
	Timeframe5Min  Timeframe = 5
	Timeframe15Min Timeframe = 15
)

// Duration returns the timeframe as a time.Duration.
func (tf Timeframe) Duration() time.Duration {
	return time.Duration(tf) * time.Minute
}

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Valid reports whether the candle satisfies the OHLC invariant:
// Low <= min(Open, Close) and High >= max(Open, Close).
func (c Candle) Valid() bool {
	lo, hi := c.Open, c.Open
	if c.Close < lo {
		lo = c.Close
	}
	if c.Close > hi {
		hi = c.Close
	}
	return c.Low <= lo && c.High >= hi && c.Volume >= 0
}

// Quote represents a live market quote.
type Quote struct {
	Symbol        string
	LTP           float64
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        int64
	ChangePercent float64
	Timestamp     time.Time
}
