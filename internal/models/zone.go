package models

import "time"

// ZoneType is the direction of a VOB zone.
type ZoneType string

const (
	ZoneBullish ZoneType = "bullish"
	ZoneBearish ZoneType = "bearish"
)

// Zone represents a supply/demand zone flagged by an EMA crossover.
// For bullish zones ExtremeLevel is the window low and BaseLevel sits at or
// above it; for bearish zones ExtremeLevel is the window high and BaseLevel
// sits at or below it.
type Zone struct {
	Type          ZoneType
	StartTime     time.Time
	EndTime       time.Time
	CrossoverTime time.Time
	BaseLevel     float64
	ExtremeLevel  float64
}

// Key returns the deduplication identity of the zone. Two zones with the
// same key are the same notification subject even when recomputed
// independently.
func (z Zone) Key() ZoneKey {
	return ZoneKey{
		Type:      z.Type,
		StartTime: z.StartTime,
		BaseLevel: z.BaseLevel,
	}
}

// ZoneKey is the (type, start_time, base_level) triple that identifies a
// zone for alert deduplication.
type ZoneKey struct {
	Type      ZoneType
	StartTime time.Time
	BaseLevel float64
}

// SentAlert records a zone alert that has already been delivered.
// At most one record exists per zone key; records are never updated or
// deleted.
type SentAlert struct {
	ZoneType  ZoneType
	StartTime time.Time
	BaseLevel float64
	SentTime  time.Time
}
