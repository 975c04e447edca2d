package utils

import (
	"time"

	"nifty-alerts/internal/models"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// Monitoring window in minutes from midnight IST. The window deliberately
// opens before the 9:15 exchange open and closes after the 15:30 close so
// pre-open data and the closing candles are still processed.
const (
	monitorOpenMinutes  = 8*60 + 30  // 08:30
	monitorCloseMinutes = 15*60 + 45 // 15:45
)

// GetMarketStatus returns the market status at the given instant.
func GetMarketStatus(at time.Time) models.MarketStatus {
	now := at.In(IndiaLocation)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return models.MarketClosed
	}

	timeMinutes := now.Hour()*60 + now.Minute()
	if timeMinutes >= monitorOpenMinutes && timeMinutes < monitorCloseMinutes {
		return models.MarketOpen
	}

	return models.MarketClosed
}

// IsMarketOpen returns true if the monitoring window is active at the
// given instant.
func IsMarketOpen(at time.Time) bool {
	return GetMarketStatus(at) == models.MarketOpen
}

// NextMarketOpen returns the next time the monitoring window opens after
// the given instant.
func NextMarketOpen(after time.Time) time.Time {
	now := after.In(IndiaLocation)

	next := time.Date(now.Year(), now.Month(), now.Day(), 8, 30, 0, 0, IndiaLocation)
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}

	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

// MarketClose returns the monitoring window close on the given instant's
// date.
func MarketClose(on time.Time) time.Time {
	now := on.In(IndiaLocation)
	return time.Date(now.Year(), now.Month(), now.Day(), 15, 45, 0, 0, IndiaLocation)
}
