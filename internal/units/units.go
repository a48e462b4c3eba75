// Package units provides shared constants, conversions and formatting
// for distances, speeds and durations in reports.
package units

import (
	"fmt"
	"time"
)

// Unit constants
const (
	KM = "km"
	MI = "mi"
)

// ValidUnits contains all valid distance unit values
var ValidUnits = []string{KM, MI}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertDistance converts a distance from kilometres to the target units.
// The pipeline computes all distances in kilometres.
func ConvertDistance(distanceKm float64, targetUnits string) float64 {
	switch targetUnits {
	case MI:
		return distanceKm * 0.621371
	case KM:
		return distanceKm
	default:
		return distanceKm // default to km if unknown unit
	}
}

// SpeedKmh returns the average speed in km/h for a distance covered over
// an elapsed duration. Zero or negative elapsed time yields 0 rather
// than dividing by zero.
func SpeedKmh(distanceKm float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return distanceKm / elapsed.Hours()
}

// FormatDistance renders a distance for report output, e.g. "3.42 km".
func FormatDistance(distanceKm float64, targetUnits string) string {
	if !IsValid(targetUnits) {
		targetUnits = KM
	}
	return fmt.Sprintf("%.2f %s", ConvertDistance(distanceKm, targetUnits), targetUnits)
}

// FormatDuration renders a duration for report output as "2h05m" or
// "4m30s" for sub-hour values.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
