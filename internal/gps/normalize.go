package gps

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Column positions the normalizer requires in every raw row. Extra
// trailing columns from the source logger are ignored.
const (
	colTimestamp = 0
	colLatitude  = 1
	colLongitude = 2
	colLocation  = 3

	minColumns = 4
)

// timestampLayouts are the accepted timestamp formats, tried in order.
// The source loggers emit either ISO-style or Brazilian day-first stamps.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// Normalizer validates raw rows and groups the resulting records by
// calendar date. Timestamps are interpreted in Location, which is also
// the timezone used to assign a row to its date group.
type Normalizer struct {
	Location *time.Location
	// ExtractBairro derives the bairro for a record from its location
	// label. Nil leaves Record.Bairro empty.
	ExtractBairro func(label string) string
}

// Normalize walks rows once and returns records grouped by date plus the
// batch stats. A single bad row never fails the batch: unparseable
// timestamps count as Ignored, out-of-range or non-finite coordinates as
// InvalidGPS. Only a structurally unreadable batch (no rows, or a first
// row without the required columns) returns a MalformedInputError, in
// which case no partial result is produced.
//
// Each date group is sorted ascending by timestamp before being
// returned, regardless of input order.
func (n *Normalizer) Normalize(rows [][]string) (map[string][]Record, ProcessingStats, error) {
	var stats ProcessingStats

	if len(rows) == 0 {
		return nil, stats, &MalformedInputError{Reason: "no rows"}
	}
	if len(rows[0]) < minColumns {
		return nil, stats, &MalformedInputError{
			Reason: "expected at least " + strconv.Itoa(minColumns) + " columns, got " + strconv.Itoa(len(rows[0])),
		}
	}

	loc := n.Location
	if loc == nil {
		loc = time.UTC
	}

	byDate := make(map[string][]Record)
	for _, row := range rows {
		stats.Total++

		if len(row) < minColumns {
			stats.Ignored++
			continue
		}

		ts, ok := parseTimestamp(strings.TrimSpace(row[colTimestamp]), loc)
		if !ok {
			stats.Ignored++
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[colLatitude]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[colLongitude]), 64)
		if latErr != nil || lonErr != nil || !validCoordinates(lat, lon) {
			stats.InvalidGPS++
			continue
		}

		rec := Record{
			Timestamp:     ts,
			Latitude:      lat,
			Longitude:     lon,
			LocationLabel: strings.TrimSpace(row[colLocation]),
		}
		if n.ExtractBairro != nil {
			rec.Bairro = n.ExtractBairro(rec.LocationLabel)
		}

		stats.Valid++
		byDate[rec.Date()] = append(byDate[rec.Date()], rec)
	}

	for date := range byDate {
		group := byDate[date]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
	}

	return byDate, stats, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			// Layouts carrying an explicit offset keep their own zone;
			// convert so the reporting timezone decides the date group.
			return ts.In(loc), true
		}
	}
	return time.Time{}, false
}

func validCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
