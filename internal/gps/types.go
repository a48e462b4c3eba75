// Package gps holds the typed record model and the record normalizer that
// turns raw tokenized log rows into per-date groups of validated fixes.
package gps

import "time"

// Record is one validated GPS fix. Immutable once created.
type Record struct {
	Timestamp     time.Time
	Latitude      float64
	Longitude     float64
	LocationLabel string
	// Bairro is derived from LocationLabel by the extractor. The sentinel
	// value bairro.Unidentified marks a label no rule matched.
	Bairro string
}

// Date returns the calendar date of the fix as YYYY-MM-DD in the fix's
// own location (records are parsed in the reporting timezone, so this is
// the reporting date).
func (r Record) Date() string {
	return r.Timestamp.Format("2006-01-02")
}

// ProcessingStats counts row outcomes for one ingestion batch.
// Total is incremented for every row seen; Valid, Ignored and InvalidGPS
// partition the outcomes. Callers that skip structurally broken rows
// before normalization (e.g. CSV reader errors) fold them into
// Total/Ignored themselves.
type ProcessingStats struct {
	Total      int
	Valid      int
	Ignored    int
	InvalidGPS int
}

// MalformedInputError marks a batch that is structurally unreadable as a
// whole (empty input, required columns missing). It aborts the ingestion
// with no partial result; per-row problems never produce it.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Reason
}
