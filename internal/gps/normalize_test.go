package gps

import (
	"errors"
	"testing"
	"time"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	return &Normalizer{Location: loc}
}

// TestNormalize_RowOutcomes covers the per-row skip semantics: a bad
// timestamp counts as ignored, an out-of-range coordinate as invalid
// GPS, and neither fails the batch.
func TestNormalize_RowOutcomes(t *testing.T) {
	n := testNormalizer(t)

	rows := [][]string{
		{"2024-03-01 10:00:00", "-22.90", "-47.06", "Rua X, Bairro A"},
		{"not-a-timestamp", "-22.90", "-47.06", "Rua X, Bairro A"},
		{"2024-03-01 10:05:00", "200", "-47.06", "Rua X, Bairro A"},
		{"2024-03-01 10:10:00", "-22.91", "-47.07", "Rua Y, Bairro B"},
	}

	byDate, stats, err := n.Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if stats.Total != 4 || stats.Valid != 2 || stats.Ignored != 1 || stats.InvalidGPS != 1 {
		t.Errorf("stats = %+v, want total=4 valid=2 ignored=1 invalidGPS=1", stats)
	}
	if got := len(byDate["2024-03-01"]); got != 2 {
		t.Errorf("expected 2 records for 2024-03-01, got %d", got)
	}
}

// TestNormalize_NonFiniteCoordinates checks NaN/Inf coordinates count as
// invalid GPS rather than producing records.
func TestNormalize_NonFiniteCoordinates(t *testing.T) {
	n := testNormalizer(t)

	rows := [][]string{
		{"2024-03-01 10:00:00", "NaN", "-47.06", "Rua X"},
		{"2024-03-01 10:01:00", "-22.90", "+Inf", "Rua X"},
	}
	_, stats, err := n.Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if stats.InvalidGPS != 2 || stats.Valid != 0 {
		t.Errorf("stats = %+v, want invalidGPS=2 valid=0", stats)
	}
}

// TestNormalize_SortsWithinDate verifies each date group is sorted by
// timestamp regardless of input order.
func TestNormalize_SortsWithinDate(t *testing.T) {
	n := testNormalizer(t)

	rows := [][]string{
		{"2024-03-01 12:00:00", "-22.90", "-47.06", "Rua X"},
		{"2024-03-01 09:00:00", "-22.90", "-47.06", "Rua X"},
		{"2024-03-01 10:30:00", "-22.90", "-47.06", "Rua X"},
	}
	byDate, _, err := n.Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	group := byDate["2024-03-01"]
	if len(group) != 3 {
		t.Fatalf("expected 3 records, got %d", len(group))
	}
	for i := 1; i < len(group); i++ {
		if group[i].Timestamp.Before(group[i-1].Timestamp) {
			t.Errorf("records not sorted: %v before %v", group[i].Timestamp, group[i-1].Timestamp)
		}
	}
}

// TestNormalize_GroupsByReportingDate verifies the grouping date comes
// from the configured reporting timezone, not UTC.
func TestNormalize_GroupsByReportingDate(t *testing.T) {
	n := testNormalizer(t)

	// 2024-03-02T01:00:00Z is still 2024-03-01 22:00 in São Paulo
	// (UTC-3), so it must land in the 2024-03-01 group alongside the
	// local-time row.
	rows := [][]string{
		{"2024-03-02T01:00:00Z", "-22.90", "-47.06", "Rua X"},
		{"2024-03-01 21:00:00", "-22.90", "-47.06", "Rua X"},
	}
	byDate, _, err := n.Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(byDate) != 1 {
		t.Fatalf("expected 1 date group, got %d: %v", len(byDate), keys(byDate))
	}
	if got := len(byDate["2024-03-01"]); got != 2 {
		t.Errorf("expected both records in 2024-03-01, got %d", got)
	}
}

// TestNormalize_MalformedBatch: empty input or a first row missing the
// required columns fails the whole ingestion with MalformedInputError.
func TestNormalize_MalformedBatch(t *testing.T) {
	n := testNormalizer(t)

	cases := []struct {
		name string
		rows [][]string
	}{
		{"empty", nil},
		{"tooFewColumns", [][]string{{"2024-03-01 10:00:00", "-22.90"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := n.Normalize(tc.rows)
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Errorf("expected MalformedInputError, got %v", err)
			}
		})
	}
}

// TestNormalize_NarrowLaterRowIgnored: only the first row's shape is
// structural; later narrow rows are ordinary skips.
func TestNormalize_NarrowLaterRowIgnored(t *testing.T) {
	n := testNormalizer(t)

	rows := [][]string{
		{"2024-03-01 10:00:00", "-22.90", "-47.06", "Rua X"},
		{"2024-03-01 10:05:00", "-22.90"},
	}
	_, stats, err := n.Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if stats.Ignored != 1 || stats.Valid != 1 {
		t.Errorf("stats = %+v, want ignored=1 valid=1", stats)
	}
}

// TestNormalize_ExtraColumnsIgnored: trailing source-specific columns
// are ignored by the core.
func TestNormalize_ExtraColumnsIgnored(t *testing.T) {
	n := testNormalizer(t)

	rows := [][]string{
		{"2024-03-01 10:00:00", "-22.90", "-47.06", "Rua X, Bairro A", "42", "extra"},
	}
	byDate, stats, err := n.Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if stats.Valid != 1 {
		t.Fatalf("stats = %+v, want valid=1", stats)
	}
	if got := byDate["2024-03-01"][0].LocationLabel; got != "Rua X, Bairro A" {
		t.Errorf("label = %q", got)
	}
}

func keys(m map[string][]Record) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
