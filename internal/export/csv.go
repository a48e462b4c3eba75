// Package export renders store output for external consumers: a CSV
// segment table, an HTML report with charts and a PDF summary chart.
// Everything here is a pure consumer of core data; the core never
// generates markup.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/roteiro.report/internal/itinerary"
)

// csvTimeLayout is the timestamp format used in exported rows.
const csvTimeLayout = "2006-01-02 15:04:05"

// WriteItineraryCSV writes one row per segment across the given
// itineraries, in the order supplied.
func WriteItineraryCSV(w io.Writer, itineraries []itinerary.Itinerary) error {
	cw := csv.NewWriter(w)
	header := []string{"date", "kind", "start_time", "end_time", "duration_seconds", "distance_km", "bairro"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, it := range itineraries {
		for _, s := range it.Segments {
			row := []string{
				it.Date,
				s.Kind.String(),
				s.StartTime.Format(csvTimeLayout),
				s.EndTime.Format(csvTimeLayout),
				strconv.FormatFloat(s.DurationSeconds(), 'f', 0, 64),
				strconv.FormatFloat(s.DistanceKm, 'f', 3, 64),
				s.Bairro,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
