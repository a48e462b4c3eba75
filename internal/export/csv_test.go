package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/roteiro.report/internal/itinerary"
)

func sampleItineraries(t *testing.T) []itinerary.Itinerary {
	t.Helper()
	parse := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			t.Fatalf("bad time %q: %v", s, err)
		}
		return ts
	}
	return []itinerary.Itinerary{{
		Date: "2024-03-01",
		Segments: []itinerary.Segment{
			{Kind: itinerary.Stop, StartTime: parse("2024-03-01 08:00:00"), EndTime: parse("2024-03-01 08:30:00"), Bairro: "Cambuí"},
			{Kind: itinerary.Movement, StartTime: parse("2024-03-01 08:30:00"), EndTime: parse("2024-03-01 08:45:00"), DistanceKm: 4.982, Bairro: "Cambuí"},
		},
	}}
}

// TestWriteItineraryCSV checks one row per segment plus the header, and
// the field encoding.
func TestWriteItineraryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteItineraryCSV(&buf, sampleItineraries(t)); err != nil {
		t.Fatalf("WriteItineraryCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "date" || rows[0][6] != "bairro" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	stop := rows[1]
	if stop[1] != "stop" || stop[4] != "1800" || stop[5] != "0.000" {
		t.Errorf("stop row = %v", stop)
	}
	move := rows[2]
	if move[1] != "movement" || move[5] != "4.982" || move[6] != "Cambuí" {
		t.Errorf("movement row = %v", move)
	}
}

// TestWriteHTMLReport smoke-tests the chart page render.
func TestWriteHTMLReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHTMLReport(&buf,
		map[string]int{"Cambuí": 3, "Centro": 2},
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("WriteHTMLReport failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<html") {
		t.Error("output does not look like an HTML page")
	}
	if !strings.Contains(out, "Registros por bairro") {
		t.Error("bairro chart title missing")
	}
}
