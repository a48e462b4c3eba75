// Package itinerary builds day itineraries of alternating stop and
// movement segments from sorted GPS records, and refines them with the
// merge and short-movement-demotion passes.
package itinerary

import (
	"fmt"
	"time"

	"github.com/banshee-data/roteiro.report/internal/gps"
)

// Kind classifies a segment as stationary or moving.
type Kind int

const (
	Stop Kind = iota
	Movement
)

func (k Kind) String() string {
	switch k {
	case Stop:
		return "stop"
	case Movement:
		return "movement"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Segment is one typed time interval of an itinerary.
//
// Boundary convention: a segment boundary sits at the timestamp of the
// classification-changing fix, so a Stop runs up to and including the
// fix where movement starts and that same fix opens the following
// Movement. Segments for one date are therefore contiguous with no
// gaps, covering [first fix, last fix].
type Segment struct {
	Kind       Kind
	StartTime  time.Time
	EndTime    time.Time
	StartLat   float64
	StartLon   float64
	EndLat     float64
	EndLon     float64
	DistanceKm float64 // 0 for stops; haversine-accumulated for movements
	Bairro     string  // inherited from the segment's first record
}

// DurationSeconds returns the segment length in seconds, never negative.
func (s Segment) DurationSeconds() float64 {
	d := s.EndTime.Sub(s.StartTime).Seconds()
	if d < 0 {
		return 0
	}
	return d
}

// Itinerary is the ordered segment sequence for exactly one calendar
// date. Once published to the store it is treated as immutable.
type Itinerary struct {
	Date     string // YYYY-MM-DD
	Segments []Segment
}

// Thresholds carries the segmentation and refinement tuning values,
// resolved from configuration before any data is processed.
type Thresholds struct {
	StationaryMaxSpeedKmh      float64
	StationaryMaxDistanceKm    float64
	MinMovementDurationSeconds float64
	MinMovementDistanceKm      float64
}

// Build segments one date's sorted records and refines the result into
// the final itinerary. Records must be non-empty and sorted ascending
// by timestamp; the normalizer guarantees both.
func Build(date string, records []gps.Record, th Thresholds) Itinerary {
	raw := Segmentize(records, th)
	return Itinerary{Date: date, Segments: Refine(raw, th)}
}

// Segmentize walks consecutive record pairs and emits raw alternating
// segments. A single-record day yields one zero-duration Stop.
func Segmentize(records []gps.Record, th Thresholds) []Segment {
	if len(records) == 0 {
		return nil
	}
	if len(records) == 1 {
		r := records[0]
		return []Segment{{
			Kind:      Stop,
			StartTime: r.Timestamp, EndTime: r.Timestamp,
			StartLat: r.Latitude, StartLon: r.Longitude,
			EndLat: r.Latitude, EndLon: r.Longitude,
			Bairro: r.Bairro,
		}}
	}

	var segments []Segment
	cur := startSegment(records[0], classifyPair(records[0], records[1], th))

	for i := 0; i+1 < len(records); i++ {
		a, b := records[i], records[i+1]
		kind := classifyPair(a, b, th)

		if kind != cur.Kind {
			// close at the classification-changing fix and reopen there
			segments = append(segments, cur)
			cur = startSegment(a, kind)
		}

		cur.EndTime = b.Timestamp
		cur.EndLat = b.Latitude
		cur.EndLon = b.Longitude
		if kind == Movement {
			cur.DistanceKm += gps.HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
		}
	}

	return append(segments, cur)
}

func startSegment(r gps.Record, kind Kind) Segment {
	return Segment{
		Kind:      kind,
		StartTime: r.Timestamp, EndTime: r.Timestamp,
		StartLat: r.Latitude, StartLon: r.Longitude,
		EndLat: r.Latitude, EndLon: r.Longitude,
		Bairro: r.Bairro,
	}
}

// classifyPair decides whether the interval between two consecutive
// fixes is stationary or moving. A pair is stationary when its
// displacement is within the distance floor, or its average speed is
// within the speed floor. Identical timestamps with nonzero displacement
// never divide by zero: only the distance floor applies.
func classifyPair(a, b gps.Record, th Thresholds) Kind {
	d := gps.HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	if d <= th.StationaryMaxDistanceKm {
		return Stop
	}

	elapsed := b.Timestamp.Sub(a.Timestamp)
	if elapsed <= 0 {
		// zero elapsed time; displacement already exceeded the floor
		return Movement
	}
	if d/elapsed.Hours() <= th.StationaryMaxSpeedKmh {
		return Stop
	}
	return Movement
}
