package itinerary

import (
	"fmt"
	"log"
	"time"
)

// maxRefineIterations bounds the merge+demote fixed-point loop. The
// thresholds are fixed per run, so convergence takes at most two
// iterations; the cap guards externally supplied segment lists.
const maxRefineIterations = 5

// Refine applies the merge and short-movement-demotion passes until
// nothing changes, returning the final segment sequence. It is
// idempotent: refining an already-refined sequence returns an identical
// one. Safe on externally supplied data, including sequences with
// adjacent same-kind segments that Segmentize never produces.
func Refine(segments []Segment, th Thresholds) []Segment {
	out := mergeAdjacent(segments)
	for i := 0; i < maxRefineIterations; i++ {
		demoted, changed := demoteShortMovements(out, th)
		if !changed {
			return demoted
		}
		out = mergeAdjacent(demoted)
	}
	log.Printf("refine: fixed point not reached after %d iterations (%d segments); returning last pass", maxRefineIterations, len(out))
	return out
}

// mergeAdjacent collapses every run of same-kind neighbours into one
// segment spanning both time ranges. Movement distances accumulate; a
// merged segment keeps the first segment's bairro and start location.
func mergeAdjacent(segments []Segment) []Segment {
	if len(segments) == 0 {
		return nil
	}
	out := make([]Segment, 0, len(segments))
	cur := segments[0]
	for _, s := range segments[1:] {
		if s.Kind == cur.Kind {
			cur.EndTime = s.EndTime
			cur.EndLat = s.EndLat
			cur.EndLon = s.EndLon
			cur.DistanceKm += s.DistanceKm
			continue
		}
		out = append(out, cur)
		cur = s
	}
	return append(out, cur)
}

// demoteShortMovements reclassifies any Movement below the duration or
// distance floor as a Stop (GPS jitter while parked). Stops carry no
// distance, so the demoted segment's distance is dropped.
func demoteShortMovements(segments []Segment, th Thresholds) ([]Segment, bool) {
	changed := false
	out := make([]Segment, len(segments))
	for i, s := range segments {
		if s.Kind == Movement &&
			(s.DurationSeconds() < th.MinMovementDurationSeconds || s.DistanceKm < th.MinMovementDistanceKm) {
			s.Kind = Stop
			s.DistanceKm = 0
			changed = true
		}
		out[i] = s
	}
	return out, changed
}

// Validate checks the post-refinement invariants: end times never
// precede start times, consecutive segments strictly alternate kind,
// and each segment starts exactly where the previous one ended.
func Validate(it Itinerary) error {
	var prevEnd time.Time
	for i, s := range it.Segments {
		if s.EndTime.Before(s.StartTime) {
			return fmt.Errorf("segment %d of %s: end %v before start %v", i, it.Date, s.EndTime, s.StartTime)
		}
		if i > 0 {
			if s.Kind == it.Segments[i-1].Kind {
				return fmt.Errorf("segments %d and %d of %s share kind %s", i-1, i, it.Date, s.Kind)
			}
			if !s.StartTime.Equal(prevEnd) {
				return fmt.Errorf("segment %d of %s starts at %v, previous ended at %v", i, it.Date, s.StartTime, prevEnd)
			}
		}
		prevEnd = s.EndTime
	}
	return nil
}
