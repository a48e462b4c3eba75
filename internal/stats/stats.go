// Package stats computes the derived indices and rollups over the
// itinerary store: per-bairro record counts, per-date segment stats and
// the cross-date bairro ranking. Everything here is recomputed on demand
// from store contents; nothing is cached.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/roteiro.report/internal/gps"
	"github.com/banshee-data/roteiro.report/internal/itinerary"
	"github.com/banshee-data/roteiro.report/internal/units"
)

// BairroIndex maps a bairro name to its occurrence count over the full
// record set (not just the currently visible segments). Counts always
// sum to the number of valid records in the batch.
type BairroIndex map[string]int

// BuildBairroIndex counts records per bairro across all date groups.
func BuildBairroIndex(recordsByDate map[string][]gps.Record) BairroIndex {
	index := make(BairroIndex)
	for _, records := range recordsByDate {
		for _, r := range records {
			index[r.Bairro]++
		}
	}
	return index
}

// DayStats is the per-date rollup over one refined itinerary.
type DayStats struct {
	Date            string
	StopSeconds     float64
	MovementSeconds float64
	DistanceKm      float64
	Stops           int
	Movements       int

	// Distribution of per-movement-segment average speeds, km/h.
	// Zero when the day has no movement segments.
	MeanSpeedKmh float64
	P50SpeedKmh  float64
	P85SpeedKmh  float64
}

// ComputeDayStats rolls one itinerary up into totals and a speed
// distribution over its movement segments.
func ComputeDayStats(it itinerary.Itinerary) DayStats {
	ds := DayStats{Date: it.Date}
	var speeds []float64
	for _, s := range it.Segments {
		switch s.Kind {
		case itinerary.Stop:
			ds.Stops++
			ds.StopSeconds += s.DurationSeconds()
		case itinerary.Movement:
			ds.Movements++
			ds.MovementSeconds += s.DurationSeconds()
			ds.DistanceKm += s.DistanceKm
			speeds = append(speeds, units.SpeedKmh(s.DistanceKm, s.EndTime.Sub(s.StartTime)))
		}
	}
	if len(speeds) > 0 {
		sort.Float64s(speeds)
		ds.MeanSpeedKmh = stat.Mean(speeds, nil)
		ds.P50SpeedKmh = stat.Quantile(0.5, stat.Empirical, speeds, nil)
		ds.P85SpeedKmh = stat.Quantile(0.85, stat.Empirical, speeds, nil)
	}
	return ds
}

// BairroVisit is one entry of the cross-date bairro ranking. A visit is
// one Stop segment whose bairro equals the name.
type BairroVisit struct {
	Bairro string
	Visits int
}

// TopBairros ranks bairros by Stop-segment visits across itineraries,
// which must be given in date order. Ties break by first encounter, so
// the ranking is stable for a frozen store.
func TopBairros(itineraries []itinerary.Itinerary, n int) []BairroVisit {
	if n < 1 {
		return nil
	}
	visits := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, it := range itineraries {
		for _, s := range it.Segments {
			if s.Kind != itinerary.Stop {
				continue
			}
			if _, ok := firstSeen[s.Bairro]; !ok {
				firstSeen[s.Bairro] = order
				order++
			}
			visits[s.Bairro]++
		}
	}

	ranked := make([]BairroVisit, 0, len(visits))
	for name, count := range visits {
		ranked = append(ranked, BairroVisit{Bairro: name, Visits: count})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Visits != ranked[j].Visits {
			return ranked[i].Visits > ranked[j].Visits
		}
		return firstSeen[ranked[i].Bairro] < firstSeen[ranked[j].Bairro]
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
