// Package store owns the processed itinerary data for a run: records
// grouped by date, refined itineraries, batch stats and the filter
// selection. It exposes the command/query surface the rendering and
// export layers call; there is no package-level state, every consumer
// holds an injected *Store.
package store

import (
	"sort"
	"sync"

	"github.com/banshee-data/roteiro.report/internal/bairro"
	"github.com/banshee-data/roteiro.report/internal/config"
	"github.com/banshee-data/roteiro.report/internal/gps"
	"github.com/banshee-data/roteiro.report/internal/itinerary"
	"github.com/banshee-data/roteiro.report/internal/stats"
)

// Store holds one run's processed data. Itineraries are replaced
// wholesale by Ingest and treated as immutable afterwards, so reads may
// proceed concurrently under the read lock.
type Store struct {
	cfg       *config.Config
	extractor *bairro.Extractor

	mu            sync.RWMutex
	recordsByDate map[string][]gps.Record
	itineraries   map[string]itinerary.Itinerary
	stats         gps.ProcessingStats
	selected      map[string]bool // filter selection; empty means "all visible"
}

// New builds an empty store from validated configuration.
func New(cfg *config.Config) (*Store, error) {
	extractor, err := cfg.NewExtractor()
	if err != nil {
		return nil, err
	}
	return &Store{
		cfg:           cfg,
		extractor:     extractor,
		recordsByDate: make(map[string][]gps.Record),
		itineraries:   make(map[string]itinerary.Itinerary),
		selected:      make(map[string]bool),
	}, nil
}

func (s *Store) thresholds() itinerary.Thresholds {
	return itinerary.Thresholds{
		StationaryMaxSpeedKmh:      s.cfg.GetStationaryMaxSpeedKmh(),
		StationaryMaxDistanceKm:    s.cfg.GetStationaryMaxDistanceKm(),
		MinMovementDurationSeconds: s.cfg.GetMinMovementDurationSeconds(),
		MinMovementDistanceKm:      s.cfg.GetMinMovementDistanceKm(),
	}
}

// Batch is one fully processed ingestion result, not yet visible to
// readers. Publish installs it wholesale; an unpublished Batch is
// simply dropped.
type Batch struct {
	recordsByDate map[string][]gps.Record
	itineraries   map[string]itinerary.Itinerary
	stats         gps.ProcessingStats
}

// Stats returns the batch's processing counters.
func (b *Batch) Stats() gps.ProcessingStats { return b.stats }

// Prepare normalizes rows and segments and refines every date group
// without touching the published contents. A MalformedInputError aborts
// with no batch; a partially invalid batch still succeeds, with the skip
// counts in its stats.
func (s *Store) Prepare(rows [][]string) (*Batch, error) {
	normalizer := &gps.Normalizer{
		Location:      s.cfg.Location(),
		ExtractBairro: s.extractor.Extract,
	}
	byDate, batchStats, err := normalizer.Normalize(rows)
	if err != nil {
		return nil, err
	}

	itineraries := make(map[string]itinerary.Itinerary, len(byDate))
	for date, records := range byDate {
		itineraries[date] = itinerary.Build(date, records, s.thresholds())
	}
	return &Batch{recordsByDate: byDate, itineraries: itineraries, stats: batchStats}, nil
}

// Publish replaces the store contents with a prepared batch. The filter
// selection survives reprocessing.
func (s *Store) Publish(b *Batch) {
	s.mu.Lock()
	s.recordsByDate = b.recordsByDate
	s.itineraries = b.itineraries
	s.stats = b.stats
	s.mu.Unlock()
}

// Ingest is the synchronous command: Prepare followed by Publish. A
// failed batch leaves the previously published contents untouched.
func (s *Store) Ingest(rows [][]string) (gps.ProcessingStats, error) {
	b, err := s.Prepare(rows)
	if err != nil {
		var stats gps.ProcessingStats
		return stats, err
	}
	s.Publish(b)
	return b.stats, nil
}

// Dates returns the ingested dates in ascending order.
func (s *Store) Dates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := make([]string, 0, len(s.itineraries))
	for date := range s.itineraries {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Itinerary returns the refined itinerary for a date, if present.
func (s *Store) Itinerary(date string) (itinerary.Itinerary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.itineraries[date]
	return it, ok
}

// Itineraries returns all itineraries in date order.
func (s *Store) Itineraries() []itinerary.Itinerary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := make([]string, 0, len(s.itineraries))
	for date := range s.itineraries {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	out := make([]itinerary.Itinerary, 0, len(dates))
	for _, date := range dates {
		out = append(out, s.itineraries[date])
	}
	return out
}

// Stats returns the batch stats snapshot for the current contents.
func (s *Store) Stats() gps.ProcessingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// SetFilter replaces the visible-bairro selection. An empty selection
// means no filter. Selection is pure view state and never alters the
// published itineraries.
func (s *Store) SetFilter(bairros []string) {
	selected := make(map[string]bool, len(bairros))
	for _, b := range bairros {
		if b != "" {
			selected[b] = true
		}
	}
	s.mu.Lock()
	s.selected = selected
	s.mu.Unlock()
}

// Filter returns the current selection sorted by name.
func (s *Store) Filter() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.selected))
	for b := range s.selected {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Visible returns the sub-sequence of a date's segments whose bairro is
// selected, or the full sequence when the selection is empty. Segments
// are returned unchanged; the underlying itinerary is never mutated.
func (s *Store) Visible(date string) []itinerary.Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.itineraries[date]
	if !ok {
		return nil
	}
	if len(s.selected) == 0 {
		out := make([]itinerary.Segment, len(it.Segments))
		copy(out, it.Segments)
		return out
	}
	var out []itinerary.Segment
	for _, seg := range it.Segments {
		if s.selected[seg.Bairro] {
			out = append(out, seg)
		}
	}
	return out
}

// BairroIndex recomputes the per-bairro record counts from the current
// record set. Filter selection never affects it.
func (s *Store) BairroIndex() stats.BairroIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stats.BuildBairroIndex(s.recordsByDate)
}

// DayStats recomputes the per-date rollups in date order.
func (s *Store) DayStats() []stats.DayStats {
	out := make([]stats.DayStats, 0)
	for _, it := range s.Itineraries() {
		out = append(out, stats.ComputeDayStats(it))
	}
	return out
}

// TopBairros recomputes the cross-date bairro ranking.
func (s *Store) TopBairros(n int) []stats.BairroVisit {
	return stats.TopBairros(s.Itineraries(), n)
}
