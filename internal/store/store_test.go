package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/roteiro.report/internal/config"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(config.Default())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func sampleRows() [][]string {
	return [][]string{
		{"2024-03-01 08:00:00", "-22.9000", "-47.0600", "Rua X, Bairro Cambuí"},
		{"2024-03-01 08:30:00", "-22.9000", "-47.0600", "Rua X, Bairro Cambuí"},
		{"2024-03-01 08:45:00", "-22.9450", "-47.0600", "Rua Y, Bairro Centro"},
		{"2024-03-01 09:15:00", "-22.9450", "-47.0600", "Rua Y, Bairro Centro"},
		{"2024-03-02 10:00:00", "-22.9450", "-47.0600", "Rua Y, Bairro Centro"},
	}
}

// TestIngest_PublishesItineraries: a good batch produces one itinerary
// per date with the batch stats snapshot.
func TestIngest_PublishesItineraries(t *testing.T) {
	s := testStore(t)

	batchStats, err := s.Ingest(sampleRows())
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if batchStats.Valid != 5 {
		t.Errorf("valid = %d, want 5", batchStats.Valid)
	}
	if got := s.Dates(); len(got) != 2 || got[0] != "2024-03-01" || got[1] != "2024-03-02" {
		t.Errorf("Dates = %v", got)
	}
	if _, ok := s.Itinerary("2024-03-01"); !ok {
		t.Error("missing itinerary for 2024-03-01")
	}
}

// TestIngest_FailedBatchKeepsPreviousContents: a malformed batch leaves
// the previously published store untouched.
func TestIngest_FailedBatchKeepsPreviousContents(t *testing.T) {
	s := testStore(t)
	if _, err := s.Ingest(sampleRows()); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	before := s.Itineraries()

	if _, err := s.Ingest(nil); err == nil {
		t.Fatal("expected error for empty batch")
	}

	after := s.Itineraries()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("failed batch altered the store (-before +after):\n%s", diff)
	}
	if s.Stats().Valid != 5 {
		t.Errorf("stats overwritten by failed batch: %+v", s.Stats())
	}
}

// TestVisible_EmptyFilterReturnsAll: an empty selection means no
// filter; the result matches the itinerary segment-for-segment.
func TestVisible_EmptyFilterReturnsAll(t *testing.T) {
	s := testStore(t)
	if _, err := s.Ingest(sampleRows()); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	it, _ := s.Itinerary("2024-03-01")
	visible := s.Visible("2024-03-01")
	if diff := cmp.Diff(it.Segments, visible); diff != "" {
		t.Errorf("empty filter differs from itinerary (-want +got):\n%s", diff)
	}
}

// TestVisible_SubsetRelation: every returned segment exists in the
// source itinerary with unchanged fields, and only selected bairros
// appear.
func TestVisible_SubsetRelation(t *testing.T) {
	s := testStore(t)
	if _, err := s.Ingest(sampleRows()); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	s.SetFilter([]string{"Centro"})

	it, _ := s.Itinerary("2024-03-01")
	visible := s.Visible("2024-03-01")
	if len(visible) == 0 {
		t.Fatal("expected at least one visible segment")
	}
	for _, v := range visible {
		if v.Bairro != "Centro" {
			t.Errorf("unselected bairro leaked through: %+v", v)
		}
		found := false
		for _, src := range it.Segments {
			if cmp.Equal(src, v) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("visible segment not present in source itinerary: %+v", v)
		}
	}

	// filtering is pure view state: the itinerary itself is unchanged
	again, _ := s.Itinerary("2024-03-01")
	if diff := cmp.Diff(it, again); diff != "" {
		t.Errorf("filter mutated the itinerary:\n%s", diff)
	}
}

// TestSetFilter_SurvivesReingest: the selection is view state, kept
// across reprocessing.
func TestSetFilter_SurvivesReingest(t *testing.T) {
	s := testStore(t)
	s.SetFilter([]string{"Centro", "Cambuí"})
	if _, err := s.Ingest(sampleRows()); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if got := s.Filter(); len(got) != 2 {
		t.Errorf("Filter = %v, want 2 entries", got)
	}
}

// TestBairroIndex_IndependentOfFilter: the index is derived from the
// full record set and never changes with the selection.
func TestBairroIndex_IndependentOfFilter(t *testing.T) {
	s := testStore(t)
	if _, err := s.Ingest(sampleRows()); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	before := s.BairroIndex()
	s.SetFilter([]string{"Centro"})
	after := s.BairroIndex()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("filter selection changed the bairro index:\n%s", diff)
	}

	total := 0
	for _, count := range after {
		total += count
	}
	if total != s.Stats().Valid {
		t.Errorf("index sums to %d, want %d valid records", total, s.Stats().Valid)
	}
}
