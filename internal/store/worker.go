package store

import (
	"log"
	"sync"

	"github.com/banshee-data/roteiro.report/internal/gps"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// but may be replaced by SetLogger. Tests can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil sets a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// IngestResult is the reply to one ingest request.
type IngestResult struct {
	Stats gps.ProcessingStats
	Err   error
	// Superseded is set when a newer request arrived while this one was
	// queued or running; its output was discarded, never published.
	Superseded bool
}

type ingestRequest struct {
	generation uint64
	rows       [][]string
	reply      chan IngestResult
}

// Worker serializes the heavy processing passes onto one goroutine so
// ingestion never runs concurrently with itself. Requests are answered
// on per-request reply channels. When requests race, only the latest
// generation is published to the store; earlier results are discarded
// whole, never partially merged.
type Worker struct {
	store    *Store
	requests chan ingestRequest
	StopChan chan struct{}

	mu         sync.Mutex
	generation uint64
}

// NewWorker creates a worker bound to a store. Call Start to run it.
func NewWorker(s *Store) *Worker {
	return &Worker{
		store:    s,
		requests: make(chan ingestRequest, 8),
		StopChan: make(chan struct{}),
	}
}

// Start runs the worker loop in a goroutine.
func (w *Worker) Start() {
	go func() {
		for {
			select {
			case req := <-w.requests:
				w.serve(req)
			case <-w.StopChan:
				return
			}
		}
	}()
}

// Stop requests the worker to stop. Queued requests are dropped.
func (w *Worker) Stop() {
	close(w.StopChan)
}

// Ingest submits rows for processing and returns a channel delivering
// the single result. Submitting again before the previous result is
// read supersedes the earlier request.
func (w *Worker) Ingest(rows [][]string) <-chan IngestResult {
	w.mu.Lock()
	w.generation++
	gen := w.generation
	w.mu.Unlock()

	reply := make(chan IngestResult, 1)
	select {
	case w.requests <- ingestRequest{generation: gen, rows: rows, reply: reply}:
	case <-w.StopChan:
		reply <- IngestResult{Superseded: true}
	}
	return reply
}

func (w *Worker) serve(req ingestRequest) {
	if w.currentGeneration() != req.generation {
		// a newer batch is already queued; skip the work entirely
		Logf("ingest generation %d superseded before processing", req.generation)
		req.reply <- IngestResult{Superseded: true}
		return
	}

	batch, err := w.store.Prepare(req.rows)
	if err != nil {
		req.reply <- IngestResult{Err: err}
		return
	}

	// Publish only if no newer request arrived while this one ran. A
	// superseded batch is dropped whole, never partially merged.
	if w.currentGeneration() != req.generation {
		Logf("ingest generation %d superseded after processing; result discarded", req.generation)
		req.reply <- IngestResult{Superseded: true}
		return
	}
	w.store.Publish(batch)
	req.reply <- IngestResult{Stats: batch.Stats()}
}

func (w *Worker) currentGeneration() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}
