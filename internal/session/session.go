// Package session persists view state across runs: the last-used
// bairro filter selection and the history of ingested files. It is a
// collaborator of the core, not part of it; the processing pipeline
// never depends on this package.
package session

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the session sqlite database.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the session database at path and
// runs all pending migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}
	s := &DB{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (db *DB) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	// Note: we don't close m here because it would close the underlying
	// DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SaveFilterState stores the current filter selection, replacing any
// previous one. The selection is stored as a JSON array so an external
// layer can restore it without knowing the core's types.
func (db *DB) SaveFilterState(selected []string) error {
	data, err := json.Marshal(selected)
	if err != nil {
		return fmt.Errorf("failed to encode filter state: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO filter_state (id, selected_json, updated_at)
		VALUES (1, ?, UNIXEPOCH('subsec'))
		ON CONFLICT(id) DO UPDATE SET
			selected_json = excluded.selected_json,
			updated_at = excluded.updated_at
	`, string(data))
	if err != nil {
		return fmt.Errorf("failed to save filter state: %w", err)
	}
	return nil
}

// LoadFilterState returns the last saved filter selection, or nil if
// none was ever saved.
func (db *DB) LoadFilterState() ([]string, error) {
	var data string
	err := db.QueryRow(`SELECT selected_json FROM filter_state WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load filter state: %w", err)
	}
	var selected []string
	if err := json.Unmarshal([]byte(data), &selected); err != nil {
		return nil, fmt.Errorf("failed to decode filter state: %w", err)
	}
	return selected, nil
}

// FileHistoryEntry records one ingested file and its batch outcome.
type FileHistoryEntry struct {
	ID         int64
	RunID      string
	Filename   string
	SizeBytes  int64
	Total      int
	Valid      int
	Ignored    int
	InvalidGPS int
	CreatedAt  time.Time
}

// RecordFileHistory appends one entry to the file history.
func (db *DB) RecordFileHistory(e *FileHistoryEntry) error {
	result, err := db.Exec(`
		INSERT INTO file_history (
			run_id, filename, size_bytes,
			total_rows, valid_rows, ignored_rows, invalid_gps_rows
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Filename, e.SizeBytes, e.Total, e.Valid, e.Ignored, e.InvalidGPS)
	if err != nil {
		return fmt.Errorf("failed to record file history: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	e.ID = id
	return nil
}

// ListFileHistory returns the most recent entries, newest first.
func (db *DB) ListFileHistory(limit int) ([]FileHistoryEntry, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := db.Query(`
		SELECT id, run_id, filename, size_bytes,
		       total_rows, valid_rows, ignored_rows, invalid_gps_rows, created_at
		FROM file_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list file history: %w", err)
	}
	defer rows.Close()

	var entries []FileHistoryEntry
	for rows.Next() {
		var e FileHistoryEntry
		var createdAt float64
		if err := rows.Scan(&e.ID, &e.RunID, &e.Filename, &e.SizeBytes,
			&e.Total, &e.Valid, &e.Ignored, &e.InvalidGPS, &createdAt); err != nil {
			return nil, err
		}
		sec := int64(createdAt)
		e.CreatedAt = time.Unix(sec, int64((createdAt-float64(sec))*1e9)).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
