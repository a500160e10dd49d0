// Package store provides SQLite-backed persistence for transduced event streams.
// The store is located at .cevents/events.db by default and records, per source
// file, the content hash it was transduced from, the outcome, and the events.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store manages the events database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the store database at path.
// It creates the parent directory and initializes the schema if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// The scan workers share one writer.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, dbPath: path}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// DB returns the underlying database connection for advanced operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Clear removes all recorded files, events and scans.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM events; DELETE FROM files; DELETE FROM scans;")
	if err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

// Stats summarizes the store contents.
type Stats struct {
	Files  int64 `json:"files" yaml:"files"`
	Failed int64 `json:"failed" yaml:"failed"`
	Events int64 `json:"events" yaml:"events"`
	Scans  int64 `json:"scans" yaml:"scans"`
}

// GetStats returns statistics about the store contents.
func (s *Store) GetStats() (*Stats, error) {
	var stats Stats

	err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&stats.Files)
	if err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM files WHERE status != ?", string(StatusOK)).Scan(&stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("count failed files: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&stats.Events)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM scans").Scan(&stats.Scans)
	if err != nil {
		return nil, fmt.Errorf("count scans: %w", err)
	}

	return &stats, nil
}
