package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Status is the outcome of transducing one file.
type Status string

const (
	StatusOK              Status = "ok"
	StatusSyntaxError     Status = "syntax_error"
	StatusStructuralError Status = "structural_error"
	StatusReadError       Status = "read_error"
)

// FileEntry holds the recorded state for a file.
type FileEntry struct {
	FilePath    string    `json:"file" yaml:"file"`
	ContentHash string    `json:"hash" yaml:"hash"`
	Status      Status    `json:"status" yaml:"status"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	EventCount  int       `json:"events" yaml:"events"`
	ScannedAt   time.Time `json:"scanned_at" yaml:"scanned_at"`
}

// ContentHash returns the hash recorded for a file's contents.
func ContentHash(src []byte) string {
	return strconv.FormatUint(xxhash.Sum64(src), 16)
}

// GetFileEntry retrieves the recorded entry for a file.
// Returns sql.ErrNoRows if the file has not been recorded.
func (s *Store) GetFileEntry(path string) (*FileEntry, error) {
	var entry FileEntry
	var status, scannedAt string
	var errText sql.NullString
	err := s.db.QueryRow(`
		SELECT file_path, content_hash, status, error, event_count, scanned_at
		FROM files WHERE file_path = ?`,
		path).Scan(&entry.FilePath, &entry.ContentHash, &status, &errText, &entry.EventCount, &scannedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get file entry %s: %w", path, err)
	}
	entry.Status = Status(status)
	entry.Error = errText.String
	entry.ScannedAt, _ = time.Parse(time.RFC3339, scannedAt)
	return &entry, nil
}

// IsFileChanged checks if a file's content differs from what was recorded.
// Returns true if the file has changed or has never been recorded.
func (s *Store) IsFileChanged(path, newHash string) (bool, error) {
	entry, err := s.GetFileEntry(path)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return entry.ContentHash != newHash, nil
}

// GetAllFileEntries retrieves all recorded files ordered by path.
func (s *Store) GetAllFileEntries() ([]FileEntry, error) {
	return s.queryFiles(`
		SELECT file_path, content_hash, status, error, event_count, scanned_at
		FROM files ORDER BY file_path`)
}

// GetFailedFiles retrieves the files whose last transduction failed.
func (s *Store) GetFailedFiles() ([]FileEntry, error) {
	return s.queryFiles(`
		SELECT file_path, content_hash, status, error, event_count, scanned_at
		FROM files WHERE status != ? ORDER BY file_path`, string(StatusOK))
}

func (s *Store) queryFiles(query string, args ...any) ([]FileEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query file entries: %w", err)
	}
	defer rows.Close()

	var entries []FileEntry
	for rows.Next() {
		var entry FileEntry
		var status, scannedAt string
		var errText sql.NullString
		err := rows.Scan(&entry.FilePath, &entry.ContentHash, &status, &errText, &entry.EventCount, &scannedAt)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		entry.Status = Status(status)
		entry.Error = errText.String
		entry.ScannedAt, _ = time.Parse(time.RFC3339, scannedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// DeleteFileEntry removes a file and its events in one transaction.
func (s *Store) DeleteFileEntry(path string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM events WHERE file_path = ?", path); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete events %s: %w", path, err)
	}
	if _, err := tx.Exec("DELETE FROM files WHERE file_path = ?", path); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete file entry %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// PruneStaleEntries removes entries for files no longer in the provided set.
func (s *Store) PruneStaleEntries(validPaths map[string]bool) (int, error) {
	entries, err := s.GetAllFileEntries()
	if err != nil {
		return 0, err
	}

	var pruned int
	for _, entry := range entries {
		if !validPaths[entry.FilePath] {
			if err := s.DeleteFileEntry(entry.FilePath); err != nil {
				return pruned, err
			}
			pruned++
		}
	}

	return pruned, nil
}
