package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hargabyte/cevents/internal/event"
)

// Record is the outcome of transducing one file.
type Record struct {
	Path   string
	Hash   string
	Status Status
	Err    string
	Events event.Sequence
}

// RecordFile replaces the stored state and events of one file.
func (s *Store) RecordFile(rec Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	var errText sql.NullString
	if rec.Err != "" {
		errText = sql.NullString{String: rec.Err, Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO files (file_path, content_hash, status, error, event_count, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			status = excluded.status,
			error = excluded.error,
			event_count = excluded.event_count,
			scanned_at = excluded.scanned_at`,
		rec.Path, rec.Hash, string(rec.Status), errText, len(rec.Events), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("record file %s: %w", rec.Path, err)
	}

	if _, err := tx.Exec("DELETE FROM events WHERE file_path = ?", rec.Path); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear events %s: %w", rec.Path, err)
	}

	if len(rec.Events) > 0 {
		stmt, err := tx.Prepare("INSERT INTO events (file_path, seq, tag, text) VALUES (?, ?, ?, ?)")
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, ev := range rec.Events {
			if _, err := stmt.Exec(rec.Path, i, ev.Tag.String(), ev.Text); err != nil {
				tx.Rollback()
				return fmt.Errorf("save event %d of %s: %w", i, rec.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadEvents returns the stored events of a file in traversal order.
// A file that was never recorded yields sql.ErrNoRows.
func (s *Store) LoadEvents(path string) (event.Sequence, error) {
	if _, err := s.GetFileEntry(path); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT tag, text FROM events WHERE file_path = ? ORDER BY seq", path)
	if err != nil {
		return nil, fmt.Errorf("query events %s: %w", path, err)
	}
	defer rows.Close()

	var seq event.Sequence
	for rows.Next() {
		var label, text string
		if err := rows.Scan(&label, &text); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		tag, err := event.ParseTag(label)
		if err != nil {
			return nil, fmt.Errorf("stored event of %s: %w", path, err)
		}
		seq = append(seq, event.New(tag, text))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return seq, nil
}

// Histogram counts stored events per tag label across all files.
func (s *Store) Histogram() (map[string]int, error) {
	rows, err := s.db.Query("SELECT tag, COUNT(*) FROM events GROUP BY tag")
	if err != nil {
		return nil, fmt.Errorf("query histogram: %w", err)
	}
	defer rows.Close()

	h := make(map[string]int)
	for rows.Next() {
		var tag string
		var n int
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		h[tag] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return h, nil
}

// Signature is a reconstructed function signature and the file defining it.
type Signature struct {
	File      string `json:"file" yaml:"file"`
	Signature string `json:"signature" yaml:"signature"`
}

// Signatures lists the function signatures recorded for file, or for every
// file when file is empty, in file and definition order.
func (s *Store) Signatures(file string) ([]Signature, error) {
	query := "SELECT file_path, text FROM events WHERE tag = ?"
	args := []any{event.ExitFunction.String()}
	if file != "" {
		query += " AND file_path = ?"
		args = append(args, file)
	}
	query += " ORDER BY file_path, seq"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query signatures: %w", err)
	}
	defer rows.Close()

	var sigs []Signature
	for rows.Next() {
		var sig Signature
		if err := rows.Scan(&sig.File, &sig.Signature); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sigs = append(sigs, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return sigs, nil
}
