package store

import (
	"fmt"
	"time"
)

// Scan summarizes one scan run.
type Scan struct {
	ID         int64     `json:"id" yaml:"id"`
	Root       string    `json:"root" yaml:"root"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Files      int       `json:"files" yaml:"files"`
	Changed    int       `json:"changed" yaml:"changed"`
	Failed     int       `json:"failed" yaml:"failed"`
	Events     int       `json:"events" yaml:"events"`
}

// RecordScan appends a scan run and returns its id.
func (s *Store) RecordScan(scan Scan) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO scans (root, started_at, finished_at, files, changed, failed, events)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		scan.Root,
		scan.StartedAt.Format(time.RFC3339),
		scan.FinishedAt.Format(time.RFC3339),
		scan.Files, scan.Changed, scan.Failed, scan.Events,
	)
	if err != nil {
		return 0, fmt.Errorf("record scan: %w", err)
	}
	return res.LastInsertId()
}

// GetScans returns the most recent scans, newest first. A non-positive limit
// returns all of them.
func (s *Store) GetScans(limit int) ([]Scan, error) {
	query := `
		SELECT id, root, started_at, finished_at, files, changed, failed, events
		FROM scans ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		var scan Scan
		var started, finished string
		err := rows.Scan(&scan.ID, &scan.Root, &started, &finished,
			&scan.Files, &scan.Changed, &scan.Failed, &scan.Events)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scan.StartedAt, _ = time.Parse(time.RFC3339, started)
		scan.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return scans, nil
}
