package store

// schemaSQL defines the SQLite schema for the events database.
// Tables:
//   - files: one row per transduced source file with its content hash and outcome
//   - events: the event stream of each file, in traversal order
//   - scans: one row per scan run
const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
    file_path TEXT PRIMARY KEY,
    content_hash TEXT NOT NULL,       -- xxhash64 of the source, hex
    status TEXT NOT NULL,             -- ok, syntax_error, structural_error, read_error
    error TEXT,
    event_count INTEGER NOT NULL DEFAULT 0,
    scanned_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    file_path TEXT NOT NULL REFERENCES files(file_path) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    tag TEXT NOT NULL,
    text TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS scans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    root TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    files INTEGER NOT NULL DEFAULT 0,
    changed INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    events INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_events_tag ON events(tag);
CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);
`

// initSchema creates the database tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
