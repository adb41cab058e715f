// Package archive keeps a SQLite index of preserved sessions so finished
// runs can be listed after their state directory is gone.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// IndexFile is the database file name inside the output directory.
const IndexFile = "sessions.db"

const schema = `
CREATE TABLE IF NOT EXISTS preserved_sessions (
	session_id TEXT PRIMARY KEY,
	destination TEXT NOT NULL,
	iterations INTEGER NOT NULL DEFAULT 0,
	distillation_iterations INTEGER NOT NULL DEFAULT 0,
	confidence TEXT NOT NULL DEFAULT '',
	thesis TEXT NOT NULL DEFAULT '',
	files TEXT NOT NULL DEFAULT '[]',
	preserved_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_preserved_sessions_preserved_at
	ON preserved_sessions(preserved_at);
`

// Entry is one preserved session.
type Entry struct {
	SessionID              string
	Destination            string
	Iterations             int
	DistillationIterations int
	Confidence             string
	Thesis                 string
	Files                  []string
	PreservedAt            time.Time
}

// Index is an open session index.
type Index struct {
	db *sql.DB
}

// Open opens (creating if needed) the index at path.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Record inserts or replaces the entry for e.SessionID.
func (i *Index) Record(ctx context.Context, e Entry) error {
	files := e.Files
	if files == nil {
		files = []string{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("failed to marshal file list: %w", err)
	}

	_, err = i.db.ExecContext(ctx, `
		INSERT INTO preserved_sessions
			(session_id, destination, iterations, distillation_iterations, confidence, thesis, files, preserved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			destination = excluded.destination,
			iterations = excluded.iterations,
			distillation_iterations = excluded.distillation_iterations,
			confidence = excluded.confidence,
			thesis = excluded.thesis,
			files = excluded.files,
			preserved_at = excluded.preserved_at`,
		e.SessionID, e.Destination, e.Iterations, e.DistillationIterations,
		e.Confidence, e.Thesis, string(filesJSON), e.PreservedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record session %s: %w", e.SessionID, err)
	}
	return nil
}

// List returns every entry, most recent first.
func (i *Index) List(ctx context.Context) ([]Entry, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT session_id, destination, iterations, distillation_iterations, confidence, thesis, files, preserved_at
		FROM preserved_sessions
		ORDER BY preserved_at DESC, session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			filesJSON   string
			preservedAt string
		)
		if err := rows.Scan(&e.SessionID, &e.Destination, &e.Iterations, &e.DistillationIterations,
			&e.Confidence, &e.Thesis, &filesJSON, &preservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if err := json.Unmarshal([]byte(filesJSON), &e.Files); err != nil {
			return nil, fmt.Errorf("failed to parse file list for %s: %w", e.SessionID, err)
		}
		e.PreservedAt, err = time.Parse(time.RFC3339Nano, preservedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse preserved_at for %s: %w", e.SessionID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return entries, nil
}
