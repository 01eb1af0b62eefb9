package seenstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/gfiorillo/albowatch/internal/albo"
)

const seenSchema = `
CREATE TABLE IF NOT EXISTS seen (
	id      TEXT PRIMARY KEY,
	numero  TEXT NOT NULL DEFAULT '',
	oggetto TEXT NOT NULL DEFAULT '',
	riassunto TEXT NOT NULL DEFAULT ''
);`

// SQLiteStore keeps the snapshot in a local SQLite database, for
// deployments that run the watcher on a host with persistent disk
// instead of a remote document store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. Pass ":memory:" for an in-memory store (used by tests).
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Single connection avoids "database is locked" on the commit path.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(seenSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads every row into a snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (albo.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, numero, oggetto, riassunto FROM seen`)
	if err != nil {
		return nil, fmt.Errorf("query seen rows: %w", err)
	}
	defer rows.Close()

	snapshot := albo.Snapshot{}
	for rows.Next() {
		var id string
		var entry albo.SeenEntry
		if err := rows.Scan(&id, &entry.Number, &entry.Subject, &entry.Summary); err != nil {
			return nil, fmt.Errorf("scan seen row: %w", err)
		}
		snapshot[id] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen rows: %w", err)
	}
	return snapshot, nil
}

// Commit replaces the stored snapshot inside a single transaction so a
// failed commit leaves the previous state intact.
func (s *SQLiteStore) Commit(ctx context.Context, snapshot albo.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seen`); err != nil {
		return fmt.Errorf("clear seen rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO seen (id, numero, oggetto, riassunto) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for id, entry := range snapshot {
		if _, err := stmt.ExecContext(ctx, id, entry.Number, entry.Subject, entry.Summary); err != nil {
			return fmt.Errorf("insert seen row %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
