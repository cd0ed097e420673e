package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flemzord/lineup/internal/engine"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const defaultBusyTimeout = 5000 // milliseconds

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS resolutions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		source      TEXT    NOT NULL,
		fingerprint TEXT    NOT NULL,
		step_count  INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		steps       TEXT    NOT NULL DEFAULT '[]',
		created_at  TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_resolutions_created ON resolutions(created_at)`,
}

// sqliteStore implements Store backed by SQLite.
type sqliteStore struct {
	db *sql.DB
}

var _ Store = (*sqliteStore)(nil)

// Open opens (creating if needed) the history database at the given path.
// The caller is responsible for closing the returned *sql.DB when done.
//
// The database is created with WAL mode, a 5 s busy timeout, and a single
// connection (SQLite serialises writes). The schema is migrated
// automatically.
func Open(path string) (Store, *sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("history: enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("history: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return &sqliteStore{db: db}, db, nil
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("history: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("history: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("history: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("history: record schema version: %w", err)
	}

	return nil
}

// Record implements Store.
func (s *sqliteStore) Record(source string, plan *engine.Plan) (int64, error) {
	stepsJSON, err := json.Marshal(plan.Steps)
	if err != nil {
		return 0, fmt.Errorf("history: marshal steps: %w", err)
	}

	res, err := s.db.ExecContext(context.TODO(), `
		INSERT INTO resolutions (source, fingerprint, step_count, duration_ns, steps)
		VALUES (?, ?, ?, ?, ?)`,
		source, plan.Fingerprint(), len(plan.Steps), int64(plan.Duration), string(stepsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("history: record resolution: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: last insert id: %w", err)
	}
	return id, nil
}

// Recent implements Store.
func (s *sqliteStore) Recent(n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(context.TODO(), `
		SELECT id, source, fingerprint, step_count, duration_ns, steps, created_at
		FROM resolutions
		ORDER BY id DESC
		LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			duration  int64
			stepsJSON string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Fingerprint, &rec.StepCount, &duration, &stepsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("history: scan record: %w", err)
		}
		rec.Duration = time.Duration(duration)
		if err := json.Unmarshal([]byte(stepsJSON), &rec.Steps); err != nil {
			return nil, fmt.Errorf("history: unmarshal steps for record %d: %w", rec.ID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent rows: %w", err)
	}
	return records, nil
}

// Prune implements Store. The stored timestamps have millisecond
// precision, so the cutoff is inclusive: a record created in the same
// millisecond as the cutoff counts as expired.
func (s *sqliteStore) Prune(olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(context.TODO(),
		"DELETE FROM resolutions WHERE created_at <= ?",
		olderThan.UTC().Format("2006-01-02T15:04:05.000Z"),
	)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: prune rows affected: %w", err)
	}
	return n, nil
}
