package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.RunRecorder = (*SQLiteStore)(nil)

// SQLiteStore holds per-source cursors and the ingest run ledger.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the cursors and ingest_runs tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS cursors (
			source       TEXT PRIMARY KEY,
			next_start   INTEGER NOT NULL,
			last_updated DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			run_id      TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			start_index INTEGER NOT NULL,
			next_index  INTEGER NOT NULL DEFAULT 0,
			fetched     INTEGER NOT NULL DEFAULT 0,
			delivered   INTEGER NOT NULL DEFAULT 0,
			object_key  TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			started_at  DATETIME NOT NULL,
			finished_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs (started_at)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CursorFor returns a CursorStore for one source backed by the cursors table.
func (s *SQLiteStore) CursorFor(source string, defaultStart int) *SQLiteCursor {
	return &SQLiteCursor{store: s, source: source, defaultStart: defaultStart}
}

var _ model.CursorStore = (*SQLiteCursor)(nil)

// SQLiteCursor is the cursor of a single source.
type SQLiteCursor struct {
	store        *SQLiteStore
	source       string
	defaultStart int
}

// Load returns the saved cursor, or the default start if none exists.
func (c *SQLiteCursor) Load(ctx context.Context) (model.Cursor, error) {
	var cur model.Cursor
	err := c.store.db.QueryRowContext(ctx,
		"SELECT next_start, last_updated FROM cursors WHERE source = ?", c.source,
	).Scan(&cur.NextStart, &cur.LastUpdated)
	if err == sql.ErrNoRows {
		return model.Cursor{NextStart: c.defaultStart}, nil
	}
	if err != nil {
		return model.Cursor{}, fmt.Errorf("loading cursor for %s: %w", c.source, err)
	}
	return cur, nil
}

// Save upserts the cursor.
func (c *SQLiteCursor) Save(ctx context.Context, cur model.Cursor) error {
	if cur.NextStart < 1 {
		return fmt.Errorf("saving cursor for %s: start must be >= 1, got %d", c.source, cur.NextStart)
	}
	if cur.LastUpdated.IsZero() {
		cur.LastUpdated = c.store.now()
	}
	_, err := c.store.db.ExecContext(ctx,
		`INSERT INTO cursors (source, next_start, last_updated) VALUES (?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET next_start = excluded.next_start, last_updated = excluded.last_updated`,
		c.source, cur.NextStart, cur.LastUpdated.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving cursor for %s: %w", c.source, err)
	}
	return nil
}

// Reset rewinds the cursor to the default start.
func (c *SQLiteCursor) Reset(ctx context.Context) error {
	return c.Save(ctx, model.Cursor{NextStart: c.defaultStart})
}

// StartRun inserts a running ledger row and returns its ID.
func (s *SQLiteStore) StartRun(ctx context.Context, source string, start int) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO ingest_runs (run_id, source, start_index, status, started_at) VALUES (?, ?, ?, ?, ?)",
		id, source, start, string(model.TickRunning), s.now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("starting run for %s: %w", source, err)
	}
	return id, nil
}

// FinishRun records the outcome of a run started with StartRun.
func (s *SQLiteStore) FinishRun(ctx context.Context, r model.TickReport) error {
	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs
		 SET next_index = ?, fetched = ?, delivered = ?, object_key = ?, status = ?, error = ?, finished_at = ?
		 WHERE run_id = ?`,
		r.Next, r.Fetched, r.Delivered, r.ObjectKey, string(r.Status), errText, finished.UTC(), r.RunID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", r.RunID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: %w", r.RunID, model.ErrNotFound)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]model.TickReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source, start_index, next_index, fetched, delivered, object_key, status, error, started_at, finished_at
		 FROM ingest_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []model.TickReport
	for rows.Next() {
		var (
			r        model.TickReport
			status   string
			errText  string
			finished sql.NullTime
		)
		if err := rows.Scan(&r.RunID, &r.Source, &r.Start, &r.Next, &r.Fetched, &r.Delivered,
			&r.ObjectKey, &status, &errText, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Status = model.TickStatus(status)
		if errText != "" {
			r.Err = fmt.Errorf("%s", errText)
		}
		if finished.Valid {
			r.FinishedAt = finished.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Cleanup deletes ledger rows older than the given duration.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	cutoff := s.now().Add(-olderThan).UTC()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM ingest_runs WHERE started_at < ?", cutoff); err != nil {
		return fmt.Errorf("cleaning up runs older than %v: %w", olderThan, err)
	}
	return nil
}
