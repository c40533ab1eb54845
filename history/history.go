// Package history keeps a sqlite log of extracted tasks.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"companion/task"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when no task has the batch id.
var ErrNotFound = errors.New("task not found")

// Entry is one recorded task.
type Entry struct {
	BatchID       string
	Judge         string
	Name          string
	URL           string
	TimeLimitMs   int
	MemoryLimitMb int
	Tests         []task.Test
	CreatedAt     time.Time
}

// Store is a task history backed by a sqlite file. It is safe for
// concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := initDB(path)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func initDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		batch_id TEXT PRIMARY KEY,
		judge TEXT NOT NULL,
		name TEXT NOT NULL,
		url TEXT,
		time_limit_ms INTEGER NOT NULL,
		memory_limit_mb INTEGER NOT NULL,
		tests_json TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_url ON tasks(url);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records t as extracted by judge. Saving the same batch twice
// replaces the earlier row.
func (s *Store) Save(ctx context.Context, judge string, t *task.Task) error {
	tests, err := json.Marshal(t.Tests())
	if err != nil {
		return fmt.Errorf("encoding tests: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tasks
			(batch_id, judge, name, url, time_limit_ms, memory_limit_mb, tests_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Batch().ID, judge, t.Name(), t.URL(), t.TimeLimitMs(), t.MemoryLimitMb(),
		string(tests), s.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving task %s: %w", t.Name(), err)
	}
	return nil
}

// timeLayout has a fixed-width fraction so stored times sort as text.
const timeLayout = "2006-01-02 15:04:05.000000000"

const selectEntry = `
	SELECT batch_id, judge, name, url, time_limit_ms, memory_limit_mb, tests_json, created_at
	FROM tasks`

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, selectEntry+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry recorded under batchID.
func (s *Store) Get(ctx context.Context, batchID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE batch_id = ?`, batchID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var e Entry
	var url sql.NullString
	var tests string
	err := sc.Scan(&e.BatchID, &e.Judge, &e.Name, &url, &e.TimeLimitMs, &e.MemoryLimitMb, &tests, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("reading history row: %w", err)
	}
	e.URL = url.String
	if err := json.Unmarshal([]byte(tests), &e.Tests); err != nil {
		return e, fmt.Errorf("decoding tests of %s: %w", e.BatchID, err)
	}
	return e, nil
}
