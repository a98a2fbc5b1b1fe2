package store

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/biopragmatics/semra-go/internal/interchange"
	"github.com/biopragmatics/semra-go/internal/mapping"
)

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_artifacts (
    run_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    payload BLOB NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (run_id, stage)
);`

// SQLiteStore persists pipeline artifacts to a SQLite database, encoding
// each collection as a line-delimited archive (internal/interchange) BLOB.
// A MemoryStore in front serves reads without round-tripping through the
// archive codec.
type SQLiteStore struct {
	db    *sql.DB
	cache *MemoryStore
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path
// and initializes its schema.
func NewSQLiteStore(path string, timeoutMs int) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store: sqlite path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", path, timeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening sqlite database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: pinging sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: initializing schema: %w", err)
	}

	return &SQLiteStore{db: db, cache: NewMemoryStore()}, nil
}

func (s *SQLiteStore) SaveCollection(ctx context.Context, runID string, stage Stage, mappings []*mapping.Mapping) error {
	var buf bytes.Buffer
	if err := interchange.WriteArchive(&buf, mappings); err != nil {
		return fmt.Errorf("store: encoding %s/%s: %w", runID, stage, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_artifacts (run_id, stage, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, stage) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		runID, string(stage), buf.Bytes(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: saving %s/%s: %w", runID, stage, err)
	}

	return s.cache.SaveCollection(ctx, runID, stage, mappings)
}

func (s *SQLiteStore) LoadCollection(ctx context.Context, runID string, stage Stage) ([]*mapping.Mapping, error) {
	if cached, err := s.cache.LoadCollection(ctx, runID, stage); err == nil && cached != nil {
		return cached, nil
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM pipeline_artifacts WHERE run_id = ? AND stage = ?`, runID, string(stage),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: loading %s/%s: %w", runID, stage, err)
	}

	mappings, err := interchange.ReadArchive(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("store: decoding %s/%s: %w", runID, stage, err)
	}
	return mappings, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM pipeline_artifacts ORDER BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("store: listing runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scanning run id: %w", err)
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
