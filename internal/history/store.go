package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"docparse-desktop/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id         TEXT PRIMARY KEY,
	batch_id   TEXT NOT NULL,
	file_name  TEXT NOT NULL,
	backend    TEXT NOT NULL,
	task_id    TEXT NOT NULL DEFAULT '',
	failed     INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at DESC);
`

// Store keeps a local record of every submitted file in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir history dir: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record persists one row per outcome of a completed batch.
func (s *Store) Record(ctx context.Context, batchID string, backend domain.Backend, outcomes []domain.SubmissionOutcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}

	now := time.Now().Unix()
	for _, outcome := range outcomes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO submissions (id, batch_id, file_name, backend, task_id, failed, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), batchID, outcome.FileName, string(backend), outcome.TaskID, boolToInt(outcome.Failed), now)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert submission: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

// Recent returns the newest submission records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, file_name, backend, task_id, failed, created_at
		FROM submissions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var records []domain.SubmissionRecord
	for rows.Next() {
		var record domain.SubmissionRecord
		var backend string
		var failed int
		var createdAt int64
		if err := rows.Scan(&record.ID, &record.BatchID, &record.FileName, &backend, &record.TaskID, &failed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		record.Backend = domain.Backend(backend)
		record.Failed = failed != 0
		record.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
