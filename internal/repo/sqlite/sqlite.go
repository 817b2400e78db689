// Package sqlite keeps the failure queue in a SQLite table, one row per
// entry. An empty table is an empty queue.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/errs"
	"github.com/hamed0406/probeagent/internal/repo"
)

var _ repo.QueueStore = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite db: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS failed_payloads (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	url       TEXT NOT NULL,
	metrics   TEXT NOT NULL DEFAULT '[]',
	queued_at TEXT NOT NULL
);
`
	_, err := db.Exec(ddl)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Load(ctx context.Context) ([]domain.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, metrics FROM failed_payloads ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeQueueRead, "query queue")
	}
	defer rows.Close()

	var out []domain.QueueEntry
	for rows.Next() {
		var (
			e   domain.QueueEntry
			raw string
		)
		if err := rows.Scan(&e.URL, &raw); err != nil {
			return nil, errs.Wrap(err, errs.CodeQueueRead, "scan queue row")
		}
		if err := json.Unmarshal([]byte(raw), &e.Metrics); err != nil {
			return nil, errs.Wrap(err, errs.CodeQueueDecode, "decode metrics", errs.Field("url", e.URL))
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeQueueRead, "iterate queue")
	}
	if len(out) == 0 {
		return nil, repo.ErrNotFound
	}
	return out, nil
}

// Replace swaps the table contents in one transaction.
func (s *Store) Replace(ctx context.Context, entries []domain.QueueEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM failed_payloads`); err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "clear queue")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, e := range entries {
		metrics, err := json.Marshal(e.Metrics)
		if err != nil {
			return errs.Wrap(err, errs.CodeQueueWrite, "encode metrics", errs.Field("url", e.URL))
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failed_payloads (url, metrics, queued_at) VALUES (?, ?, ?)`,
			e.URL, string(metrics), now,
		); err != nil {
			return errs.Wrap(err, errs.CodeQueueWrite, "insert queue row", errs.Field("url", e.URL))
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "commit queue")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM failed_payloads`); err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "clear queue")
	}
	return nil
}
