package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/repo"
)

var _ repo.PayloadStore = (*Store)(nil)

// Schema is applied by Migrate; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS received_payloads (
  id          BIGSERIAL PRIMARY KEY,
  url         TEXT NOT NULL,
  metrics     JSONB NOT NULL,
  received_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_received_url_time ON received_payloads (url, received_at DESC);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, r *domain.Received) error {
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now().UTC()
	}
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	err = withRetry(ctx, s.log, func() error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO received_payloads (url, metrics, received_at)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			r.URL, metrics, r.ReceivedAt,
		).Scan(&r.ID)
	})
	if err != nil {
		return fmt.Errorf("insert payload: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) ([]domain.Received, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (url)
       id,
       url,
       metrics,
       received_at
  FROM received_payloads
 ORDER BY url, received_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var out []domain.Received
	for rows.Next() {
		var (
			r   domain.Received
			raw []byte
		)
		if err := rows.Scan(&r.ID, &r.URL, &raw, &r.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		if err := json.Unmarshal(raw, &r.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics for %s: %w", r.URL, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
