package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/domain"
)

func TestPostgresStore_Append_Latest(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	store, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("New store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Use a unique URL per run so rows from earlier runs don't interfere.
	url := fmt.Sprintf("https://example.com/test-%d", time.Now().UTC().UnixNano())
	older := &domain.Received{
		URL:        url,
		Metrics:    []domain.Metric{{Name: domain.MetricHTTPTime, Value: 10}},
		ReceivedAt: time.Now().UTC().Add(-time.Minute),
	}
	newer := &domain.Received{
		URL:     url,
		Metrics: []domain.Metric{{Name: domain.MetricHTTPTime, Value: 42.5}},
	}
	for _, r := range []*domain.Received{older, newer} {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if r.ID == 0 {
			t.Fatalf("expected ID to be set")
		}
	}

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	var row *domain.Received
	for i := range latest {
		if latest[i].URL == url {
			row = &latest[i]
			break
		}
	}
	if row == nil {
		t.Fatalf("latest for %s not found", url)
	}
	if row.ID != newer.ID || len(row.Metrics) != 1 || row.Metrics[0].Value != 42.5 {
		t.Fatalf("expected newest payload, got %+v", row)
	}
}
