package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/repo"
)

func TestMemoryStore_QueueLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Load(ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty queue, got %v", err)
	}

	in := []domain.QueueEntry{{URL: "https://a"}, {URL: "https://b"}}
	if err := s.Replace(ctx, in); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	in[0].URL = "mutated"

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].URL != "https://a" {
		t.Fatalf("unexpected queue: %+v", got)
	}

	if err := s.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore_LatestPerURL(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	add := func(url string, at time.Time, v float64) {
		r := &domain.Received{URL: url, ReceivedAt: at, Metrics: []domain.Metric{{Name: domain.MetricHTTPTime, Value: v}}}
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if r.ID == 0 {
			t.Fatalf("expected ID to be set")
		}
	}
	add("https://b", base, 1)
	add("https://a", base, 2)
	add("https://b", base.Add(time.Minute), 3)

	latest, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(latest))
	}
	if latest[0].URL != "https://a" || latest[1].URL != "https://b" {
		t.Fatalf("unexpected order: %+v", latest)
	}
	if latest[1].Metrics[0].Value != 3 {
		t.Fatalf("expected newest payload for b, got %+v", latest[1])
	}
}
