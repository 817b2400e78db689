package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/repo"
)

var (
	_ repo.QueueStore   = (*Store)(nil)
	_ repo.PayloadStore = (*Store)(nil)
)

// Store keeps a failure queue and received payloads in process memory.
type Store struct {
	mu       sync.RWMutex
	queue    []domain.QueueEntry
	received []*domain.Received
	nextID   int64
}

func New() *Store {
	return &Store{
		received: make([]*domain.Received, 0, 128),
	}
}

// ---- QueueStore ----

func (m *Store) Load(ctx context.Context) ([]domain.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.queue) == 0 {
		return nil, repo.ErrNotFound
	}
	return append([]domain.QueueEntry(nil), m.queue...), nil
}

func (m *Store) Replace(ctx context.Context, entries []domain.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append([]domain.QueueEntry(nil), entries...)
	return nil
}

func (m *Store) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	return nil
}

// ---- PayloadStore ----

func (m *Store) Append(ctx context.Context, r *domain.Received) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now().UTC()
	}
	m.received = append(m.received, r)
	return nil
}

func (m *Store) Latest(ctx context.Context) ([]domain.Received, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[string]*domain.Received)
	for _, r := range m.received {
		cur := latest[r.URL]
		if cur == nil || !r.ReceivedAt.Before(cur.ReceivedAt) {
			latest[r.URL] = r
		}
	}

	out := make([]domain.Received, 0, len(latest))
	for _, r := range latest {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}
