package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/probeagent/internal/domain"
)

// ErrNotFound is returned by QueueStore.Load when nothing is queued.
var ErrNotFound = errors.New("not found")

// Ports (interfaces): swap in any storage adapter.

// QueueStore persists undelivered payloads between runs. The store exists
// only while it holds at least one entry.
type QueueStore interface {
	// Load returns the entries in insertion order, or ErrNotFound.
	Load(ctx context.Context) ([]domain.QueueEntry, error)
	// Replace overwrites the whole queue. An empty slice deletes it.
	Replace(ctx context.Context, entries []domain.QueueEntry) error
	// Delete removes the queue. Deleting an absent queue is not an error.
	Delete(ctx context.Context) error
}

// PayloadStore is the collector side: payloads accepted over HTTP.
type PayloadStore interface {
	Append(ctx context.Context, r *domain.Received) error
	// Latest returns the newest payload per URL.
	Latest(ctx context.Context) ([]domain.Received, error)
}
