// Package queue keeps payloads that could not be delivered and replays them
// on later runs.
package queue

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/errs"
	"github.com/hamed0406/probeagent/internal/repo"
)

// DeliverFunc reports whether the collector accepted the payload.
type DeliverFunc func(ctx context.Context, p domain.Payload) bool

// DrainReport summarises one Drain call.
type DrainReport struct {
	Total     int
	Delivered int
	Remaining int
	Discarded int // entries without metrics; no collector accepts them
}

type Queue struct {
	store      repo.QueueStore
	log        *zap.Logger
	maxEntries int
}

// New wraps store. maxEntries <= 0 leaves the queue unbounded; otherwise the
// oldest entries are evicted on Append once the limit is exceeded.
func New(store repo.QueueStore, log *zap.Logger, maxEntries int) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Queue{store: store, log: log, maxEntries: maxEntries}
}

// storeCtx detaches store IO from cancellation: a shutdown that interrupts
// delivery must still be able to persist what was not delivered.
func storeCtx(ctx context.Context) context.Context { return context.WithoutCancel(ctx) }

// Drain offers every queued entry, stamped with token, to deliver. Entries
// that fail stay queued in their original order. Store errors are logged and
// leave the store as it was.
func (q *Queue) Drain(ctx context.Context, token string, deliver DeliverFunc) DrainReport {
	entries, err := q.store.Load(storeCtx(ctx))
	if errors.Is(err, repo.ErrNotFound) {
		return DrainReport{}
	}
	if err != nil {
		q.log.Warn("queue_read_failed", errs.Zap(err)...)
		return DrainReport{}
	}

	rep := DrainReport{Total: len(entries)}
	remaining := make([]domain.QueueEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.Metrics) == 0 {
			rep.Discarded++
			q.log.Warn("queue_entry_discarded", zap.String("url", e.URL), zap.String("reason", "no metrics"))
			continue
		}
		if deliver(ctx, e.Payload(token)) {
			rep.Delivered++
			continue
		}
		remaining = append(remaining, e)
	}
	rep.Remaining = len(remaining)

	if len(remaining) > 0 {
		err = q.store.Replace(storeCtx(ctx), remaining)
	} else {
		err = q.store.Delete(storeCtx(ctx))
	}
	if err != nil {
		q.log.Warn("queue_write_failed", errs.Zap(err)...)
	}

	q.log.Info("queue_drained",
		zap.Int("total", rep.Total),
		zap.Int("delivered", rep.Delivered),
		zap.Int("remaining", rep.Remaining),
		zap.Int("discarded", rep.Discarded),
	)
	return rep
}

// Append adds entry at the tail. An unreadable store is treated as empty and
// gets overwritten.
func (q *Queue) Append(ctx context.Context, entry domain.QueueEntry) error {
	ctx = storeCtx(ctx)
	entries, err := q.store.Load(ctx)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		q.log.Warn("queue_read_failed", errs.Zap(err)...)
		entries = nil
	}
	entries = append(entries, entry)

	if q.maxEntries > 0 && len(entries) > q.maxEntries {
		drop := len(entries) - q.maxEntries
		for _, e := range entries[:drop] {
			q.log.Warn("queue_evicted", zap.String("url", e.URL), zap.Int("max_entries", q.maxEntries))
		}
		entries = entries[drop:]
	}

	if err := q.store.Replace(ctx, entries); err != nil {
		q.log.Error("queue_write_failed", append(errs.Zap(err), zap.String("url", entry.URL))...)
		return err
	}
	return nil
}

// Entries returns what is queued now; an absent queue is empty.
func (q *Queue) Entries(ctx context.Context) ([]domain.QueueEntry, error) {
	entries, err := q.store.Load(storeCtx(ctx))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return entries, err
}

// Len is the number of queued entries; an unreadable store counts as zero.
func (q *Queue) Len(ctx context.Context) int {
	entries, err := q.Entries(ctx)
	if err != nil {
		return 0
	}
	return len(entries)
}
