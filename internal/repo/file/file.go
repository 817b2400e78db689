// Package file stores the failure queue as a JSON array in a single file.
// The file exists only while the queue is non-empty.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/errs"
	"github.com/hamed0406/probeagent/internal/repo"
)

var _ repo.QueueStore = (*Store)(nil)

type Store struct {
	Path string
}

func New(path string) *Store { return &Store{Path: path} }

func (s *Store) Load(ctx context.Context) ([]domain.QueueEntry, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeQueueRead, "read queue file", errs.Field("path", s.Path))
	}
	var out []domain.QueueEntry
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errs.Wrap(err, errs.CodeQueueDecode, "decode queue file", errs.Field("path", s.Path))
	}
	return out, nil
}

// Replace writes through a temp file in the same directory and renames it
// over the queue, so a crash never leaves a half-written array behind.
func (s *Store) Replace(ctx context.Context, entries []domain.QueueEntry) error {
	if len(entries) == 0 {
		return s.Delete(ctx)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "encode queue", errs.Field("path", s.Path))
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "create queue dir", errs.Field("path", s.Path))
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "create temp file", errs.Field("path", s.Path))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.Wrap(err, errs.CodeQueueWrite, "write queue", errs.Field("path", s.Path))
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "close queue", errs.Field("path", s.Path))
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "chmod queue", errs.Field("path", s.Path))
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return errs.Wrap(err, errs.CodeQueueWrite, "rename queue", errs.Field("path", s.Path))
	}
	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	err := os.Remove(s.Path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errs.Wrap(err, errs.CodeQueueWrite, "remove queue file", errs.Field("path", s.Path))
}
