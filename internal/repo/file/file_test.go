package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/errs"
	"github.com/hamed0406/probeagent/internal/repo"
)

func entries(urls ...string) []domain.QueueEntry {
	out := make([]domain.QueueEntry, 0, len(urls))
	for _, u := range urls {
		out = append(out, domain.QueueEntry{URL: u, Metrics: []domain.Metric{{Name: domain.MetricTCPTime, Value: 20}}})
	}
	return out
}

func TestStore_AbsentFileIsNotFound(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "failed.json"))
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, s.Delete(context.Background()))
}

func TestStore_ReplaceLoadDelete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "failed.json")
	s := New(path)

	require.NoError(t, s.Replace(ctx, entries("https://a", "https://b")))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, entries("https://a", "https://b"), got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Delete(ctx))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestStore_EmptyReplaceRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "failed.json")
	s := New(path)

	require.NoError(t, s.Replace(ctx, entries("https://a")))
	require.NoError(t, s.Replace(ctx, nil))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "queue file must not exist when empty")
}

func TestStore_WireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.json")
	require.NoError(t, New(path).Replace(context.Background(), entries("https://a")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `[{"url":"https://a","metrics":[{"name":"tcp_time","value":20}]}]`, string(raw))

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.Empty(t, matches)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := New(path).Load(context.Background())
	require.True(t, errs.HasCode(err, errs.CodeQueueDecode))
}
