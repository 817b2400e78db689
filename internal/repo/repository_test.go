package repo_test

import (
	"testing"

	"github.com/hamed0406/probeagent/internal/repo"
	"github.com/hamed0406/probeagent/internal/repo/file"
	"github.com/hamed0406/probeagent/internal/repo/memory"
	pg "github.com/hamed0406/probeagent/internal/repo/postgres"
	"github.com/hamed0406/probeagent/internal/repo/sqlite"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.QueueStore = memory.New()
	var _ repo.PayloadStore = memory.New()
	var _ repo.QueueStore = file.New("queue.json")

	var _ repo.QueueStore = (*sqlite.Store)(nil)
	var _ repo.PayloadStore = (*pg.Store)(nil)
}
