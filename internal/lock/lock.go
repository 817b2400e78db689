// Package lock provides a non-blocking, process-wide exclusive lease on a
// file path. The operating system drops the lock when the process dies, so a
// crashed run never leaves a stale lock behind.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// ErrLocked means another process currently holds the lease.
var ErrLocked = errors.New("lock held by another process")

// Lease is a held lock. Release it exactly once; extra calls are no-ops.
type Lease struct {
	path string
	f    *os.File
	once sync.Once
	err  error
}

// TryAcquire takes the lock at path without waiting. The file is created if
// needed and left in place on Release; only the lock itself is dropped.
func TryAcquire(path string) (*Lease, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}

	// Holder pid is informational only.
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Lease{path: path, f: f}, nil
}

func (l *Lease) Path() string { return l.path }

// Release drops the lock and closes the file.
func (l *Lease) Release() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		err := unlockFile(l.f)
		if cerr := l.f.Close(); err == nil {
			err = cerr
		}
		l.err = err
	})
	return l.err
}
