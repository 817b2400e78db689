//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package lock

import (
	"os"

	"github.com/hamed0406/probeagent/internal/errs"
)

func lockFile(*os.File) error {
	return errs.New(errs.CodeLockUnsupported, "file locking not supported on this platform")
}

func unlockFile(*os.File) error { return nil }
