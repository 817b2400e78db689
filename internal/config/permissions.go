//go:build !windows

package config

import (
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// WarnInsecurePermissions logs a warning when the config file, which holds
// the agent token, is readable by group or others. It never fails.
func WarnInsecurePermissions(log *zap.Logger, path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		log.Debug("config_stat_failed", zap.String("path", path), zap.Error(err))
		return false
	}

	const groupRead fs.FileMode = 0o040
	const otherRead fs.FileMode = 0o004
	perm := info.Mode().Perm()
	if perm&(groupRead|otherRead) == 0 {
		return false
	}
	log.Warn("config_insecure_permissions",
		zap.String("path", path),
		zap.String("mode", perm.String()),
		zap.String("hint", "chmod 600"),
	)
	return true
}
