//go:build windows

package config

import "go.uber.org/zap"

// WarnInsecurePermissions is a no-op on Windows, where ACLs replace mode bits.
func WarnInsecurePermissions(log *zap.Logger, path string) bool { return false }
