// cmd/preflight/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/config"
	"github.com/hamed0406/probeagent/internal/lock"
	"github.com/hamed0406/probeagent/internal/probe"
)

// preflight checks an agent config before it is installed as a scheduled task.
func main() {
	path := os.Getenv(config.EnvPrefix + "_CONFIG")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if err := preflight(os.Stdout, os.Stderr, path); err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
}

// preflight prints ✔ and ⚠ lines and returns the first blocking problem.
func preflight(stdout, stderr io.Writer, path string) error {
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	if path == "" {
		warn("no config file given (arg or " + config.EnvPrefix + "_CONFIG); checking environment only")
	}

	cfg, err := config.Load(nil, path)
	if err != nil {
		return fmt.Errorf("config is invalid: %w", err)
	}
	if cfg.File != "" {
		ok("config " + cfg.File)
		if config.WarnInsecurePermissions(zap.NewNop(), cfg.File) {
			warn(cfg.File + " is readable by group/others; it holds the agent token (chmod 600)")
		}
	}

	ok("collector " + cfg.CollectorURL)
	if strings.HasPrefix(cfg.CollectorURL, "http://") {
		warn("collector_url is plain http; the token travels unencrypted")
	}

	enabled := 0
	for _, t := range cfg.Targets() {
		if !t.Enabled {
			continue
		}
		enabled++
		ep, err := probe.ParseEndpoint(t.URL)
		if err != nil {
			return fmt.Errorf("target %s: %w", t.URL, err)
		}
		if net.ParseIP(ep.Host) != nil {
			warn(t.URL + ": IP literal, dns_ns_time and dns_local_time will be skipped")
		}
	}
	if enabled == 0 {
		warn("no enabled checks; runs will only drain the queue")
	} else {
		ok(fmt.Sprintf("%d enabled check(s)", enabled))
	}

	qdir := filepath.Dir(cfg.Queue.Path)
	if st, err := os.Stat(qdir); err != nil || !st.IsDir() {
		return fmt.Errorf("queue directory %s does not exist", qdir)
	}
	ok("queue " + cfg.Queue.Backend + " at " + cfg.Queue.Path)

	lease, err := lock.TryAcquire(cfg.LockPath)
	switch {
	case err == nil:
		_ = lease.Release()
		ok("lock " + cfg.LockPath)
	case errors.Is(err, lock.ErrLocked):
		warn("lock " + cfg.LockPath + " is held; an agent run is in progress")
	default:
		return fmt.Errorf("lock %s: %w", cfg.LockPath, err)
	}

	if cfg.SlackWebhook == "" && cfg.Queue.AlertThreshold > 0 {
		warn("queue.alert_threshold is set but slack_webhook is empty; no alerts will be sent")
	}

	ok("preflight passed")
	return nil
}
