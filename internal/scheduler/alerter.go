package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type AlerterConfig struct {
	Threshold       int // queue length that triggers an alert; 0 disables
	AlertOnRecovery bool
}

// Alerter notifies when the failure queue backs up past a threshold and,
// optionally, when it drops back below it. It compares the queue length at
// the start and end of a run, so it needs no state of its own between runs.
type Alerter struct {
	notifier interface {
		Send(context.Context, string, string) error
	}
	cfg    AlerterConfig
	logger *zap.Logger
}

func NewAlerter(
	notifier interface {
		Send(context.Context, string, string) error
	},
	cfg AlerterConfig,
	logger *zap.Logger,
) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alerter{notifier: notifier, cfg: cfg, logger: logger}
}

// Observe sends at most one notification and reports whether it tried.
func (a *Alerter) Observe(ctx context.Context, before, after int) bool {
	if a == nil || a.notifier == nil || a.cfg.Threshold <= 0 {
		return false
	}

	crossedUp := before < a.cfg.Threshold && after >= a.cfg.Threshold
	crossedDown := before >= a.cfg.Threshold && after < a.cfg.Threshold && a.cfg.AlertOnRecovery
	if !crossedUp && !crossedDown {
		return false
	}

	title := "🔴 Delivery backlog"
	if crossedDown {
		title = "🟢 Delivery backlog cleared"
	}
	text := fmt.Sprintf("Queued payloads: %d (was %d)\nThreshold: %d", after, before, a.cfg.Threshold)

	// Best-effort send
	if err := a.notifier.Send(ctx, title, text); err != nil {
		a.logger.Warn("alert_send_failed", zap.Error(err))
	} else {
		a.logger.Info("alert_sent", zap.String("title", title), zap.Int("queue_len", after))
	}
	return true
}
