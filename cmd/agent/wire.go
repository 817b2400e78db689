package main

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/config"
	"github.com/hamed0406/probeagent/internal/delivery"
	"github.com/hamed0406/probeagent/internal/errs"
	"github.com/hamed0406/probeagent/internal/notify"
	"github.com/hamed0406/probeagent/internal/probe"
	"github.com/hamed0406/probeagent/internal/queue"
	"github.com/hamed0406/probeagent/internal/repo"
	"github.com/hamed0406/probeagent/internal/repo/file"
	"github.com/hamed0406/probeagent/internal/repo/sqlite"
	"github.com/hamed0406/probeagent/internal/scheduler"
)

// agent holds the wired run and whatever needs closing afterwards.
type agent struct {
	Runner  *scheduler.Runner
	Queue   *queue.Queue
	closers []func() error
}

func (a *agent) Close() error {
	var err error
	for _, c := range a.closers {
		err = multierr.Append(err, c())
	}
	return err
}

func openQueueStore(cfg *config.Config) (repo.QueueStore, func() error, error) {
	switch cfg.Queue.Backend {
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.Queue.Path)
		if err != nil {
			return nil, nil, errs.Wrap(err, errs.CodeQueueRead, "opening sqlite queue", errs.Field("path", cfg.Queue.Path))
		}
		return s, s.Close, nil
	default:
		return file.New(cfg.Queue.Path), func() error { return nil }, nil
	}
}

func wireAgent(cfg *config.Config, log *zap.Logger) (*agent, error) {
	store, closeStore, err := openQueueStore(cfg)
	if err != nil {
		return nil, err
	}
	q := queue.New(store, log, cfg.Queue.MaxEntries)

	prober := probe.NewSet(log, cfg.Timeouts())
	client := delivery.New(cfg.CollectorURL, cfg.Delivery.Timeout, cfg.Retry(), log)

	r := scheduler.NewRunner(log, cfg.Token, cfg.Targets(), cfg.LockPath, prober, client, q)
	r.Interval = cfg.Interval

	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil && cfg.Queue.AlertThreshold > 0 {
		r.Alerter = scheduler.NewAlerter(notify.Multi{slack}, scheduler.AlerterConfig{
			Threshold:       cfg.Queue.AlertThreshold,
			AlertOnRecovery: cfg.Queue.AlertOnRecovery,
		}, log)
	}

	return &agent{Runner: r, Queue: q, closers: []func() error{closeStore}}, nil
}
