package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/domain"
	"github.com/hamed0406/probeagent/internal/lock"
	"github.com/hamed0406/probeagent/internal/payload"
	"github.com/hamed0406/probeagent/internal/probe"
	"github.com/hamed0406/probeagent/internal/queue"
)

// ErrAlreadyRunning is returned when another process holds the instance
// lock. Nothing was probed and the queue was not touched.
var ErrAlreadyRunning = errors.New("another instance is running")

// Deliverer sends one payload, retrying as it sees fit.
type Deliverer interface {
	Deliver(ctx context.Context, p domain.Payload) bool
}

// Report counts what one run did.
type Report struct {
	RunID     string
	Drain     queue.DrainReport
	Probed    int
	Skipped   int
	Invalid   int
	Empty     int
	Delivered int
	Queued    int
	Lost      int
}

type Runner struct {
	Logger    *zap.Logger
	Token     string
	Targets   []domain.Target
	LockPath  string
	Prober    probe.Prober
	Deliverer Deliverer
	Queue     *queue.Queue
	Interval  time.Duration
	Alerter   *Alerter // optional
}

func NewRunner(
	logger *zap.Logger,
	token string,
	targets []domain.Target,
	lockPath string,
	prober probe.Prober,
	deliverer Deliverer,
	q *queue.Queue,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Logger:    logger,
		Token:     token,
		Targets:   targets,
		LockPath:  lockPath,
		Prober:    prober,
		Deliverer: deliverer,
		Queue:     q,
	}
}

// Run does one pass, then one per Interval until ctx is cancelled. With a
// zero Interval it returns after the first pass.
func (r *Runner) Run(ctx context.Context) error {
	if r.Interval <= 0 {
		_, err := r.RunOnce(ctx)
		return err
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// immediate pass
	r.loopOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("runner_stopped")
			return nil
		case <-t.C:
			r.loopOnce(ctx)
		}
	}
}

func (r *Runner) loopOnce(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		r.Logger.Warn("run_error", zap.Error(err))
	}
}

// RunOnce takes the instance lock, drains the failure queue and then probes
// and delivers every enabled target in configured order. The lock is held
// until RunOnce returns, panics included.
func (r *Runner) RunOnce(ctx context.Context) (rep Report, err error) {
	rep.RunID = uuid.NewString()
	log := r.Logger.With(zap.String("run_id", rep.RunID))

	lease, err := lock.TryAcquire(r.LockPath)
	if errors.Is(err, lock.ErrLocked) {
		log.Info("run_aborted", zap.String("reason", "another instance running"), zap.String("lock", r.LockPath))
		return rep, ErrAlreadyRunning
	}
	if err != nil {
		return rep, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		if rerr := lease.Release(); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("release lock: %w", rerr))
		}
	}()

	start := time.Now()
	log.Info("run_started", zap.Int("targets", len(r.Targets)))

	var before int
	if r.Alerter != nil {
		before = r.Queue.Len(ctx)
	}

	rep.Drain = r.Queue.Drain(ctx, r.Token, r.containedDeliver(log))

	for _, t := range r.Targets {
		if ctx.Err() != nil {
			log.Info("run_cancelled", zap.Error(ctx.Err()))
			break
		}
		if !t.Enabled {
			rep.Skipped++
			log.Debug("target_disabled", zap.String("url", t.URL))
			continue
		}
		r.processTarget(ctx, log, t, &rep)
	}

	if r.Alerter != nil {
		r.Alerter.Observe(ctx, before, r.Queue.Len(ctx))
	}

	log.Info("run_finished",
		zap.Int("probed", rep.Probed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("delivered", rep.Delivered),
		zap.Int("queued", rep.Queued),
		zap.Int("drained", rep.Drain.Delivered),
		zap.Int("requeued", rep.Drain.Remaining),
		zap.Duration("took", time.Since(start)),
	)
	return rep, nil
}

// containedDeliver turns a panic while redelivering a queued entry into a
// failed attempt, so the entry stays queued and the run goes on.
func (r *Runner) containedDeliver(log *zap.Logger) queue.DeliverFunc {
	return func(ctx context.Context, p domain.Payload) (ok bool) {
		defer func() {
			if v := recover(); v != nil {
				log.Error("delivery_panic", zap.String("url", p.URL), zap.Any("panic", v))
				ok = false
			}
		}()
		return r.Deliverer.Deliver(ctx, p)
	}
}

// processTarget never lets one target end the run.
func (r *Runner) processTarget(ctx context.Context, log *zap.Logger, t domain.Target, rep *Report) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("target_panic", zap.String("url", t.URL), zap.Any("panic", p))
		}
	}()

	ep, err := probe.ParseEndpoint(t.URL)
	if err != nil {
		rep.Invalid++
		log.Warn("target_invalid", zap.String("url", t.URL), zap.Error(err))
		return
	}
	res, err := probe.Run(ctx, r.Prober, t.URL)
	if err != nil {
		rep.Invalid++
		log.Warn("target_invalid", zap.String("url", t.URL), zap.Error(err))
		return
	}
	rep.Probed++
	if missing := res.Missing(ep.TLS()); len(missing) > 0 {
		log.Warn("probe_failed", zap.String("url", t.URL), zap.Strings("probes", missing))
	}

	p := payload.Build(r.Token, t.URL, res)
	if payload.Empty(p) {
		rep.Empty++
		log.Warn("target_no_metrics", zap.String("url", t.URL))
		return
	}

	if r.Deliverer.Deliver(ctx, p) {
		rep.Delivered++
		log.Info("payload_delivered", zap.String("url", t.URL), zap.Int("metrics", len(p.Metrics)))
		return
	}
	if err := r.Queue.Append(ctx, p.Entry()); err != nil {
		rep.Lost++
		log.Error("payload_dropped", zap.String("url", t.URL), zap.Error(err))
		return
	}
	rep.Queued++
	log.Warn("payload_queued", zap.String("url", t.URL))
}
