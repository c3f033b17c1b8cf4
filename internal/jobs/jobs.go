// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Skotchmaster/coin_shop/pkg/logging"
	"github.com/Skotchmaster/coin_shop/pkg/metrics"
	"github.com/Skotchmaster/coin_shop/pkg/ratelimit"
)

const jobTimeout = 30 * time.Second

type Func func(ctx context.Context) error

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug(msg, kv...)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error(msg, append(kv, "error", err)...)
}

type Scheduler struct {
	cron    *cron.Cron
	log     *slog.Logger
	metrics *metrics.Metrics
}

func New(log *slog.Logger, m *metrics.Metrics) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	cl := cronLogger{l: log.With("component", "cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     log,
		metrics: m,
	}
}

// Add schedules fn under spec, e.g. "@every 1m" or "*/5 * * * *".
func (s *Scheduler) Add(name, spec string, fn Func) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	return err
}

func (s *Scheduler) run(name string, fn Func) {
	l := s.log.With("job", name)
	ctx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), l), jobTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	s.metrics.JobRun(name, err == nil)
	if err != nil {
		l.Error("job_failed", "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return
	}
	l.Debug("job_done", "duration_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

type CampaignSweeper interface {
	Sweep(ctx context.Context) (activated, ended int64, err error)
}

func CampaignSweep(svc CampaignSweeper) Func {
	return func(ctx context.Context) error {
		activated, ended, err := svc.Sweep(ctx)
		if err != nil {
			return err
		}
		if activated > 0 || ended > 0 {
			logging.FromContext(ctx).Info("campaigns_swept", "activated", activated, "ended", ended)
		}
		return nil
	}
}

func LimiterSweep(k *ratelimit.Keyed) Func {
	return func(ctx context.Context) error {
		if n := k.Sweep(); n > 0 {
			logging.FromContext(ctx).Debug("limiter_swept", "removed", n)
		}
		return nil
	}
}
