package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"orderbot/internal/core/application/usecases/commands"
	"orderbot/internal/core/ports"

	"github.com/robfig/cron/v3"
)

type escalator interface {
	Handle(ctx context.Context, command commands.EscalateOrdersCommand) (int, error)
}

// EscalationPolicy holds the reminder thresholds.
type EscalationPolicy struct {
	FirstAfter  time.Duration
	RepeatAfter time.Duration
}

// Scheduler runs one recurring tick. Every tick escalates overdue orders and
// then gives each daily job a chance to run. A failing or panicking job never
// stops the others or the next tick.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	escalator  escalator
	policy     EscalationPolicy
	daily      []DailyJob
	watermarks ports.WatermarkRepository
	clock      ports.Clock
	loc        *time.Location
	logger     *slog.Logger
}

func NewScheduler(
	spec string,
	escalator escalator,
	policy EscalationPolicy,
	daily []DailyJob,
	watermarks ports.WatermarkRepository,
	clock ports.Clock,
	loc *time.Location,
	logger *slog.Logger,
) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	logger = logger.With("component", "scheduler")
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:       spec,
		escalator:  escalator,
		policy:     policy,
		daily:      daily,
		watermarks: watermarks,
		clock:      clock,
		loc:        loc,
		logger:     logger,
	}
}

// Start registers the tick and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Tick(context.Background()) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec, "daily_jobs", len(s.daily))
	return nil
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Tick runs one round of jobs.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now()

	s.guard(ctx, "escalation", func() error {
		cmd, err := commands.NewEscalateOrdersCommand(now, s.policy.FirstAfter, s.policy.RepeatAfter)
		if err != nil {
			return err
		}
		_, err = s.escalator.Handle(ctx, cmd)
		return err
	})

	local := now.In(s.loc)
	for _, job := range s.daily {
		s.guard(ctx, job.Name, func() error {
			return s.runDaily(ctx, job, local)
		})
	}
}

func (s *Scheduler) runDaily(ctx context.Context, job DailyJob, local time.Time) error {
	key, ref, due := job.period(local)
	if !due {
		return nil
	}
	last, ok, err := s.watermarks.LastRun(ctx, job.Name)
	if err != nil {
		return err
	}
	if ok && last >= key {
		return nil
	}

	s.logger.InfoContext(ctx, "daily job running", "job", job.Name, "period", key)
	runErr := s.protect(func() error { return job.Run(ctx, ref) })

	// the period is consumed even when the job failed
	if err := s.watermarks.SetLastRun(ctx, job.Name, key); err != nil {
		s.logger.ErrorContext(ctx, "watermark update failed", "job", job.Name, "error", err)
	}
	return runErr
}

func (s *Scheduler) guard(ctx context.Context, name string, fn func() error) {
	if err := s.protect(fn); err != nil {
		s.logger.ErrorContext(ctx, "job failed", "job", name, "error", err)
	}
}

func (s *Scheduler) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn()
}
