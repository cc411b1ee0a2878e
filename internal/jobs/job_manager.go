package jobs

import (
	"context"
	"log/slog"
	"time"

	"orderbot/internal/core/application/usecases/commands"
	"orderbot/internal/core/ports"
)

const (
	JobDailySummary  = "daily_summary"
	JobContentPost   = "content_post"
	JobSessionPurge  = "session_purge"
	JobMonthlyReport = "monthly_report"
	JobReportCleanup = "report_cleanup"
)

type (
	summarySender interface {
		Handle(ctx context.Context, command commands.SendDailySummaryCommand) error
	}

	reportSender interface {
		Handle(ctx context.Context, command commands.SendMonthlyReportCommand) (string, error)
	}

	contentPublisher interface {
		Handle(ctx context.Context, command commands.PublishContentCommand) (bool, error)
	}

	sessionPurger interface {
		Handle(ctx context.Context, command commands.PurgeExpiredSessionsCommand) (int64, error)
	}

	reportPruner interface {
		Handle(ctx context.Context, command commands.PruneReportsCommand) (int, error)
	}
)

// Handlers are the use cases the scheduled jobs drive.
type Handlers struct {
	Escalate       escalator
	DailySummary   summarySender
	MonthlyReport  reportSender
	PublishContent contentPublisher
	PurgeSessions  sessionPurger
	PruneReports   reportPruner
}

type Config struct {
	Spec            string
	Location        *time.Location
	Escalation      EscalationPolicy
	SessionTTL      time.Duration
	ReportRetention time.Duration
	DailySummaryAt  TimeOfDay
	ContentPostAt   TimeOfDay
	SessionPurgeAt  TimeOfDay
	MonthlyReportAt TimeOfDay
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	scheduler *Scheduler
}

// NewJobManager assembles the scheduler tick and its daily jobs. A nil
// handler leaves its job out.
func NewJobManager(
	h Handlers,
	cfg Config,
	watermarks ports.WatermarkRepository,
	clock ports.Clock,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		scheduler: NewScheduler(cfg.Spec, h.Escalate, cfg.Escalation, dailyJobs(h, cfg), watermarks, clock, cfg.Location, logger),
	}
}

func dailyJobs(h Handlers, cfg Config) []DailyJob {
	var jobs []DailyJob

	if h.DailySummary != nil {
		jobs = append(jobs, DailyJob{
			Name: JobDailySummary,
			At:   cfg.DailySummaryAt,
			Run: func(ctx context.Context, local time.Time) error {
				cmd, err := commands.NewSendDailySummaryCommand(local)
				if err != nil {
					return err
				}
				return h.DailySummary.Handle(ctx, cmd)
			},
		})
	}

	if h.PublishContent != nil {
		jobs = append(jobs, DailyJob{
			Name: JobContentPost,
			At:   cfg.ContentPostAt,
			Run: func(ctx context.Context, _ time.Time) error {
				_, err := h.PublishContent.Handle(ctx, commands.NewPublishContentCommand())
				return err
			},
		})
	}

	if h.PurgeSessions != nil {
		jobs = append(jobs, DailyJob{
			Name: JobSessionPurge,
			At:   cfg.SessionPurgeAt,
			Run: func(ctx context.Context, local time.Time) error {
				cmd, err := commands.NewPurgeExpiredSessionsCommand(local, cfg.SessionTTL)
				if err != nil {
					return err
				}
				_, err = h.PurgeSessions.Handle(ctx, cmd)
				return err
			},
		})
	}

	if h.PruneReports != nil {
		jobs = append(jobs, DailyJob{
			Name: JobReportCleanup,
			At:   cfg.SessionPurgeAt,
			Run: func(ctx context.Context, local time.Time) error {
				cmd, err := commands.NewPruneReportsCommand(local, cfg.ReportRetention)
				if err != nil {
					return err
				}
				_, err = h.PruneReports.Handle(ctx, cmd)
				return err
			},
		})
	}

	if h.MonthlyReport != nil {
		jobs = append(jobs, DailyJob{
			Name:   JobMonthlyReport,
			At:     cfg.MonthlyReportAt,
			Period: EveryMonth,
			Run: func(ctx context.Context, month time.Time) error {
				cmd, err := commands.NewSendMonthlyReportCommand(month)
				if err != nil {
					return err
				}
				_, err = h.MonthlyReport.Handle(ctx, cmd)
				return err
			},
		})
	}

	return jobs
}

// StartAll starts all scheduled jobs.
func (jm *JobManager) StartAll() error {
	return jm.scheduler.Start()
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.scheduler.Stop()
}
