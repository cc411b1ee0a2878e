package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpin "orderbot/internal/adapters/in/http"
	"orderbot/internal/adapters/out/postgres"
	"orderbot/internal/adapters/out/postgres/contentrepo"
	"orderbot/internal/adapters/out/postgres/sessionrepo"
	"orderbot/internal/adapters/out/postgres/watermarkrepo"
	"orderbot/internal/adapters/out/rabbitmq"
	redisadapter "orderbot/internal/adapters/out/redis"
	redissession "orderbot/internal/adapters/out/redis/sessionrepo"
	"orderbot/internal/adapters/out/report"
	"orderbot/internal/adapters/out/twilio"
	"orderbot/internal/core/application/notifications"
	"orderbot/internal/core/application/usecases/commands"
	"orderbot/internal/core/application/usecases/queries"
	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/services"
	"orderbot/internal/core/ports"
	"orderbot/internal/jobs"
	"orderbot/internal/pkg/auth"
	"orderbot/internal/pkg/clock"
	"orderbot/internal/pkg/i18n"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	logger     *slog.Logger

	loc        *time.Location
	clock      clock.System
	catalog    *i18n.Catalog
	renderer   notifications.Renderer
	sender     ports.MessageSender
	dispatcher *notifications.Dispatcher
	sessions   ports.SessionRepository
	content    ports.ContentQueue
	reports    ports.ReportGenerator
	tokens     *auth.TokenManager

	closers []func() error
}

func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	staffLocale, err := kernel.ParseLocale(cfg.StaffLocale)
	if err != nil {
		return nil, fmt.Errorf("STAFF_LOCALE: %w", err)
	}
	catalog, err := i18n.Default()
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager(cfg.StaffAPISecret, cfg.StaffAPITokenTTL)
	if err != nil {
		return nil, err
	}

	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
		loc:        loc,
		clock:      clock.NewSystem(loc),
		catalog:    catalog,
		renderer:   notifications.NewRenderer(catalog),
		tokens:     tokens,
	}

	if c.sender, err = c.newSender(); err != nil {
		return nil, err
	}
	c.dispatcher = notifications.NewDispatcher(c.sender, c.renderer, cfg.StaffRecipients, staffLocale, logger)
	if len(cfg.StaffRecipients) == 0 {
		logger.Warn("no STAFF_RECIPIENTS configured, staff notifications are disabled")
	}

	c.sessions = c.newSessionRepository(ctx)
	if c.content, err = c.newContentQueue(); err != nil {
		return nil, err
	}
	if c.reports, err = report.NewCSVGenerator(cfg.ReportsDir, loc); err != nil {
		return nil, fmt.Errorf("REPORTS_DIR: %w", err)
	}
	return c, nil
}

func (c *CompositionRoot) newSender() (ports.MessageSender, error) {
	if !c.cfg.TwilioEnabled() {
		c.logger.Warn("twilio is not configured, outbound messages are only logged")
		return twilio.NewLogSender(c.logger), nil
	}
	return twilio.NewSender(twilio.Config{
		AccountSID:   c.cfg.TwilioAccountSID,
		AuthToken:    c.cfg.TwilioAuthToken,
		From:         c.cfg.TwilioWhatsAppFrom,
		MediaBaseURL: c.cfg.MediaBaseURL,
	}, c.logger)
}

func (c *CompositionRoot) newSessionRepository(ctx context.Context) ports.SessionRepository {
	if c.cfg.SessionBackend != "redis" {
		return sessionrepo.NewGormSessionRepository(c.gormDB)
	}
	client := redisadapter.Open(ctx, &goredis.Options{
		Addr:     c.cfg.RedisAddr,
		Password: c.cfg.RedisPassword,
		DB:       c.cfg.RedisDB,
	}, c.logger)
	c.closers = append(c.closers, client.Close)
	return redissession.NewRedisSessionRepository(client, c.cfg.SessionTTL, c.clock.Now)
}

func (c *CompositionRoot) newContentQueue() (ports.ContentQueue, error) {
	if c.cfg.RabbitURL == "" {
		return contentrepo.NewGormContentQueue(c.gormDB, c.clock.Now), nil
	}
	q, err := rabbitmq.Dial(c.cfg.RabbitURL, c.cfg.RabbitContentQueue, c.clock.Now)
	if err != nil {
		return nil, fmt.Errorf("RABBIT_URL: %w", err)
	}
	c.closers = append(c.closers, q.Close)
	return q, nil
}

// Close releases the connections opened for optional backends.
func (c *CompositionRoot) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateChangeOrderStatusCommandHandler() commands.ChangeOrderStatusCommandHandler {
	return commands.NewChangeOrderStatusCommandHandler(c.orderUoWFactory(), c.dispatcher, c.clock, c.logger)
}

func (c *CompositionRoot) CreateHandleInboundEventCommandHandler() *commands.HandleInboundEventCommandHandler {
	return commands.NewHandleInboundEventCommandHandler(commands.HandleInboundEventDeps{
		Sessions:      c.sessions,
		UoWFactory:    c.orderUoWFactory(),
		Notifier:      c.dispatcher,
		Renderer:      c.renderer,
		Classifier:    commands.NewClassifier(c.catalog),
		StatusChanger: c.CreateChangeOrderStatusCommandHandler(),
		Stats:         c.CreateGetOrderStatsQueryHandler(),
		Exporter:      c.CreateExportOrdersCommandHandler(),
		Machine:       services.NewConversationMachine(),
		Clock:         c.clock,
		SessionTTL:    c.cfg.SessionTTL,
		Logger:        c.logger,
	})
}

func (c *CompositionRoot) CreateEscalateOrdersCommandHandler() commands.EscalateOrdersCommandHandler {
	return commands.NewEscalateOrdersCommandHandler(c.orderUoWFactory(), c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateSendDailySummaryCommandHandler() commands.SendDailySummaryCommandHandler {
	return commands.NewSendDailySummaryCommandHandler(c.CreateGetOrderStatsQueryHandler(), c.dispatcher, c.renderer, c.logger)
}

func (c *CompositionRoot) CreateSendMonthlyReportCommandHandler() commands.SendMonthlyReportCommandHandler {
	return commands.NewSendMonthlyReportCommandHandler(c.orderUoWFactory(), c.reports, c.dispatcher, c.renderer, c.logger)
}

func (c *CompositionRoot) CreateExportOrdersCommandHandler() commands.ExportOrdersCommandHandler {
	return commands.NewExportOrdersCommandHandler(c.orderUoWFactory(), c.reports, c.logger)
}

func (c *CompositionRoot) CreatePruneReportsCommandHandler() commands.PruneReportsCommandHandler {
	return commands.NewPruneReportsCommandHandler(c.reports, c.logger)
}

func (c *CompositionRoot) CreatePublishContentCommandHandler() commands.PublishContentCommandHandler {
	return commands.NewPublishContentCommandHandler(c.content, c.sender, c.cfg.ChannelRecipient, c.dispatcher.StaffLocale(), c.logger)
}

func (c *CompositionRoot) CreateEnqueueContentCommandHandler() commands.EnqueueContentCommandHandler {
	return commands.NewEnqueueContentCommandHandler(c.content)
}

func (c *CompositionRoot) CreatePurgeExpiredSessionsCommandHandler() commands.PurgeExpiredSessionsCommandHandler {
	return commands.NewPurgeExpiredSessionsCommandHandler(c.sessions, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetOrderStatsQueryHandler() queries.GetOrderStatsQueryHandler {
	return queries.NewGetOrderStatsQueryHandler(c.gormDB)
}

// CreateJobManager assembles the scheduler with every daily job.
func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	var (
		summaryAt, contentAt, purgeAt, reportAt jobs.TimeOfDay
		err                                     error
	)
	for _, t := range []struct {
		name  string
		value string
		dst   *jobs.TimeOfDay
	}{
		{"DAILY_SUMMARY_AT", c.cfg.DailySummaryAt, &summaryAt},
		{"CONTENT_POST_AT", c.cfg.ContentPostAt, &contentAt},
		{"SESSION_PURGE_AT", c.cfg.SessionPurgeAt, &purgeAt},
		{"MONTHLY_REPORT_AT", c.cfg.MonthlyReportAt, &reportAt},
	} {
		if *t.dst, err = jobs.ParseTimeOfDay(t.value); err != nil {
			return nil, fmt.Errorf("%s: %w", t.name, err)
		}
	}

	return jobs.NewJobManager(
		jobs.Handlers{
			Escalate:       c.CreateEscalateOrdersCommandHandler(),
			DailySummary:   c.CreateSendDailySummaryCommandHandler(),
			MonthlyReport:  c.CreateSendMonthlyReportCommandHandler(),
			PublishContent: c.CreatePublishContentCommandHandler(),
			PurgeSessions:  c.CreatePurgeExpiredSessionsCommandHandler(),
			PruneReports:   c.CreatePruneReportsCommandHandler(),
		},
		jobs.Config{
			Spec:     c.cfg.EscalationSchedule,
			Location: c.loc,
			Escalation: jobs.EscalationPolicy{
				FirstAfter:  c.cfg.EscalationT1,
				RepeatAfter: c.cfg.EscalationT2,
			},
			SessionTTL:      c.cfg.SessionTTL,
			ReportRetention: c.cfg.ReportRetention,
			DailySummaryAt:  summaryAt,
			ContentPostAt:   contentAt,
			SessionPurgeAt:  purgeAt,
			MonthlyReportAt: reportAt,
		},
		watermarkrepo.NewGormWatermarkRepository(c.gormDB),
		c.clock,
		c.logger,
	), nil
}

// CreateHTTPServer builds the echo instance with every route.
func (c *CompositionRoot) CreateHTTPServer() (*echo.Echo, error) {
	server := httpin.NewServer(httpin.Handlers{
		Inbound:        c.CreateHandleInboundEventCommandHandler(),
		ChangeStatus:   c.CreateChangeOrderStatusCommandHandler(),
		EnqueueContent: c.CreateEnqueueContentCommandHandler(),
		GetOrder:       c.CreateGetOrderQueryHandler(),
		ListOrders:     c.CreateListOrdersQueryHandler(),
		Stats:          c.CreateGetOrderStatsQueryHandler(),
	}, c.logger)

	var validator httpin.SignatureValidator
	if c.cfg.TwilioValidateSignature && c.cfg.TwilioAuthToken != "" {
		validator = twilio.NewSignatureValidator(c.cfg.TwilioAuthToken)
	}

	return httpin.NewRouter(httpin.RouterConfig{
		Server:  server,
		Webhook: httpin.NewTwilioWebhook(server, validator, c.cfg.PublicBaseURL),
		Tokens:  c.tokens,
		Health: func(ctx context.Context) error {
			sqlDB, err := c.gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Logger: c.logger,
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
