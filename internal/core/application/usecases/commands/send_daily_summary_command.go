package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderbot/internal/core/application/notifications"
	"orderbot/internal/core/application/usecases/queries"
	"orderbot/internal/core/ports"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrSendDailySummaryCommandIsNotConstructed = errors.New(
	"SendDailySummaryCommand must be created via NewSendDailySummaryCommand constructor",
)

// SendDailySummaryCommand reports to staff the orders created on the local
// calendar day that contains Day.
type SendDailySummaryCommand struct {
	day   time.Time
	guard guard.ConstructorGuard
}

func NewSendDailySummaryCommand(day time.Time) (SendDailySummaryCommand, error) {
	if day.IsZero() {
		return SendDailySummaryCommand{}, errs.NewValueIsRequiredError("day")
	}
	return SendDailySummaryCommand{day: day, guard: guard.NewConstructorGuard()}, nil
}

func (c SendDailySummaryCommand) Validate() error {
	return c.guard.Validate(ErrSendDailySummaryCommandIsNotConstructed)
}

func (c SendDailySummaryCommand) Day() time.Time { return c.day }

type SendDailySummaryCommandHandler struct {
	stats    statsReader
	notifier Notifier
	renderer notifications.Renderer
	logger   *slog.Logger
}

func NewSendDailySummaryCommandHandler(
	stats statsReader,
	notifier Notifier,
	renderer notifications.Renderer,
	logger *slog.Logger,
) SendDailySummaryCommandHandler {
	return SendDailySummaryCommandHandler{
		stats:    stats,
		notifier: notifier,
		renderer: renderer,
		logger:   logger.With("component", "daily_summary"),
	}
}

func (h SendDailySummaryCommandHandler) Handle(ctx context.Context, command SendDailySummaryCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	from, to := DayBounds(command.Day())
	stats, err := h.stats.Handle(ctx, queries.NewGetOrderStatsQuery(&from, &to))
	if err != nil {
		return err
	}

	locale := h.notifier.StaffLocale()
	text := h.renderer.Text(locale, "daily_summary", map[string]string{
		"date":  from.Format(time.DateOnly),
		"stats": StatsText(h.renderer, locale, stats),
	})
	if err = h.notifier.NotifyStaff(ctx, ports.OutboundMessage{Locale: locale, Text: text}); err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "daily summary sent", "date", from.Format(time.DateOnly), "total", stats.Total)
	return nil
}

// DayBounds returns the start of t's local day and the start of the next one.
func DayBounds(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}

// MonthBounds returns the start of t's local month and the start of the next one.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 1, 0)
}
