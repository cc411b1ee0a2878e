package commands

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"orderbot/internal/core/application/notifications"
	"orderbot/internal/core/ports"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrSendMonthlyReportCommandIsNotConstructed = errors.New(
	"SendMonthlyReportCommand must be created via NewSendMonthlyReportCommand constructor",
)

// SendMonthlyReportCommand exports the orders of the local month containing
// Month and sends the file to staff.
type SendMonthlyReportCommand struct {
	month time.Time
	guard guard.ConstructorGuard
}

func NewSendMonthlyReportCommand(month time.Time) (SendMonthlyReportCommand, error) {
	if month.IsZero() {
		return SendMonthlyReportCommand{}, errs.NewValueIsRequiredError("month")
	}
	return SendMonthlyReportCommand{month: month, guard: guard.NewConstructorGuard()}, nil
}

func (c SendMonthlyReportCommand) Validate() error {
	return c.guard.Validate(ErrSendMonthlyReportCommandIsNotConstructed)
}

func (c SendMonthlyReportCommand) Month() time.Time { return c.month }

type SendMonthlyReportCommandHandler struct {
	uowFactory OrderUoWFactory
	reports    ports.ReportGenerator
	notifier   Notifier
	renderer   notifications.Renderer
	logger     *slog.Logger
}

func NewSendMonthlyReportCommandHandler(
	uowFactory OrderUoWFactory,
	reports ports.ReportGenerator,
	notifier Notifier,
	renderer notifications.Renderer,
	logger *slog.Logger,
) SendMonthlyReportCommandHandler {
	return SendMonthlyReportCommandHandler{
		uowFactory: uowFactory,
		reports:    reports,
		notifier:   notifier,
		renderer:   renderer,
		logger:     logger.With("component", "monthly_report"),
	}
}

// Handle returns the path of the generated report.
func (h SendMonthlyReportCommandHandler) Handle(ctx context.Context, command SendMonthlyReportCommand) (string, error) {
	if err := command.Validate(); err != nil {
		return "", err
	}

	from, to := MonthBounds(command.Month())
	orders, err := h.uowFactory.Create().OrderRepository().ListCreatedBetween(ctx, from, to)
	if err != nil {
		return "", err
	}

	month := from.Format("2006-01")
	path, err := h.reports.Generate(ctx, "orders-"+month, orders)
	if err != nil {
		return "", err
	}

	locale := h.notifier.StaffLocale()
	text := h.renderer.Text(locale, "monthly_report", map[string]string{
		"month": month,
		"count": strconv.Itoa(len(orders)),
	})
	if err = h.notifier.NotifyStaff(ctx, ports.OutboundMessage{
		Locale:     locale,
		Text:       text,
		Attachment: path,
	}); err != nil {
		return path, err
	}
	h.logger.InfoContext(ctx, "monthly report sent", "month", month, "orders", len(orders), "path", path)
	return path, nil
}
