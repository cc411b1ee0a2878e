package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderbot/internal/core/ports"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrExportOrdersCommandIsNotConstructed = errors.New(
	"ExportOrdersCommand must be created via NewExportOrdersCommand constructor",
)

// ExportOrdersCommand writes every order created up to At into a report.
type ExportOrdersCommand struct {
	at    time.Time
	guard guard.ConstructorGuard
}

func NewExportOrdersCommand(at time.Time) (ExportOrdersCommand, error) {
	if at.IsZero() {
		return ExportOrdersCommand{}, errs.NewValueIsRequiredError("at")
	}
	return ExportOrdersCommand{at: at, guard: guard.NewConstructorGuard()}, nil
}

func (c ExportOrdersCommand) Validate() error {
	return c.guard.Validate(ErrExportOrdersCommandIsNotConstructed)
}

func (c ExportOrdersCommand) At() time.Time { return c.at }

// ExportOrdersResult is empty when there was nothing to export.
type ExportOrdersResult struct {
	Path  string
	Count int
}

type ExportOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	reports    ports.ReportGenerator
	logger     *slog.Logger
}

func NewExportOrdersCommandHandler(
	uowFactory OrderUoWFactory,
	reports ports.ReportGenerator,
	logger *slog.Logger,
) ExportOrdersCommandHandler {
	return ExportOrdersCommandHandler{
		uowFactory: uowFactory,
		reports:    reports,
		logger:     logger.With("component", "export"),
	}
}

func (h ExportOrdersCommandHandler) Handle(ctx context.Context, command ExportOrdersCommand) (ExportOrdersResult, error) {
	if err := command.Validate(); err != nil {
		return ExportOrdersResult{}, err
	}

	at := command.At()
	orders, err := h.uowFactory.Create().OrderRepository().ListCreatedBetween(ctx, time.Time{}, at.Add(time.Nanosecond))
	if err != nil {
		return ExportOrdersResult{}, err
	}
	if len(orders) == 0 {
		return ExportOrdersResult{}, nil
	}

	path, err := h.reports.Generate(ctx, "orders-export-"+at.UTC().Format("20060102-150405"), orders)
	if err != nil {
		return ExportOrdersResult{}, err
	}
	h.logger.InfoContext(ctx, "orders exported", "orders", len(orders), "path", path)
	return ExportOrdersResult{Path: path, Count: len(orders)}, nil
}
