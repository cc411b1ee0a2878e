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

var ErrPruneReportsCommandIsNotConstructed = errors.New(
	"PruneReportsCommand must be created via NewPruneReportsCommand constructor",
)

type PruneReportsCommand struct {
	before time.Time
	guard  guard.ConstructorGuard
}

// NewPruneReportsCommand targets report files older than retention at now.
func NewPruneReportsCommand(now time.Time, retention time.Duration) (PruneReportsCommand, error) {
	if now.IsZero() {
		return PruneReportsCommand{}, errs.NewValueIsRequiredError("now")
	}
	if retention <= 0 {
		return PruneReportsCommand{}, errs.NewValueIsOutOfRangeError("retention", retention, "1ns", "∞")
	}
	return PruneReportsCommand{before: now.Add(-retention), guard: guard.NewConstructorGuard()}, nil
}

func (c PruneReportsCommand) Validate() error {
	return c.guard.Validate(ErrPruneReportsCommandIsNotConstructed)
}

func (c PruneReportsCommand) Before() time.Time { return c.before }

type PruneReportsCommandHandler struct {
	reports ports.ReportGenerator
	logger  *slog.Logger
}

func NewPruneReportsCommandHandler(reports ports.ReportGenerator, logger *slog.Logger) PruneReportsCommandHandler {
	return PruneReportsCommandHandler{reports: reports, logger: logger}
}

func (h PruneReportsCommandHandler) Handle(ctx context.Context, command PruneReportsCommand) (int, error) {
	if err := command.Validate(); err != nil {
		return 0, err
	}
	n, err := h.reports.Prune(ctx, command.Before())
	if err != nil {
		return n, err
	}
	if n > 0 {
		h.logger.InfoContext(ctx, "old reports removed", "count", n)
	}
	return n, nil
}
