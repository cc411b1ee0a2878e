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

var ErrPurgeExpiredSessionsCommandIsNotConstructed = errors.New(
	"PurgeExpiredSessionsCommand must be created via NewPurgeExpiredSessionsCommand constructor",
)

type PurgeExpiredSessionsCommand struct {
	before time.Time
	guard  guard.ConstructorGuard
}

// NewPurgeExpiredSessionsCommand targets sessions untouched for longer than ttl at now.
func NewPurgeExpiredSessionsCommand(now time.Time, ttl time.Duration) (PurgeExpiredSessionsCommand, error) {
	if now.IsZero() {
		return PurgeExpiredSessionsCommand{}, errs.NewValueIsRequiredError("now")
	}
	if ttl <= 0 {
		return PurgeExpiredSessionsCommand{}, errs.NewValueIsOutOfRangeError("ttl", ttl, "1ns", "∞")
	}
	return PurgeExpiredSessionsCommand{before: now.Add(-ttl), guard: guard.NewConstructorGuard()}, nil
}

func (c PurgeExpiredSessionsCommand) Validate() error {
	return c.guard.Validate(ErrPurgeExpiredSessionsCommandIsNotConstructed)
}

func (c PurgeExpiredSessionsCommand) Before() time.Time { return c.before }

type PurgeExpiredSessionsCommandHandler struct {
	sessions ports.SessionRepository
	logger   *slog.Logger
}

func NewPurgeExpiredSessionsCommandHandler(sessions ports.SessionRepository, logger *slog.Logger) PurgeExpiredSessionsCommandHandler {
	return PurgeExpiredSessionsCommandHandler{sessions: sessions, logger: logger}
}

func (h PurgeExpiredSessionsCommandHandler) Handle(ctx context.Context, command PurgeExpiredSessionsCommand) (int64, error) {
	if err := command.Validate(); err != nil {
		return 0, err
	}
	n, err := h.sessions.PurgeExpired(ctx, command.Before())
	if err != nil {
		return 0, errs.NewStorageError("purge sessions", err)
	}
	if n > 0 {
		h.logger.InfoContext(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}
