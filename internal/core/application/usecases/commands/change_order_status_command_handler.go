package commands

import (
	"context"
	"log/slog"

	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/ports"
)

// ChangeOrderStatusResult reports what happened to the order.
type ChangeOrderStatusResult struct {
	Found  bool
	Change order.StatusChange
}

// ChangeOrderStatusCommandHandler applies a staff status change in one
// transaction and then tells the customer about it.
//
// Example:
//
//	cmd, _ := NewChangeOrderStatusCommand(42, order.Acknowledged, "whatsapp:+998711234567")
//	res, err := handler.Handle(ctx, cmd)
//	var invalid *order.InvalidTransitionError
//	switch {
//	case errors.As(err, &invalid):
//	    // edge not in the status graph
//	case err != nil:
//	    return err
//	case !res.Found:
//	    // no such order
//	}
type ChangeOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   Notifier
	clock      ports.Clock
	logger     *slog.Logger
}

func NewChangeOrderStatusCommandHandler(
	uowFactory OrderUoWFactory,
	notifier Notifier,
	clock ports.Clock,
	logger *slog.Logger,
) ChangeOrderStatusCommandHandler {
	return ChangeOrderStatusCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		clock:      clock,
		logger:     logger.With("component", "change_order_status"),
	}
}

func (h ChangeOrderStatusCommandHandler) Handle(
	ctx context.Context,
	command ChangeOrderStatusCommand,
) (ChangeOrderStatusResult, error) {
	if err := command.Validate(); err != nil {
		return ChangeOrderStatusResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ChangeOrderStatusResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	change, found, err := repo.SetStatus(ctx, command.OrderID(), command.Status(), command.Actor(), h.clock.Now())
	if err != nil {
		return ChangeOrderStatusResult{}, err
	}
	if !found {
		return ChangeOrderStatusResult{}, nil
	}

	updated, err := repo.Get(ctx, command.OrderID())
	if err != nil {
		return ChangeOrderStatusResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ChangeOrderStatusResult{}, err
	}

	h.logger.InfoContext(ctx, "order status changed",
		"order_id", change.OrderID,
		"from", change.From.String(),
		"to", change.To.String(),
		"actor", change.Actor,
	)
	_ = h.notifier.NotifyStatusChanged(ctx, updated, change.From, change.To)

	return ChangeOrderStatusResult{Found: true, Change: change}, nil
}
