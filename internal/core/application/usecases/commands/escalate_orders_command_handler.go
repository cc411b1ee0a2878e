package commands

import (
	"context"
	"log/slog"
)

// EscalateOrdersCommandHandler sends one batched reminder for all stale open
// orders and stamps each reminded order. Orders are stamped only if at least
// one staff member received the reminder, so a failed send is retried on the
// next tick.
type EscalateOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   Notifier
	logger     *slog.Logger
}

func NewEscalateOrdersCommandHandler(uowFactory OrderUoWFactory, notifier Notifier, logger *slog.Logger) EscalateOrdersCommandHandler {
	return EscalateOrdersCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		logger:     logger.With("component", "escalation"),
	}
}

// Handle returns the number of orders stamped as reminded.
func (h EscalateOrdersCommandHandler) Handle(ctx context.Context, command EscalateOrdersCommand) (int, error) {
	if err := command.Validate(); err != nil {
		return 0, err
	}

	repo := h.uowFactory.Create().OrderRepository()
	stale, err := repo.ListForEscalation(ctx, command.FirstAfter(), command.RepeatAfter(), command.Now())
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	delivered, err := h.notifier.NotifyEscalation(ctx, stale, command.Now())
	if !delivered {
		h.logger.WarnContext(ctx, "escalation reminder not delivered", "orders", len(stale), "error", err)
		return 0, nil
	}

	marked := 0
	for _, o := range stale {
		if markErr := repo.MarkReminded(ctx, o.ID(), command.Now()); markErr != nil {
			h.logger.ErrorContext(ctx, "mark reminded failed", "order_id", o.ID(), "error", markErr)
			continue
		}
		marked++
	}
	h.logger.InfoContext(ctx, "escalation reminder sent", "orders", len(stale), "marked", marked)
	return marked, nil
}
