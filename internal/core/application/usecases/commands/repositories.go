// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management,
// persistence, then notification.
package commands

import (
	"context"
	"time"

	"orderbot/internal/core/application/notifications"
	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/core/domain/services"
	"orderbot/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// AggregateTracker reports which orders the transaction wrote.
	AggregateTracker interface {
		TrackedIDs() []uint64
	}

	// OrderUoW manages transactions for order operations. One unit of work
	// touches one order.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   change, found, err := uow.OrderRepository().SetStatus(ctx, id, next, actor, now)
	//   // ...
	//
	//   err = uow.Commit(ctx)
	OrderUoW interface {
		TxManager
		OrderRepoFactory
		AggregateTracker
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}
)

// Notifier is the part of the notification dispatcher commands rely on.
type Notifier interface {
	Reply(ctx context.Context, userID string, locale kernel.Locale, prompts []services.Prompt) []notifications.Rendered
	SendText(ctx context.Context, recipient string, locale kernel.Locale, text string) error
	SendFile(ctx context.Context, recipient string, locale kernel.Locale, text, path string) error
	NotifyOrderCreated(ctx context.Context, o *order.Order) error
	NotifyStatusChanged(ctx context.Context, o *order.Order, from, to order.Status) error
	NotifyEscalation(ctx context.Context, orders []*order.Order, now time.Time) (bool, error)
	NotifyStaff(ctx context.Context, msg ports.OutboundMessage) error
	IsStaff(userID string) bool
	StaffLocale() kernel.Locale
}
