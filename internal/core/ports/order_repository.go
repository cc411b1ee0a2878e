// Package ports defines the contracts between the core and its adapters:
// storage for orders, sessions and job watermarks, the messaging transport,
// the content queue and the report generator.
package ports

import (
	"context"
	"time"

	"orderbot/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Create persists a new order, assigns its id and records the initial
	// status history entry. Creating an order whose flow id is already stored
	// returns the id of the stored order instead of inserting a duplicate.
	Create(ctx context.Context, aggregate *order.Order) (uint64, error)

	// Get retrieves an order by id. Returns errs.ErrObjectNotFound if absent.
	Get(ctx context.Context, id uint64) (*order.Order, error)

	// SetStatus validates and applies a status transition and appends it to
	// the history. The update succeeds only if the stored status did not change
	// since it was read.
	//
	// Returns:
	//   - (change, true, nil) on success
	//   - (zero, false, nil) if the order does not exist
	//   - *order.InvalidTransitionError if the edge is not allowed
	//   - *errs.VersionIsInvalidError if a concurrent update won
	SetStatus(ctx context.Context, id uint64, next order.Status, actor string, at time.Time) (order.StatusChange, bool, error)

	// ListForEscalation returns new orders at least firstAfter old that were
	// never reminded or last reminded at least repeatAfter before now,
	// oldest first.
	ListForEscalation(ctx context.Context, firstAfter, repeatAfter time.Duration, now time.Time) ([]*order.Order, error)

	// MarkReminded sets the last reminder time of one order.
	MarkReminded(ctx context.Context, id uint64, at time.Time) error

	// ListCreatedBetween returns orders created in [from, to), oldest first.
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error)

	// History returns the status history of an order, oldest first.
	History(ctx context.Context, id uint64) ([]order.StatusChange, error)
}
