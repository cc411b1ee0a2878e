// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries read the tables directly and return flat read models.
package queries

import (
	"errors"
	"time"

	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrGetOrderStatsQueryIsNotConstructed = errors.New(
	"GetOrderStatsQuery must be created via NewGetOrderStatsQuery constructor",
)

// GetOrderStatsQuery counts orders by status, optionally limited to orders
// created in [From, To).
//
// Example:
//
//	from, to := commands.DayBounds(now)
//	stats, err := handler.Handle(ctx, queries.NewGetOrderStatsQuery(&from, &to))
type GetOrderStatsQuery struct {
	from  *time.Time
	to    *time.Time
	guard guard.ConstructorGuard
}

// NewGetOrderStatsQuery creates a stats query. Nil bounds mean all time.
func NewGetOrderStatsQuery(from, to *time.Time) GetOrderStatsQuery {
	return GetOrderStatsQuery{from: from, to: to, guard: guard.NewConstructorGuard()}
}

func (q GetOrderStatsQuery) Validate() error {
	if err := q.guard.Validate(ErrGetOrderStatsQueryIsNotConstructed); err != nil {
		return err
	}
	if q.from != nil && q.to != nil && !q.from.Before(*q.to) {
		return errs.NewValueIsInvalidErrorWithCause("range", errors.New("from must be before to"))
	}
	return nil
}

type GetOrderStatsQueryResponse struct {
	Total           int64
	ByStatus        map[order.Status]int64
	UniqueCustomers int64
}
