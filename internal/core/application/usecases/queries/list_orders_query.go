package queries

import (
	"errors"

	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery pages through orders, newest first, optionally filtered by status.
type ListOrdersQuery struct {
	status order.Status
	limit  int
	offset int
	guard  guard.ConstructorGuard
}

// NewListOrdersQuery accepts order.Unknown as "any status" and a zero limit
// as DefaultListLimit.
func NewListOrdersQuery(status order.Status, limit, offset int) (ListOrdersQuery, error) {
	var statusErr, limitErr, offsetErr error
	if status != order.Unknown {
		statusErr = status.Validate()
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		limitErr = errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxListLimit)
	}
	if offset < 0 {
		offsetErr = errs.NewValueIsOutOfRangeError("offset", offset, 0, "∞")
	}
	if err := errors.Join(statusErr, limitErr, offsetErr); err != nil {
		return ListOrdersQuery{}, err
	}

	return ListOrdersQuery{status: status, limit: limit, offset: offset, guard: guard.NewConstructorGuard()}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Status() order.Status { return q.status }
func (q ListOrdersQuery) Limit() int           { return q.limit }
func (q ListOrdersQuery) Offset() int          { return q.offset }
