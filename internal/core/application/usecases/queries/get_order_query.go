package queries

import (
	"errors"
	"time"

	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery retrieves one order with its status history.
type GetOrderQuery struct {
	orderID uint64
	guard   guard.ConstructorGuard
}

func NewGetOrderQuery(orderID uint64) (GetOrderQuery, error) {
	if orderID == 0 {
		return GetOrderQuery{}, errs.NewValueIsRequiredError("orderID")
	}
	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() uint64 { return q.orderID }

// OrderView is the read model of an order shared by the order queries.
type OrderView struct {
	ID                 uint64
	UserID             string
	Locale             string
	ContactName        string
	Phone              string
	Locality           string
	RequestedItem      string
	SizeDescriptor     string
	Comment            string
	Status             order.Status
	CreatedAt          time.Time
	LastStatusChangeAt time.Time
	LastReminderAt     *time.Time
}

type GetOrderQueryResponse struct {
	Order   OrderView
	History []order.StatusChange
}
