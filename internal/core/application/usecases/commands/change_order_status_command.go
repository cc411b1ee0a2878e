package commands

import (
	"errors"
	"strings"

	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrChangeOrderStatusCommandIsNotConstructed = errors.New(
	"ChangeOrderStatusCommand must be created via NewChangeOrderStatusCommand constructor",
)

// ChangeOrderStatusCommand asks to move an order along the status graph on
// behalf of a staff member.
type ChangeOrderStatusCommand struct {
	orderID uint64
	status  order.Status
	actor   string
	guard   guard.ConstructorGuard
}

func NewChangeOrderStatusCommand(orderID uint64, status order.Status, actor string) (ChangeOrderStatusCommand, error) {
	var idErr, actorErr error
	if orderID == 0 {
		idErr = errs.NewValueIsRequiredError("orderID")
	}
	if strings.TrimSpace(actor) == "" {
		actorErr = errs.NewValueIsRequiredError("actor")
	}
	if err := errors.Join(idErr, status.Validate(), actorErr); err != nil {
		return ChangeOrderStatusCommand{}, err
	}
	return ChangeOrderStatusCommand{
		orderID: orderID,
		status:  status,
		actor:   actor,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ChangeOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrChangeOrderStatusCommandIsNotConstructed)
}

func (c ChangeOrderStatusCommand) OrderID() uint64      { return c.orderID }
func (c ChangeOrderStatusCommand) Status() order.Status { return c.status }
func (c ChangeOrderStatusCommand) Actor() string        { return c.actor }
