package commands

import (
	"errors"
	"time"

	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"
)

var ErrEscalateOrdersCommandIsNotConstructed = errors.New(
	"EscalateOrdersCommand must be created via NewEscalateOrdersCommand constructor",
)

// EscalateOrdersCommand reminds staff about open orders nobody picked up.
// FirstAfter is the age before the first reminder, RepeatAfter the minimum
// gap between reminders for the same order.
type EscalateOrdersCommand struct {
	now         time.Time
	firstAfter  time.Duration
	repeatAfter time.Duration
	guard       guard.ConstructorGuard
}

func NewEscalateOrdersCommand(now time.Time, firstAfter, repeatAfter time.Duration) (EscalateOrdersCommand, error) {
	var nowErr, firstErr, repeatErr error
	if now.IsZero() {
		nowErr = errs.NewValueIsRequiredError("now")
	}
	if firstAfter <= 0 {
		firstErr = errs.NewValueIsOutOfRangeError("firstAfter", firstAfter, "1ns", "∞")
	}
	if repeatAfter <= 0 {
		repeatErr = errs.NewValueIsOutOfRangeError("repeatAfter", repeatAfter, "1ns", "∞")
	}
	if err := errors.Join(nowErr, firstErr, repeatErr); err != nil {
		return EscalateOrdersCommand{}, err
	}
	return EscalateOrdersCommand{
		now:         now,
		firstAfter:  firstAfter,
		repeatAfter: repeatAfter,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c EscalateOrdersCommand) Validate() error {
	return c.guard.Validate(ErrEscalateOrdersCommandIsNotConstructed)
}

func (c EscalateOrdersCommand) Now() time.Time             { return c.now }
func (c EscalateOrdersCommand) FirstAfter() time.Duration  { return c.firstAfter }
func (c EscalateOrdersCommand) RepeatAfter() time.Duration { return c.repeatAfter }
