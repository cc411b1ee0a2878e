package kernel

import (
	"fmt"

	"orderbot/internal/pkg/errs"
	"orderbot/internal/pkg/guard"

	"github.com/google/uuid"
)

var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError("UUID must be created via NewUUID or UUIDFromString")

// UUID identifies one order-intake flow. The order created from a flow carries
// the same value, which makes confirmation idempotent.
type UUID struct {
	id    uuid.UUID
	guard guard.ConstructorGuard
}

func NewUUID() UUID {
	return UUID{id: uuid.New(), guard: guard.NewConstructorGuard()}
}

func UUIDFromString(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, errs.NewValueIsInvalidErrorWithCause("uuid", fmt.Errorf("invalid UUID format: %w", err))
	}
	if id == uuid.Nil {
		return UUID{}, errs.NewValueIsInvalidError("uuid")
	}
	return UUID{id: id, guard: guard.NewConstructorGuard()}, nil
}

func (u UUID) String() string {
	return u.id.String()
}

func (u UUID) IsEqual(other UUID) bool {
	return u.id == other.id
}

func (u UUID) IsZero() bool {
	return u.id == uuid.Nil
}

func (u UUID) Validate() error {
	return u.guard.Validate(ErrUUIDIsNotConstructed)
}
