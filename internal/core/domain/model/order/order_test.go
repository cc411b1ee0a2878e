package order_test

import (
	"testing"
	"time"

	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	t.Run("should create order in status new", func(t *testing.T) {
		d := validDraft(t)

		o, err := order.NewOrder(d, createdAt)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.Equal(t, uint64(0), o.ID())
		assert.True(t, o.FlowID().IsEqual(d.FlowID))
		assert.Equal(t, order.New, o.Status())
		assert.Equal(t, "+998901234567", o.Phone())
		assert.Equal(t, "age 7, height 125 cm", o.SizeDescriptor())
		assert.Equal(t, createdAt, o.CreatedAt())
		assert.Equal(t, createdAt, o.LastStatusChangeAt())
		assert.Nil(t, o.LastReminderAt())
	})

	t.Run("should join all missing fields", func(t *testing.T) {
		d := validDraft(t)
		d.ContactName = " "
		d.Locality = ""
		d.RequestedItem = ""

		o, err := order.NewOrder(d, createdAt)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.Contains(t, err.Error(), "value is required: contactName")
		assert.Contains(t, err.Error(), "value is required: locality")
		assert.Contains(t, err.Error(), "value is required: requestedItem")
	})

	t.Run("should reject unconstructed value objects", func(t *testing.T) {
		d := validDraft(t)
		d.SizeDescriptor = order.Draft{}.SizeDescriptor

		_, err := order.NewOrder(d, createdAt)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "size descriptor must be created")
	})

	t.Run("should reject overlong comment", func(t *testing.T) {
		d := validDraft(t)
		long := make([]rune, order.MaxCommentLength+1)
		for i := range long {
			long[i] = 'x'
		}
		d.Comment = string(long)

		_, err := order.NewOrder(d, createdAt)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestOrder_AssignID(t *testing.T) {
	o, err := order.NewOrder(validDraft(t), createdAt)
	require.NoError(t, err)

	require.ErrorIs(t, o.AssignID(0), errs.ErrValueIsRequired)
	require.NoError(t, o.AssignID(7))
	require.NoError(t, o.AssignID(7))
	require.ErrorIs(t, o.AssignID(8), order.ErrIDAlreadyAssigned)
	assert.Equal(t, uint64(7), o.ID())
}

func TestOrder_ChangeStatus(t *testing.T) {
	t.Run("should walk the happy path", func(t *testing.T) {
		o := newOrder(t)
		at := createdAt

		for _, next := range []order.Status{order.Acknowledged, order.InProgress, order.Fulfilled} {
			at = at.Add(time.Minute)
			prev := o.Status()

			change, err := o.ChangeStatus(next, "staff:+998711234567", at)

			require.NoError(t, err)
			assert.Equal(t, order.StatusChange{OrderID: 42, From: prev, To: next, Actor: "staff:+998711234567", At: at}, change)
			assert.Equal(t, next, o.Status())
			assert.Equal(t, at, o.LastStatusChangeAt())
		}
	})

	t.Run("should reject skipping a step", func(t *testing.T) {
		o := newOrder(t)

		_, err := o.ChangeStatus(order.Fulfilled, "staff", createdAt)

		var transitionErr *order.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, order.New, transitionErr.From)
		assert.Equal(t, order.Fulfilled, transitionErr.To)
		assert.Equal(t, order.New, o.Status())
	})

	t.Run("should reject leaving a final status", func(t *testing.T) {
		o := newOrder(t)
		_, err := o.ChangeStatus(order.Cancelled, "staff", createdAt)
		require.NoError(t, err)

		_, err = o.ChangeStatus(order.Acknowledged, "staff", createdAt)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, order.Cancelled, o.Status())
	})

	t.Run("should require an actor", func(t *testing.T) {
		o := newOrder(t)
		_, err := o.ChangeStatus(order.Acknowledged, "", createdAt)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestOrder_Escalation(t *testing.T) {
	firstAfter, repeatAfter := 15*time.Minute, 30*time.Minute

	t.Run("should not escalate young orders", func(t *testing.T) {
		o := newOrder(t)
		assert.False(t, o.IsDueForEscalation(firstAfter, repeatAfter, createdAt.Add(15*time.Minute-time.Second)))
		assert.True(t, o.IsDueForEscalation(firstAfter, repeatAfter, createdAt.Add(15*time.Minute)))
	})

	t.Run("should wait repeat interval after a reminder", func(t *testing.T) {
		o := newOrder(t)
		remindedAt := createdAt.Add(16 * time.Minute)
		require.NoError(t, o.MarkReminded(remindedAt))

		assert.False(t, o.IsDueForEscalation(firstAfter, repeatAfter, remindedAt.Add(30*time.Minute-time.Second)))
		assert.True(t, o.IsDueForEscalation(firstAfter, repeatAfter, remindedAt.Add(30*time.Minute)))
	})

	t.Run("should skip orders staff have acknowledged", func(t *testing.T) {
		o := newOrder(t)
		assert.True(t, o.IsDueForEscalation(firstAfter, repeatAfter, createdAt.Add(time.Hour)))

		_, err := o.ChangeStatus(order.Acknowledged, "staff", createdAt)
		require.NoError(t, err)
		assert.False(t, o.IsDueForEscalation(firstAfter, repeatAfter, createdAt.Add(time.Hour)))
	})

	t.Run("should reject reminder before creation", func(t *testing.T) {
		o := newOrder(t)
		require.ErrorIs(t, o.MarkReminded(createdAt.Add(-time.Second)), errs.ErrValueIsInvalid)
		assert.Nil(t, o.LastReminderAt())
	})
}

func TestRestoreOrder(t *testing.T) {
	t.Run("should round trip a snapshot", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.MarkReminded(createdAt.Add(20*time.Minute)))

		restored, err := order.RestoreOrder(o.Snapshot())

		require.NoError(t, err)
		assert.Equal(t, o.Snapshot(), restored.Snapshot())
	})

	t.Run("should reject broken snapshots", func(t *testing.T) {
		s := newOrder(t).Snapshot()
		s.ID = 0
		s.Status = order.Status(99)
		s.FlowID = "nope"

		_, err := order.RestoreOrder(s)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "value is required: id")
		assert.Contains(t, err.Error(), "status is invalid")
		assert.Contains(t, err.Error(), "value is invalid: uuid")
	})

	t.Run("should reject reminder before creation", func(t *testing.T) {
		s := newOrder(t).Snapshot()
		early := s.CreatedAt.Add(-time.Hour)
		s.LastReminderAt = &early

		_, err := order.RestoreOrder(s)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestOrder_ZeroValue(t *testing.T) {
	var o order.Order
	require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)

	var nilOrder *order.Order
	require.ErrorIs(t, nilOrder.Validate(), order.ErrOrderIsNotConstructed)
}
