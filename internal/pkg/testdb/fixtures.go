package testdb

import (
	"testing"
	"time"

	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

// Draft returns a complete order draft with a fresh flow id.
func Draft(t testing.TB) order.Draft {
	t.Helper()
	phone, err := kernel.NewPhoneNumber("+998 90 123 45 67")
	require.NoError(t, err)
	size, err := kernel.NewSizeDescriptor(7, 125)
	require.NoError(t, err)
	return order.Draft{
		FlowID:         kernel.NewUUID(),
		UserID:         "whatsapp:+998901234567",
		Locale:         kernel.LocaleRU,
		ContactName:    "Анна",
		Phone:          phone,
		Locality:       "Ташкент, Юнусабад",
		RequestedItem:  "Школьная форма",
		SizeDescriptor: size,
	}
}

// NewOrder builds an unsaved order created at the given time.
func NewOrder(t testing.TB, createdAt time.Time) *order.Order {
	t.Helper()
	o, err := order.NewOrder(Draft(t), createdAt)
	require.NoError(t, err)
	return o
}
