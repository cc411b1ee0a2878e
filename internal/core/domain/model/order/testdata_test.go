package order_test

import (
	"testing"
	"time"

	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func validDraft(t *testing.T) order.Draft {
	t.Helper()
	phone, err := kernel.NewPhoneNumber("90 123 45 67")
	require.NoError(t, err)
	size, err := kernel.ParseSizeDescriptor("7 yosh, 125 sm")
	require.NoError(t, err)
	return order.Draft{
		FlowID:         kernel.NewUUID(),
		UserID:         "whatsapp:+998901234567",
		Locale:         kernel.LocaleUZ,
		ContactName:    "Dilnoza",
		Phone:          phone,
		Locality:       "Chilonzor",
		RequestedItem:  "Maktab formasi",
		SizeDescriptor: size,
		Comment:        "-",
	}
}

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(validDraft(t), createdAt)
	require.NoError(t, err)
	require.NoError(t, o.AssignID(42))
	return o
}
