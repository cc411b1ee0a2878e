package order

import "time"

// StatusChange is one entry of an order's append-only status history.
// From is Unknown for the entry written when the order is created.
type StatusChange struct {
	OrderID uint64
	From    Status
	To      Status
	Actor   string
	At      time.Time
}
