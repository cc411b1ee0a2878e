// Package servers provides primitives to interact with the staff HTTP API.
// Types, the server interface and its echo wrapper follow api/openapi.yaml.
package servers

import (
	"time"
)

const (
	BearerAuthScopes = "bearerAuth.Scopes"
)

// Error defines model for Error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Contact defines model for Contact.
type Contact struct {
	Name  *string `json:"name,omitempty"`
	Phone string  `json:"phone"`
}

// InboundEvent defines model for InboundEvent.
type InboundEvent struct {
	// Command Stable button token such as "order", "confirm" or "ack:42".
	Command      *string  `json:"command,omitempty"`
	Contact      *Contact `json:"contact,omitempty"`
	LanguageCode *string  `json:"language_code,omitempty"`
	Text         *string  `json:"text,omitempty"`
	UserId       string   `json:"user_id"`
}

// Reply defines model for Reply.
type Reply struct {
	Buttons *[]string `json:"buttons,omitempty"`
	Text    string    `json:"text"`
}

// EventReply defines model for EventReply.
type EventReply struct {
	OrderId *int64  `json:"order_id,omitempty"`
	Replies []Reply `json:"replies"`
	Step    string  `json:"step"`
}

// NewContentPost defines model for NewContentPost.
type NewContentPost struct {
	Body string `json:"body"`
}

// ContentPost defines model for ContentPost.
type ContentPost struct {
	Body     string    `json:"body"`
	Id       string    `json:"id"`
	StagedAt time.Time `json:"staged_at"`
}

// Order defines model for Order.
type Order struct {
	Comment            *string    `json:"comment,omitempty"`
	ContactName        string     `json:"contact_name"`
	CreatedAt          time.Time  `json:"created_at"`
	Id                 int64      `json:"id"`
	LastReminderAt     *time.Time `json:"last_reminder_at,omitempty"`
	LastStatusChangeAt time.Time  `json:"last_status_change_at"`
	Locale             string     `json:"locale"`
	Locality           string     `json:"locality"`
	Phone              string     `json:"phone"`
	RequestedItem      string     `json:"requested_item"`
	Size               string     `json:"size"`
	Status             string     `json:"status"`
	UserId             string     `json:"user_id"`
}

// StatusChange defines model for StatusChange.
type StatusChange struct {
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
	From  string    `json:"from"`
	To    string    `json:"to"`
}

// OrderDetails defines model for OrderDetails.
type OrderDetails struct {
	History []StatusChange `json:"history"`
	Order   Order          `json:"order"`
}

// StatusUpdate defines model for StatusUpdate.
type StatusUpdate struct {
	Status string `json:"status"`
}

// Stats defines model for Stats.
type Stats struct {
	ByStatus        map[string]int64 `json:"by_status"`
	Total           int64            `json:"total"`
	UniqueCustomers int64            `json:"unique_customers"`
}

// ListOrdersParams defines parameters for ListOrders.
type ListOrdersParams struct {
	Status *string `form:"status,omitempty" json:"status,omitempty"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Offset *int    `form:"offset,omitempty" json:"offset,omitempty"`
}

// GetStatsParams defines parameters for GetStats.
type GetStatsParams struct {
	From *time.Time `form:"from,omitempty" json:"from,omitempty"`
	To   *time.Time `form:"to,omitempty" json:"to,omitempty"`
}

// HandleEventJSONRequestBody defines body for HandleEvent for application/json ContentType.
type HandleEventJSONRequestBody = InboundEvent

// EnqueueContentJSONRequestBody defines body for EnqueueContent for application/json ContentType.
type EnqueueContentJSONRequestBody = NewContentPost

// ChangeOrderStatusJSONRequestBody defines body for ChangeOrderStatus for application/json ContentType.
type ChangeOrderStatusJSONRequestBody = StatusUpdate
