package queries

import (
	"context"
	"database/sql"

	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/pkg/errs"

	"gorm.io/gorm"
)

const orderViewColumns = `
			id,
			user_id,
			locale,
			contact_name,
			phone,
			locality,
			requested_item,
			size_descriptor,
			comment,
			status,
			created_at,
			last_status_change_at,
			last_reminder_at`

type GetOrderQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle returns errs.ErrObjectNotFound when the order does not exist.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT`+orderViewColumns+`
		FROM orders
		WHERE id = ?
	`, query.OrderID()).Rows()
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	views, err := scanOrderViews(rows)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	if len(views) == 0 {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID())
	}

	resp := GetOrderQueryResponse{Order: views[0], History: make([]order.StatusChange, 0)}

	rows, err = h.db.WithContext(ctx).Raw(`
		SELECT
			from_status,
			to_status,
			actor,
			at
		FROM order_status_history
		WHERE order_id = ?
		ORDER BY id
	`, query.OrderID()).Rows()
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		change := order.StatusChange{OrderID: query.OrderID()}
		var from, to int
		if err = rows.Scan(&from, &to, &change.Actor, &change.At); err != nil {
			return GetOrderQueryResponse{}, err
		}
		change.From, change.To = order.Status(from), order.Status(to)
		resp.History = append(resp.History, change)
	}
	if err = rows.Err(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	return resp, nil
}

func scanOrderViews(rows *sql.Rows) ([]OrderView, error) {
	defer rows.Close()

	views := make([]OrderView, 0)
	for rows.Next() {
		var v OrderView
		var status int
		var comment sql.NullString
		var reminded sql.NullTime
		if err := rows.Scan(
			&v.ID,
			&v.UserID,
			&v.Locale,
			&v.ContactName,
			&v.Phone,
			&v.Locality,
			&v.RequestedItem,
			&v.SizeDescriptor,
			&comment,
			&status,
			&v.CreatedAt,
			&v.LastStatusChangeAt,
			&reminded,
		); err != nil {
			return nil, err
		}
		v.Status = order.Status(status)
		v.Comment = comment.String
		if reminded.Valid {
			t := reminded.Time
			v.LastReminderAt = &t
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
