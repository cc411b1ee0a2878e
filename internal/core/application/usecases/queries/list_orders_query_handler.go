package queries

import (
	"context"

	"orderbot/internal/core/domain/model/order"

	"gorm.io/gorm"
)

type ListOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	db := h.db.WithContext(ctx)
	var raw *gorm.DB
	if query.Status() == order.Unknown {
		raw = db.Raw(`
		SELECT`+orderViewColumns+`
		FROM orders
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, query.Limit(), query.Offset())
	} else {
		raw = db.Raw(`
		SELECT`+orderViewColumns+`
		FROM orders
		WHERE status = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, int(query.Status()), query.Limit(), query.Offset())
	}

	rows, err := raw.Rows()
	if err != nil {
		return nil, err
	}
	return scanOrderViews(rows)
}
