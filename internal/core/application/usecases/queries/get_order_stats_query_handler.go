package queries

import (
	"context"
	"strings"

	"orderbot/internal/core/domain/model/order"

	"gorm.io/gorm"
)

type GetOrderStatsQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderStatsQueryHandler(db *gorm.DB) GetOrderStatsQueryHandler {
	return GetOrderStatsQueryHandler{db: db}
}

// Handle returns a count for every status, zero included.
func (h GetOrderStatsQueryHandler) Handle(
	ctx context.Context,
	query GetOrderStatsQuery,
) (GetOrderStatsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderStatsQueryResponse{}, err
	}

	where, args := query.filter()
	resp := GetOrderStatsQueryResponse{ByStatus: make(map[order.Status]int64, len(order.Statuses()))}
	for _, s := range order.Statuses() {
		resp.ByStatus[s] = 0
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			status,
			COUNT(*)
		FROM orders`+where+`
		GROUP BY status
	`, args...).Rows()
	if err != nil {
		return GetOrderStatsQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var status int
		var count int64
		if err = rows.Scan(&status, &count); err != nil {
			return GetOrderStatsQueryResponse{}, err
		}
		resp.ByStatus[order.Status(status)] = count
		resp.Total += count
	}
	if err = rows.Err(); err != nil {
		return GetOrderStatsQueryResponse{}, err
	}

	err = h.db.WithContext(ctx).Raw(`
		SELECT COUNT(DISTINCT user_id)
		FROM orders`+where, args...).Scan(&resp.UniqueCustomers).Error
	if err != nil {
		return GetOrderStatsQueryResponse{}, err
	}

	return resp, nil
}

func (q GetOrderStatsQuery) filter() (string, []any) {
	var conds []string
	var args []any
	if q.from != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, q.from.UTC())
	}
	if q.to != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, q.to.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}
