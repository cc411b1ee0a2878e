package ports

import (
	"context"
	"time"

	"orderbot/internal/core/domain/model/order"
)

// ReportGenerator writes order report files.
type ReportGenerator interface {
	// Generate writes the report and returns its path.
	Generate(ctx context.Context, name string, orders []*order.Order) (string, error)
	// Prune removes reports last written before the given time.
	Prune(ctx context.Context, before time.Time) (int, error)
}
