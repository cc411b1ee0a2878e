package orderrepo

import (
	"context"
	"errors"
	"time"

	"orderbot/internal/core/domain/model/order"
	"orderbot/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatedBy is the actor recorded on the first history entry of every order.
const CreatedBy = "customer"

// maxStatusAttempts bounds the compare-and-set loop of SetStatus.
const maxStatusAttempts = 3

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id uint64, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Create saves a new order. If an order with the same flow id exists, its id
// is returned and nothing is written.
func (r *GormOrderRepository) Create(ctx context.Context, aggregate *order.Order) (uint64, error) {
	if err := aggregate.Validate(); err != nil {
		return 0, err
	}

	dto := fromDomain(aggregate)
	dto.ID = 0
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "flow_id"}}, DoNothing: true}).
		Create(&dto)
	if result.Error != nil {
		return 0, errs.NewStorageError("create order", result.Error)
	}

	if result.RowsAffected == 0 {
		var existing OrderDTO
		if err := r.db.WithContext(ctx).Select("id").First(&existing, "flow_id = ?", dto.FlowID).Error; err != nil {
			return 0, errs.NewStorageError("find order by flow", err)
		}
		return existing.ID, nil
	}

	if err := aggregate.AssignID(dto.ID); err != nil {
		return 0, err
	}
	created := order.StatusChange{
		OrderID: dto.ID,
		From:    order.Unknown,
		To:      aggregate.Status(),
		Actor:   CreatedBy,
		At:      aggregate.CreatedAt(),
	}
	history := changeToDTO(created)
	if err := r.db.WithContext(ctx).Create(&history).Error; err != nil {
		return 0, errs.NewStorageError("append history", err)
	}

	r.tracker.TrackAggregate(dto.ID, aggregate)
	return dto.ID, nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id uint64) (*order.Order, error) {
	dto, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDomain(dto)
}

// SetStatus applies a transition with a compare-and-set on the stored status.
// A lost race is retried against the fresh row; after maxStatusAttempts the
// conflict is reported.
func (r *GormOrderRepository) SetStatus(
	ctx context.Context,
	id uint64,
	next order.Status,
	actor string,
	at time.Time,
) (order.StatusChange, bool, error) {
	for range maxStatusAttempts {
		dto, err := r.find(ctx, id)
		if errors.Is(err, errs.ErrObjectNotFound) {
			return order.StatusChange{}, false, nil
		}
		if err != nil {
			return order.StatusChange{}, false, err
		}

		aggregate, err := toDomain(dto)
		if err != nil {
			return order.StatusChange{}, false, err
		}
		change, err := aggregate.ChangeStatus(next, actor, at)
		if err != nil {
			return order.StatusChange{}, true, err
		}

		result := r.db.WithContext(ctx).Model(&OrderDTO{}).
			Where("id = ? AND status = ?", id, dto.Status).
			Updates(map[string]any{
				"status":                int(change.To),
				"last_status_change_at": at.UTC(),
			})
		if result.Error != nil {
			return order.StatusChange{}, true, errs.NewStorageError("update status", result.Error)
		}
		if result.RowsAffected == 0 {
			continue
		}

		history := changeToDTO(change)
		if err = r.db.WithContext(ctx).Create(&history).Error; err != nil {
			return order.StatusChange{}, true, errs.NewStorageError("append history", err)
		}
		r.tracker.TrackAggregate(id, aggregate)
		return change, true, nil
	}

	return order.StatusChange{}, true, errs.NewVersionIsInvalidErrorWithCause("status")
}

// ListForEscalation returns new orders due for a staff reminder, oldest first.
// Both thresholds are inclusive.
func (r *GormOrderRepository) ListForEscalation(
	ctx context.Context,
	firstAfter, repeatAfter time.Duration,
	now time.Time,
) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status = ?", int(order.New)).
		Where("created_at <= ?", now.Add(-firstAfter).UTC()).
		Where("last_reminder_at IS NULL OR last_reminder_at <= ?", now.Add(-repeatAfter).UTC()).
		Order("created_at, id").
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewStorageError("list for escalation", err)
	}
	return toDomainList(dtos)
}

// MarkReminded stamps the last reminder time of an order.
func (r *GormOrderRepository) MarkReminded(ctx context.Context, id uint64, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ?", id).
		Update("last_reminder_at", at.UTC())
	if result.Error != nil {
		return errs.NewStorageError("mark reminded", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("order", id)
	}
	return nil
}

// ListCreatedBetween returns orders created in [from, to), oldest first.
func (r *GormOrderRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at, id").
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewStorageError("list created between", err)
	}
	return toDomainList(dtos)
}

// History returns the status history of an order, oldest first.
func (r *GormOrderRepository) History(ctx context.Context, id uint64) ([]order.StatusChange, error) {
	var dtos []StatusChangeDTO
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Order("id").Find(&dtos).Error; err != nil {
		return nil, errs.NewStorageError("history", err)
	}

	changes := make([]order.StatusChange, 0, len(dtos))
	for _, dto := range dtos {
		changes = append(changes, changeFromDTO(dto))
	}
	return changes, nil
}

func (r *GormOrderRepository) find(ctx context.Context, id uint64) (OrderDTO, error) {
	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderDTO{}, errs.NewObjectNotFoundError("order", id)
		}
		return OrderDTO{}, errs.NewStorageError("get order", err)
	}
	return dto, nil
}
