// Package contentrepo is the table-backed content queue used when no message
// broker is configured.
package contentrepo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"orderbot/internal/core/ports"
	"orderbot/internal/pkg/errs"

	"gorm.io/gorm"
)

// ContentPostDTO is a staged post. PublishedAt is set once it went out.
type ContentPostDTO struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	Body        string     `gorm:"type:text;not null"`
	StagedAt    time.Time  `gorm:"not null"`
	PublishedAt *time.Time `gorm:"index"`
}

func (ContentPostDTO) TableName() string {
	return "content_posts"
}

// GormContentQueue implements ports.ContentQueue over the content_posts table.
type GormContentQueue struct {
	db    *gorm.DB
	clock func() time.Time
}

func NewGormContentQueue(db *gorm.DB, clock func() time.Time) *GormContentQueue {
	return &GormContentQueue{db: db, clock: clock}
}

func (q *GormContentQueue) Enqueue(ctx context.Context, body string) (ports.ContentPost, error) {
	dto := ContentPostDTO{Body: body, StagedAt: q.clock().UTC()}
	if err := q.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return ports.ContentPost{}, errs.NewStorageError("enqueue content", err)
	}
	return toPort(dto), nil
}

// Consume publishes the oldest unpublished post and marks it published only
// when publish succeeds.
func (q *GormContentQueue) Consume(
	ctx context.Context,
	publish func(ctx context.Context, post ports.ContentPost) error,
) (bool, error) {
	var dto ContentPostDTO
	err := q.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id").
		First(&dto).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	case err != nil:
		return false, errs.NewStorageError("next content", err)
	}

	if err = publish(ctx, toPort(dto)); err != nil {
		return false, err
	}

	now := q.clock().UTC()
	if err = q.db.WithContext(ctx).Model(&ContentPostDTO{}).
		Where("id = ?", dto.ID).
		Update("published_at", now).Error; err != nil {
		return true, errs.NewStorageError("mark content published", err)
	}
	return true, nil
}

func toPort(dto ContentPostDTO) ports.ContentPost {
	return ports.ContentPost{
		ID:       strconv.FormatUint(dto.ID, 10),
		Body:     dto.Body,
		StagedAt: dto.StagedAt,
	}
}
