// Package sessionrepo stores conversation sessions in a keyed table.
package sessionrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"orderbot/internal/core/domain/model/session"
	"orderbot/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionDTO is one row per user. Fields holds the collected values as JSON.
type SessionDTO struct {
	UserID    string    `gorm:"type:varchar(64);primaryKey"`
	Locale    string    `gorm:"type:varchar(8);not null"`
	Step      string    `gorm:"type:varchar(32);not null"`
	FlowID    string    `gorm:"type:varchar(36)"`
	Editing   bool      `gorm:"not null;default:false"`
	Retries   int       `gorm:"not null;default:0"`
	Fields    string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"index;not null;autoUpdateTime:false"`
}

func (SessionDTO) TableName() string {
	return "sessions"
}

// GormSessionRepository implements ports.SessionRepository.
type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Get(ctx context.Context, userID string) (*session.Session, error) {
	var dto SessionDTO
	if err := r.db.WithContext(ctx).First(&dto, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("session", userID)
		}
		return nil, err
	}
	return toDomain(dto)
}

// Save upserts the session row.
func (r *GormSessionRepository) Save(ctx context.Context, s *session.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	dto, err := fromDomain(s)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&dto).Error
}

func (r *GormSessionRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("updated_at < ?", before.UTC()).Delete(&SessionDTO{})
	return result.RowsAffected, result.Error
}

func fromDomain(s *session.Session) (SessionDTO, error) {
	snap := s.Snapshot()
	fields, err := json.Marshal(snap.Fields)
	if err != nil {
		return SessionDTO{}, err
	}
	return SessionDTO{
		UserID:    snap.UserID,
		Locale:    snap.Locale,
		Step:      snap.Step,
		FlowID:    snap.FlowID,
		Editing:   snap.Editing,
		Retries:   snap.Retries,
		Fields:    string(fields),
		UpdatedAt: snap.UpdatedAt.UTC(),
	}, nil
}

func toDomain(dto SessionDTO) (*session.Session, error) {
	var fields session.CollectedFields
	if dto.Fields != "" {
		if err := json.Unmarshal([]byte(dto.Fields), &fields); err != nil {
			return nil, errs.NewValueIsInvalidErrorWithCause("fields", err)
		}
	}
	return session.RestoreSession(session.Snapshot{
		UserID:    dto.UserID,
		Locale:    dto.Locale,
		Step:      dto.Step,
		Fields:    fields,
		FlowID:    dto.FlowID,
		Editing:   dto.Editing,
		Retries:   dto.Retries,
		UpdatedAt: dto.UpdatedAt,
	})
}
