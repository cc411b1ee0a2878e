// Package watermarkrepo remembers the last period each scheduled job ran for.
package watermarkrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WatermarkDTO struct {
	Job     string `gorm:"type:varchar(64);primaryKey"`
	LastRun string `gorm:"type:varchar(16);not null"`
}

func (WatermarkDTO) TableName() string {
	return "job_watermarks"
}

// GormWatermarkRepository implements ports.WatermarkRepository.
type GormWatermarkRepository struct {
	db *gorm.DB
}

func NewGormWatermarkRepository(db *gorm.DB) *GormWatermarkRepository {
	return &GormWatermarkRepository{db: db}
}

func (r *GormWatermarkRepository) LastRun(ctx context.Context, job string) (string, bool, error) {
	var dto WatermarkDTO
	err := r.db.WithContext(ctx).First(&dto, "job = ?", job).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return dto.LastRun, true, nil
}

func (r *GormWatermarkRepository) SetLastRun(ctx context.Context, job, date string) error {
	dto := WatermarkDTO{Job: job, LastRun: date}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_run"}),
		}).
		Create(&dto).Error
}
