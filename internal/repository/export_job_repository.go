package repository

import (
	"context"
	"kwizzy_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ExportJobRepository struct {
	DB *gorm.DB
}

func NewExportJobRepository(db *gorm.DB) *ExportJobRepository {
	return &ExportJobRepository{DB: db}
}

func (r *ExportJobRepository) Create(ctx context.Context, job *model.ExportJob) error {
	return r.DB.WithContext(ctx).Create(job).Error
}

func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*model.ExportJob, error) {
	var job model.ExportJob
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ExportJobRepository) ListByUser(ctx context.Context, userID uint) ([]model.ExportJob, error) {
	var jobs []model.ExportJob
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

func (r *ExportJobRepository) UpdateStatus(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&model.ExportJob{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ExportJobRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]model.ExportJob, error) {
	var jobs []model.ExportJob
	err := r.DB.WithContext(ctx).Where("created_at < ?", cutoff).Find(&jobs).Error
	return jobs, err
}

func (r *ExportJobRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&model.ExportJob{}).Error
}
