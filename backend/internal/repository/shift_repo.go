package repository

import (
	"context"

	"gorm.io/gorm"

	"staffhub/backend/internal/model"
)

// ShiftRepository 班次模板数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Shift, error)
	// Archive 软删除：已有排班实例继续引用，新的分配不再可用
	Archive(ctx context.Context, id string) error
}

type shiftRepo struct {
	db *gorm.DB
}

func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var s model.Shift
	if err := r.db.WithContext(ctx).Where("shift_id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shiftRepo) ListByProject(ctx context.Context, projectID string) ([]model.Shift, error) {
	var list []model.Shift
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("day ASC NULLS FIRST, start_time ASC").
		Find(&list).Error
	return list, err
}

func (r *shiftRepo) Archive(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("shift_id = ?", id).Delete(&model.Shift{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
