package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"staffhub/backend/internal/model"
	pkgerrors "staffhub/backend/pkg/errors"
)

// RequestFilter 申请列表过滤条件
type RequestFilter struct {
	CandidateID string
	ProjectID   string
	Status      string
	Type        string
}

// RequestRepository 申请数据访问接口
type RequestRepository interface {
	BatchCreate(ctx context.Context, requests []model.Request) error
	GetByID(ctx context.Context, id string) (*model.Request, error)
	// GetPendingForUpdate 读取并锁定仍为 PENDING 的申请，须在事务内调用
	GetPendingForUpdate(ctx context.Context, id string) (*model.Request, error)
	// Transition 条件状态迁移 from → to，行已不处于 from 时返回 ErrOptimisticLock
	Transition(ctx context.Context, id, from, to string, decidedBy *string, at time.Time) error
	HasPendingForRoster(ctx context.Context, rosterID string, types []string) (bool, error)
	List(ctx context.Context, filter RequestFilter, offset, limit int) ([]model.Request, int64, error)
}

type requestRepo struct {
	db *gorm.DB
}

func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) BatchCreate(ctx context.Context, requests []model.Request) error {
	if len(requests) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&requests).Error
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (*model.Request, error) {
	var req model.Request
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) GetPendingForUpdate(ctx context.Context, id string) (*model.Request, error) {
	var req model.Request
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ? AND status = ?", id, model.RequestStatusPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) Transition(ctx context.Context, id, from, to string, decidedBy *string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Request{}).
		Where("request_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"decided_by": decidedBy,
			"decided_at": at,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *requestRepo) HasPendingForRoster(ctx context.Context, rosterID string, types []string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Request{}).
		Where("status = ? AND type IN ?", model.RequestStatusPending, types).
		Where(datatypes.JSONQuery("data").Equals(rosterID, "roster_id")).
		Count(&count).Error
	return count > 0, err
}

func (r *requestRepo) List(ctx context.Context, filter RequestFilter, offset, limit int) ([]model.Request, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Request{})
	if filter.CandidateID != "" {
		query = query.Where("candidate_id = ?", filter.CandidateID)
	}
	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Request
	err := query.
		Preload("Candidate").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, total, err
}
