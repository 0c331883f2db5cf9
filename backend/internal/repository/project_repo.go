package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"staffhub/backend/internal/model"
	pkgerrors "staffhub/backend/pkg/errors"
)

// ProjectRepository 项目数据访问接口
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
}

// ManageRepository 项目管理关系数据访问接口
type ManageRepository interface {
	Upsert(ctx context.Context, manage *model.Manage) error
	Get(ctx context.Context, consultantID, projectID string) (*model.Manage, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Manage, error)
}

// AssignRepository 候选人分配数据访问接口
type AssignRepository interface {
	Upsert(ctx context.Context, assign *model.Assign) error
	Get(ctx context.Context, candidateID, projectID string) (*model.Assign, error)
	UpdateEndDate(ctx context.Context, candidateID, projectID string, endDate time.Time) error
}

// ── Project Repository 实现 ──

type projectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	if err := r.db.WithContext(ctx).Where("project_id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ── Manage Repository 实现 ──

type manageRepo struct {
	db *gorm.DB
}

func NewManageRepo(db *gorm.DB) ManageRepository {
	return &manageRepo{db: db}
}

// Upsert 同一顾问在同一项目只保留一条记录，重复添加时更新角色
func (r *manageRepo) Upsert(ctx context.Context, manage *model.Manage) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "consultant_id"}, {Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).
		Create(manage).Error
}

func (r *manageRepo) Get(ctx context.Context, consultantID, projectID string) (*model.Manage, error) {
	var m model.Manage
	err := r.db.WithContext(ctx).
		Where("consultant_id = ? AND project_id = ?", consultantID, projectID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *manageRepo) ListByProject(ctx context.Context, projectID string) ([]model.Manage, error) {
	var list []model.Manage
	err := r.db.WithContext(ctx).
		Preload("Consultant").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// ── Assign Repository 实现 ──

type assignRepo struct {
	db *gorm.DB
}

func NewAssignRepo(db *gorm.DB) AssignRepository {
	return &assignRepo{db: db}
}

// Upsert 重复分配时把区间扩展为两者的并集
func (r *assignRepo) Upsert(ctx context.Context, assign *model.Assign) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "candidate_id"}, {Name: "project_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"start_date": gorm.Expr("LEAST(assigns.start_date, EXCLUDED.start_date)"),
				"end_date":   gorm.Expr("GREATEST(assigns.end_date, EXCLUDED.end_date)"),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(assign).Error
}

func (r *assignRepo) Get(ctx context.Context, candidateID, projectID string) (*model.Assign, error) {
	var a model.Assign
	err := r.db.WithContext(ctx).
		Where("candidate_id = ? AND project_id = ?", candidateID, projectID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignRepo) UpdateEndDate(ctx context.Context, candidateID, projectID string, endDate time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Assign{}).
		Where("candidate_id = ? AND project_id = ?", candidateID, projectID).
		Updates(map[string]interface{}{
			"end_date":   model.FormatDate(endDate),
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
