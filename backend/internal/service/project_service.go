package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/permission"
	"staffhub/backend/internal/repository"
)

// ── 项目模块业务错误 ──

var (
	ErrProjectNotFound  = errors.New("项目不存在")
	ErrProjectForbidden = errors.New("无权操作该项目")
	ErrInvalidDateRange = errors.New("日期区间无效")
)

// ProjectService 项目业务接口
type ProjectService interface {
	Create(ctx context.Context, req *dto.CreateProjectRequest, consultantID string) (*dto.ProjectResponse, error)
	Get(ctx context.Context, projectID string, p Principal) (*dto.ProjectResponse, error)
	AddManager(ctx context.Context, projectID string, req *dto.AddManagerRequest, consultantID string) (*dto.ProjectResponse, error)
}

type projectService struct {
	repo   *repository.Repository
	perm   PermissionService
	logger *zap.Logger
}

// NewProjectService 创建 ProjectService 实例
func NewProjectService(repo *repository.Repository, perm PermissionService, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, perm: perm, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *projectService) Create(ctx context.Context, req *dto.CreateProjectRequest, consultantID string) (*dto.ProjectResponse, error) {
	ok, err := s.perm.HasPermission(ctx, consultantID, permission.CreateProjects)
	if err != nil && !errors.Is(err, ErrConsultantNotFound) {
		return nil, err
	}
	if !ok {
		return nil, ErrProjectForbidden
	}

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:             req.Name,
		ClientName:       req.ClientName,
		StartDate:        start,
		EndDate:          end,
		NoticePeriodDays: req.NoticePeriodDays,
		CreatedBy:        &consultantID,
	}

	// 创建者自动成为 CLIENT_HOLDER
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Project.Create(ctx, project); err != nil {
			return err
		}
		return tx.Manage.Upsert(ctx, &model.Manage{
			ConsultantID: consultantID,
			ProjectID:    project.ProjectID,
			Role:         model.ManageRoleClientHolder,
		})
	})
	if err != nil {
		s.logger.Error("创建项目失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("项目已创建", zap.String("project_id", project.ProjectID), zap.String("by", consultantID))
	return s.load(ctx, project.ProjectID)
}

// ────────────────────── Get ──────────────────────

func (s *projectService) Get(ctx context.Context, projectID string, p Principal) (*dto.ProjectResponse, error) {
	if err := requireProjectReader(ctx, s.repo, s.perm, p, projectID); err != nil {
		return nil, err
	}
	return s.load(ctx, projectID)
}

// ────────────────────── AddManager ──────────────────────

func (s *projectService) AddManager(ctx context.Context, projectID string, req *dto.AddManagerRequest, consultantID string) (*dto.ProjectResponse, error) {
	if err := requireProjectManager(ctx, s.repo, s.perm, consultantID, projectID); err != nil {
		return nil, err
	}
	if _, err := s.repo.Consultant.GetByID(ctx, req.ConsultantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConsultantNotFound
		}
		return nil, err
	}

	if err := s.repo.Manage.Upsert(ctx, &model.Manage{
		ConsultantID: req.ConsultantID,
		ProjectID:    projectID,
		Role:         req.Role,
	}); err != nil {
		s.logger.Error("添加项目管理人失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return s.load(ctx, projectID)
}

// ── 内部辅助 ──

func (s *projectService) getProject(ctx context.Context, projectID string) (*model.Project, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *projectService) load(ctx context.Context, projectID string) (*dto.ProjectResponse, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	managers, err := s.repo.Manage.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProjectResponse{
		ProjectID:        project.ProjectID,
		Name:             project.Name,
		ClientName:       project.ClientName,
		StartDate:        model.FormatDate(project.StartDate),
		EndDate:          model.FormatDate(project.EndDate),
		NoticePeriodDays: project.NoticePeriodDays,
		Managers:         make([]dto.ManagerBrief, 0, len(managers)),
		CreatedAt:        project.CreatedAt.Format(time.RFC3339),
	}
	for _, m := range managers {
		brief := dto.ManagerBrief{ConsultantID: m.ConsultantID, Role: m.Role}
		if m.Consultant != nil {
			brief.Name = m.Consultant.Name
		}
		resp.Managers = append(resp.Managers, brief)
	}
	return resp, nil
}

// parseDateRange 解析 YYYY-MM-DD 闭区间，要求 start <= end
func parseDateRange(from, to string) (start, end time.Time, err error) {
	start, err = model.ParseDate(from)
	if err != nil {
		return start, end, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}
	end, err = model.ParseDate(to)
	if err != nil {
		return start, end, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("%w: 开始日期晚于结束日期", ErrInvalidDateRange)
	}
	return start, end, nil
}
