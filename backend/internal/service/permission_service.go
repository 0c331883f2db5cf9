package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffhub/backend/internal/model"
	"staffhub/backend/internal/permission"
	"staffhub/backend/internal/repository"
)

var (
	ErrConsultantNotFound = errors.New("顾问不存在")
)

// PermissionService 顾问权限判定
type PermissionService interface {
	Permissions(ctx context.Context, consultantID string) (permission.Set, error)
	HasPermission(ctx context.Context, consultantID string, perm permission.Permission) (bool, error)
	// CanManageProject CLIENT_HOLDER 或拥有 CAN_EDIT_ALL_PROJECTS
	CanManageProject(ctx context.Context, consultantID, projectID string) (bool, error)
	// CanReadProject 任一管理角色或拥有 CAN_READ_ALL_PROJECTS / CAN_EDIT_ALL_PROJECTS
	CanReadProject(ctx context.Context, consultantID, projectID string) (bool, error)
}

type permissionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPermissionService 创建 PermissionService 实例
func NewPermissionService(repo *repository.Repository, logger *zap.Logger) PermissionService {
	return &permissionService{repo: repo, logger: logger}
}

func (s *permissionService) Permissions(ctx context.Context, consultantID string) (permission.Set, error) {
	return consultantPermissions(ctx, s.repo, consultantID)
}

func (s *permissionService) HasPermission(ctx context.Context, consultantID string, perm permission.Permission) (bool, error) {
	set, err := consultantPermissions(ctx, s.repo, consultantID)
	if err != nil {
		return false, err
	}
	return set.Has(perm), nil
}

func (s *permissionService) CanManageProject(ctx context.Context, consultantID, projectID string) (bool, error) {
	return canManageProject(ctx, s.repo, consultantID, projectID)
}

func (s *permissionService) CanReadProject(ctx context.Context, consultantID, projectID string) (bool, error) {
	set, err := consultantPermissions(ctx, s.repo, consultantID)
	if err != nil {
		return false, err
	}
	if set.Has(permission.ReadAllProjects) || set.Has(permission.EditAllProjects) {
		return true, nil
	}
	_, err = s.repo.Manage.Get(ctx, consultantID, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ── 事务内可复用的判定函数 ──

func consultantPermissions(ctx context.Context, repo *repository.Repository, consultantID string) (permission.Set, error) {
	c, err := repo.Consultant.GetByID(ctx, consultantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return permission.Set{}, ErrConsultantNotFound
		}
		return permission.Set{}, err
	}
	return permission.ForConsultant(c), nil
}

func canManageProject(ctx context.Context, repo *repository.Repository, consultantID, projectID string) (bool, error) {
	m, err := repo.Manage.Get(ctx, consultantID, projectID)
	switch {
	case err == nil && m.Role == model.ManageRoleClientHolder:
		return true, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	set, err := consultantPermissions(ctx, repo, consultantID)
	if err != nil {
		if errors.Is(err, ErrConsultantNotFound) {
			return false, nil
		}
		return false, err
	}
	return set.Has(permission.EditAllProjects), nil
}
