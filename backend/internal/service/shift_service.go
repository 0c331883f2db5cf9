package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffhub/backend/internal/attendance"
	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/repository"
)

// ── 班次模板业务错误 ──

var (
	ErrShiftNotFound = errors.New("班次不存在")
	ErrShiftInvalid  = errors.New("班次时间无效")
)

// ShiftService 班次模板业务接口
type ShiftService interface {
	Create(ctx context.Context, projectID string, req *dto.CreateShiftRequest, consultantID string) (*dto.ShiftResponse, error)
	List(ctx context.Context, projectID string, p Principal) ([]dto.ShiftResponse, error)
	Archive(ctx context.Context, shiftID, consultantID string) error
}

type shiftService struct {
	repo   *repository.Repository
	perm   PermissionService
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, perm PermissionService, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, perm: perm, logger: logger}
}

func (s *shiftService) Create(ctx context.Context, projectID string, req *dto.CreateShiftRequest, consultantID string) (*dto.ShiftResponse, error) {
	if err := requireProjectManager(ctx, s.repo, s.perm, consultantID, projectID); err != nil {
		return nil, err
	}
	if err := attendance.ValidateShiftTimes(req.StartTime, req.EndTime, req.HalfDayStartTime, req.HalfDayEndTime); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShiftInvalid, err)
	}

	headcount := req.Headcount
	if headcount == 0 {
		headcount = 1
	}
	shift := &model.Shift{
		ProjectID:        projectID,
		Day:              req.Day,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		HalfDayStartTime: req.HalfDayStartTime,
		HalfDayEndTime:   req.HalfDayEndTime,
		BreakDuration:    req.BreakDuration,
		Headcount:        headcount,
		CreatedBy:        &consultantID,
	}
	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("创建班次失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	resp := toShiftResponse(shift)
	return &resp, nil
}

func (s *shiftService) List(ctx context.Context, projectID string, p Principal) ([]dto.ShiftResponse, error) {
	if err := requireProjectReader(ctx, s.repo, s.perm, p, projectID); err != nil {
		return nil, err
	}
	shifts, err := s.repo.Shift.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, toShiftResponse(&shifts[i]))
	}
	return result, nil
}

// Archive 软删除，已生成的排班实例不受影响
func (s *shiftService) Archive(ctx context.Context, shiftID, consultantID string) error {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShiftNotFound
		}
		return err
	}
	if err := requireProjectManager(ctx, s.repo, s.perm, consultantID, shift.ProjectID); err != nil {
		return err
	}
	if err := s.repo.Shift.Archive(ctx, shiftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShiftNotFound
		}
		return err
	}
	s.logger.Info("班次已归档", zap.String("shift_id", shiftID), zap.String("by", consultantID))
	return nil
}

func toShiftResponse(shift *model.Shift) dto.ShiftResponse {
	overnight := false
	if start, err := attendance.ParseClock(shift.StartTime); err == nil {
		if end, err := attendance.ParseClock(shift.EndTime); err == nil {
			overnight = end <= start
		}
	}
	return dto.ShiftResponse{
		ShiftID:          shift.ShiftID,
		ProjectID:        shift.ProjectID,
		Day:              shift.Day,
		StartTime:        shift.StartTime,
		EndTime:          shift.EndTime,
		HalfDayStartTime: shift.HalfDayStartTime,
		HalfDayEndTime:   shift.HalfDayEndTime,
		BreakDuration:    shift.BreakDuration,
		Headcount:        shift.Headcount,
		Overnight:        overnight,
	}
}

// ── 项目级权限辅助（多个 Service 共用） ──

// requireProjectManager 项目存在且调用方可管理该项目
func requireProjectManager(ctx context.Context, repo *repository.Repository, perm PermissionService, consultantID, projectID string) error {
	if _, err := repo.Project.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	ok, err := perm.CanManageProject(ctx, consultantID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProjectForbidden
	}
	return nil
}

// requireProjectReader 项目存在且调用方可查看：候选人须已分配到项目，顾问须有读权限
func requireProjectReader(ctx context.Context, repo *repository.Repository, perm PermissionService, p Principal, projectID string) error {
	if _, err := repo.Project.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if p.IsCandidate() {
		if _, err := repo.Assign.Get(ctx, p.ID, projectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectForbidden
			}
			return err
		}
		return nil
	}
	ok, err := perm.CanReadProject(ctx, p.ID, projectID)
	if err != nil && !errors.Is(err, ErrConsultantNotFound) {
		return err
	}
	if !ok {
		return ErrProjectForbidden
	}
	return nil
}
