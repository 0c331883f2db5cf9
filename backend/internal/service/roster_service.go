package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffhub/backend/internal/attendance"
	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/repository"
	"staffhub/backend/pkg/clock"
	pkgerrors "staffhub/backend/pkg/errors"
	"staffhub/backend/pkg/storage"
)

// ── 排班模块业务错误 ──

var (
	ErrRosterNotFound       = errors.New("排班不存在")
	ErrRosterForbidden      = errors.New("无权操作该排班")
	ErrRosterNotDeletable   = errors.New("只能删除尚未开始且未打卡的排班")
	ErrCandidateNotFound    = errors.New("候选人不存在")
	ErrClockInImageNotFound = errors.New("打卡照片不存在")
)

// RosterService 排班实例业务接口
type RosterService interface {
	// Assign 按班次规则枚举日期批量生成排班，重复的 (候选人, 班次, 日期) 被跳过
	Assign(ctx context.Context, projectID string, req *dto.AssignRequest, consultantID string) (*dto.AssignResponse, error)
	ListMine(ctx context.Context, candidateID string, req *dto.RosterListRequest) ([]dto.RosterResponse, error)
	ListByProject(ctx context.Context, projectID string, req *dto.RosterListRequest, p Principal) ([]dto.RosterResponse, error)
	Delete(ctx context.Context, rosterID, consultantID string) error
	ClockInImage(ctx context.Context, rosterID string, p Principal) ([]byte, string, error)
}

type rosterService struct {
	repo   *repository.Repository
	perm   PermissionService
	store  storage.Storage
	clk    clock.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(
	repo *repository.Repository,
	perm PermissionService,
	store storage.Storage,
	clk clock.Clock,
	loc *time.Location,
	logger *zap.Logger,
) RosterService {
	return &rosterService{repo: repo, perm: perm, store: store, clk: clk, loc: loc, logger: logger}
}

// ────────────────────── Assign ──────────────────────

func (s *rosterService) Assign(ctx context.Context, projectID string, req *dto.AssignRequest, consultantID string) (*dto.AssignResponse, error) {
	if err := requireProjectManager(ctx, s.repo, s.perm, consultantID, projectID); err != nil {
		return nil, err
	}
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if start.Before(project.StartDate) || end.After(project.EndDate) {
		return nil, fmt.Errorf("%w: 分配区间必须在项目周期 %s ~ %s 内",
			ErrInvalidDateRange, model.FormatDate(project.StartDate), model.FormatDate(project.EndDate))
	}

	if _, err := s.repo.Candidate.GetByID(ctx, req.CandidateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, err
	}

	// 1. 枚举每个班次适用的日期
	var rosters []model.Roster
	seen := make(map[string]bool, len(req.ShiftIDs))
	for _, shiftID := range req.ShiftIDs {
		if seen[shiftID] {
			continue
		}
		seen[shiftID] = true

		shift, err := s.repo.Shift.GetByID(ctx, shiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrShiftNotFound
			}
			return nil, err
		}
		if shift.ProjectID != projectID {
			return nil, ErrShiftNotFound
		}
		for _, date := range attendance.EnumerateDates(shift, start, end) {
			rosters = append(rosters, model.Roster{
				CandidateID: req.CandidateID,
				ShiftID:     shift.ShiftID,
				ProjectID:   projectID,
				ShiftDate:   date,
				ShiftType:   model.ShiftTypeFullDay,
			})
		}
	}

	// 2. 分配记录与排班实例同一事务写入
	var created int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Assign.Upsert(ctx, &model.Assign{
			CandidateID: req.CandidateID,
			ProjectID:   projectID,
			StartDate:   start,
			EndDate:     end,
			CreatedBy:   &consultantID,
		}); err != nil {
			return err
		}
		n, err := tx.Roster.BatchCreateSkipDuplicates(ctx, rosters)
		created = n
		return err
	})
	if err != nil {
		s.logger.Error("生成排班失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("排班已生成",
		zap.String("project_id", projectID),
		zap.String("candidate_id", req.CandidateID),
		zap.Int("enumerated", len(rosters)),
		zap.Int64("created", created),
	)
	return &dto.AssignResponse{Enumerated: len(rosters), Created: created}, nil
}

// ────────────────────── List ──────────────────────

func (s *rosterService) ListMine(ctx context.Context, candidateID string, req *dto.RosterListRequest) ([]dto.RosterResponse, error) {
	filter, err := rosterFilter(req)
	if err != nil {
		return nil, err
	}
	filter.CandidateID = candidateID
	return s.list(ctx, filter)
}

func (s *rosterService) ListByProject(ctx context.Context, projectID string, req *dto.RosterListRequest, p Principal) ([]dto.RosterResponse, error) {
	if err := requireProjectReader(ctx, s.repo, s.perm, p, projectID); err != nil {
		return nil, err
	}
	filter, err := rosterFilter(req)
	if err != nil {
		return nil, err
	}
	filter.ProjectID = projectID
	filter.CandidateID = req.CandidateID
	if p.IsCandidate() {
		filter.CandidateID = p.ID
	}
	return s.list(ctx, filter)
}

func (s *rosterService) list(ctx context.Context, filter repository.RosterFilter) ([]dto.RosterResponse, error) {
	rosters, err := s.repo.Roster.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.clk.Now()
	result := make([]dto.RosterResponse, 0, len(rosters))
	for i := range rosters {
		result = append(result, toRosterResponse(&rosters[i], s.loc, now, s.logger))
	}
	return result, nil
}

func rosterFilter(req *dto.RosterListRequest) (repository.RosterFilter, error) {
	var filter repository.RosterFilter
	if req == nil {
		return filter, nil
	}
	var err error
	if req.From != "" {
		if filter.From, err = model.ParseDate(req.From); err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
		}
	}
	if req.To != "" {
		if filter.To, err = model.ParseDate(req.To); err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
		}
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return filter, fmt.Errorf("%w: 开始日期晚于结束日期", ErrInvalidDateRange)
	}
	return filter, nil
}

// ────────────────────── Delete ──────────────────────

func (s *rosterService) Delete(ctx context.Context, rosterID, consultantID string) error {
	roster, err := s.getRoster(ctx, rosterID)
	if err != nil {
		return err
	}
	ok, err := s.perm.CanManageProject(ctx, consultantID, roster.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRosterForbidden
	}
	if roster.ClockInTime != nil || !rosterInFuture(roster, s.loc, s.clk.Now()) {
		return ErrRosterNotDeletable
	}

	if err := s.repo.Roster.Delete(ctx, rosterID); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrRosterNotDeletable
		}
		return err
	}
	s.logger.Info("排班已删除", zap.String("roster_id", rosterID), zap.String("by", consultantID))
	return nil
}

// ────────────────────── ClockInImage ──────────────────────

func (s *rosterService) ClockInImage(ctx context.Context, rosterID string, p Principal) ([]byte, string, error) {
	roster, err := s.getRoster(ctx, rosterID)
	if err != nil {
		return nil, "", err
	}
	if p.IsCandidate() {
		if roster.CandidateID != p.ID {
			return nil, "", ErrRosterForbidden
		}
	} else {
		ok, err := s.perm.CanReadProject(ctx, p.ID, roster.ProjectID)
		if err != nil && !errors.Is(err, ErrConsultantNotFound) {
			return nil, "", err
		}
		if !ok {
			return nil, "", ErrRosterForbidden
		}
	}
	if roster.ClockInTime == nil {
		return nil, "", ErrClockInImageNotFound
	}

	body, contentType, err := s.store.Get(ctx, storage.ClockInImageKey(roster.CandidateID, roster.RosterID))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrObjectNotFound) {
			return nil, "", ErrClockInImageNotFound
		}
		s.logger.Error("读取打卡照片失败", zap.String("roster_id", rosterID), zap.Error(err))
		return nil, "", err
	}
	return body, contentType, nil
}

// ── 内部辅助 ──

func (s *rosterService) getRoster(ctx context.Context, rosterID string) (*model.Roster, error) {
	roster, err := s.repo.Roster.GetByID(ctx, rosterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRosterNotFound
		}
		return nil, err
	}
	return roster, nil
}

// rosterInFuture 实例的有效开始是否仍在 now 之后；缺少班次信息时按日期判断
func rosterInFuture(r *model.Roster, loc *time.Location, now time.Time) bool {
	if r.Shift != nil {
		if w, err := attendance.ShiftWindow(r.Shift, r.ShiftType, r.ShiftDate, loc); err == nil {
			return w.Start.After(now)
		}
	}
	return r.ShiftDate.After(attendance.CivilDate(now, loc))
}

func toRosterResponse(r *model.Roster, loc *time.Location, now time.Time, logger *zap.Logger) dto.RosterResponse {
	resp := dto.RosterResponse{
		RosterID:     r.RosterID,
		CandidateID:  r.CandidateID,
		ShiftID:      r.ShiftID,
		ProjectID:    r.ProjectID,
		ShiftDate:    model.FormatDate(r.ShiftDate),
		ShiftType:    r.ShiftType,
		Status:       r.Status,
		Leave:        r.Leave,
		ClockInTime:  r.ClockInTime,
		ClockOutTime: r.ClockOutTime,
	}
	if r.Candidate != nil {
		resp.CandidateName = r.Candidate.Name
	}

	if r.Status != nil {
		resp.DisplayStatus = *r.Status
	}
	if r.Shift == nil {
		return resp
	}
	w, err := attendance.ShiftWindow(r.Shift, r.ShiftType, r.ShiftDate, loc)
	if err != nil {
		logger.Warn("计算班次窗口失败", zap.String("roster_id", r.RosterID), zap.Error(err))
		return resp
	}
	start, end := w.Start, w.End
	resp.StartAt = &start
	resp.EndAt = &end
	resp.DisplayStatus = attendance.DisplayStatus(r, w, now)
	return resp
}
