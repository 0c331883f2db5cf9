package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffhub/backend/internal/attendance"
	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/repository"
	"staffhub/backend/pkg/clock"
	pkgerrors "staffhub/backend/pkg/errors"
	"staffhub/backend/pkg/imageutil"
	"staffhub/backend/pkg/storage"
)

// ── 申请模块业务错误 ──

var (
	ErrRequestNotFound     = errors.New("申请不存在或已处理")
	ErrRequestForbidden    = errors.New("无权处理该申请")
	ErrRequestInvalid      = errors.New("申请参数无效")
	ErrLeaveAlreadyApplied = errors.New("该排班已请假或有待审批的请假申请")
	ErrAttachmentUpload    = errors.New("附件上传失败")
)

// RequestService 申请生命周期：PENDING → APPROVED | REJECTED | CANCELLED
type RequestService interface {
	// Submit 提交申请。病假按涉及的项目拆分为多条，每个项目由各自的管理人审批
	Submit(ctx context.Context, candidateID string, req *dto.SubmitRequest) ([]dto.RequestResponse, error)
	// Approve 在单个事务内锁定待审批申请、应用副作用并置为 APPROVED
	Approve(ctx context.Context, requestID, approverID string) (*dto.RequestResponse, error)
	Reject(ctx context.Context, requestID, approverID string) (*dto.RequestResponse, error)
	Cancel(ctx context.Context, requestID, candidateID string) (*dto.RequestResponse, error)

	Get(ctx context.Context, requestID string, p Principal) (*dto.RequestResponse, error)
	ListMine(ctx context.Context, candidateID string, req *dto.RequestListRequest) ([]dto.RequestResponse, int64, error)
	ListByProject(ctx context.Context, projectID string, req *dto.RequestListRequest, consultantID string) ([]dto.RequestResponse, int64, error)
}

type requestService struct {
	repo   *repository.Repository
	perm   PermissionService
	store  storage.Storage
	clk    clock.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewRequestService 创建 RequestService 实例
func NewRequestService(
	repo *repository.Repository,
	perm PermissionService,
	store storage.Storage,
	clk clock.Clock,
	loc *time.Location,
	logger *zap.Logger,
) RequestService {
	return &requestService{repo: repo, perm: perm, store: store, clk: clk, loc: loc, logger: logger}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRequestInvalid, fmt.Sprintf(format, args...))
}

// ════════════════════════════════════════════════════════════
// Submit
// ════════════════════════════════════════════════════════════

func (s *requestService) Submit(ctx context.Context, candidateID string, req *dto.SubmitRequest) ([]dto.RequestResponse, error) {
	var (
		requests []model.Request
		err      error
	)
	switch req.Type {
	case model.RequestTypeClaim:
		requests, err = s.buildClaim(ctx, candidateID, req)
	case model.RequestTypePaidLeave, model.RequestTypeUnpaidLeave:
		requests, err = s.buildLeave(ctx, candidateID, req)
	case model.RequestTypeMedicalLeave:
		requests, err = s.buildMedicalLeave(ctx, candidateID, req)
	case model.RequestTypeResignation:
		requests, err = s.buildResignation(ctx, candidateID, req)
	case model.RequestTypeCancel:
		requests, err = s.buildCancel(ctx, candidateID, req)
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownRequestType, req.Type)
	}
	if err != nil {
		return nil, err
	}

	for i := range requests {
		requests[i].CandidateID = candidateID
		requests[i].Type = req.Type
		requests[i].Status = model.RequestStatusPending
	}
	if err := s.repo.Request.BatchCreate(ctx, requests); err != nil {
		s.logger.Error("创建申请失败", zap.String("type", req.Type), zap.Error(err))
		return nil, err
	}

	s.logger.Info("申请已提交",
		zap.String("candidate_id", candidateID),
		zap.String("type", req.Type),
		zap.Int("count", len(requests)),
	)
	result := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toRequestResponse(&requests[i]))
	}
	return result, nil
}

func (s *requestService) buildClaim(ctx context.Context, candidateID string, req *dto.SubmitRequest) ([]model.Request, error) {
	roster, err := s.ownedRoster(ctx, candidateID, req.RosterID)
	if err != nil {
		return nil, err
	}
	if req.ClaimType == "" {
		return nil, invalid("claim_type 不能为空")
	}
	if req.ClaimAmount <= 0 {
		return nil, invalid("claim_amount 必须大于 0")
	}

	data := &model.ClaimData{
		RosterID:    roster.RosterID,
		ClaimType:   req.ClaimType,
		ClaimAmount: req.ClaimAmount,
		Description: req.Description,
	}
	if req.ImageData != "" {
		key := storage.ClaimReceiptKey(candidateID, uuid.New().String())
		if err := s.uploadAttachment(ctx, key, req.ImageData); err != nil {
			return nil, err
		}
		data.ReceiptKey = &key
	}
	return single(roster.ProjectID, data)
}

func (s *requestService) buildLeave(ctx context.Context, candidateID string, req *dto.SubmitRequest) ([]model.Request, error) {
	roster, err := s.ownedRoster(ctx, candidateID, req.RosterID)
	if err != nil {
		return nil, err
	}
	if req.Reason == "" {
		return nil, invalid("reason 不能为空")
	}
	if roster.ClockInTime != nil {
		return nil, invalid("该排班已签到，不能请假")
	}
	if roster.Leave != nil {
		return nil, ErrLeaveAlreadyApplied
	}

	switch req.LeaveDuration {
	case model.ShiftTypeFullDay:
	case model.ShiftTypeFirstHalf, model.ShiftTypeSecondHalf:
		if roster.ShiftType != model.ShiftTypeFullDay {
			return nil, invalid("半天假只能针对全天排班")
		}
		if roster.Shift == nil || !roster.Shift.HasHalfDay() {
			return nil, invalid("该班次未定义半天时间")
		}
	default:
		return nil, invalid("leave_duration 必须是 FULL_DAY、FIRST_HALF 或 SECOND_HALF")
	}

	pending, err := s.repo.Request.HasPendingForRoster(ctx, roster.RosterID,
		[]string{model.RequestTypePaidLeave, model.RequestTypeUnpaidLeave})
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrLeaveAlreadyApplied
	}

	return single(roster.ProjectID, &model.LeaveData{
		RosterID:      roster.RosterID,
		LeaveDuration: req.LeaveDuration,
		Reason:        req.Reason,
	})
}

func (s *requestService) buildMedicalLeave(ctx context.Context, candidateID string, req *dto.SubmitRequest) ([]model.Request, error) {
	if req.StartDate == "" {
		return nil, invalid("start_date 不能为空")
	}
	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		return nil, invalid("start_date 格式必须为 YYYY-MM-DD")
	}
	if req.NumberOfDays < 1 {
		return nil, invalid("number_of_days 至少为 1")
	}
	if req.ImageData == "" {
		return nil, invalid("病假必须上传病假单")
	}
	end := start.AddDate(0, 0, req.NumberOfDays-1)

	// 按项目拆分：每个有排班的项目一条申请
	rosters, err := s.repo.Roster.List(ctx, repository.RosterFilter{CandidateID: candidateID, From: start, To: end})
	if err != nil {
		return nil, err
	}
	var projects []string
	seen := make(map[string]bool)
	for _, r := range rosters {
		if !seen[r.ProjectID] {
			seen[r.ProjectID] = true
			projects = append(projects, r.ProjectID)
		}
	}
	if len(projects) == 0 {
		return nil, invalid("%s 起 %d 天内没有排班", req.StartDate, req.NumberOfDays)
	}

	key := storage.MedicalCertificateKey(candidateID, uuid.New().String())
	if err := s.uploadAttachment(ctx, key, req.ImageData); err != nil {
		return nil, err
	}

	data := &model.MedicalLeaveData{
		StartDate:    model.FormatDate(start),
		NumberOfDays: req.NumberOfDays,
		ImageKey:     key,
	}
	raw, err := model.EncodeRequestData(data)
	if err != nil {
		return nil, err
	}
	requests := make([]model.Request, 0, len(projects))
	for _, projectID := range projects {
		requests = append(requests, model.Request{ProjectID: projectID, Data: raw})
	}
	return requests, nil
}

func (s *requestService) buildResignation(ctx context.Context, candidateID string, req *dto.SubmitRequest) ([]model.Request, error) {
	if req.ProjectID == "" {
		return nil, invalid("project_id 不能为空")
	}
	if req.Reason == "" {
		return nil, invalid("reason 不能为空")
	}
	if req.LastDay == "" {
		return nil, invalid("last_day 不能为空")
	}
	lastDay, err := model.ParseDate(req.LastDay)
	if err != nil {
		return nil, invalid("last_day 格式必须为 YYYY-MM-DD")
	}

	assign, err := s.repo.Assign.Get(ctx, candidateID, req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("未分配到该项目")
		}
		return nil, err
	}
	project, err := s.repo.Project.GetByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	if err := checkNoticePeriod(lastDay, attendance.CivilDate(s.clk.Now(), s.loc), assign.EndDate, project.NoticePeriodDays); err != nil {
		return nil, err
	}

	return single(req.ProjectID, &model.ResignationData{
		LastDay: model.FormatDate(lastDay),
		Reason:  req.Reason,
	})
}

// checkNoticePeriod 最后工作日须在 [today, assignEnd] 内，且距今不少于通知期；
// 剩余分配期本身短于通知期时不受通知期约束
func checkNoticePeriod(lastDay, today, assignEnd time.Time, noticeDays int) error {
	if lastDay.Before(today) {
		return invalid("last_day 不能早于今天")
	}
	if lastDay.After(assignEnd) {
		return invalid("last_day 不能晚于分配结束日 %s", model.FormatDate(assignEnd))
	}
	if noticeDays <= 0 {
		return nil
	}
	remaining := int(assignEnd.Sub(today).Hours() / 24)
	if remaining < noticeDays {
		return nil
	}
	earliest := today.AddDate(0, 0, noticeDays)
	if lastDay.Before(earliest) {
		return invalid("需提前 %d 天提出，最早最后工作日为 %s", noticeDays, model.FormatDate(earliest))
	}
	return nil
}

func (s *requestService) buildCancel(ctx context.Context, candidateID string, req *dto.SubmitRequest) ([]model.Request, error) {
	roster, err := s.ownedRoster(ctx, candidateID, req.RosterID)
	if err != nil {
		return nil, err
	}
	if req.Reason == "" {
		return nil, invalid("reason 不能为空")
	}
	if roster.ClockInTime != nil || !rosterInFuture(roster, s.loc, s.clk.Now()) {
		return nil, invalid("只能取消尚未开始的排班")
	}
	pending, err := s.repo.Request.HasPendingForRoster(ctx, roster.RosterID, []string{model.RequestTypeCancel})
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, invalid("该排班已有待审批的取消申请")
	}
	return single(roster.ProjectID, &model.CancelData{RosterID: roster.RosterID, Reason: req.Reason})
}

func single(projectID string, data model.RequestData) ([]model.Request, error) {
	raw, err := model.EncodeRequestData(data)
	if err != nil {
		return nil, err
	}
	return []model.Request{{ProjectID: projectID, Data: raw}}, nil
}

func (s *requestService) ownedRoster(ctx context.Context, candidateID, rosterID string) (*model.Roster, error) {
	if rosterID == "" {
		return nil, invalid("roster_id 不能为空")
	}
	roster, err := s.repo.Roster.GetByID(ctx, rosterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRosterNotFound
		}
		return nil, err
	}
	if roster.CandidateID != candidateID {
		return nil, ErrRosterForbidden
	}
	return roster, nil
}

// uploadAttachment 附件在申请落库前上传，失败则整个提交失败
func (s *requestService) uploadAttachment(ctx context.Context, key, encoded string) error {
	data, err := imageutil.DecodeBase64(encoded)
	if err != nil {
		return invalid("附件无法解析")
	}
	contentType, err := imageutil.DetectType(data, imageutil.DocumentTypes)
	if err != nil {
		return invalid("附件类型不支持")
	}
	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		s.logger.Error("附件上传失败", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrAttachmentUpload, err)
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// Approve / Reject
// ════════════════════════════════════════════════════════════

func (s *requestService) Approve(ctx context.Context, requestID, approverID string) (*dto.RequestResponse, error) {
	return s.decide(ctx, requestID, approverID, model.RequestStatusApproved)
}

func (s *requestService) Reject(ctx context.Context, requestID, approverID string) (*dto.RequestResponse, error) {
	return s.decide(ctx, requestID, approverID, model.RequestStatusRejected)
}

// decide 读取（带锁）、授权、副作用与状态迁移位于同一事务；任一步失败整体回滚
func (s *requestService) decide(ctx context.Context, requestID, approverID, to string) (*dto.RequestResponse, error) {
	var decided *model.Request

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 1. 只读取仍为 PENDING 的行并加锁
		req, err := tx.Request.GetPendingForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}

		// 2. 授权
		ok, err := canManageProject(ctx, tx, approverID, req.ProjectID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRequestForbidden
		}

		// 3. 副作用（仅审批通过）
		if to == model.RequestStatusApproved {
			if err := s.applySideEffects(ctx, tx, req); err != nil {
				return err
			}
		}

		// 4. 条件状态迁移
		now := s.clk.Now()
		if err := tx.Request.Transition(ctx, requestID, model.RequestStatusPending, to, &approverID, now); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrRequestNotFound
			}
			return err
		}
		req.Status = to
		req.DecidedBy = &approverID
		req.DecidedAt = &now
		decided = req
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrRequestNotFound) && !errors.Is(err, ErrRequestForbidden) && !errors.Is(err, ErrRequestInvalid) {
			s.logger.Error("处理申请失败", zap.String("request_id", requestID), zap.String("to", to), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("申请已处理",
		zap.String("request_id", requestID),
		zap.String("type", decided.Type),
		zap.String("status", to),
		zap.String("by", approverID),
	)
	resp := toRequestResponse(decided)
	return &resp, nil
}

func (s *requestService) applySideEffects(ctx context.Context, tx *repository.Repository, req *model.Request) error {
	payload, err := req.Payload()
	if err != nil {
		return err
	}

	switch data := payload.(type) {
	case *model.ResignationData:
		lastDay, err := model.ParseDate(data.LastDay)
		if err != nil {
			return invalid("last_day 无效: %v", err)
		}
		if err := tx.Assign.UpdateEndDate(ctx, req.CandidateID, req.ProjectID, lastDay); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return invalid("候选人已不在该项目中")
			}
			return err
		}

	case *model.MedicalLeaveData:
		start, err := model.ParseDate(data.StartDate)
		if err != nil {
			return invalid("start_date 无效: %v", err)
		}
		end := start.AddDate(0, 0, data.NumberOfDays-1)
		n, err := tx.Roster.MarkMedical(ctx, req.CandidateID, req.ProjectID, start, end)
		if err != nil {
			return err
		}
		s.logger.Info("病假已覆盖排班",
			zap.String("request_id", req.RequestID),
			zap.Int64("rosters", n),
		)

	case *model.LeaveData:
		leave, shiftType, err := leaveEffect(data.LeaveDuration)
		if err != nil {
			return err
		}
		roster, err := tx.Roster.GetByID(ctx, data.RosterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRosterNotFound
			}
			return err
		}
		if shiftType == "" {
			shiftType = roster.ShiftType
		}
		if err := tx.Roster.ApplyLeave(ctx, roster.RosterID, leave, shiftType); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrLeaveAlreadyApplied
			}
			return err
		}

	case *model.ClaimData, *model.CancelData:
		// 仅状态迁移
	}
	return nil
}

// leaveEffect 请假时长对应的 (leave, 新班型)；全天假不改班型（返回空串）
// 请上半天后剩余义务为下半天，反之亦然
func leaveEffect(duration string) (string, string, error) {
	switch duration {
	case model.ShiftTypeFullDay:
		return model.LeaveFullDay, "", nil
	case model.ShiftTypeFirstHalf:
		return model.LeaveHalfDay, model.ShiftTypeSecondHalf, nil
	case model.ShiftTypeSecondHalf:
		return model.LeaveHalfDay, model.ShiftTypeFirstHalf, nil
	}
	return "", "", invalid("未知的请假时长 %q", duration)
}

// ════════════════════════════════════════════════════════════
// Cancel
// ════════════════════════════════════════════════════════════

func (s *requestService) Cancel(ctx context.Context, requestID, candidateID string) (*dto.RequestResponse, error) {
	req, err := s.repo.Request.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.CandidateID != candidateID {
		return nil, ErrRequestForbidden
	}
	if req.IsTerminal() {
		return nil, ErrRequestNotFound
	}

	now := s.clk.Now()
	if err := s.repo.Request.Transition(ctx, requestID, model.RequestStatusPending, model.RequestStatusCancelled, &candidateID, now); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	req.Status = model.RequestStatusCancelled
	req.DecidedBy = &candidateID
	req.DecidedAt = &now

	s.logger.Info("申请已撤回", zap.String("request_id", requestID), zap.String("candidate_id", candidateID))
	resp := toRequestResponse(req)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Query
// ════════════════════════════════════════════════════════════

func (s *requestService) Get(ctx context.Context, requestID string, p Principal) (*dto.RequestResponse, error) {
	req, err := s.repo.Request.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if p.IsCandidate() {
		if req.CandidateID != p.ID {
			return nil, ErrRequestForbidden
		}
	} else {
		ok, err := s.perm.CanReadProject(ctx, p.ID, req.ProjectID)
		if err != nil && !errors.Is(err, ErrConsultantNotFound) {
			return nil, err
		}
		if !ok {
			return nil, ErrRequestForbidden
		}
	}
	resp := toRequestResponse(req)
	return &resp, nil
}

func (s *requestService) ListMine(ctx context.Context, candidateID string, req *dto.RequestListRequest) ([]dto.RequestResponse, int64, error) {
	return s.list(ctx, repository.RequestFilter{
		CandidateID: candidateID,
		Status:      req.Status,
		Type:        req.Type,
	}, &req.PaginationRequest)
}

func (s *requestService) ListByProject(ctx context.Context, projectID string, req *dto.RequestListRequest, consultantID string) ([]dto.RequestResponse, int64, error) {
	p := Principal{ID: consultantID, Role: model.RoleConsultant}
	if err := requireProjectReader(ctx, s.repo, s.perm, p, projectID); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, repository.RequestFilter{
		ProjectID: projectID,
		Status:    req.Status,
		Type:      req.Type,
	}, &req.PaginationRequest)
}

func (s *requestService) list(ctx context.Context, filter repository.RequestFilter, page *dto.PaginationRequest) ([]dto.RequestResponse, int64, error) {
	list, total, err := s.repo.Request.List(ctx, filter, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	result := make([]dto.RequestResponse, 0, len(list))
	for i := range list {
		result = append(result, toRequestResponse(&list[i]))
	}
	return result, total, nil
}

func toRequestResponse(r *model.Request) dto.RequestResponse {
	resp := dto.RequestResponse{
		RequestID:   r.RequestID,
		CandidateID: r.CandidateID,
		ProjectID:   r.ProjectID,
		Type:        r.Type,
		Status:      r.Status,
		Data:        []byte(r.Data),
		DecidedBy:   r.DecidedBy,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if payload, err := r.Payload(); err == nil {
		resp.RosterID = model.RosterRef(payload)
	}
	if r.Candidate != nil {
		resp.CandidateName = r.Candidate.Name
	}
	if r.DecidedAt != nil {
		at := r.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &at
	}
	return resp
}
