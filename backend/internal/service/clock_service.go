package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffhub/backend/config"
	"staffhub/backend/internal/attendance"
	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/repository"
	"staffhub/backend/pkg/clock"
	pkgerrors "staffhub/backend/pkg/errors"
	"staffhub/backend/pkg/imageutil"
	"staffhub/backend/pkg/storage"
)

// ── 打卡模块业务错误 ──

var (
	ErrClockEventAmbiguous   = errors.New("签到时间与签退时间必须且只能提供一个")
	ErrClockInProofRequired  = errors.New("签到必须提供现场照片和班次开始时间")
	ErrInvalidProofImage     = errors.New("现场照片无法识别")
	ErrAlreadyClockedIn      = errors.New("该排班已签到")
	ErrNotClockedIn          = errors.New("尚未签到，不能签退")
	ErrAlreadyClockedOut     = errors.New("该排班已签退")
	ErrClockOutBeforeClockIn = errors.New("签退时间早于签到时间")
	ErrRosterMedical         = errors.New("该排班已登记病假，不能签到")
)

// ClockService 打卡业务接口
type ClockService interface {
	// RecordClockEvent 记录一次签到或签退。
	// 签到状态按调用方提供的名义开始时间在写入时确定；照片在数据库写入成功后上传，
	// 上传失败只记录日志，不影响打卡结果。
	RecordClockEvent(ctx context.Context, rosterID, candidateID string, req *dto.ClockEventRequest) (*dto.RosterResponse, error)
}

type clockService struct {
	cfg    *config.AttendanceConfig
	repo   *repository.Repository
	store  storage.Storage
	clk    clock.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewClockService 创建 ClockService 实例
func NewClockService(
	cfg *config.AttendanceConfig,
	repo *repository.Repository,
	store storage.Storage,
	clk clock.Clock,
	loc *time.Location,
	logger *zap.Logger,
) ClockService {
	return &clockService{cfg: cfg, repo: repo, store: store, clk: clk, loc: loc, logger: logger}
}

func (s *clockService) RecordClockEvent(ctx context.Context, rosterID, candidateID string, req *dto.ClockEventRequest) (*dto.RosterResponse, error) {
	// 1. 请求形态校验（不读库）
	clockIn, clockOut := req.ClockInTime != nil, req.ClockOutTime != nil
	if clockIn == clockOut {
		return nil, ErrClockEventAmbiguous
	}

	var proof []byte
	if clockIn {
		if req.StartTime == nil || req.ImageData == "" {
			return nil, ErrClockInProofRequired
		}
		data, err := imageutil.DecodeBase64(req.ImageData)
		if err != nil {
			return nil, ErrInvalidProofImage
		}
		if _, err := imageutil.DetectType(data, imageutil.PhotoTypes); err != nil {
			return nil, ErrInvalidProofImage
		}
		proof = data
	}

	// 2. 归属校验
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

	// 3. 写入
	if clockIn {
		err = s.clockIn(ctx, roster, *req.ClockInTime, *req.StartTime, req.Latitude, req.Longitude)
	} else {
		err = s.clockOut(ctx, roster, *req.ClockOutTime)
	}
	if err != nil {
		return nil, err
	}

	// 4. 数据库写入成功后再上传照片
	if clockIn {
		s.storeProof(ctx, roster, proof)
	}

	updated, err := s.repo.Roster.GetByID(ctx, rosterID)
	if err != nil {
		return nil, err
	}
	resp := toRosterResponse(updated, s.loc, s.clk.Now(), s.logger)
	return &resp, nil
}

func (s *clockService) clockIn(ctx context.Context, roster *model.Roster, at, nominalStart time.Time, lat, lng *float64) error {
	if roster.ClockInTime != nil {
		return ErrAlreadyClockedIn
	}
	if !attendance.Overwritable(roster.Status) {
		if roster.Status != nil && *roster.Status == model.RosterStatusMedical {
			return ErrRosterMedical
		}
		return ErrAlreadyClockedIn
	}

	status := attendance.ClockInStatus(at, nominalStart)
	s.flagStartMismatch(roster, nominalStart)

	if err := s.repo.Roster.ClockIn(ctx, roster.RosterID, at, status, lat, lng); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			// 并发签到或病假审批先一步写入
			return ErrAlreadyClockedIn
		}
		s.logger.Error("写入签到失败", zap.String("roster_id", roster.RosterID), zap.Error(err))
		return err
	}

	s.logger.Info("签到成功",
		zap.String("roster_id", roster.RosterID),
		zap.String("candidate_id", roster.CandidateID),
		zap.String("status", status),
		zap.Bool("after_no_show", roster.Status != nil),
	)
	return nil
}

// flagStartMismatch 调用方给出的名义开始与服务端推导的有效开始不一致时仅记录告警，不做纠正
func (s *clockService) flagStartMismatch(roster *model.Roster, nominalStart time.Time) {
	if roster.Shift == nil {
		return
	}
	w, err := attendance.ShiftWindow(roster.Shift, roster.ShiftType, roster.ShiftDate, s.loc)
	if err != nil {
		s.logger.Warn("计算班次窗口失败", zap.String("roster_id", roster.RosterID), zap.Error(err))
		return
	}
	if !w.Start.Equal(nominalStart) {
		s.logger.Warn("签到携带的开始时间与班次不一致",
			zap.String("roster_id", roster.RosterID),
			zap.Time("client_start", nominalStart),
			zap.Time("effective_start", w.Start),
			zap.String("shift_type", roster.ShiftType),
		)
	}
}

func (s *clockService) clockOut(ctx context.Context, roster *model.Roster, at time.Time) error {
	if roster.ClockInTime == nil {
		return ErrNotClockedIn
	}
	if roster.ClockOutTime != nil {
		return ErrAlreadyClockedOut
	}
	if at.Before(*roster.ClockInTime) {
		return ErrClockOutBeforeClockIn
	}

	if err := s.repo.Roster.ClockOut(ctx, roster.RosterID, at); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrAlreadyClockedOut
		}
		s.logger.Error("写入签退失败", zap.String("roster_id", roster.RosterID), zap.Error(err))
		return err
	}
	s.logger.Info("签退成功", zap.String("roster_id", roster.RosterID), zap.String("candidate_id", roster.CandidateID))
	return nil
}

func (s *clockService) storeProof(ctx context.Context, roster *model.Roster, data []byte) {
	key := storage.ClockInImageKey(roster.CandidateID, roster.RosterID)
	body, contentType, err := imageutil.Normalize(data, s.cfg.ClockInImageMaxPx)
	if err != nil {
		s.logger.Warn("打卡照片压缩失败，保存原图", zap.String("key", key), zap.Error(err))
		body = data
		contentType, _ = imageutil.DetectType(data, imageutil.PhotoTypes)
	}
	if err := s.store.Put(ctx, key, body, contentType); err != nil {
		s.logger.Warn("打卡照片上传失败，打卡记录已保存",
			zap.String("roster_id", roster.RosterID),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
