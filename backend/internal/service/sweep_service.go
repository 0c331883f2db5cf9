package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"staffhub/backend/config"
	"staffhub/backend/internal/attendance"
	"staffhub/backend/internal/repository"
	"staffhub/backend/pkg/clock"
	pkgerrors "staffhub/backend/pkg/errors"
)

// SweepResult 一次清扫的统计
type SweepResult struct {
	Scanned int // 粗筛出的候选行
	Marked  int // 标记为 NO_SHOW
	Skipped int // 尚未结束，或写入时谓词已不成立（并发签到 / 审批）
	Failed  int // 单行失败，已记录日志
}

// SweepService 未到岗清扫：为班次已结束且无人签到的实例落定 NO_SHOW
type SweepService interface {
	RunOnce(ctx context.Context) (SweepResult, error)
}

type sweepService struct {
	cfg    *config.AttendanceConfig
	repo   *repository.Repository
	clk    clock.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewSweepService 创建 SweepService 实例
func NewSweepService(
	cfg *config.AttendanceConfig,
	repo *repository.Repository,
	clk clock.Clock,
	loc *time.Location,
	logger *zap.Logger,
) SweepService {
	return &sweepService{cfg: cfg, repo: repo, clk: clk, loc: loc, logger: logger}
}

// RunOnce 逐行独立更新，单行失败不影响其他行；重复执行不会改变已落定的状态
func (s *sweepService) RunOnce(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := s.clk.Now()
	today := attendance.CivilDate(now, s.loc)

	rosters, err := s.repo.Roster.ListSweepCandidates(ctx, today, s.cfg.SweepSkipLeave)
	if err != nil {
		s.logger.Error("查询待清扫排班失败", zap.Error(err))
		return result, err
	}
	result.Scanned = len(rosters)

	for i := range rosters {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		r := &rosters[i]
		if r.Shift == nil {
			s.logger.Warn("排班缺少班次模板，跳过", zap.String("roster_id", r.RosterID))
			result.Failed++
			continue
		}

		w, err := attendance.ShiftWindow(r.Shift, r.ShiftType, r.ShiftDate, s.loc)
		if err != nil {
			s.logger.Warn("计算班次窗口失败，跳过", zap.String("roster_id", r.RosterID), zap.Error(err))
			result.Failed++
			continue
		}
		if !attendance.ShouldMarkNoShow(r, w, now, s.cfg.SweepSkipLeave) {
			result.Skipped++
			continue
		}

		if err := s.repo.Roster.MarkNoShow(ctx, r.RosterID); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				result.Skipped++
				continue
			}
			s.logger.Error("标记 NO_SHOW 失败", zap.String("roster_id", r.RosterID), zap.Error(err))
			result.Failed++
			continue
		}
		result.Marked++
	}

	if result.Marked > 0 || result.Failed > 0 {
		s.logger.Info("未到岗清扫完成",
			zap.Int("scanned", result.Scanned),
			zap.Int("marked", result.Marked),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}
