package service

import (
	"time"

	"go.uber.org/zap"

	"staffhub/backend/config"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/repository"
	"staffhub/backend/pkg/clock"
	"staffhub/backend/pkg/jwt"
	"staffhub/backend/pkg/redis"
	"staffhub/backend/pkg/storage"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Permission PermissionService
	Project    ProjectService
	Shift      ShiftService
	Roster     RosterService
	Clock      ClockService
	Sweep      SweepService
	Request    RequestService
	Report     ReportService
}

// Deps Service 层依赖
type Deps struct {
	Config  *config.Config
	Repo    *repository.Repository
	JWT     *jwt.Manager
	Redis   *redis.Client // 可为 nil：登出不写黑名单
	Storage storage.Storage
	Clock   clock.Clock
	Logger  *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	loc := resolveLocation(&d.Config.Attendance, d.Logger)
	perm := NewPermissionService(d.Repo, d.Logger)

	return &Service{
		Auth:       NewAuthService(d.Config, d.Repo, d.JWT, d.Redis, d.Logger),
		Permission: perm,
		Project:    NewProjectService(d.Repo, perm, d.Logger),
		Shift:      NewShiftService(d.Repo, perm, d.Logger),
		Roster:     NewRosterService(d.Repo, perm, d.Storage, d.Clock, loc, d.Logger),
		Clock:      NewClockService(&d.Config.Attendance, d.Repo, d.Storage, d.Clock, loc, d.Logger),
		Sweep:      NewSweepService(&d.Config.Attendance, d.Repo, d.Clock, loc, d.Logger),
		Request:    NewRequestService(d.Repo, perm, d.Storage, d.Clock, loc, d.Logger),
		Report:     NewReportService(d.Repo, perm, d.Clock, loc, d.Logger),
	}
}

func resolveLocation(cfg *config.AttendanceConfig, logger *zap.Logger) *time.Location {
	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("考勤时区无效，回退为 UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		return time.UTC
	}
	return loc
}

// Principal 已认证的调用方（由 JWT 中间件注入）
type Principal struct {
	ID   string
	Role string // candidate | consultant | root
}

// IsCandidate 是否为候选人
func (p Principal) IsCandidate() bool { return p.Role == model.RoleCandidate }
