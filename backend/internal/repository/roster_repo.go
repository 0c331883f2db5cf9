package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"staffhub/backend/internal/model"
	pkgerrors "staffhub/backend/pkg/errors"
)

// RosterFilter 排班列表过滤条件；日期为闭区间，零值表示不限
type RosterFilter struct {
	CandidateID string
	ProjectID   string
	From        time.Time
	To          time.Time
}

// RosterRepository 排班实例数据访问接口。
// 所有状态写入都带条件谓词，谓词不再成立时返回 ErrOptimisticLock，
// 使打卡、清扫与审批三方并发写同一行时互不覆盖。
type RosterRepository interface {
	// BatchCreateSkipDuplicates 批量插入，(candidate_id, shift_id, shift_date) 冲突的行被跳过
	BatchCreateSkipDuplicates(ctx context.Context, rosters []model.Roster) (int64, error)
	GetByID(ctx context.Context, id string) (*model.Roster, error)
	List(ctx context.Context, filter RosterFilter) ([]model.Roster, error)
	Delete(ctx context.Context, id string) error

	ClockIn(ctx context.Context, id string, at time.Time, status string, lat, lng *float64) error
	ClockOut(ctx context.Context, id string, at time.Time) error

	ListSweepCandidates(ctx context.Context, upTo time.Time, skipLeave bool) ([]model.Roster, error)
	MarkNoShow(ctx context.Context, id string) error

	MarkMedical(ctx context.Context, candidateID, projectID string, from, to time.Time) (int64, error)
	ApplyLeave(ctx context.Context, id, leave, shiftType string) error
}

type rosterRepo struct {
	db *gorm.DB
}

func NewRosterRepo(db *gorm.DB) RosterRepository {
	return &rosterRepo{db: db}
}

// 已软删除的班次模板仍需用于计算历史实例的窗口
func preloadShift(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func (r *rosterRepo) BatchCreateSkipDuplicates(ctx context.Context, rosters []model.Roster) (int64, error) {
	if len(rosters) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "candidate_id"}, {Name: "shift_id"}, {Name: "shift_date"}},
			DoNothing: true,
		}).
		CreateInBatches(&rosters, 500)
	return result.RowsAffected, result.Error
}

func (r *rosterRepo) GetByID(ctx context.Context, id string) (*model.Roster, error) {
	var roster model.Roster
	err := r.db.WithContext(ctx).
		Preload("Shift", preloadShift).
		Where("roster_id = ?", id).
		First(&roster).Error
	if err != nil {
		return nil, err
	}
	return &roster, nil
}

func (r *rosterRepo) List(ctx context.Context, filter RosterFilter) ([]model.Roster, error) {
	query := r.db.WithContext(ctx).
		Preload("Shift", preloadShift).
		Preload("Candidate")
	if filter.CandidateID != "" {
		query = query.Where("candidate_id = ?", filter.CandidateID)
	}
	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if !filter.From.IsZero() {
		query = query.Where("shift_date >= ?", model.FormatDate(filter.From))
	}
	if !filter.To.IsZero() {
		query = query.Where("shift_date <= ?", model.FormatDate(filter.To))
	}

	var list []model.Roster
	err := query.Order("shift_date ASC, candidate_id ASC").Find(&list).Error
	return list, err
}

func (r *rosterRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("roster_id = ? AND clock_in_time IS NULL", id).
		Delete(&model.Roster{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// ClockIn 仅在尚未签到且状态可覆盖（NULL / NO_SHOW）时写入
func (r *rosterRepo) ClockIn(ctx context.Context, id string, at time.Time, status string, lat, lng *float64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Roster{}).
		Where("roster_id = ? AND clock_in_time IS NULL AND (status IS NULL OR status = ?)", id, model.RosterStatusNoShow).
		Updates(map[string]interface{}{
			"clock_in_time":      at,
			"status":             status,
			"clock_in_latitude":  lat,
			"clock_in_longitude": lng,
			"updated_at":         gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// ClockOut 仅在已签到、未签退且签退不早于签到时写入，状态不变
func (r *rosterRepo) ClockOut(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Roster{}).
		Where("roster_id = ? AND clock_in_time IS NOT NULL AND clock_out_time IS NULL AND clock_in_time <= ?", id, at).
		Updates(map[string]interface{}{
			"clock_out_time": at,
			"updated_at":     gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// ListSweepCandidates 粗筛：状态未定、未签到、日期不晚于 upTo。
// 是否真正到期由调用方按班次窗口判断（跨午夜班次的前一日实例同样会被选出）。
func (r *rosterRepo) ListSweepCandidates(ctx context.Context, upTo time.Time, skipLeave bool) ([]model.Roster, error) {
	query := r.db.WithContext(ctx).
		Preload("Shift", preloadShift).
		Where("status IS NULL AND clock_in_time IS NULL AND shift_date <= ?", model.FormatDate(upTo))
	if skipLeave {
		// 半天请假仍要出勤另外半天
		query = query.Where("leave IS DISTINCT FROM ?", model.LeaveFullDay)
	}
	var list []model.Roster
	err := query.Order("shift_date ASC").Find(&list).Error
	return list, err
}

func (r *rosterRepo) MarkNoShow(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Roster{}).
		Where("roster_id = ? AND status IS NULL AND clock_in_time IS NULL", id).
		Updates(map[string]interface{}{
			"status":     model.RosterStatusNoShow,
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

// MarkMedical 将 [from, to] 内状态为 NULL 或 NO_SHOW 的实例改为 MEDICAL，ON_TIME / LATE 不受影响
func (r *rosterRepo) MarkMedical(ctx context.Context, candidateID, projectID string, from, to time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Roster{}).
		Where("candidate_id = ? AND project_id = ?", candidateID, projectID).
		Where("shift_date BETWEEN ? AND ?", model.FormatDate(from), model.FormatDate(to)).
		Where("(status IS NULL OR status = ?)", model.RosterStatusNoShow).
		Updates(map[string]interface{}{
			"status":     model.RosterStatusMedical,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	return result.RowsAffected, result.Error
}

// ApplyLeave 写入请假标记并调整班型；已有请假标记的实例不再重复处理
func (r *rosterRepo) ApplyLeave(ctx context.Context, id, leave, shiftType string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Roster{}).
		Where("roster_id = ? AND leave IS NULL", id).
		Updates(map[string]interface{}{
			"leave":      leave,
			"shift_type": shiftType,
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
