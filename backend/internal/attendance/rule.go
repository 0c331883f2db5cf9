// Package attendance 集中维护考勤状态推导规则。
// 打卡、未到岗清扫和考勤报表都经由这里计算班次窗口与状态，不做任何 I/O。
package attendance

import (
	"errors"
	"fmt"
	"time"

	"staffhub/backend/internal/model"
)

const minutesPerDay = 24 * 60

// 仅用于展示、不落库的状态
const (
	DisplayUpcoming = "UPCOMING"
	DisplayOnLeave  = "ON_LEAVE"
)

var (
	ErrInvalidClock      = errors.New("时间格式必须为 HH:MM")
	ErrHalfDayUndefined  = errors.New("班次未定义半天时间")
	ErrHalfDayPair       = errors.New("半天开始与结束时间必须同时设置")
	ErrHalfDayOutOfShift = errors.New("半天时间必须落在班次时间范围内")
	ErrUnknownShiftType  = errors.New("未知的班型")
)

// ParseClock 将 HH:MM 解析为当天零点起的分钟数
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Window 排班实例的有效起止时刻
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration 窗口时长
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Ended now 是否已到达（或越过）窗口结束
func (w Window) Ended(now time.Time) bool {
	return !now.Before(w.End)
}

// sinceStart 以班次开始为零点计算 clock 的偏移分钟数，结果在 [0, 1440)
func sinceStart(start, clock int) int {
	return ((clock-start)%minutesPerDay + minutesPerDay) % minutesPerDay
}

// endOffset 结束时刻偏移；与开始重合视为跨满 24 小时
func endOffset(start, clock int) int {
	off := sinceStart(start, clock)
	if off == 0 {
		return minutesPerDay
	}
	return off
}

// ShiftWindow 计算排班实例的有效窗口。
// shiftDate 只取其年月日；所有 HH:MM 在 loc 时区下解释。
// 结束时刻不晚于开始时刻的班次视为跨午夜，结束落在次日。
func ShiftWindow(shift *model.Shift, shiftType string, shiftDate time.Time, loc *time.Location) (Window, error) {
	start, err := ParseClock(shift.StartTime)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseClock(shift.EndTime)
	if err != nil {
		return Window{}, err
	}

	var from, to int
	switch shiftType {
	case model.ShiftTypeFullDay, "":
		from, to = 0, endOffset(start, end)
	case model.ShiftTypeFirstHalf:
		if !shift.HasHalfDay() {
			return Window{}, ErrHalfDayUndefined
		}
		halfEnd, err := ParseClock(*shift.HalfDayEndTime)
		if err != nil {
			return Window{}, err
		}
		from, to = 0, endOffset(start, halfEnd)
	case model.ShiftTypeSecondHalf:
		if !shift.HasHalfDay() {
			return Window{}, ErrHalfDayUndefined
		}
		halfStart, err := ParseClock(*shift.HalfDayStartTime)
		if err != nil {
			return Window{}, err
		}
		from, to = sinceStart(start, halfStart), endOffset(start, end)
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownShiftType, shiftType)
	}

	y, m, d := shiftDate.Date()
	at := func(offset int) time.Time {
		// time.Date 会把超过 59 的分钟数进位到次日
		return time.Date(y, m, d, 0, start+offset, 0, 0, loc)
	}
	return Window{Start: at(from), End: at(to)}, nil
}

// ValidateShiftTimes 校验班次模板的时间组合
func ValidateShiftTimes(startTime, endTime string, halfStart, halfEnd *string) error {
	start, err := ParseClock(startTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return err
	}
	if (halfStart == nil) != (halfEnd == nil) {
		return ErrHalfDayPair
	}
	if halfStart == nil {
		return nil
	}
	hs, err := ParseClock(*halfStart)
	if err != nil {
		return err
	}
	he, err := ParseClock(*halfEnd)
	if err != nil {
		return err
	}
	limit := endOffset(start, end)
	hsOff := sinceStart(start, hs)
	heOff := sinceStart(start, he)
	if hsOff >= limit || heOff == 0 || heOff > limit {
		return ErrHalfDayOutOfShift
	}
	return nil
}

// ClockInStatus 打卡时刻不晚于有效开始为 ON_TIME，否则 LATE
func ClockInStatus(clockIn, effectiveStart time.Time) string {
	if clockIn.After(effectiveStart) {
		return model.RosterStatusLate
	}
	return model.RosterStatusOnTime
}

// ShouldMarkNoShow 判断清扫是否应将该实例标记为 NO_SHOW：
// 状态未定、未打卡且有效结束已过。skipLeave 为 true 时整天请假的实例不处理；
// 半天请假的实例仍需出勤另外半天，照常清扫。
func ShouldMarkNoShow(r *model.Roster, w Window, now time.Time, skipLeave bool) bool {
	if r.Status != nil || r.ClockInTime != nil {
		return false
	}
	if skipLeave && OnFullDayLeave(r) {
		return false
	}
	return w.Ended(now)
}

// OnFullDayLeave 整天请假
func OnFullDayLeave(r *model.Roster) bool {
	return r.Leave != nil && *r.Leave == model.LeaveFullDay
}

// Overwritable 仅 NULL 与 NO_SHOW 可被覆盖（打卡、病假审批）
func Overwritable(status *string) bool {
	return status == nil || *status == model.RosterStatusNoShow
}

// DisplayStatus 对外展示的状态。已落库的状态原样返回；
// 未定状态在结束前为 UPCOMING，整天请假为 ON_LEAVE，其余为等待清扫的 NO_SHOW。
func DisplayStatus(r *model.Roster, w Window, now time.Time) string {
	if r.Status != nil {
		return *r.Status
	}
	if !w.Ended(now) {
		return DisplayUpcoming
	}
	if OnFullDayLeave(r) {
		return DisplayOnLeave
	}
	return model.RosterStatusNoShow
}

// ScheduledMinutes 窗口时长扣除休息时间，不小于 0
func ScheduledMinutes(w Window, breakMinutes int) int {
	return clampMinutes(int(w.Duration()/time.Minute) - breakMinutes)
}

// WorkedMinutes 实际工作分钟数（签退减签到再扣休息）；缺任一打卡记录为 0
func WorkedMinutes(clockIn, clockOut *time.Time, breakMinutes int) int {
	if clockIn == nil || clockOut == nil || !clockOut.After(*clockIn) {
		return 0
	}
	return clampMinutes(int(clockOut.Sub(*clockIn)/time.Minute) - breakMinutes)
}

func clampMinutes(m int) int {
	if m < 0 {
		return 0
	}
	return m
}

// CivilDate 取 t 在 loc 时区下的日历日期，返回该日期的 UTC 零点（与 DATE 列一致）
func CivilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AppliesOn 班次模板是否适用于 date 所在的星期
func AppliesOn(shift *model.Shift, date time.Time) bool {
	return shift.Day == nil || *shift.Day == int(date.Weekday())
}

// EnumerateDates 枚举 [from, to] 内班次适用的所有日期（UTC 零点）
func EnumerateDates(shift *model.Shift, from, to time.Time) []time.Time {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	cur := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	last := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	var dates []time.Time
	for !cur.After(last) {
		if AppliesOn(shift, cur) {
			dates = append(dates, cur)
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return dates
}
