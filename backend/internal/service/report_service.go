package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"staffhub/backend/internal/attendance"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/repository"
	"staffhub/backend/pkg/clock"
)

// ── 报表模块业务错误 ──

var (
	ErrReportNoRoster     = errors.New("所选区间内没有排班")
	ErrReportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ReportService 考勤报表
//
//   - 汇总 Sheet：每位候选人一行，统计排班数、准时、迟到、缺勤、病假、请假与工时
//   - 明细 Sheet：每个排班实例一行
//   - 所有窗口与工时都经 attendance 包计算，跨夜班次同样适用
type ReportService interface {
	ExportAttendance(ctx context.Context, projectID, from, to, consultantID string) (*bytes.Buffer, string, error)
}

type reportService struct {
	repo   *repository.Repository
	perm   PermissionService
	clk    clock.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, perm PermissionService, clk clock.Clock, loc *time.Location, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, perm: perm, clk: clk, loc: loc, logger: logger}
}

// AttendanceSummary 单个候选人的汇总行
type AttendanceSummary struct {
	CandidateID      string
	CandidateName    string
	Scheduled        int
	OnTime           int
	Late             int
	NoShow           int
	Medical          int
	Leave            int
	Upcoming         int
	ScheduledMinutes int
	WorkedMinutes    int
}

// summarize 按候选人聚合；尚未结束且未落库状态的实例计入 Upcoming
func summarize(rosters []model.Roster, loc *time.Location, now time.Time) []AttendanceSummary {
	index := make(map[string]*AttendanceSummary)
	var order []string

	for i := range rosters {
		r := &rosters[i]
		sum, ok := index[r.CandidateID]
		if !ok {
			sum = &AttendanceSummary{CandidateID: r.CandidateID}
			if r.Candidate != nil {
				sum.CandidateName = r.Candidate.Name
			}
			index[r.CandidateID] = sum
			order = append(order, r.CandidateID)
		}
		sum.Scheduled++
		if r.Leave != nil {
			sum.Leave++
		}

		if r.Shift == nil {
			continue
		}
		w, err := attendance.ShiftWindow(r.Shift, r.ShiftType, r.ShiftDate, loc)
		if err != nil {
			continue
		}
		switch attendance.DisplayStatus(r, w, now) {
		case model.RosterStatusOnTime:
			sum.OnTime++
		case model.RosterStatusLate:
			sum.Late++
		case model.RosterStatusNoShow:
			sum.NoShow++
		case model.RosterStatusMedical:
			sum.Medical++
		case attendance.DisplayUpcoming:
			sum.Upcoming++
		}
		if !attendance.OnFullDayLeave(r) {
			sum.ScheduledMinutes += attendance.ScheduledMinutes(w, r.Shift.BreakDuration)
		}
		sum.WorkedMinutes += attendance.WorkedMinutes(r.ClockInTime, r.ClockOutTime, r.Shift.BreakDuration)
	}

	result := make([]AttendanceSummary, 0, len(order))
	for _, id := range order {
		result = append(result, *index[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CandidateName != result[j].CandidateName {
			return result[i].CandidateName < result[j].CandidateName
		}
		return result[i].CandidateID < result[j].CandidateID
	})
	return result
}

func (s *reportService) ExportAttendance(ctx context.Context, projectID, from, to, consultantID string) (*bytes.Buffer, string, error) {
	p := Principal{ID: consultantID, Role: model.RoleConsultant}
	if err := requireProjectReader(ctx, s.repo, s.perm, p, projectID); err != nil {
		return nil, "", err
	}
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	start, end, err := parseDateRange(from, to)
	if err != nil {
		return nil, "", err
	}

	rosters, err := s.repo.Roster.List(ctx, repository.RosterFilter{ProjectID: projectID, From: start, To: end})
	if err != nil {
		s.logger.Error("查询排班失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, "", err
	}
	if len(rosters) == 0 {
		return nil, "", ErrReportNoRoster
	}

	now := s.clk.Now()
	summary := summarize(rosters, s.loc, now)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── 汇总 ──
	sheet := "汇总"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s 考勤汇总 %s ~ %s", project.Name, model.FormatDate(start), model.FormatDate(end)))
	f.MergeCell(sheet, "A1", cell(colName(10), 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	headers := []string{"候选人", "排班数", "准时", "迟到", "缺勤", "病假", "请假", "未开始", "排班工时(h)", "实际工时(h)", "出勤率"}
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheet, "A2", cell(colName(len(headers)-1), 2), headerStyle)
	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", colName(len(headers)-1), 12)

	for i, sum := range summary {
		row := 3 + i
		name := sum.CandidateName
		if name == "" {
			name = sum.CandidateID
		}
		values := []interface{}{
			name, sum.Scheduled, sum.OnTime, sum.Late, sum.NoShow, sum.Medical, sum.Leave, sum.Upcoming,
			hours(sum.ScheduledMinutes), hours(sum.WorkedMinutes), attendanceRate(sum),
		}
		for c, v := range values {
			f.SetCellValue(sheet, cell(colName(c), row), v)
		}
	}

	// ── 明细 ──
	detail := "明细"
	f.NewSheet(detail)
	detailHeaders := []string{"日期", "候选人", "班型", "开始", "结束", "状态", "请假", "签到", "签退", "工时(h)"}
	for i, h := range detailHeaders {
		f.SetCellValue(detail, cell(colName(i), 1), h)
	}
	f.SetCellStyle(detail, "A1", cell(colName(len(detailHeaders)-1), 1), headerStyle)
	f.SetColWidth(detail, "A", colName(len(detailHeaders)-1), 16)

	sort.SliceStable(rosters, func(i, j int) bool {
		if !rosters[i].ShiftDate.Equal(rosters[j].ShiftDate) {
			return rosters[i].ShiftDate.Before(rosters[j].ShiftDate)
		}
		return rosters[i].CandidateID < rosters[j].CandidateID
	})
	for i := range rosters {
		r := &rosters[i]
		row := 2 + i
		name := r.CandidateID
		if r.Candidate != nil {
			name = r.Candidate.Name
		}
		values := []interface{}{model.FormatDate(r.ShiftDate), name, r.ShiftType, "-", "-", "-", "-", "-", "-", 0.0}
		if r.Shift != nil {
			if w, err := attendance.ShiftWindow(r.Shift, r.ShiftType, r.ShiftDate, s.loc); err == nil {
				values[3] = w.Start.In(s.loc).Format("2006-01-02 15:04")
				values[4] = w.End.In(s.loc).Format("2006-01-02 15:04")
				values[5] = attendance.DisplayStatus(r, w, now)
			}
			values[9] = hours(attendance.WorkedMinutes(r.ClockInTime, r.ClockOutTime, r.Shift.BreakDuration))
		}
		if r.Leave != nil {
			values[6] = *r.Leave
		}
		if r.ClockInTime != nil {
			values[7] = r.ClockInTime.In(s.loc).Format("15:04")
		}
		if r.ClockOutTime != nil {
			values[8] = r.ClockOutTime.In(s.loc).Format("15:04")
		}
		for c, v := range values {
			f.SetCellValue(detail, cell(colName(c), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrReportGenerateFail
	}

	s.logger.Info("考勤报表已导出",
		zap.String("project_id", projectID),
		zap.Int("rosters", len(rosters)),
		zap.Int("candidates", len(summary)),
	)
	filename := fmt.Sprintf("考勤_%s_%s_%s.xlsx", project.Name, model.FormatDate(start), model.FormatDate(end))
	return buf, filename, nil
}

func hours(minutes int) float64 {
	return float64(minutes*100/60) / 100
}

// attendanceRate 已结束的排班中到岗（准时 + 迟到）的比例
func attendanceRate(sum AttendanceSummary) string {
	done := sum.OnTime + sum.Late + sum.NoShow
	if done == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(sum.OnTime+sum.Late)*100/float64(done))
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
