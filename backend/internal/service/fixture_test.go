package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"go.uber.org/zap"

	"staffhub/backend/config"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/permission"
	"staffhub/backend/internal/repository"
	"staffhub/backend/pkg/clock"
	"staffhub/backend/pkg/storage"
)

// 测试统一使用固定时区，避免依赖系统 tzdata
var sgt = time.FixedZone("SGT", 8*3600)

const (
	testProjectID  = "proj-1"
	testHolderID   = "con-holder"
	testReaderID   = "con-reader"
	testOutsiderID = "con-outsider"
	testCandidate  = "cand-1"
	testCandidate2 = "cand-2"
	testDayShift   = "shift-day"
	testNightShift = "shift-night"
)

type fixture struct {
	repo  *repository.Repository
	mocks *mockRepos
	store *storage.Memory
	clk   *clock.Fake
	perm  PermissionService
	cfg   *config.AttendanceConfig
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, sgt)
}

// newFixture 一个项目（2026 全年，通知期 14 天），一名 CLIENT_HOLDER，一名 CANDIDATE_HOLDER，
// 一名无关顾问，两名候选人，一个 09:00-18:00 的日班（含半天）与一个 22:00-06:00 的夜班
func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, m := newMockRepos()

	m.project.projects[testProjectID] = &model.Project{
		ProjectID:        testProjectID,
		Name:             "港口外派",
		ClientName:       "ACME",
		StartDate:        date(2026, 1, 1),
		EndDate:          date(2026, 12, 31),
		NoticePeriodDays: 14,
	}
	m.consultant.add(&model.Consultant{ConsultantID: testHolderID, Name: "王经理", Email: "holder@example.com", Role: model.ConsultantRoleDefault})
	m.consultant.add(&model.Consultant{ConsultantID: testReaderID, Name: "李顾问", Email: "reader@example.com", Role: model.ConsultantRoleDefault})
	m.consultant.add(&model.Consultant{ConsultantID: testOutsiderID, Name: "赵顾问", Email: "outsider@example.com", Role: model.ConsultantRoleDefault})
	_ = m.manage.Upsert(context.Background(), &model.Manage{ConsultantID: testHolderID, ProjectID: testProjectID, Role: model.ManageRoleClientHolder})
	_ = m.manage.Upsert(context.Background(), &model.Manage{ConsultantID: testReaderID, ProjectID: testProjectID, Role: model.ManageRoleCandidateHolder})

	m.candidate.add(&model.Candidate{CandidateID: testCandidate, Name: "陈一", Email: "c1@example.com"})
	m.candidate.add(&model.Candidate{CandidateID: testCandidate2, Name: "林二", Email: "c2@example.com"})
	_ = m.assign.Upsert(context.Background(), &model.Assign{CandidateID: testCandidate, ProjectID: testProjectID, StartDate: date(2026, 1, 1), EndDate: date(2026, 12, 31)})

	m.shift.shifts[testDayShift] = &model.Shift{
		ShiftID:          testDayShift,
		ProjectID:        testProjectID,
		StartTime:        "09:00",
		EndTime:          "18:00",
		HalfDayStartTime: strPtr("14:00"),
		HalfDayEndTime:   strPtr("13:00"),
		BreakDuration:    60,
		Headcount:        2,
	}
	m.shift.shifts[testNightShift] = &model.Shift{
		ShiftID:       testNightShift,
		ProjectID:     testProjectID,
		StartTime:     "22:00",
		EndTime:       "06:00",
		BreakDuration: 30,
		Headcount:     1,
	}

	return &fixture{
		repo:  repo,
		mocks: m,
		store: storage.NewMemory(),
		clk:   clock.NewFake(at(2026, 3, 10, 8, 0)),
		perm:  NewPermissionService(repo, zap.NewNop()),
		cfg: &config.AttendanceConfig{
			SweepSkipLeave:    true,
			ClockInImageMaxPx: 64,
		},
	}
}

// addRoster 为候选人在指定日期生成一条排班
func (f *fixture) addRoster(id, candidateID, shiftID string, d time.Time) *model.Roster {
	r := &model.Roster{
		RosterID:    id,
		CandidateID: candidateID,
		ShiftID:     shiftID,
		ProjectID:   testProjectID,
		ShiftDate:   d,
		ShiftType:   model.ShiftTypeFullDay,
	}
	f.mocks.roster.add(r)
	return r
}

func (f *fixture) grant(consultantID string, perms ...permission.Permission) {
	c := f.mocks.consultant.consultants[consultantID]
	for _, p := range perms {
		c.Permissions = append(c.Permissions, string(p))
	}
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("编码测试图片失败: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
