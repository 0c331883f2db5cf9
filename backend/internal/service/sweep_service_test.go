package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
)

func setupTestSweepService(t *testing.T) (SweepService, *fixture) {
	f := newFixture(t)
	svc := NewSweepService(f.cfg, f.repo, f.clk, sgt, zap.NewNop())
	return svc, f
}

func statusOf(f *fixture, id string) string {
	r := f.mocks.roster.get(id)
	if r == nil || r.Status == nil {
		return ""
	}
	return *r.Status
}

func TestSweep_MarksEndedUnresolvedRows(t *testing.T) {
	svc, f := setupTestSweepService(t)
	// now = 2026-03-10 08:00
	f.addRoster("r-past", testCandidate, testDayShift, date(2026, 3, 9))
	f.addRoster("r-today", testCandidate, testDayShift, date(2026, 3, 10))
	f.addRoster("r-night-ended", testCandidate, testNightShift, date(2026, 3, 9))
	f.addRoster("r-night-tonight", testCandidate, testNightShift, date(2026, 3, 10))
	f.addRoster("r-future", testCandidate, testDayShift, date(2026, 3, 11))
	clocked := f.addRoster("r-clocked", testCandidate2, testDayShift, date(2026, 3, 9))
	clocked.ClockInTime = timePtr(at(2026, 3, 9, 9, 5))
	clocked.Status = strPtr(model.RosterStatusLate)
	onLeave := f.addRoster("r-leave", testCandidate2, testDayShift, date(2026, 3, 8))
	onLeave.Leave = strPtr(model.LeaveFullDay)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Marked)
	assert.Zero(t, result.Failed)

	assert.Equal(t, model.RosterStatusNoShow, statusOf(f, "r-past"))
	assert.Equal(t, model.RosterStatusNoShow, statusOf(f, "r-night-ended"))
	assert.Empty(t, statusOf(f, "r-today"))
	assert.Empty(t, statusOf(f, "r-night-tonight"))
	assert.Empty(t, statusOf(f, "r-future"))
	assert.Equal(t, model.RosterStatusLate, statusOf(f, "r-clocked"))
	assert.Empty(t, statusOf(f, "r-leave"), "请假实例不应被标记为 NO_SHOW")
}

func TestSweep_TriggersAtEffectiveEnd(t *testing.T) {
	svc, f := setupTestSweepService(t)
	f.addRoster("r-today", testCandidate, testDayShift, date(2026, 3, 10))
	ctx := context.Background()

	f.clk.Set(at(2026, 3, 10, 17, 59))
	_, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, statusOf(f, "r-today"), "结束前不应标记")

	f.clk.Set(at(2026, 3, 10, 18, 0))
	result, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, model.RosterStatusNoShow, statusOf(f, "r-today"))
}

func TestSweep_HalfDayUsesHalfWindow(t *testing.T) {
	svc, f := setupTestSweepService(t)
	r := f.addRoster("r-first-half", testCandidate, testDayShift, date(2026, 3, 10))
	r.ShiftType = model.ShiftTypeFirstHalf

	f.clk.Set(at(2026, 3, 10, 13, 0))
	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked, "上半天班次在 13:00 结束")
}

func TestSweep_Idempotent(t *testing.T) {
	svc, f := setupTestSweepService(t)
	f.addRoster("r-past", testCandidate, testDayShift, date(2026, 3, 9))
	ctx := context.Background()

	first, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Marked)

	snapshot := *f.mocks.roster.get("r-past")

	second, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Marked)
	assert.Zero(t, second.Scanned)
	assert.Equal(t, snapshot, *f.mocks.roster.get("r-past"))
}

func TestSweep_LeaveIncludedWhenConfigured(t *testing.T) {
	svc, f := setupTestSweepService(t)
	f.cfg.SweepSkipLeave = false
	r := f.addRoster("r-leave", testCandidate, testDayShift, date(2026, 3, 9))
	r.Leave = strPtr(model.LeaveHalfDay)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
}

func TestSweep_HalfDayLeaveStillExpectedForOtherHalf(t *testing.T) {
	svc, f := setupTestSweepService(t)
	// 上半天请假获批后只剩下半天（14:00-18:00），候选人始终未签到
	r := f.addRoster("r-half", testCandidate, testDayShift, date(2026, 3, 6))
	r.Leave = strPtr(model.LeaveHalfDay)
	r.ShiftType = model.ShiftTypeSecondHalf
	full := f.addRoster("r-full", testCandidate, testDayShift, date(2026, 3, 5))
	full.Leave = strPtr(model.LeaveFullDay)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, model.RosterStatusNoShow, statusOf(f, "r-half"))
	assert.Empty(t, statusOf(f, "r-full"), "整天请假不应被标记")
}

func TestSweep_RowFailureIsIsolated(t *testing.T) {
	svc, f := setupTestSweepService(t)
	f.addRoster("r-1", testCandidate, testDayShift, date(2026, 3, 8))
	f.addRoster("r-2", testCandidate, testDayShift, date(2026, 3, 9))
	f.mocks.roster.markNoShowErr = errors.New("connection reset")

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Zero(t, result.Marked)
}

func TestSweep_ThenLateClockIn(t *testing.T) {
	svc, f := setupTestSweepService(t)
	f.addRoster("r-today", testCandidate, testDayShift, date(2026, 3, 10))
	f.clk.Set(at(2026, 3, 10, 18, 30))

	_, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.RosterStatusNoShow, statusOf(f, "r-today"))

	// 班次结束后才签到：NO_SHOW 被 LATE 取代
	clockSvc := NewClockService(f.cfg, f.repo, f.store, f.clk, sgt, zap.NewNop())
	in, start := at(2026, 3, 10, 18, 30), at(2026, 3, 10, 9, 0)
	_, err = clockSvc.RecordClockEvent(context.Background(), "r-today", testCandidate, &dto.ClockEventRequest{
		ClockInTime: &in, StartTime: &start, ImageData: pngBase64(t, 16, 16),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RosterStatusLate, statusOf(f, "r-today"))

	// 再次清扫不会回退
	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Marked)
	assert.Equal(t, model.RosterStatusLate, statusOf(f, "r-today"))
}

func TestSweep_CancelledContext(t *testing.T) {
	svc, f := setupTestSweepService(t)
	f.addRoster("r-past", testCandidate, testDayShift, date(2026, 3, 9))
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := svc.RunOnce(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, statusOf(f, "r-past"))
}
