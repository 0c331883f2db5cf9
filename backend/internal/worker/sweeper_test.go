package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"staffhub/backend/internal/service"
	"staffhub/backend/pkg/clock"
)

type fakeRunner struct {
	calls chan struct{}
	err   error
	panic bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{calls: make(chan struct{}, 16)}
}

func (r *fakeRunner) RunOnce(_ context.Context) (service.SweepResult, error) {
	r.calls <- struct{}{}
	if r.panic {
		panic("boom")
	}
	return service.SweepResult{Scanned: 1, Marked: 1}, r.err
}

func (r *fakeRunner) waitCall(t *testing.T) {
	t.Helper()
	select {
	case <-r.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("等待清扫执行超时")
	}
}

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	unlocked int
}

func (l *fakeLocker) TryLock(_ context.Context, _ string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.unlocked++
	return nil
}

var t0 = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func TestSweeper_RunTicksOnVirtualClock(t *testing.T) {
	runner := newFakeRunner()
	clk := clock.NewFake(t0)
	sw := NewSweeper(runner, clk, time.Minute, nil, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	// 启动即执行一次
	runner.waitCall(t)

	clk.Advance(30 * time.Second)
	select {
	case <-runner.calls:
		t.Fatal("未到间隔不应执行")
	case <-time.After(50 * time.Millisecond):
	}

	clk.Advance(30 * time.Second)
	runner.waitCall(t)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ctx 取消后 Run 应退出")
	}
}

func TestSweeper_InvalidInterval(t *testing.T) {
	sw := NewSweeper(newFakeRunner(), clock.NewFake(t0), 0, nil, 0, zap.NewNop())
	assert.Error(t, sw.Run(context.Background()))
}

func TestSweeper_SkipsWhenLockHeld(t *testing.T) {
	runner := newFakeRunner()
	locker := &fakeLocker{held: true}
	sw := NewSweeper(runner, clock.NewFake(t0), time.Minute, locker, 50*time.Second, zap.NewNop())

	assert.False(t, sw.Tick(context.Background()))
	assert.Len(t, runner.calls, 0)
}

func TestSweeper_ReleasesLock(t *testing.T) {
	runner := newFakeRunner()
	locker := &fakeLocker{}
	sw := NewSweeper(runner, clock.NewFake(t0), time.Minute, locker, 50*time.Second, zap.NewNop())

	require.True(t, sw.Tick(context.Background()))
	assert.Len(t, runner.calls, 1)
	assert.Equal(t, 1, locker.unlocked)
	assert.False(t, locker.held)
}

func TestSweeper_LockErrorStillRuns(t *testing.T) {
	runner := newFakeRunner()
	locker := &fakeLocker{err: errors.New("redis down")}
	sw := NewSweeper(runner, clock.NewFake(t0), time.Minute, locker, 50*time.Second, zap.NewNop())

	assert.True(t, sw.Tick(context.Background()))
	assert.Len(t, runner.calls, 1)
}

func TestSweeper_RecoversPanicAndReleasesLock(t *testing.T) {
	runner := newFakeRunner()
	runner.panic = true
	locker := &fakeLocker{}
	sw := NewSweeper(runner, clock.NewFake(t0), time.Minute, locker, 50*time.Second, zap.NewNop())

	assert.NotPanics(t, func() { sw.Tick(context.Background()) })
	assert.Equal(t, 1, locker.unlocked)
}

func TestSweeper_RunnerErrorIsLogged(t *testing.T) {
	runner := newFakeRunner()
	runner.err = errors.New("db down")
	sw := NewSweeper(runner, clock.NewFake(t0), time.Minute, nil, 0, zap.NewNop())

	assert.True(t, sw.Tick(context.Background()))
}
