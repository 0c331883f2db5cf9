// Package worker 后台周期任务
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"staffhub/backend/internal/service"
	"staffhub/backend/pkg/clock"
)

const sweepLockKey = "attendance:sweep"

// Runner 单次清扫
type Runner interface {
	RunOnce(ctx context.Context) (service.SweepResult, error)
}

// Locker 跨进程互斥（Redis 实现见 pkg/redis）
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Sweeper 按固定间隔执行清扫的周期任务。
// 启动时立即执行一次；单次失败或 panic 只记录日志；ctx 取消后退出。
type Sweeper struct {
	runner   Runner
	clk      clock.Clock
	interval time.Duration
	locker   Locker // 可为 nil
	lockTTL  time.Duration
	logger   *zap.Logger
}

// NewSweeper 创建 Sweeper。locker 为 nil 时不做跨进程互斥，依赖清扫谓词本身的幂等性
func NewSweeper(runner Runner, clk clock.Clock, interval time.Duration, locker Locker, lockTTL time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		runner:   runner,
		clk:      clk,
		interval: interval,
		locker:   locker,
		lockTTL:  lockTTL,
		logger:   logger,
	}
}

// Run 阻塞运行直至 ctx 取消
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("清扫间隔必须大于 0，当前为 %s", s.interval)
	}
	s.logger.Info("未到岗清扫任务启动", zap.Duration("interval", s.interval), zap.Bool("distributed_lock", s.locker != nil))

	ticks, stop := s.clk.Tick(s.interval)
	defer stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("未到岗清扫任务停止")
			return nil
		case <-ticks:
			s.Tick(ctx)
		}
	}
}

// Tick 执行一次清扫，返回是否实际执行（未抢到锁时为 false）
func (s *Sweeper) Tick(ctx context.Context) (ran bool) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("清扫任务 panic", zap.Any("panic", p))
		}
	}()

	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, sweepLockKey, s.lockTTL)
		if err != nil {
			// Redis 不可用时照常执行
			s.logger.Warn("获取清扫锁失败，继续执行", zap.Error(err))
		} else if !ok {
			s.logger.Debug("其他实例正在清扫，跳过本轮")
			return false
		} else {
			defer func() {
				if err := s.locker.Unlock(context.WithoutCancel(ctx), sweepLockKey); err != nil {
					s.logger.Warn("释放清扫锁失败", zap.Error(err))
				}
			}()
		}
	}

	start := s.clk.Now()
	result, err := s.runner.RunOnce(ctx)
	if err != nil {
		s.logger.Error("未到岗清扫失败", zap.Error(err))
		return true
	}
	s.logger.Debug("未到岗清扫结束",
		zap.Int("scanned", result.Scanned),
		zap.Int("marked", result.Marked),
		zap.Duration("elapsed", s.clk.Now().Sub(start)),
	)
	return true
}
