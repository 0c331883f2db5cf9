// 独立运行的未到岗清扫进程。
// API 实例设置 attendance.sweep_enabled=false 时用它单独部署；-once 适合交给外部调度器（如 k8s CronJob）。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"staffhub/backend/config"
	"staffhub/backend/internal/repository"
	"staffhub/backend/internal/service"
	"staffhub/backend/internal/worker"
	"staffhub/backend/pkg/clock"
	"staffhub/backend/pkg/database"
	applogger "staffhub/backend/pkg/logger"
	"staffhub/backend/pkg/redis"
)

func main() {
	configPath := flag.String("config", os.Getenv("STAFFHUB_CONFIG"), "配置文件路径")
	once := flag.Bool("once", false, "只执行一次清扫后退出")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log, "sweeper")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	loc, err := cfg.Attendance.Location()
	if err != nil {
		logger.Fatal("考勤时区无效", zap.Error(err))
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()

	clk := clock.New()
	sweep := service.NewSweepService(&cfg.Attendance, repository.NewRepository(db), clk, loc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		result, err := sweep.RunOnce(ctx)
		if err != nil {
			logger.Fatal("清扫失败", zap.Error(err))
		}
		logger.Info("清扫完成",
			zap.Int("scanned", result.Scanned),
			zap.Int("marked", result.Marked),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
		return
	}

	var locker worker.Locker
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，不使用分布式锁运行", zap.Error(err))
	} else {
		defer rdb.Close()
		locker = rdb
	}

	sweeper := worker.NewSweeper(sweep, clk, cfg.Attendance.SweepInterval, locker, cfg.Attendance.SweepLockTTL, logger)
	if err := sweeper.Run(ctx); err != nil {
		logger.Fatal("清扫任务异常退出", zap.Error(err))
	}
}
