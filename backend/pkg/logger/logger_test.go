package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"

	"staffhub/backend/config"
)

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(&config.LogConfig{Level: "verbose", Format: "json"}, "test")
	if err == nil {
		t.Fatal("期望无效日志级别返回错误")
	}
}

func TestNewLogger_Console(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "debug", Format: "console"}, "test")
	if err != nil {
		t.Fatalf("NewLogger 失败: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug 级别应被启用")
	}
}

func TestGormLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"debug": gormlogger.Info,
		"info":  gormlogger.Warn,
		"warn":  gormlogger.Warn,
		"error": gormlogger.Error,
	}
	for in, want := range cases {
		if got := GormLevel(in); got != want {
			t.Errorf("GormLevel(%q) = %v, 期望 %v", in, got, want)
		}
	}
}
