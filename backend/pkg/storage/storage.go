package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"staffhub/backend/config"
)

// Storage 对象存储接口（打卡照片、病假单、报销凭证）
type Storage interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Get 返回对象内容与 Content-Type，不存在时返回 errors.ErrObjectNotFound
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// New 根据配置创建存储实现
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(ctx, cfg, logger)
	case "memory":
		logger.Warn("对象存储使用内存实现，仅适用于本地开发")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("未知的存储驱动 %q", cfg.Driver)
	}
}

// ── 对象 key 约定 ──

// ClockInImageKey 打卡照片：clock-in/<candidateID>/<rosterID>.jpg
func ClockInImageKey(candidateID, rosterID string) string {
	return path.Join("clock-in", candidateID, rosterID+".jpg")
}

// MedicalCertificateKey 病假单：medical/<candidateID>/<imageUUID>
func MedicalCertificateKey(candidateID, imageUUID string) string {
	return path.Join("medical", candidateID, imageUUID)
}

// ClaimReceiptKey 报销凭证：claims/<candidateID>/<receiptUUID>
func ClaimReceiptKey(candidateID, receiptUUID string) string {
	return path.Join("claims", candidateID, receiptUUID)
}

func withPrefix(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
