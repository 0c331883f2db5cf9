package imageutil

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyPayload    = errors.New("文件内容为空")
	ErrUnsupportedType = errors.New("不支持的文件类型")
	ErrInvalidEncoding = errors.New("文件内容不是合法的 base64")
)

var (
	// PhotoTypes 现场拍摄的照片（打卡），统一转成 JPEG 保存
	PhotoTypes = []string{"image/jpeg", "image/png"}
	// DocumentTypes 病假单与报销凭证，可能是扫描件 PDF，原样保存
	DocumentTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}
)

// DecodeBase64 解析 base64 或 data URL（data:image/jpeg;base64,...）
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyPayload
	}
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, ErrInvalidEncoding
		}
		s = s[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// 部分客户端使用无填充编码
		data, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, ErrInvalidEncoding
		}
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

// DetectType 嗅探内容类型，不在 allowed 内时返回 ErrUnsupportedType
func DetectType(data []byte, allowed []string) (string, error) {
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowed...) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}
	return mt.String(), nil
}

// Normalize 将照片等比缩放到最长边不超过 maxPx 并统一编码为 JPEG，只接受 PhotoTypes
func Normalize(data []byte, maxPx int) ([]byte, string, error) {
	if _, err := DetectType(data, PhotoTypes); err != nil {
		return nil, "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("解码图片失败: %w", err)
	}

	if maxPx > 0 {
		b := img.Bounds()
		if b.Dx() > maxPx || b.Dy() > maxPx {
			img = imaging.Fit(img, maxPx, maxPx, imaging.Lanczos)
		}
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, "", fmt.Errorf("编码图片失败: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
