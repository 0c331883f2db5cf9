package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

// ErrUnknownRequestType 未知申请类型
var ErrUnknownRequestType = errors.New("未知的申请类型")

// RequestData 申请载荷。每种申请类型对应一个具体结构体，
// 读取方通过类型断言或 type switch 取得字段
type RequestData interface {
	requestData()
}

// ClaimData 报销申请（CLAIM）
type ClaimData struct {
	RosterID    string  `json:"roster_id"`
	ClaimType   string  `json:"claim_type"`
	ClaimAmount float64 `json:"claim_amount"`
	Description string  `json:"description,omitempty"`
	ReceiptKey  *string `json:"receipt_key,omitempty"`
}

// LeaveData 带薪 / 无薪假（PAID_LEAVE、UNPAID_LEAVE）
// LeaveDuration 取值同 Roster.ShiftType
type LeaveData struct {
	RosterID      string `json:"roster_id"`
	LeaveDuration string `json:"leave_duration"`
	Reason        string `json:"reason"`
}

// MedicalLeaveData 病假（MEDICAL_LEAVE），覆盖 [StartDate, StartDate+NumberOfDays-1]
type MedicalLeaveData struct {
	StartDate    string `json:"start_date"` // YYYY-MM-DD
	NumberOfDays int    `json:"number_of_days"`
	ImageKey     string `json:"image_key"`
}

// ResignationData 辞职（RESIGNATION）
type ResignationData struct {
	LastDay string `json:"last_day"` // YYYY-MM-DD
	Reason  string `json:"reason"`
}

// CancelData 取消排班（CANCEL）
type CancelData struct {
	RosterID string `json:"roster_id"`
	Reason   string `json:"reason"`
}

func (ClaimData) requestData()        {}
func (LeaveData) requestData()        {}
func (MedicalLeaveData) requestData() {}
func (ResignationData) requestData()  {}
func (CancelData) requestData()       {}

// DecodeRequestData 按申请类型解码 JSON 载荷
func DecodeRequestData(reqType string, raw []byte) (RequestData, error) {
	var data RequestData
	switch reqType {
	case RequestTypeClaim:
		data = &ClaimData{}
	case RequestTypePaidLeave, RequestTypeUnpaidLeave:
		data = &LeaveData{}
	case RequestTypeMedicalLeave:
		data = &MedicalLeaveData{}
	case RequestTypeResignation:
		data = &ResignationData{}
	case RequestTypeCancel:
		data = &CancelData{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRequestType, reqType)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("申请载荷为空（类型 %s）", reqType)
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("解析 %s 申请载荷失败: %w", reqType, err)
	}
	return data, nil
}

// EncodeRequestData 序列化申请载荷，用于写入 requests.data
func EncodeRequestData(data RequestData) (datatypes.JSON, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("序列化申请载荷失败: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// RosterRef 返回载荷引用的排班 ID（无引用时为空串）
func RosterRef(data RequestData) string {
	switch d := data.(type) {
	case *ClaimData:
		return d.RosterID
	case *LeaveData:
		return d.RosterID
	case *CancelData:
		return d.RosterID
	}
	return ""
}
