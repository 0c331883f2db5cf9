package dto

import "time"

// ── 排班 / 打卡 DTO ──

// AssignRequest 将候选人分配到若干班次，按日期区间生成排班实例
type AssignRequest struct {
	CandidateID string   `json:"candidate_id" binding:"required,uuid"`
	ShiftIDs    []string `json:"shift_ids"    binding:"required,min=1,dive,uuid"`
	StartDate   string   `json:"start_date"   binding:"required,datetime=2006-01-02"`
	EndDate     string   `json:"end_date"     binding:"required,datetime=2006-01-02"`
}

// AssignResponse 排班生成结果
type AssignResponse struct {
	Enumerated int   `json:"enumerated"` // 符合班次规则的 (班次, 日期) 数
	Created    int64 `json:"created"`    // 实际新增（重复的被跳过）
}

// RosterListRequest 排班列表查询参数
type RosterListRequest struct {
	DateRangeRequest
	CandidateID string `form:"candidate_id" binding:"omitempty,uuid"`
}

// RosterResponse 排班实例响应
type RosterResponse struct {
	RosterID      string     `json:"roster_id"`
	CandidateID   string     `json:"candidate_id"`
	CandidateName string     `json:"candidate_name,omitempty"`
	ShiftID       string     `json:"shift_id"`
	ProjectID     string     `json:"project_id"`
	ShiftDate     string     `json:"shift_date"`
	ShiftType     string     `json:"shift_type"`
	Status        *string    `json:"status"`
	DisplayStatus string     `json:"display_status"`
	Leave         *string    `json:"leave"`
	StartAt       *time.Time `json:"start_at,omitempty"`
	EndAt         *time.Time `json:"end_at,omitempty"`
	ClockInTime   *time.Time `json:"clock_in_time"`
	ClockOutTime  *time.Time `json:"clock_out_time"`
}

// ClockEventRequest 打卡请求：clock_in_time 与 clock_out_time 必须且只能提供一个。
// 签到时需同时提供 start_time（名义开始时刻）与 image_data（现场照片，base64 或 data URL）。
type ClockEventRequest struct {
	ClockInTime  *time.Time `json:"clock_in_time"`
	ClockOutTime *time.Time `json:"clock_out_time"`
	StartTime    *time.Time `json:"start_time"`
	ImageData    string     `json:"image_data"`
	Latitude     *float64   `json:"latitude"  binding:"omitempty,latitude"`
	Longitude    *float64   `json:"longitude" binding:"omitempty,longitude"`
}
