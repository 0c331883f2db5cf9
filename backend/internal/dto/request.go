package dto

import "encoding/json"

// ── 申请模块 DTO ──

// SubmitRequest 提交申请。字段按 type 取用，其余忽略：
//
//	CLAIM          roster_id, claim_type, claim_amount, description, image_data(可选)
//	PAID_LEAVE     roster_id, leave_duration, reason
//	UNPAID_LEAVE   同上
//	MEDICAL_LEAVE  start_date, number_of_days, image_data
//	RESIGNATION    project_id, last_day, reason
//	CANCEL         roster_id, reason
type SubmitRequest struct {
	Type          string  `json:"type"           binding:"required,request_type"`
	RosterID      string  `json:"roster_id"      binding:"omitempty,uuid"`
	ProjectID     string  `json:"project_id"     binding:"omitempty,uuid"`
	ClaimType     string  `json:"claim_type"     binding:"omitempty,max=50"`
	ClaimAmount   float64 `json:"claim_amount"`
	Description   string  `json:"description"    binding:"omitempty,max=500"`
	LeaveDuration string  `json:"leave_duration" binding:"omitempty,oneof=FULL_DAY FIRST_HALF SECOND_HALF"`
	Reason        string  `json:"reason"         binding:"omitempty,max=500"`
	StartDate     string  `json:"start_date"     binding:"omitempty,datetime=2006-01-02"`
	NumberOfDays  int     `json:"number_of_days" binding:"omitempty,min=1,max=60"`
	LastDay       string  `json:"last_day"       binding:"omitempty,datetime=2006-01-02"`
	ImageData     string  `json:"image_data"`
}

// RequestListRequest 申请列表查询参数
type RequestListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED"`
	Type   string `form:"type"   binding:"omitempty,request_type"`
}

// RequestResponse 申请信息响应
type RequestResponse struct {
	RequestID     string          `json:"request_id"`
	CandidateID   string          `json:"candidate_id"`
	CandidateName string          `json:"candidate_name,omitempty"`
	ProjectID     string          `json:"project_id"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	RosterID      string          `json:"roster_id,omitempty"` // 报销、请假与取消申请引用的排班
	Data          json.RawMessage `json:"data"`
	DecidedBy     *string         `json:"decided_by,omitempty"`
	DecidedAt     *string         `json:"decided_at,omitempty"`
	CreatedAt     string          `json:"created_at"`
}
