package model

import (
	"time"

	"gorm.io/datatypes"
)

// 申请类型
const (
	RequestTypeClaim        = "CLAIM"
	RequestTypePaidLeave    = "PAID_LEAVE"
	RequestTypeUnpaidLeave  = "UNPAID_LEAVE"
	RequestTypeMedicalLeave = "MEDICAL_LEAVE"
	RequestTypeResignation  = "RESIGNATION"
	RequestTypeCancel       = "CANCEL"
)

// 申请状态：PENDING 之外均为终态
const (
	RequestStatusPending   = "PENDING"
	RequestStatusApproved  = "APPROVED"
	RequestStatusRejected  = "REJECTED"
	RequestStatusCancelled = "CANCELLED"
)

// Request 候选人申请表，对应 requests
// Data 的结构完全由 Type 决定，读取时一律经 Payload() 解码
type Request struct {
	RequestID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	CandidateID string         `gorm:"type:uuid;not null"                             json:"candidate_id"`
	ProjectID   string         `gorm:"type:uuid;not null"                             json:"project_id"`
	Type        string         `gorm:"type:varchar(20);not null"                      json:"type"`
	Status      string         `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	Data        datatypes.JSON `gorm:"type:jsonb;not null"                            json:"data"`
	DecidedBy   *string        `gorm:"type:uuid"                                      json:"decided_by,omitempty"`
	DecidedAt   *time.Time     `json:"decided_at,omitempty"`
	BaseModel

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID" json:"candidate,omitempty"`
}

// TableName 指定表名
func (Request) TableName() string { return "requests" }

// Payload 按 Type 解码 Data
func (r *Request) Payload() (RequestData, error) {
	return DecodeRequestData(r.Type, r.Data)
}

// IsTerminal 是否已处于终态
func (r *Request) IsTerminal() bool {
	return r.Status != RequestStatusPending
}
