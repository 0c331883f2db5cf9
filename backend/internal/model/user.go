package model

import "github.com/lib/pq"

// 登录主体角色（写入 JWT role 声明）
const (
	RoleCandidate  = "candidate"
	RoleConsultant = "consultant"
	RoleRoot       = "root"
)

// Candidate 候选人（外派员工）表，对应 candidates
type Candidate struct {
	CandidateID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"candidate_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	NRIC         string  `gorm:"column:nric;type:varchar(20);not null"          json:"nric"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone        *string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	SoftDeleteModel
}

// TableName 指定表名
func (Candidate) TableName() string { return "candidates" }

// 顾问角色
const (
	ConsultantRoleDefault = "CONSULTANT"
	ConsultantRoleRoot    = "ROOT"
)

// Consultant 顾问（内部管理人员）表，对应 consultants
type Consultant struct {
	ConsultantID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"consultant_id"`
	Name         string         `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string         `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string         `gorm:"type:varchar(20);not null;default:'CONSULTANT'" json:"role"` // CONSULTANT | ROOT
	Permissions  pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"permissions"`
	SoftDeleteModel
}

// TableName 指定表名
func (Consultant) TableName() string { return "consultants" }
