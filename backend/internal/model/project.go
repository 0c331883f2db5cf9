package model

import "time"

// Project 外派项目表，对应 projects
type Project struct {
	ProjectID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	Name             string    `gorm:"type:varchar(200);not null"                     json:"name"`
	ClientName       string    `gorm:"type:varchar(200);not null"                     json:"client_name"`
	StartDate        time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate          time.Time `gorm:"type:date;not null"                             json:"end_date"`
	NoticePeriodDays int       `gorm:"not null;default:0"                             json:"notice_period_days"`
	CreatedBy        *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }

// 项目管理角色
const (
	ManageRoleClientHolder    = "CLIENT_HOLDER"
	ManageRoleCandidateHolder = "CANDIDATE_HOLDER"
)

// Manage 顾问-项目管理关系，对应 manages
type Manage struct {
	ConsultantID string    `gorm:"type:uuid;primaryKey"              json:"consultant_id"`
	ProjectID    string    `gorm:"type:uuid;primaryKey"              json:"project_id"`
	Role         string    `gorm:"type:varchar(20);not null"         json:"role"` // CLIENT_HOLDER | CANDIDATE_HOLDER
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Consultant *Consultant `gorm:"foreignKey:ConsultantID;references:ConsultantID" json:"consultant,omitempty"`
}

// TableName 指定表名
func (Manage) TableName() string { return "manages" }

// Assign 候选人-项目分配，对应 assigns
type Assign struct {
	CandidateID string    `gorm:"type:uuid;primaryKey" json:"candidate_id"`
	ProjectID   string    `gorm:"type:uuid;primaryKey" json:"project_id"`
	StartDate   time.Time `gorm:"type:date;not null"   json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null"   json:"end_date"`
	CreatedBy   *string   `gorm:"type:uuid"            json:"created_by,omitempty"`
	BaseModel

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID" json:"candidate,omitempty"`
}

// TableName 指定表名
func (Assign) TableName() string { return "assigns" }
