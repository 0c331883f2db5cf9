package model

// Shift 班次模板表，对应 shifts
// 时间均为 HH:MM；EndTime 早于 StartTime 表示跨午夜班次
type Shift struct {
	ShiftID          string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	ProjectID        string  `gorm:"type:uuid;not null"                             json:"project_id"`
	Day              *int    `gorm:"type:smallint"                                  json:"day,omitempty"` // 0=周日 … 6=周六，NULL 表示每天
	StartTime        string  `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime          string  `gorm:"type:varchar(5);not null"                       json:"end_time"`
	HalfDayStartTime *string `gorm:"type:varchar(5)"                                json:"half_day_start_time,omitempty"`
	HalfDayEndTime   *string `gorm:"type:varchar(5)"                                json:"half_day_end_time,omitempty"`
	BreakDuration    int     `gorm:"not null;default:0"                             json:"break_duration"` // 分钟
	Headcount        int     `gorm:"not null;default:1"                             json:"headcount"`
	CreatedBy        *string `gorm:"type:uuid"                                      json:"created_by,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// HasHalfDay 是否定义了半天拆分
func (s *Shift) HasHalfDay() bool {
	return s.HalfDayStartTime != nil && s.HalfDayEndTime != nil
}
