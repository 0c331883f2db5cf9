package model

import "time"

// 排班实例班型
const (
	ShiftTypeFullDay    = "FULL_DAY"
	ShiftTypeFirstHalf  = "FIRST_HALF"
	ShiftTypeSecondHalf = "SECOND_HALF"
)

// 考勤状态；NULL 表示尚未判定（前端展示为 UPCOMING）
const (
	RosterStatusOnTime  = "ON_TIME"
	RosterStatusLate    = "LATE"
	RosterStatusNoShow  = "NO_SHOW"
	RosterStatusMedical = "MEDICAL"
)

// 请假标记
const (
	LeaveHalfDay = "HALFDAY"
	LeaveFullDay = "FULLDAY"
)

// Roster 排班实例（一名候选人在某日的一个班次），对应 rosters
// (candidate_id, shift_id, shift_date) 唯一
type Roster struct {
	RosterID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"        json:"roster_id"`
	CandidateID      string     `gorm:"type:uuid;not null"                                    json:"candidate_id"`
	ShiftID          string     `gorm:"type:uuid;not null"                                    json:"shift_id"`
	ProjectID        string     `gorm:"type:uuid;not null"                                    json:"project_id"` // 冗余，便于按项目批量更新
	ShiftDate        time.Time  `gorm:"type:date;not null"                                    json:"shift_date"`
	ShiftType        string     `gorm:"type:varchar(20);not null;default:'FULL_DAY'"          json:"shift_type"`
	Status           *string    `gorm:"type:varchar(20)"                                      json:"status,omitempty"`
	Leave            *string    `gorm:"type:varchar(20)"                                      json:"leave,omitempty"`
	ClockInTime      *time.Time `json:"clock_in_time,omitempty"`
	ClockOutTime     *time.Time `json:"clock_out_time,omitempty"`
	ClockInLatitude  *float64   `gorm:"type:double precision"                                 json:"clock_in_latitude,omitempty"`
	ClockInLongitude *float64   `gorm:"type:double precision"                                 json:"clock_in_longitude,omitempty"`
	BaseModel

	// 关联
	Shift     *Shift     `gorm:"foreignKey:ShiftID;references:ShiftID"         json:"shift,omitempty"`
	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID" json:"candidate,omitempty"`
}

// TableName 指定表名
func (Roster) TableName() string { return "rosters" }
