package dto

// ── 班次模板 DTO ──

// CreateShiftRequest 创建班次模板请求
type CreateShiftRequest struct {
	Day              *int    `json:"day"                 binding:"omitempty,min=0,max=6"` // 0=周日，不传表示每天
	StartTime        string  `json:"start_time"          binding:"required,hhmm"`         // "09:00"
	EndTime          string  `json:"end_time"            binding:"required,hhmm"`         // "18:00"，早于开始表示跨午夜
	HalfDayStartTime *string `json:"half_day_start_time" binding:"omitempty,hhmm"`
	HalfDayEndTime   *string `json:"half_day_end_time"   binding:"omitempty,hhmm"`
	BreakDuration    int     `json:"break_duration"      binding:"min=0,max=720"`
	Headcount        int     `json:"headcount"           binding:"omitempty,min=1"`
}

// ShiftResponse 班次模板响应
type ShiftResponse struct {
	ShiftID          string  `json:"shift_id"`
	ProjectID        string  `json:"project_id"`
	Day              *int    `json:"day"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	HalfDayStartTime *string `json:"half_day_start_time"`
	HalfDayEndTime   *string `json:"half_day_end_time"`
	BreakDuration    int     `json:"break_duration"`
	Headcount        int     `json:"headcount"`
	Overnight        bool    `json:"overnight"`
}
