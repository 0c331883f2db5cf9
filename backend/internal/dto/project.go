package dto

// ── 项目模块 DTO ──

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name             string `json:"name"               binding:"required,min=2,max=200"`
	ClientName       string `json:"client_name"        binding:"required,max=200"`
	StartDate        string `json:"start_date"         binding:"required,datetime=2006-01-02"`
	EndDate          string `json:"end_date"           binding:"required,datetime=2006-01-02"`
	NoticePeriodDays int    `json:"notice_period_days" binding:"min=0,max=365"`
}

// AddManagerRequest 添加项目管理人请求
type AddManagerRequest struct {
	ConsultantID string `json:"consultant_id" binding:"required,uuid"`
	Role         string `json:"role"          binding:"required,oneof=CLIENT_HOLDER CANDIDATE_HOLDER"`
}

// ProjectResponse 项目信息响应
type ProjectResponse struct {
	ProjectID        string         `json:"project_id"`
	Name             string         `json:"name"`
	ClientName       string         `json:"client_name"`
	StartDate        string         `json:"start_date"`
	EndDate          string         `json:"end_date"`
	NoticePeriodDays int            `json:"notice_period_days"`
	Managers         []ManagerBrief `json:"managers"`
	CreatedAt        string         `json:"created_at"`
}

// ManagerBrief 项目管理人简要信息
type ManagerBrief struct {
	ConsultantID string `json:"consultant_id"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role"`
}
