package handler

import "staffhub/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth    *AuthHandler
	Project *ProjectHandler
	Shift   *ShiftHandler
	Roster  *RosterHandler
	Request *RequestHandler
	Report  *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(svc.Auth),
		Project: NewProjectHandler(svc.Project),
		Shift:   NewShiftHandler(svc.Shift),
		Roster:  NewRosterHandler(svc.Roster, svc.Clock),
		Request: NewRequestHandler(svc.Request),
		Report:  NewReportHandler(svc.Report),
	}
}
