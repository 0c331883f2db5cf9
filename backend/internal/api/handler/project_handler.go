package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/service"
	"staffhub/backend/pkg/response"
)

// ProjectHandler 项目模块 HTTP 处理器
type ProjectHandler struct {
	projectSvc service.ProjectService
}

// NewProjectHandler 创建 ProjectHandler
func NewProjectHandler(projectSvc service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

// Create 创建项目，创建者成为 CLIENT_HOLDER
// POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 12001, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleProjectError(c, err)
		return
	}

	response.Created(c, project)
}

// Get 获取项目详情
// GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.Get(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// AddManager 添加或变更项目管理人
// POST /api/v1/projects/:id/managers
func (h *ProjectHandler) AddManager(c *gin.Context) {
	var req dto.AddManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 12001, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.AddManager(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// handleProjectError 项目范围内的通用错误，班次与排班处理器在自身错误之后回落到这里
func handleProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 12101, "项目不存在")
	case errors.Is(err, service.ErrProjectForbidden):
		response.Forbidden(c, 12102, "无权操作该项目")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.ErrorWithDetails(c, http.StatusBadRequest, 12103, "日期区间无效", err.Error())
	case errors.Is(err, service.ErrConsultantNotFound):
		response.NotFound(c, 12104, "顾问不存在")
	default:
		response.InternalError(c)
	}
}
