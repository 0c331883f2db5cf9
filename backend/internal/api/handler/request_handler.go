package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/model"
	"staffhub/backend/internal/service"
	"staffhub/backend/pkg/response"
)

// RequestHandler 申请与审批 HTTP 处理器
type RequestHandler struct {
	requestSvc service.RequestService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(requestSvc service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

// Submit 候选人提交申请；病假可能按项目拆成多条
// POST /api/v1/requests
func (h *RequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 15001, err)
		return
	}

	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	created, err := h.requestSvc.Submit(c.Request.Context(), candidateID, &req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.Created(c, gin.H{"list": created})
}

// ListMine 我的申请
// GET /api/v1/requests/me
func (h *RequestHandler) ListMine(c *gin.Context) {
	var req dto.RequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 15001, err)
		return
	}

	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.requestSvc.ListMine(c.Request.Context(), candidateID, &req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListByProject 项目下的申请（管理人视角）
// GET /api/v1/projects/:id/requests
func (h *RequestHandler) ListByProject(c *gin.Context) {
	var req dto.RequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 15001, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.requestSvc.ListByProject(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 申请详情
// GET /api/v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.Get(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// Approve 审批通过
// POST /api/v1/requests/:id/approve
func (h *RequestHandler) Approve(c *gin.Context) {
	h.decide(c, h.requestSvc.Approve)
}

// Reject 驳回
// POST /api/v1/requests/:id/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	h.decide(c, h.requestSvc.Reject)
}

// Cancel 候选人撤回自己的待审批申请
// POST /api/v1/requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	h.decide(c, h.requestSvc.Cancel)
}

func (h *RequestHandler) decide(c *gin.Context, fn func(ctx context.Context, requestID, callerID string) (*dto.RequestResponse, error)) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *RequestHandler) handleRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 15101, "申请不存在或已处理")
	case errors.Is(err, service.ErrRequestForbidden):
		response.Forbidden(c, 15102, "无权处理该申请")
	case errors.Is(err, service.ErrRequestInvalid), errors.Is(err, model.ErrUnknownRequestType):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15103, "申请参数无效", err.Error())
	case errors.Is(err, service.ErrLeaveAlreadyApplied):
		response.Conflict(c, 15104, "该排班已请假或有待审批的请假申请")
	case errors.Is(err, service.ErrAttachmentUpload):
		response.Error(c, http.StatusBadGateway, 15105, "附件上传失败，请稍后重试")
	case errors.Is(err, service.ErrRosterNotFound):
		response.NotFound(c, 14101, "排班不存在")
	case errors.Is(err, service.ErrRosterForbidden):
		response.Forbidden(c, 14102, "无权操作该排班")
	default:
		handleProjectError(c, err)
	}
}
