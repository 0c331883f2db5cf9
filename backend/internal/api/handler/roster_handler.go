package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"staffhub/backend/internal/dto"
	"staffhub/backend/internal/service"
	"staffhub/backend/pkg/response"
)

// RosterHandler 排班与打卡 HTTP 处理器
type RosterHandler struct {
	rosterSvc service.RosterService
	clockSvc  service.ClockService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(rosterSvc service.RosterService, clockSvc service.ClockService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc, clockSvc: clockSvc}
}

// Assign 将候选人分配到班次，按日期区间生成排班
// POST /api/v1/projects/:id/assign
func (h *RosterHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 14001, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.rosterSvc.Assign(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.Created(c, result)
}

// ListByProject 项目排班（顾问视角，可按候选人过滤）
// GET /api/v1/projects/:id/rosters?from=&to=&candidate_id=
func (h *RosterHandler) ListByProject(c *gin.Context) {
	var req dto.RosterListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 14001, err)
		return
	}

	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	rosters, err := h.rosterSvc.ListByProject(c.Request.Context(), c.Param("id"), &req, p)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rosters})
}

// ListMine 我的排班
// GET /api/v1/rosters/me?from=&to=
func (h *RosterHandler) ListMine(c *gin.Context) {
	var req dto.RosterListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, 14001, err)
		return
	}

	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rosters, err := h.rosterSvc.ListMine(c.Request.Context(), candidateID, &req)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rosters})
}

// Delete 删除尚未开始的排班
// DELETE /api/v1/rosters/:id
func (h *RosterHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.rosterSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, nil)
}

// Clock 签到或签退
// POST /api/v1/rosters/:id/clock
func (h *RosterHandler) Clock(c *gin.Context) {
	var req dto.ClockEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 14001, err)
		return
	}

	candidateID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	roster, err := h.clockSvc.RecordClockEvent(c.Request.Context(), c.Param("id"), candidateID, &req)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, roster)
}

// ClockInImage 下载签到照片（本人或有读权限的顾问）
// GET /api/v1/rosters/:id/clock-in-image
func (h *RosterHandler) ClockInImage(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	body, contentType, err := h.rosterSvc.ClockInImage(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.Attachment(c, "clock-in-"+c.Param("id")+".jpg", contentType, body)
}

func (h *RosterHandler) handleRosterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRosterNotFound):
		response.NotFound(c, 14101, "排班不存在")
	case errors.Is(err, service.ErrRosterForbidden):
		response.Forbidden(c, 14102, "无权操作该排班")
	case errors.Is(err, service.ErrRosterNotDeletable):
		response.Conflict(c, 14103, "只能删除尚未开始且未打卡的排班")
	case errors.Is(err, service.ErrCandidateNotFound):
		response.NotFound(c, 14104, "候选人不存在")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 14105, "班次不存在")
	case errors.Is(err, service.ErrClockInImageNotFound):
		response.NotFound(c, 14106, "打卡照片不存在")

	// ── 打卡 ──
	case errors.Is(err, service.ErrClockEventAmbiguous):
		response.BadRequest(c, 14201, "签到时间与签退时间必须且只能提供一个")
	case errors.Is(err, service.ErrClockInProofRequired):
		response.BadRequest(c, 14202, "签到必须提供现场照片和班次开始时间")
	case errors.Is(err, service.ErrInvalidProofImage):
		response.BadRequest(c, 14203, "现场照片无法识别")
	case errors.Is(err, service.ErrClockOutBeforeClockIn):
		response.BadRequest(c, 14204, "签退时间早于签到时间")
	case errors.Is(err, service.ErrAlreadyClockedIn):
		response.Conflict(c, 14205, "该排班已签到")
	case errors.Is(err, service.ErrNotClockedIn):
		response.Conflict(c, 14206, "尚未签到，不能签退")
	case errors.Is(err, service.ErrAlreadyClockedOut):
		response.Conflict(c, 14207, "该排班已签退")
	case errors.Is(err, service.ErrRosterMedical):
		response.Error(c, http.StatusUnprocessableEntity, 14208, "该排班已登记病假，不能签到")
	default:
		handleProjectError(c, err)
	}
}
