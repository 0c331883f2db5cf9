package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"staffhub/backend/internal/service"
	"staffhub/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler 考勤报表 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// ExportAttendance 导出项目考勤汇总
// GET /api/v1/projects/:id/attendance/export?from=2026-03-01&to=2026-03-31
func (h *ReportHandler) ExportAttendance(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		response.BadRequest(c, 16001, "from 与 to 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.reportSvc.ExportAttendance(c.Request.Context(), c.Param("id"), from, to, callerID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNoRoster):
		response.NotFound(c, 16101, "所选区间内没有排班")
	case errors.Is(err, service.ErrReportGenerateFail):
		response.InternalError(c)
	default:
		handleProjectError(c, err)
	}
}
