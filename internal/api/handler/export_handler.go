package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"wotsapp/internal/dto"
	"wotsapp/internal/service"
	pkgerrors "wotsapp/pkg/errors"
	"wotsapp/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportStatusHistory 导出状态历史为 Excel
// GET /api/v1/export/status-history?person_id=xxx&from=2026-03-01&to=2026-03-31
func (h *ExportHandler) ExportStatusHistory(c *gin.Context) {
	var req dto.StatusHistoryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportStatusHistory(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.writeXLSX(c, buf.Bytes(), filename)
}

// ExportSchedule 导出某月值班表为 Excel
// GET /api/v1/export/schedule?month=2026-03
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		response.BadRequest(c, 10001, "month 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportSchedule(c.Request.Context(), month)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.writeXLSX(c, buf.Bytes(), filename)
}

func (h *ExportHandler) writeXLSX(c *gin.Context, data []byte, filename string) {
	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", xlsxContentType)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoHistory):
		response.NotFound(c, 18101, "查询区间内无状态历史")
	case errors.Is(err, service.ErrExportNoSchedule):
		response.NotFound(c, 18102, "查询月份无值班安排")
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

