package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"wotsapp/internal/dto"
	"wotsapp/internal/service"
	pkgerrors "wotsapp/pkg/errors"
	"wotsapp/pkg/response"
)

// ScheduleHandler 值班表模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.CQScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.CQScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// Upsert 设置某日值班安排（整行覆盖）
// PUT /api/v1/schedule
func (h *ScheduleHandler) Upsert(c *gin.Context) {
	adminID, ok := MustGetPersonID(c)
	if !ok {
		return
	}

	var req dto.UpsertScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entry, err := h.scheduleSvc.Upsert(c.Request.Context(), adminID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, entry)
}

// GetByDate 查询某日值班安排
// GET /api/v1/schedule/:date
func (h *ScheduleHandler) GetByDate(c *gin.Context) {
	entry, err := h.scheduleSvc.GetByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, entry)
}

// List 按月或日期区间查询值班表，默认当月
// GET /api/v1/schedule?month=2026-03
func (h *ScheduleHandler) List(c *gin.Context) {
	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entries, err := h.scheduleSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// ListMine 查询本人的班次，默认当月
// GET /api/v1/schedule/mine
func (h *ScheduleHandler) ListMine(c *gin.Context) {
	personID, ok := MustGetPersonID(c)
	if !ok {
		return
	}

	var req dto.ScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shifts, err := h.scheduleSvc.ListMine(c.Request.Context(), personID, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": shifts})
}

// Delete 删除某日值班安排
// DELETE /api/v1/schedule/:date
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.scheduleSvc.Delete(c.Request.Context(), c.Param("date")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleEntryAbsent):
		response.NotFound(c, 15008, "该日期无值班安排")
	case errors.Is(err, service.ErrScheduleRangeInvalid):
		response.BadRequest(c, 16001, "查询区间无效")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}

