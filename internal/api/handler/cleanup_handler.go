package handler

import (
	"github.com/gin-gonic/gin"

	"wotsapp/internal/dto"
	"wotsapp/internal/service"
	"wotsapp/pkg/response"
)

// CleanupHandler 状态行键漂移清理工具 HTTP 处理器
type CleanupHandler struct {
	cleanupSvc service.CleanupService
}

// NewCleanupHandler 创建 CleanupHandler
func NewCleanupHandler(cleanupSvc service.CleanupService) *CleanupHandler {
	return &CleanupHandler{cleanupSvc: cleanupSvc}
}

// Preview 列出键漂移的人员，不做修改
// GET /api/v1/cleanup/preview
func (h *CleanupHandler) Preview(c *gin.Context) {
	list, err := h.cleanupSvc.Preview(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Apply 执行合并，dry_run=true 只统计不落库
// POST /api/v1/cleanup/apply
func (h *CleanupHandler) Apply(c *gin.Context) {
	var req dto.CleanupApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.cleanupSvc.Apply(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

