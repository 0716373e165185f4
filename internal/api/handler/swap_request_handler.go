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

// SwapRequestHandler 换班申请模块 HTTP 处理器
type SwapRequestHandler struct {
	swapSvc service.SwapRequestService
}

// NewSwapRequestHandler 创建 SwapRequestHandler
func NewSwapRequestHandler(swapSvc service.SwapRequestService) *SwapRequestHandler {
	return &SwapRequestHandler{swapSvc: swapSvc}
}

// Create 提交换班申请，按班次去重
// POST /api/v1/swap-requests
func (h *SwapRequestHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateSwapRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	outcome, err := h.swapSvc.Create(c.Request.Context(), actor, &req)
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
// POST /api/v1/swap-requests/:id/cancel
func (h *SwapRequestHandler) Cancel(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.swapSvc.Cancel(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, nil)
}

// Approve 批准申请并在同一事务内改写值班表
// POST /api/v1/swap-requests/:id/approve
func (h *SwapRequestHandler) Approve(c *gin.Context) {
	approver, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.swapSvc.Approve(c.Request.Context(), approver, c.Param("id"))
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject 驳回申请
// POST /api/v1/swap-requests/:id/reject
func (h *SwapRequestHandler) Reject(c *gin.Context) {
	approver, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.swapSvc.Reject(c.Request.Context(), approver, c.Param("id"), req.Reason)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// BulkApprove 批量批准，逐条落实换班，单条失败不影响其余
// POST /api/v1/swap-requests/bulk-approve
func (h *SwapRequestHandler) BulkApprove(c *gin.Context) {
	approver, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.BulkResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.swapSvc.BulkApprove(c.Request.Context(), approver, &req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// BulkReject 批量驳回
// POST /api/v1/swap-requests/bulk-reject
func (h *SwapRequestHandler) BulkReject(c *gin.Context) {
	approver, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.BulkResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.swapSvc.BulkReject(c.Request.Context(), approver, &req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// ListOwn 查询本人申请
// GET /api/v1/swap-requests/mine
func (h *SwapRequestHandler) ListOwn(c *gin.Context) {
	personID, ok := MustGetPersonID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.swapSvc.ListOwn(c.Request.Context(), personID, &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// ListByStatus 按状态查询申请（审批队列）
// GET /api/v1/swap-requests?status=pending
func (h *SwapRequestHandler) ListByStatus(c *gin.Context) {
	status := c.DefaultQuery("status", model.RequestPending)

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.swapSvc.ListByStatus(c.Request.Context(), status, &page)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// ListSwapTargets 整班互换可选目标班次
// GET /api/v1/swap-requests/targets?schedule_date=2026-03-06&shift_type=shift1
func (h *SwapRequestHandler) ListSwapTargets(c *gin.Context) {
	scheduleDate := c.Query("schedule_date")
	shiftType := c.Query("shift_type")
	if scheduleDate == "" || shiftType == "" {
		response.BadRequest(c, 10001, "schedule_date 和 shift_type 不能为空")
		return
	}

	targets, err := h.swapSvc.ListSwapTargets(c.Request.Context(), scheduleDate, shiftType)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, gin.H{"list": targets})
}

// PendingCount 待审数量（红点角标）
// GET /api/v1/swap-requests/pending-count
func (h *SwapRequestHandler) PendingCount(c *gin.Context) {
	count, err := h.swapSvc.PendingCount(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.PendingCountResponse{Count: count})
}

func (h *SwapRequestHandler) handleRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotOnShift):
		response.Conflict(c, 15001, "申请人不在该班次上")
	case errors.Is(err, service.ErrProposedRequired):
		response.BadRequest(c, 15002, "个人换班需指定接班人")
	case errors.Is(err, service.ErrProposedSelf):
		response.BadRequest(c, 15003, "接班人不能是自己")
	case errors.Is(err, service.ErrProposedOnShift):
		response.Conflict(c, 15004, "接班人已在该班次上")
	case errors.Is(err, service.ErrTargetRequired):
		response.BadRequest(c, 15005, "整班互换需指定目标班次")
	case errors.Is(err, service.ErrTargetUnavailable):
		response.Conflict(c, 15006, "目标班次不可选")
	case errors.Is(err, service.ErrTargetSameSlot):
		response.BadRequest(c, 15007, "目标班次不能与原班次相同")
	case errors.Is(err, service.ErrScheduleEntryAbsent):
		response.NotFound(c, 15008, "该日期无值班安排")
	case errors.Is(err, service.ErrPersonNotFound):
		response.NotFound(c, 11004, "人员不存在")
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 13001, "申请不存在")
	case errors.Is(err, service.ErrRequestNotPending):
		response.Conflict(c, 13002, "申请已被处理")
	case errors.Is(err, service.ErrNotOwnRequest):
		response.Forbidden(c, 13003, "只能操作自己的申请")
	case errors.Is(err, pkgerrors.ErrFailedPrecondition):
		response.Conflict(c, 15009, "值班表已变化，换班未生效")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/swap_request_handler.go
