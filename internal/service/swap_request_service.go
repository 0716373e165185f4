package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/repository"
	pkgerrors "wotsapp/pkg/errors"
	"wotsapp/pkg/redis"
	"wotsapp/pkg/timeutil"
)

// ── 换班模块业务错误 ──

var (
	ErrNotOnShift          = errors.New("申请人不在该班次上")
	ErrProposedRequired    = errors.New("个人换班需指定接班人")
	ErrProposedSelf        = errors.New("接班人不能是自己")
	ErrProposedOnShift     = errors.New("接班人已在该班次上")
	ErrTargetRequired      = errors.New("整班互换需指定目标班次")
	ErrTargetUnavailable   = errors.New("目标班次不可选")
	ErrTargetSameSlot      = errors.New("目标班次不能与原班次相同")
	ErrScheduleEntryAbsent = errors.New("该日期无值班安排")
)

// SwapRequestService 换班申请业务接口
type SwapRequestService interface {
	Create(ctx context.Context, requester *model.Person, req *dto.CreateSwapRequestRequest) (*dto.SwapRequestCreateOutcome, error)
	Cancel(ctx context.Context, requester *model.Person, id string) error
	Approve(ctx context.Context, approver *model.Person, id string) (*dto.SwapRequestResponse, error)
	Reject(ctx context.Context, approver *model.Person, id string, reason string) (*dto.SwapRequestResponse, error)
	BulkApprove(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error)
	BulkReject(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error)
	ListOwn(ctx context.Context, requesterID string, page *dto.PaginationRequest) ([]dto.SwapRequestResponse, int64, error)
	ListByStatus(ctx context.Context, status string, page *dto.PaginationRequest) ([]dto.SwapRequestResponse, int64, error)
	ListSwapTargets(ctx context.Context, scheduleDate, shiftType string) ([]dto.SwapTargetResponse, error)
	PendingCount(ctx context.Context) (int64, error)
}

type swapRequestService struct {
	repo     *repository.Repository
	facility *timeutil.Facility
	rdb      *redis.Client
	logger   *zap.Logger
}

// NewSwapRequestService 创建 SwapRequestService 实例
func NewSwapRequestService(repo *repository.Repository, facility *timeutil.Facility, rdb *redis.Client, logger *zap.Logger) SwapRequestService {
	return &swapRequestService{repo: repo, facility: facility, rdb: rdb, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 提交换班申请。重复判定按 (申请人, 日期, 班次)。
func (s *swapRequestService) Create(ctx context.Context, requester *model.Person, req *dto.CreateSwapRequestRequest) (*dto.SwapRequestCreateOutcome, error) {
	scheduleDate, err := time.ParseInLocation(timeutil.DateLayout, req.ScheduleDate, s.facility.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: 值班日期格式错误", pkgerrors.ErrInvalidArgument)
	}

	// 申请人必须在原班次上
	entry, err := s.repo.CQSchedule.GetByDate(ctx, scheduleDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleEntryAbsent
		}
		return nil, err
	}
	shift := entry.ShiftOf(req.ShiftType)
	if !shift.Contains(requester.PersonID) {
		return nil, ErrNotOnShift
	}

	request := &model.CQSwapRequest{
		RequesterID:   requester.PersonID,
		RequesterName: requester.Name,
		SwapType:      req.SwapType,
		ScheduleDate:  scheduleDate,
		ShiftType:     req.ShiftType,
		Reason:        req.Reason,
		Status:        model.RequestPending,
	}

	switch req.SwapType {
	case model.SwapTypeIndividual:
		if err := s.fillIndividual(ctx, requester, req, shift, request); err != nil {
			return nil, err
		}
	case model.SwapTypeFullShift:
		if err := s.fillFullShift(ctx, req, request); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.SwapRequest.FirstPendingByRequesterAndSlot(ctx, requester.PersonID, scheduleDate, req.ShiftType)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询待审申请失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		if !req.ForceSubmit {
			return &dto.SwapRequestCreateOutcome{
				IsDuplicate: true,
				Existing:    toSwapRequestResponse(existing),
			}, nil
		}
		existing.Status = model.RequestCancelled
		if err := s.repo.SwapRequest.Update(ctx, existing); err != nil {
			s.logger.Error("撤销旧申请失败", zap.String("id", existing.SwapRequestID), zap.Error(err))
			return nil, err
		}
	}

	if err := s.repo.SwapRequest.Create(ctx, request); err != nil {
		s.logger.Error("创建换班申请失败", zap.Error(err))
		return nil, err
	}
	s.invalidateCount(ctx)

	s.logger.Info("换班申请已提交",
		zap.String("id", request.SwapRequestID),
		zap.String("requester_id", requester.PersonID),
		zap.String("swap_type", req.SwapType),
		zap.String("slot", req.ScheduleDate+"/"+req.ShiftType))
	return &dto.SwapRequestCreateOutcome{Request: toSwapRequestResponse(request)}, nil
}

func (s *swapRequestService) fillIndividual(ctx context.Context, requester *model.Person, req *dto.CreateSwapRequestRequest, shift model.AssigneeList, request *model.CQSwapRequest) error {
	if req.ProposedID == "" {
		return ErrProposedRequired
	}
	if req.ProposedID == requester.PersonID {
		return ErrProposedSelf
	}
	if shift.Contains(req.ProposedID) {
		return ErrProposedOnShift
	}
	proposed, err := s.repo.Person.GetByID(ctx, req.ProposedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPersonNotFound
		}
		return err
	}
	request.ProposedID = &proposed.PersonID
	request.ProposedName = &proposed.Name
	return nil
}

func (s *swapRequestService) fillFullShift(ctx context.Context, req *dto.CreateSwapRequestRequest, request *model.CQSwapRequest) error {
	if req.TargetDate == "" || req.TargetShiftType == "" {
		return ErrTargetRequired
	}
	if req.TargetDate == req.ScheduleDate && req.TargetShiftType == req.ShiftType {
		return ErrTargetSameSlot
	}
	if !s.facility.ShiftTargetAvailable(req.TargetDate, timeutil.ShiftType(req.TargetShiftType)) {
		return ErrTargetUnavailable
	}
	targetDate, err := time.ParseInLocation(timeutil.DateLayout, req.TargetDate, s.facility.Location())
	if err != nil {
		return fmt.Errorf("%w: 目标日期格式错误", pkgerrors.ErrInvalidArgument)
	}
	if _, err := s.repo.CQSchedule.GetByDate(ctx, targetDate); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTargetUnavailable
		}
		return err
	}
	targetShiftType := req.TargetShiftType
	request.TargetDate = &targetDate
	request.TargetShiftType = &targetShiftType
	return nil
}

// ────────────────────── Cancel ──────────────────────

func (s *swapRequestService) Cancel(ctx context.Context, requester *model.Person, id string) error {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return err
	}
	if request.RequesterID != requester.PersonID {
		return ErrNotOwnRequest
	}
	if request.Status != model.RequestPending {
		return ErrRequestNotPending
	}
	request.Status = model.RequestCancelled
	if err := s.repo.SwapRequest.Update(ctx, request); err != nil {
		return err
	}
	s.invalidateCount(ctx)
	return nil
}

// ────────────────────── Approve ──────────────────────

// Approve 批准并落实换班：申请状态更新与值班表变更在同一事务内完成
func (s *swapRequestService) Approve(ctx context.Context, approver *model.Person, id string) (*dto.SwapRequestResponse, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestPending {
		return nil, ErrRequestNotPending
	}

	now := s.facility.Now()
	request.Status = model.RequestApproved
	request.ApprovedBy = &approver.PersonID
	request.ApprovedByName = &approver.Name
	request.ApprovedAt = &now
	if err := s.repo.SwapRequest.ApproveAndApply(ctx, request); err != nil {
		s.logger.Error("批准换班失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.invalidateCount(ctx)

	s.notify(ctx, request, "换班申请已批准",
		fmt.Sprintf("%s 批准了你 %s %s 的换班申请",
			approver.Name, request.ScheduleDate.Format(timeutil.DateLayout), request.ShiftType))
	return toSwapRequestResponse(request), nil
}

// ────────────────────── Reject ──────────────────────

func (s *swapRequestService) Reject(ctx context.Context, approver *model.Person, id string, reason string) (*dto.SwapRequestResponse, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestPending {
		return nil, ErrRequestNotPending
	}

	now := s.facility.Now()
	request.Status = model.RequestRejected
	request.RejectedBy = &approver.PersonID
	request.RejectedByName = &approver.Name
	request.RejectedAt = &now
	if reason != "" {
		request.RejectionReason = &reason
	}
	if err := s.repo.SwapRequest.Update(ctx, request); err != nil {
		return nil, err
	}
	s.invalidateCount(ctx)

	s.notify(ctx, request, "换班申请被驳回",
		fmt.Sprintf("%s 驳回了你 %s %s 的换班申请",
			approver.Name, request.ScheduleDate.Format(timeutil.DateLayout), request.ShiftType))
	return toSwapRequestResponse(request), nil
}

// ────────────────────── 批量审批 ──────────────────────

func (s *swapRequestService) BulkApprove(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error) {
	result := &dto.BulkResult{}
	for _, id := range req.IDs {
		if _, err := s.Approve(ctx, approver, id); err != nil {
			result.Failed = append(result.Failed, dto.BulkFailure{ID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

func (s *swapRequestService) BulkReject(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error) {
	result := &dto.BulkResult{}
	for _, id := range req.IDs {
		if _, err := s.Reject(ctx, approver, id, req.Reason); err != nil {
			result.Failed = append(result.Failed, dto.BulkFailure{ID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *swapRequestService) ListOwn(ctx context.Context, requesterID string, page *dto.PaginationRequest) ([]dto.SwapRequestResponse, int64, error) {
	requests, total, err := s.repo.SwapRequest.ListByRequester(ctx, requesterID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	return toSwapRequestResponses(requests), total, nil
}

func (s *swapRequestService) ListByStatus(ctx context.Context, status string, page *dto.PaginationRequest) ([]dto.SwapRequestResponse, int64, error) {
	requests, total, err := s.repo.SwapRequest.ListByStatus(ctx, status, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	return toSwapRequestResponses(requests), total, nil
}

// ListSwapTargets 整班互换的可选目标班次：
// 过去的班次不可选；今天的 shift2 一律不可选（跨拂晓无法完整交接）；
// 今天的 shift1 在营区时区 20 点后不可选；源班次自身不可选。
func (s *swapRequestService) ListSwapTargets(ctx context.Context, scheduleDate, shiftType string) ([]dto.SwapTargetResponse, error) {
	today, err := s.facility.DayStart(s.facility.Today())
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.CQSchedule.ListFrom(ctx, today)
	if err != nil {
		return nil, err
	}

	out := []dto.SwapTargetResponse{}
	for i := range entries {
		entry := &entries[i]
		date := s.facility.FormatDate(entry.DutyDate)
		for _, shift := range []timeutil.ShiftType{timeutil.Shift1, timeutil.Shift2} {
			if date == scheduleDate && string(shift) == shiftType {
				continue
			}
			if !s.facility.ShiftTargetAvailable(date, shift) {
				continue
			}
			start, end, err := s.facility.ShiftWindow(date, shift)
			if err != nil {
				return nil, err
			}
			assignees := entry.ShiftOf(string(shift))
			target := dto.SwapTargetResponse{
				DutyDate:  date,
				ShiftType: string(shift),
				StartsAt:  start.Format(time.RFC3339),
				EndsAt:    end.Format(time.RFC3339),
			}
			for _, a := range assignees {
				target.Assignees = append(target.Assignees, dto.AssigneeInput{ID: a.ID, Name: a.Name})
			}
			out = append(out, target)
		}
	}
	return out, nil
}

func (s *swapRequestService) PendingCount(ctx context.Context) (int64, error) {
	if s.rdb != nil {
		if count, found, err := s.rdb.GetPendingCount(ctx, pendingDomainSwap); err == nil && found {
			return count, nil
		}
	}
	count, err := s.repo.SwapRequest.CountPending(ctx)
	if err != nil {
		return 0, err
	}
	if s.rdb != nil {
		if err := s.rdb.SetPendingCount(ctx, pendingDomainSwap, count, 5*time.Minute); err != nil {
			s.logger.Warn("写入待审计数缓存失败", zap.Error(err))
		}
	}
	return count, nil
}

// ── 内部 ──

func (s *swapRequestService) getRequest(ctx context.Context, id string) (*model.CQSwapRequest, error) {
	request, err := s.repo.SwapRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return request, nil
}

func (s *swapRequestService) invalidateCount(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.InvalidatePendingCount(ctx, pendingDomainSwap); err != nil {
		s.logger.Warn("失效待审计数缓存失败", zap.Error(err))
	}
}

func (s *swapRequestService) notify(ctx context.Context, request *model.CQSwapRequest, title, content string) {
	relatedType := "swap_request"
	notification := &model.Notification{
		PersonID:    request.RequesterID,
		Type:        "request_resolved",
		Title:       title,
		Content:     content,
		RelatedType: &relatedType,
		RelatedID:   &request.SwapRequestID,
	}
	if err := s.repo.Notification.Create(ctx, notification); err != nil {
		s.logger.Warn("写入通知失败", zap.Error(err))
	}
}

// ── 响应转换 ──

func toSwapRequestResponse(r *model.CQSwapRequest) *dto.SwapRequestResponse {
	resp := &dto.SwapRequestResponse{
		ID:            r.SwapRequestID,
		RequesterID:   r.RequesterID,
		RequesterName: r.RequesterName,
		SwapType:      r.SwapType,
		ScheduleDate:  r.ScheduleDate.Format(timeutil.DateLayout),
		ShiftType:     r.ShiftType,
		ProposedID:    r.ProposedID,
		ProposedName:  r.ProposedName,
		Reason:        r.Reason,
		Status:        r.Status,
		RejectReason:  r.RejectionReason,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.TargetDate != nil {
		v := r.TargetDate.Format(timeutil.DateLayout)
		resp.TargetDate = &v
	}
	resp.TargetShiftType = r.TargetShiftType
	fillResolution(&r.Resolution,
		&resp.ApprovedBy, &resp.ApprovedAt, &resp.RejectedBy, &resp.RejectedAt)
	return resp
}

func toSwapRequestResponses(requests []model.CQSwapRequest) []dto.SwapRequestResponse {
	out := make([]dto.SwapRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, *toSwapRequestResponse(&requests[i]))
	}
	return out
}

// [自证通过] internal/service/swap_request_service.go
