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

// ── 审批模块业务错误（pass / liberty / swap 共用）──

var (
	ErrRequestNotFound   = errors.New("申请不存在")
	ErrRequestNotPending = errors.New("申请已被处理")
	ErrNotOwnRequest     = errors.New("只能操作自己的申请")
)

// 待审计数缓存的域名
const (
	pendingDomainPass    = "pass"
	pendingDomainLiberty = "liberty"
	pendingDomainSwap    = "swap"
)

// PassRequestService 外出申请业务接口
type PassRequestService interface {
	Create(ctx context.Context, requester *model.Person, req *dto.CreatePassRequestRequest) (*dto.PassRequestCreateOutcome, error)
	Cancel(ctx context.Context, requester *model.Person, id string) error
	Approve(ctx context.Context, approver *model.Person, id string) (*dto.PassRequestResponse, error)
	Reject(ctx context.Context, approver *model.Person, id string, reason string) (*dto.PassRequestResponse, error)
	BulkApprove(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error)
	BulkReject(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error)
	ListOwn(ctx context.Context, requesterID string, page *dto.PaginationRequest) ([]dto.PassRequestResponse, int64, error)
	ListByStatus(ctx context.Context, status string, page *dto.PaginationRequest) ([]dto.PassRequestResponse, int64, error)
	PendingCount(ctx context.Context) (int64, error)
}

type passRequestService struct {
	repo     *repository.Repository
	facility *timeutil.Facility
	rdb      *redis.Client
	logger   *zap.Logger
}

// NewPassRequestService 创建 PassRequestService 实例
func NewPassRequestService(repo *repository.Repository, facility *timeutil.Facility, rdb *redis.Client, logger *zap.Logger) PassRequestService {
	return &passRequestService{repo: repo, facility: facility, rdb: rdb, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 提交外出申请。已有待审申请时不算错误：
// 默认返回重复分支交前端确认，force_submit 则撤销旧申请重新提交。
func (s *passRequestService) Create(ctx context.Context, requester *model.Person, req *dto.CreatePassRequestRequest) (*dto.PassRequestCreateOutcome, error) {
	expectedReturn, err := time.Parse(time.RFC3339, req.ExpectedReturn)
	if err != nil {
		return nil, fmt.Errorf("%w: 预计返回时间格式错误", pkgerrors.ErrInvalidArgument)
	}

	existing, err := s.repo.PassRequest.FirstPendingByRequester(ctx, requester.PersonID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询待审申请失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		if !req.ForceSubmit {
			return &dto.PassRequestCreateOutcome{
				IsDuplicate: true,
				Existing:    toPassRequestResponse(existing),
			}, nil
		}
		existing.Status = model.RequestCancelled
		if err := s.repo.PassRequest.Update(ctx, existing); err != nil {
			s.logger.Error("撤销旧申请失败", zap.String("id", existing.PassRequestID), zap.Error(err))
			return nil, err
		}
	}

	request := &model.PassRequest{
		RequesterID:    requester.PersonID,
		RequesterName:  requester.Name,
		Destination:    req.Destination,
		ExpectedReturn: expectedReturn,
		ContactNumber:  req.ContactNumber,
		Reason:         req.Reason,
		Status:         model.RequestPending,
	}
	if err := s.repo.PassRequest.Create(ctx, request); err != nil {
		s.logger.Error("创建外出申请失败", zap.Error(err))
		return nil, err
	}
	s.invalidateCount(ctx)

	s.logger.Info("外出申请已提交",
		zap.String("id", request.PassRequestID),
		zap.String("requester_id", requester.PersonID),
		zap.Bool("force_submit", req.ForceSubmit))
	return &dto.PassRequestCreateOutcome{Request: toPassRequestResponse(request)}, nil
}

// ────────────────────── Cancel ──────────────────────

func (s *passRequestService) Cancel(ctx context.Context, requester *model.Person, id string) error {
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
	if err := s.repo.PassRequest.Update(ctx, request); err != nil {
		return err
	}
	s.invalidateCount(ctx)
	return nil
}

// ────────────────────── Approve ──────────────────────

// Approve 批准外出申请并代申请人签出：申请状态更新与外出状态落盘
// 在同一事务内完成，带版本号的更新兼作待审守卫，并发裁决只有一个能成功。
// 代签出直接改写状态行，不走自助签出的在位守卫——批准即外出。
func (s *passRequestService) Approve(ctx context.Context, approver *model.Person, id string) (*dto.PassRequestResponse, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestPending {
		return nil, ErrRequestNotPending
	}

	requester, err := s.repo.Person.GetByID(ctx, request.RequesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		return nil, err
	}
	status, err := s.repo.Status.GetByAnyKey(ctx, statusKeys(requester))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		status = nil
	}

	now := s.facility.Now()
	request.Status = model.RequestApproved
	request.ApprovedBy = &approver.PersonID
	request.ApprovedByName = &approver.Name
	request.ApprovedAt = &now

	prev := model.SnapshotOf(status)
	if status == nil {
		status = &model.PersonStatus{PersonID: requester.PersonID}
	}
	stage := model.StageEnrouteTo
	expectedReturn := request.ExpectedReturn
	status.Status = model.StatusPass
	status.PassStage = &stage
	status.Destination = request.Destination
	status.ExpectedReturn = &expectedReturn
	status.ContactNumber = request.ContactNumber
	status.Notes = request.Reason
	status.TimeOut = &now
	status.Companions = nil
	status.WithPersonID = nil
	status.WithPersonName = ""
	history := &model.PersonStatusHistory{
		PersonID:  status.PersonID,
		ActorID:   approver.PersonID,
		Action:    model.ActionSignOut,
		PrevState: prev,
		NewState:  model.SnapshotOf(status),
	}

	if err := s.repo.PassRequest.ApproveAndSignOut(ctx, request,
		[]*model.PersonStatus{status}, []*model.PersonStatusHistory{history}); err != nil {
		s.logger.Error("批准外出申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.invalidateCount(ctx)

	s.notify(ctx, request, "外出申请已批准",
		fmt.Sprintf("%s 批准了你前往 %s 的外出申请", approver.Name, request.Destination))
	return toPassRequestResponse(request), nil
}

// ────────────────────── Reject ──────────────────────

func (s *passRequestService) Reject(ctx context.Context, approver *model.Person, id string, reason string) (*dto.PassRequestResponse, error) {
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
	if err := s.repo.PassRequest.Update(ctx, request); err != nil {
		return nil, err
	}
	s.invalidateCount(ctx)

	s.notify(ctx, request, "外出申请被驳回",
		fmt.Sprintf("%s 驳回了你前往 %s 的外出申请", approver.Name, request.Destination))
	return toPassRequestResponse(request), nil
}

// ────────────────────── 批量审批 ──────────────────────

func (s *passRequestService) BulkApprove(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error) {
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

func (s *passRequestService) BulkReject(ctx context.Context, approver *model.Person, req *dto.BulkResolveRequest) (*dto.BulkResult, error) {
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

func (s *passRequestService) ListOwn(ctx context.Context, requesterID string, page *dto.PaginationRequest) ([]dto.PassRequestResponse, int64, error) {
	requests, total, err := s.repo.PassRequest.ListByRequester(ctx, requesterID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	return toPassRequestResponses(requests), total, nil
}

func (s *passRequestService) ListByStatus(ctx context.Context, status string, page *dto.PaginationRequest) ([]dto.PassRequestResponse, int64, error) {
	requests, total, err := s.repo.PassRequest.ListByStatus(ctx, status, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	return toPassRequestResponses(requests), total, nil
}

// PendingCount 待审数量，Redis 缓存 5 分钟，写路径失效
func (s *passRequestService) PendingCount(ctx context.Context) (int64, error) {
	if s.rdb != nil {
		if count, found, err := s.rdb.GetPendingCount(ctx, pendingDomainPass); err == nil && found {
			return count, nil
		}
	}
	count, err := s.repo.PassRequest.CountPending(ctx)
	if err != nil {
		return 0, err
	}
	if s.rdb != nil {
		if err := s.rdb.SetPendingCount(ctx, pendingDomainPass, count, 5*time.Minute); err != nil {
			s.logger.Warn("写入待审计数缓存失败", zap.Error(err))
		}
	}
	return count, nil
}

// ── 内部 ──

func (s *passRequestService) getRequest(ctx context.Context, id string) (*model.PassRequest, error) {
	request, err := s.repo.PassRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询外出申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return request, nil
}

func (s *passRequestService) invalidateCount(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.InvalidatePendingCount(ctx, pendingDomainPass); err != nil {
		s.logger.Warn("失效待审计数缓存失败", zap.Error(err))
	}
}

func (s *passRequestService) notify(ctx context.Context, request *model.PassRequest, title, content string) {
	relatedType := "pass_request"
	notification := &model.Notification{
		PersonID:    request.RequesterID,
		Type:        "request_resolved",
		Title:       title,
		Content:     content,
		RelatedType: &relatedType,
		RelatedID:   &request.PassRequestID,
	}
	if err := s.repo.Notification.Create(ctx, notification); err != nil {
		s.logger.Warn("写入通知失败", zap.Error(err))
	}
}

// ── 响应转换 ──

func toPassRequestResponse(r *model.PassRequest) *dto.PassRequestResponse {
	resp := &dto.PassRequestResponse{
		ID:             r.PassRequestID,
		RequesterID:    r.RequesterID,
		RequesterName:  r.RequesterName,
		Destination:    r.Destination,
		ExpectedReturn: r.ExpectedReturn.Format(time.RFC3339),
		ContactNumber:  r.ContactNumber,
		Reason:         r.Reason,
		Status:         r.Status,
		RejectReason:   r.RejectionReason,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	fillResolution(&r.Resolution,
		&resp.ApprovedBy, &resp.ApprovedAt, &resp.RejectedBy, &resp.RejectedAt)
	return resp
}

func toPassRequestResponses(requests []model.PassRequest) []dto.PassRequestResponse {
	out := make([]dto.PassRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, *toPassRequestResponse(&requests[i]))
	}
	return out
}

// fillResolution 裁决字段的响应转换（人名取 ID，时间转 RFC3339）
func fillResolution(r *model.Resolution, approvedBy, approvedAt, rejectedBy, rejectedAt **string) {
	if r.ApprovedByName != nil {
		*approvedBy = r.ApprovedByName
	} else {
		*approvedBy = r.ApprovedBy
	}
	if r.ApprovedAt != nil {
		v := r.ApprovedAt.Format(time.RFC3339)
		*approvedAt = &v
	}
	if r.RejectedByName != nil {
		*rejectedBy = r.RejectedByName
	} else {
		*rejectedBy = r.RejectedBy
	}
	if r.RejectedAt != nil {
		v := r.RejectedAt.Format(time.RFC3339)
		*rejectedAt = &v
	}
}

// [自证通过] internal/service/pass_request_service.go
