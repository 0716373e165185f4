package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wotsapp/internal/model"
	pkgerrors "wotsapp/pkg/errors"
)

// CQScheduleRepository 值班表数据访问接口
type CQScheduleRepository interface {
	GetByDate(ctx context.Context, dutyDate time.Time) (*model.CQScheduleEntry, error)
	ListRange(ctx context.Context, from, to time.Time) ([]model.CQScheduleEntry, error)
	ListFrom(ctx context.Context, from time.Time) ([]model.CQScheduleEntry, error)
	Create(ctx context.Context, entry *model.CQScheduleEntry) error
	Update(ctx context.Context, entry *model.CQScheduleEntry) error
	Delete(ctx context.Context, id string) error
}

type cqScheduleRepo struct {
	db *gorm.DB
}

func NewCQScheduleRepo(db *gorm.DB) CQScheduleRepository {
	return &cqScheduleRepo{db: db}
}

func (r *cqScheduleRepo) GetByDate(ctx context.Context, dutyDate time.Time) (*model.CQScheduleEntry, error) {
	var entry model.CQScheduleEntry
	err := r.db.WithContext(ctx).
		Where("duty_date = ?", dutyDate).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *cqScheduleRepo) ListRange(ctx context.Context, from, to time.Time) ([]model.CQScheduleEntry, error) {
	var entries []model.CQScheduleEntry
	err := r.db.WithContext(ctx).
		Where("duty_date >= ? AND duty_date <= ?", from, to).
		Order("duty_date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *cqScheduleRepo) ListFrom(ctx context.Context, from time.Time) ([]model.CQScheduleEntry, error) {
	var entries []model.CQScheduleEntry
	err := r.db.WithContext(ctx).
		Where("duty_date >= ?", from).
		Order("duty_date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *cqScheduleRepo) Create(ctx context.Context, entry *model.CQScheduleEntry) error {
	if entry.Version == 0 {
		entry.Version = 1
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *cqScheduleRepo) Update(ctx context.Context, entry *model.CQScheduleEntry) error {
	return updateScheduleEntry(r.db.WithContext(ctx), entry)
}

func updateScheduleEntry(db *gorm.DB, entry *model.CQScheduleEntry) error {
	oldVersion := entry.Version
	result := db.
		Model(entry).
		Where("entry_id = ? AND version = ?", entry.EntryID, oldVersion).
		Updates(map[string]interface{}{
			"shift1":  entry.Shift1,
			"shift2":  entry.Shift2,
			"version": oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version = oldVersion + 1
	return nil
}

func (r *cqScheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("entry_id = ?", id).
		Delete(&model.CQScheduleEntry{}).Error
}

