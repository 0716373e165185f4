package repository

import (
	"context"

	"gorm.io/gorm"

	"wotsapp/internal/model"
)

// UniformRepository 制服条目数据访问接口
type UniformRepository interface {
	Create(ctx context.Context, uniform *model.Uniform) error
	GetByID(ctx context.Context, id string) (*model.Uniform, error)
	List(ctx context.Context, activeOnly bool) ([]model.Uniform, error)
	Update(ctx context.Context, uniform *model.Uniform) error
	Delete(ctx context.Context, id string) error
}

type uniformRepo struct {
	db *gorm.DB
}

func NewUniformRepo(db *gorm.DB) UniformRepository {
	return &uniformRepo{db: db}
}

func (r *uniformRepo) Create(ctx context.Context, uniform *model.Uniform) error {
	return r.db.WithContext(ctx).Create(uniform).Error
}

func (r *uniformRepo) GetByID(ctx context.Context, id string) (*model.Uniform, error) {
	var uniform model.Uniform
	err := r.db.WithContext(ctx).
		Where("uniform_id = ?", id).
		First(&uniform).Error
	if err != nil {
		return nil, err
	}
	return &uniform, nil
}

func (r *uniformRepo) List(ctx context.Context, activeOnly bool) ([]model.Uniform, error) {
	var uniforms []model.Uniform
	query := r.db.WithContext(ctx).Order("number ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&uniforms).Error; err != nil {
		return nil, err
	}
	return uniforms, nil
}

func (r *uniformRepo) Update(ctx context.Context, uniform *model.Uniform) error {
	return r.db.WithContext(ctx).
		Model(uniform).
		Where("uniform_id = ?", uniform.UniformID).
		Updates(map[string]interface{}{
			"number":      uniform.Number,
			"name":        uniform.Name,
			"description": uniform.Description,
			"is_active":   uniform.IsActive,
		}).Error
}

func (r *uniformRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("uniform_id = ?", id).
		Delete(&model.Uniform{}).Error
}

