package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wotsapp/internal/model"
)

// PostRepository 公告数据访问接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	GetPublishedUOTD(ctx context.Context, targetDate time.Time, targetSlot string) (*model.Post, error)
	List(ctx context.Context, postType string, offset, limit int) ([]model.Post, int64, error)
	Retract(ctx context.Context, id string) error
}

type postRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Where("post_id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) GetPublishedUOTD(ctx context.Context, targetDate time.Time, targetSlot string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Where("type = ? AND status = ? AND target_date = ? AND target_slot = ?",
			model.PostTypeUOTD, model.PostPublished, targetDate, targetSlot).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) List(ctx context.Context, postType string, offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("status = ?", model.PostPublished)
	if postType != "" {
		query = query.Where("type = ?", postType)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepo) Retract(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("post_id = ?", id).
		Update("status", model.PostRetracted).Error
}

