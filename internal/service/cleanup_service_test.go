package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/repository"
)

func setupTestCleanupService(t *testing.T) (CleanupService, *mockPersonRepo, *mockStatusRepo) {
	t.Helper()
	personRepo := newMockPersonRepo()
	statusRepo := newMockStatusRepo()
	repo := &repository.Repository{Person: personRepo, Status: statusRepo}
	svc := NewCleanupService(repo, zap.NewNop())
	return svc, personRepo, statusRepo
}

// seedDriftedPerson 造一个状态行键漂移到 auth_uid 的人员
func seedDriftedPerson(t *testing.T, personRepo *mockPersonRepo, statusRepo *mockStatusRepo, id, authUID string) *model.Person {
	t.Helper()
	ctx := context.Background()
	p := &model.Person{
		PersonID: id,
		Name:     "张三",
		Email:    id + "@example.mil",
		AuthUID:  &authUID,
		Role:     model.RoleTrainee,
	}
	if err := personRepo.Create(ctx, p); err != nil {
		t.Fatalf("写入人员失败: %v", err)
	}
	if err := statusRepo.Create(ctx, &model.PersonStatus{
		PersonID: authUID,
		Status:   model.StatusPass,
	}); err != nil {
		t.Fatalf("写入漂移状态行失败: %v", err)
	}
	_ = statusRepo.CreateHistory(ctx, &model.PersonStatusHistory{
		PersonID: authUID,
		ActorID:  authUID,
		Action:   model.ActionSignOut,
	})
	return p
}

func TestCleanupService_Preview(t *testing.T) {
	svc, personRepo, statusRepo := setupTestCleanupService(t)
	ctx := context.Background()

	drifted := seedDriftedPerson(t, personRepo, statusRepo, "p-1", "uid-1")
	// 正常人员：状态行键就是 person_id，不应出现在预览里
	clean := seedPerson(t, personRepo, "p-2", "李四")
	_ = statusRepo.Create(ctx, &model.PersonStatus{PersonID: clean.PersonID, Status: model.StatusPresent})

	rows, err := svc.Preview(ctx)
	if err != nil {
		t.Fatalf("预览失败: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("期望 1 名漂移人员，实际=%d", len(rows))
	}
	if rows[0].PersonID != drifted.PersonID || rows[0].Canonical != drifted.PersonID {
		t.Errorf("期望漂移人员 %s，实际=%+v", drifted.PersonID, rows[0])
	}
	if rows[0].StrayCount != 1 || rows[0].StrayKeys[0] != "uid-1" {
		t.Errorf("期望散落键 uid-1，实际=%v", rows[0].StrayKeys)
	}
}

func TestCleanupService_ApplyMergesStrays(t *testing.T) {
	svc, personRepo, statusRepo := setupTestCleanupService(t)
	ctx := context.Background()
	drifted := seedDriftedPerson(t, personRepo, statusRepo, "p-1", "uid-1")

	resp, err := svc.Apply(ctx, &dto.CleanupApplyRequest{})
	if err != nil {
		t.Fatalf("合并失败: %v", err)
	}
	if resp.Merged != 1 {
		t.Errorf("期望合并 1 人，实际=%d", resp.Merged)
	}
	if len(resp.Details) != 0 {
		t.Errorf("不应有失败明细，实际=%v", resp.Details)
	}

	// 规范行缺失时把散落行改键为权威键，不丢状态
	st, err := statusRepo.GetByPersonID(ctx, drifted.PersonID)
	if err != nil {
		t.Fatalf("合并后权威键状态行缺失: %v", err)
	}
	if st.Status != model.StatusPass {
		t.Errorf("期望保留散落行的状态 pass，实际=%s", st.Status)
	}
	if _, err := statusRepo.GetByPersonID(ctx, "uid-1"); err == nil {
		t.Error("期望散落键状态行已删除")
	}

	// 历史记录也被改键
	histories, _, _ := statusRepo.ListHistory(ctx, drifted.PersonID, nil, nil, 0, 10)
	if len(histories) != 1 {
		t.Errorf("期望历史记录已改键到权威键，实际=%d", len(histories))
	}
}

func TestCleanupService_ApplyDeletesStrayWhenCanonicalExists(t *testing.T) {
	svc, personRepo, statusRepo := setupTestCleanupService(t)
	ctx := context.Background()
	drifted := seedDriftedPerson(t, personRepo, statusRepo, "p-1", "uid-1")
	// 权威键行已存在：散落行直接删除
	_ = statusRepo.Create(ctx, &model.PersonStatus{PersonID: drifted.PersonID, Status: model.StatusPresent})

	resp, err := svc.Apply(ctx, &dto.CleanupApplyRequest{PersonIDs: []string{drifted.PersonID}})
	if err != nil {
		t.Fatalf("合并失败: %v", err)
	}
	if resp.Merged != 1 || resp.Deleted != 1 {
		t.Errorf("期望合并 1 删除 1，实际 merged=%d deleted=%d", resp.Merged, resp.Deleted)
	}
	st, _ := statusRepo.GetByPersonID(ctx, drifted.PersonID)
	if st.Status != model.StatusPresent {
		t.Errorf("期望权威行保持原状态，实际=%s", st.Status)
	}
}

func TestCleanupService_ApplyDryRun(t *testing.T) {
	svc, personRepo, statusRepo := setupTestCleanupService(t)
	ctx := context.Background()
	seedDriftedPerson(t, personRepo, statusRepo, "p-1", "uid-1")

	resp, err := svc.Apply(ctx, &dto.CleanupApplyRequest{DryRun: true})
	if err != nil {
		t.Fatalf("试运行失败: %v", err)
	}
	if resp.Merged != 1 || resp.Deleted != 1 {
		t.Errorf("期望试运行统计 merged=1 deleted=1，实际=%d/%d", resp.Merged, resp.Deleted)
	}

	// 试运行不落盘
	if _, err := statusRepo.GetByPersonID(ctx, "uid-1"); err != nil {
		t.Error("试运行不应删除散落键状态行")
	}
}

func TestCleanupService_ApplySkipsCleanPersons(t *testing.T) {
	svc, personRepo, statusRepo := setupTestCleanupService(t)
	ctx := context.Background()
	clean := seedPerson(t, personRepo, "p-2", "李四")
	_ = statusRepo.Create(ctx, &model.PersonStatus{PersonID: clean.PersonID, Status: model.StatusPresent})

	resp, err := svc.Apply(ctx, &dto.CleanupApplyRequest{})
	if err != nil {
		t.Fatalf("合并失败: %v", err)
	}
	if resp.Skipped != 1 || resp.Merged != 0 {
		t.Errorf("期望跳过 1 人，实际 skipped=%d merged=%d", resp.Skipped, resp.Merged)
	}
}

