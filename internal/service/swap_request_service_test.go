package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/repository"
	"wotsapp/pkg/timeutil"
)

func setupTestSwapRequestService(t *testing.T, clock timeutil.Clock) (SwapRequestService, *mockPersonRepo, *mockCQScheduleRepo, *mockSwapRequestRepo) {
	t.Helper()
	personRepo := newMockPersonRepo()
	scheduleRepo := newMockCQScheduleRepo()
	requestRepo := newMockSwapRequestRepo(scheduleRepo)
	repo := &repository.Repository{
		Person:       personRepo,
		CQSchedule:   scheduleRepo,
		SwapRequest:  requestRepo,
		Notification: newMockNotificationRepo(),
	}
	svc := NewSwapRequestService(repo, testFacility(t, clock), nil, zap.NewNop())
	return svc, personRepo, scheduleRepo, requestRepo
}

func seedScheduleEntry(t *testing.T, repo *mockCQScheduleRepo, date string, shift1, shift2 model.AssigneeList) *model.CQScheduleEntry {
	t.Helper()
	dutyDate, err := time.ParseInLocation(timeutil.DateLayout, date, time.UTC)
	if err != nil {
		t.Fatalf("无效的测试日期 %s: %v", date, err)
	}
	entry := &model.CQScheduleEntry{
		DutyDate: dutyDate,
		Shift1:   shift1,
		Shift2:   shift2,
	}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("写入值班安排失败: %v", err)
	}
	return entry
}

func TestSwapRequestService_CreateRequiresOnShift(t *testing.T) {
	svc, personRepo, scheduleRepo, _ := setupTestSwapRequestService(t, testClock())
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")
	seedScheduleEntry(t, scheduleRepo, "2026-03-10",
		model.AssigneeList{{ID: "p-other", Name: "别人"}}, nil)

	_, err := svc.Create(ctx, requester, &dto.CreateSwapRequestRequest{
		SwapType:     model.SwapTypeIndividual,
		ScheduleDate: "2026-03-10",
		ShiftType:    "shift1",
		ProposedID:   "p-2",
	})
	if !errors.Is(err, ErrNotOnShift) {
		t.Errorf("期望 ErrNotOnShift，实际=%v", err)
	}

	// 没有值班安排的日期
	_, err = svc.Create(ctx, requester, &dto.CreateSwapRequestRequest{
		SwapType:     model.SwapTypeIndividual,
		ScheduleDate: "2026-03-11",
		ShiftType:    "shift1",
		ProposedID:   "p-2",
	})
	if !errors.Is(err, ErrScheduleEntryAbsent) {
		t.Errorf("期望 ErrScheduleEntryAbsent，实际=%v", err)
	}
}

func TestSwapRequestService_CreateIndividualValidation(t *testing.T) {
	svc, personRepo, scheduleRepo, _ := setupTestSwapRequestService(t, testClock())
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")
	mate := seedPerson(t, personRepo, "p-mate", "李四")
	seedScheduleEntry(t, scheduleRepo, "2026-03-10",
		model.AssigneeList{{ID: requester.PersonID, Name: requester.Name}, {ID: mate.PersonID, Name: mate.Name}}, nil)

	base := dto.CreateSwapRequestRequest{
		SwapType:     model.SwapTypeIndividual,
		ScheduleDate: "2026-03-10",
		ShiftType:    "shift1",
	}

	req := base
	if _, err := svc.Create(ctx, requester, &req); !errors.Is(err, ErrProposedRequired) {
		t.Errorf("期望 ErrProposedRequired，实际=%v", err)
	}

	req = base
	req.ProposedID = requester.PersonID
	if _, err := svc.Create(ctx, requester, &req); !errors.Is(err, ErrProposedSelf) {
		t.Errorf("期望 ErrProposedSelf，实际=%v", err)
	}

	// 接班人已经在同一班次上
	req = base
	req.ProposedID = mate.PersonID
	if _, err := svc.Create(ctx, requester, &req); !errors.Is(err, ErrProposedOnShift) {
		t.Errorf("期望 ErrProposedOnShift，实际=%v", err)
	}

	// 接班人不在花名册
	req = base
	req.ProposedID = "p-ghost"
	if _, err := svc.Create(ctx, requester, &req); !errors.Is(err, ErrPersonNotFound) {
		t.Errorf("期望 ErrPersonNotFound，实际=%v", err)
	}
}

func TestSwapRequestService_ApproveAppliesIndividualSwap(t *testing.T) {
	svc, personRepo, scheduleRepo, _ := setupTestSwapRequestService(t, testClock())
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")
	proposed := seedPerson(t, personRepo, "p-2", "李四")
	approver := seedPerson(t, personRepo, "p-admin", "王队")
	seedScheduleEntry(t, scheduleRepo, "2026-03-10",
		model.AssigneeList{{ID: requester.PersonID, Name: requester.Name}, {ID: "p-keep", Name: "保留席"}}, nil)

	outcome, err := svc.Create(ctx, requester, &dto.CreateSwapRequestRequest{
		SwapType:     model.SwapTypeIndividual,
		ScheduleDate: "2026-03-10",
		ShiftType:    "shift1",
		ProposedID:   proposed.PersonID,
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

	// 值班表上申请人的席位被接班人覆写，其余席位不动
	date, _ := time.ParseInLocation(timeutil.DateLayout, "2026-03-10", time.UTC)
	entry, _ := scheduleRepo.GetByDate(ctx, date)
	if entry.Shift1.Contains(requester.PersonID) {
		t.Error("期望申请人已不在班次上")
	}
	if !entry.Shift1.Contains(proposed.PersonID) {
		t.Error("期望接班人已替上席位")
	}
	if !entry.Shift1.Contains("p-keep") {
		t.Error("期望其余席位不受影响")
	}
}

func TestSwapRequestService_ApproveAppliesFullShiftExchange(t *testing.T) {
	svc, personRepo, scheduleRepo, _ := setupTestSwapRequestService(t, testClock())
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")
	approver := seedPerson(t, personRepo, "p-admin", "王队")
	sourceList := model.AssigneeList{{ID: requester.PersonID, Name: requester.Name}, {ID: "p-2", Name: "李四"}}
	targetList := model.AssigneeList{{ID: "p-3", Name: "王五"}}
	seedScheduleEntry(t, scheduleRepo, "2026-03-10", sourceList, nil)
	seedScheduleEntry(t, scheduleRepo, "2026-03-12", targetList, nil)

	outcome, err := svc.Create(ctx, requester, &dto.CreateSwapRequestRequest{
		SwapType:        model.SwapTypeFullShift,
		ScheduleDate:    "2026-03-10",
		ShiftType:       "shift1",
		TargetDate:      "2026-03-12",
		TargetShiftType: "shift1",
	})
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if _, err := svc.Approve(ctx, approver, outcome.Request.ID); err != nil {
		t.Fatalf("批准失败: %v", err)
	}

	// 两个班次的完整名单互换
	srcDate, _ := time.ParseInLocation(timeutil.DateLayout, "2026-03-10", time.UTC)
	tgtDate, _ := time.ParseInLocation(timeutil.DateLayout, "2026-03-12", time.UTC)
	source, _ := scheduleRepo.GetByDate(ctx, srcDate)
	target, _ := scheduleRepo.GetByDate(ctx, tgtDate)
	if !source.Shift1.Contains("p-3") || source.Shift1.Contains(requester.PersonID) {
		t.Errorf("期望源班次换成目标名单，实际=%v", source.Shift1)
	}
	if !target.Shift1.Contains(requester.PersonID) || !target.Shift1.Contains("p-2") {
		t.Errorf("期望目标班次换成源名单，实际=%v", target.Shift1)
	}
}

func TestSwapRequestService_FullShiftSameDayBothShifts(t *testing.T) {
	svc, personRepo, scheduleRepo, _ := setupTestSwapRequestService(t, testClock())
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")
	approver := seedPerson(t, personRepo, "p-admin", "王队")
	shift1 := model.AssigneeList{{ID: requester.PersonID, Name: requester.Name}}
	shift2 := model.AssigneeList{{ID: "p-2", Name: "李四"}}
	seedScheduleEntry(t, scheduleRepo, "2026-03-10", shift1, shift2)

	outcome, err := svc.Create(ctx, requester, &dto.CreateSwapRequestRequest{
		SwapType:        model.SwapTypeFullShift,
		ScheduleDate:    "2026-03-10",
		ShiftType:       "shift1",
		TargetDate:      "2026-03-10",
		TargetShiftType: "shift2",
	})
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if _, err := svc.Approve(ctx, approver, outcome.Request.ID); err != nil {
		t.Fatalf("批准失败: %v", err)
	}

	// 同一天两个班次互换只落在同一行上
	date, _ := time.ParseInLocation(timeutil.DateLayout, "2026-03-10", time.UTC)
	entry, _ := scheduleRepo.GetByDate(ctx, date)
	if !entry.Shift1.Contains("p-2") || !entry.Shift2.Contains(requester.PersonID) {
		t.Errorf("期望同日两班互换，实际 shift1=%v shift2=%v", entry.Shift1, entry.Shift2)
	}
}

func TestSwapRequestService_FullShiftTargetValidation(t *testing.T) {
	svc, personRepo, scheduleRepo, _ := setupTestSwapRequestService(t, testClock())
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")
	seedScheduleEntry(t, scheduleRepo, "2026-03-10",
		model.AssigneeList{{ID: requester.PersonID, Name: requester.Name}}, nil)

	base := dto.CreateSwapRequestRequest{
		SwapType:     model.SwapTypeFullShift,
		ScheduleDate: "2026-03-10",
		ShiftType:    "shift1",
	}

	req := base
	if _, err := svc.Create(ctx, requester, &req); !errors.Is(err, ErrTargetRequired) {
		t.Errorf("期望 ErrTargetRequired，实际=%v", err)
	}

	req = base
	req.TargetDate, req.TargetShiftType = "2026-03-10", "shift1"
	if _, err := svc.Create(ctx, requester, &req); !errors.Is(err, ErrTargetSameSlot) {
		t.Errorf("期望 ErrTargetSameSlot，实际=%v", err)
	}

	// 过去的日期不可作为目标
	req = base
	req.TargetDate, req.TargetShiftType = "2026-03-01", "shift1"
	if _, err := svc.Create(ctx, requester, &req); !errors.Is(err, ErrTargetUnavailable) {
		t.Errorf("期望 ErrTargetUnavailable，实际=%v", err)
	}

	// 目标日期无值班安排
	req = base
	req.TargetDate, req.TargetShiftType = "2026-03-20", "shift2"
	if _, err := svc.Create(ctx, requester, &req); !errors.Is(err, ErrTargetUnavailable) {
		t.Errorf("期望 ErrTargetUnavailable，实际=%v", err)
	}
}

func TestSwapRequestService_ListSwapTargets(t *testing.T) {
	// 时钟固定在 2026-03-06 21:00：今天的 shift1 已过 20 点截止
	clock := &timeutil.FixedClock{T: time.Date(2026, 3, 6, 21, 0, 0, 0, time.UTC)}
	svc, _, scheduleRepo, _ := setupTestSwapRequestService(t, clock)
	ctx := context.Background()

	seedScheduleEntry(t, scheduleRepo, "2026-03-05", model.AssigneeList{{ID: "p-1", Name: "甲"}}, nil)
	seedScheduleEntry(t, scheduleRepo, "2026-03-06",
		model.AssigneeList{{ID: "p-2", Name: "乙"}}, model.AssigneeList{{ID: "p-3", Name: "丙"}})
	seedScheduleEntry(t, scheduleRepo, "2026-03-07",
		model.AssigneeList{{ID: "p-4", Name: "丁"}}, model.AssigneeList{{ID: "p-5", Name: "戊"}})

	targets, err := svc.ListSwapTargets(ctx, "2026-03-07", "shift1")
	if err != nil {
		t.Fatalf("查询可选目标失败: %v", err)
	}

	got := make(map[string]bool, len(targets))
	for _, tg := range targets {
		got[tg.DutyDate+"/"+tg.ShiftType] = true
	}
	// 昨天整天、今天两个班次、源班次自身都不可选
	for _, banned := range []string{"2026-03-05/shift1", "2026-03-06/shift1", "2026-03-06/shift2", "2026-03-07/shift1"} {
		if got[banned] {
			t.Errorf("不应出现在可选目标中: %s", banned)
		}
	}
	if !got["2026-03-07/shift2"] {
		t.Errorf("期望 2026-03-07/shift2 可选，实际=%v", got)
	}

	// 返回的起止时刻按营区时区换算
	for _, tg := range targets {
		if tg.DutyDate == "2026-03-07" && tg.ShiftType == "shift2" {
			if tg.StartsAt != "2026-03-08T01:00:00Z" || tg.EndsAt != "2026-03-08T06:00:00Z" {
				t.Errorf("期望班次窗口 01:00-06:00，实际 starts=%s ends=%s", tg.StartsAt, tg.EndsAt)
			}
		}
	}
}

func TestSwapRequestService_DuplicateKeyedBySlot(t *testing.T) {
	svc, personRepo, scheduleRepo, requestRepo := setupTestSwapRequestService(t, testClock())
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")
	proposed := seedPerson(t, personRepo, "p-2", "李四")
	seedScheduleEntry(t, scheduleRepo, "2026-03-10",
		model.AssigneeList{{ID: requester.PersonID, Name: requester.Name}}, nil)

	req := &dto.CreateSwapRequestRequest{
		SwapType:     model.SwapTypeIndividual,
		ScheduleDate: "2026-03-10",
		ShiftType:    "shift1",
		ProposedID:   proposed.PersonID,
	}
	first, err := svc.Create(ctx, requester, req)
	if err != nil {
		t.Fatalf("首次提交失败: %v", err)
	}

	dup, err := svc.Create(ctx, requester, req)
	if err != nil {
		t.Fatalf("重复提交不应报错: %v", err)
	}
	if !dup.IsDuplicate || dup.Existing == nil || dup.Existing.ID != first.Request.ID {
		t.Errorf("期望判为同班次重复，实际=%+v", dup)
	}

	forced := *req
	forced.ForceSubmit = true
	second, err := svc.Create(ctx, requester, &forced)
	if err != nil {
		t.Fatalf("强制重提失败: %v", err)
	}
	if second.IsDuplicate {
		t.Error("强制重提不应判为重复")
	}
	old, _ := requestRepo.GetByID(ctx, first.Request.ID)
	if old.Status != model.RequestCancelled {
		t.Errorf("期望旧申请转 cancelled，实际=%s", old.Status)
	}
}

func TestSwapRequestService_BulkApprovePartialFailure(t *testing.T) {
	svc, personRepo, scheduleRepo, _ := setupTestSwapRequestService(t, testClock())
	ctx := context.Background()
	requester := seedPerson(t, personRepo, "p-1", "张三")
	proposed := seedPerson(t, personRepo, "p-2", "李四")
	approver := seedPerson(t, personRepo, "p-admin", "王队")
	seedScheduleEntry(t, scheduleRepo, "2026-03-10",
		model.AssigneeList{{ID: requester.PersonID, Name: requester.Name}}, nil)

	outcome, err := svc.Create(ctx, requester, &dto.CreateSwapRequestRequest{
		SwapType:     model.SwapTypeIndividual,
		ScheduleDate: "2026-03-10",
		ShiftType:    "shift1",
		ProposedID:   proposed.PersonID,
	})
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	result, err := svc.BulkApprove(ctx, approver, &dto.BulkResolveRequest{
		IDs: []string{outcome.Request.ID, "sw-ghost"},
	})
	if err != nil {
		t.Fatalf("批量批准失败: %v", err)
	}
	if result.Succeeded != 1 {
		t.Errorf("期望成功 1 条，实际=%d", result.Succeeded)
	}
	if len(result.Failed) != 1 || result.Failed[0].ID != "sw-ghost" {
		t.Errorf("期望 sw-ghost 失败，实际=%+v", result.Failed)
	}

	// 成功的那条换班已落实到值班表
	date, _ := time.ParseInLocation(timeutil.DateLayout, "2026-03-10", time.UTC)
	entry, _ := scheduleRepo.GetByDate(ctx, date)
	if !entry.Shift1.Contains(proposed.PersonID) {
		t.Error("期望接班人已替上席位")
	}
}

