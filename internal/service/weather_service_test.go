package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"wotsapp/config"
	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/repository"
	"wotsapp/pkg/timeutil"
)

func setupTestWeatherService(t *testing.T, clock timeutil.Clock) (WeatherService, *mockWeatherRepo, *mockUniformRepo, *mockPostRepo) {
	t.Helper()
	postRepo := newMockPostRepo()
	weatherRepo := newMockWeatherRepo(postRepo)
	uniformRepo := newMockUniformRepo()
	repo := &repository.Repository{
		Person:  newMockPersonRepo(),
		Weather: weatherRepo,
		Uniform: uniformRepo,
		Post:    postRepo,
	}
	cfg := &config.Config{
		Weather: config.WeatherConfig{
			AutoPublishDelay:  5 * time.Minute,
			RecommendationTTL: 12 * time.Hour,
		},
	}
	svc := NewWeatherService(cfg, repo, testFacility(t, clock), nil, zap.NewNop())
	return svc, weatherRepo, uniformRepo, postRepo
}

func seedUniform(t *testing.T, repo *mockUniformRepo, number int, name string) *model.Uniform {
	t.Helper()
	u := &model.Uniform{Number: number, Name: name, IsActive: true}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("写入制服条目失败: %v", err)
	}
	return u
}

func testRecommendationRequest(uniformID string) *dto.CreateRecommendationRequest {
	return &dto.CreateRecommendationRequest{
		TargetDate: "2026-03-06",
		TargetSlot: model.SlotAM,
		UniformID:  uniformID,
		Weather: dto.WeatherSnapshotDTO{
			TemperatureF: 41,
			Condition:    "小雨",
			Humidity:     80,
			WindMPH:      12,
			PrecipChance: 70,
		},
	}
}

func TestWeatherService_CreateRecommendation(t *testing.T) {
	svc, _, uniformRepo, _ := setupTestWeatherService(t, testClock())
	ctx := context.Background()
	uniform := seedUniform(t, uniformRepo, 4, "作训服加防寒外套")

	resp, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID))
	if err != nil {
		t.Fatalf("创建建议失败: %v", err)
	}
	if resp.Status != model.RecommendationPending {
		t.Errorf("期望状态 pending，实际=%s", resp.Status)
	}
	if resp.UniformNumber != 4 {
		t.Errorf("期望制服号 4，实际=%d", resp.UniformNumber)
	}
	// 有效期 = 当前时刻 + TTL
	wantExpires := testClock().T.Add(12 * time.Hour).Format(time.RFC3339)
	if resp.ExpiresAt != wantExpires {
		t.Errorf("期望有效期 %s，实际=%s", wantExpires, resp.ExpiresAt)
	}

	// 制服不存在
	bad := testRecommendationRequest("u-ghost")
	if _, err := svc.CreateRecommendation(ctx, bad); !errors.Is(err, ErrUniformNotFound) {
		t.Errorf("期望 ErrUniformNotFound，实际=%v", err)
	}
}

func TestWeatherService_ApprovePublishesPost(t *testing.T) {
	svc, weatherRepo, uniformRepo, postRepo := setupTestWeatherService(t, testClock())
	ctx := context.Background()
	uniform := seedUniform(t, uniformRepo, 4, "作训服加防寒外套")

	rec, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID))
	if err != nil {
		t.Fatalf("创建建议失败: %v", err)
	}

	resp, err := svc.Approve(ctx, "p-admin", rec.ID, &dto.ApproveRecommendationRequest{})
	if err != nil {
		t.Fatalf("批准失败: %v", err)
	}
	if !resp.Success || resp.PostID == "" {
		t.Errorf("期望发布成功并返回公告 ID，实际=%+v", resp)
	}

	post, err := postRepo.GetByID(ctx, resp.PostID)
	if err != nil {
		t.Fatalf("公告缺失: %v", err)
	}
	if post.Type != model.PostTypeUOTD || post.Status != model.PostPublished {
		t.Errorf("期望发布 uotd 公告，实际 type=%s status=%s", post.Type, post.Status)
	}
	if post.Title == "" || post.Content == "" {
		t.Error("期望由制服与天气生成默认标题与正文")
	}

	// 建议状态与公告回链
	stored, _ := weatherRepo.GetByID(ctx, rec.ID)
	if stored.Status != model.RecommendationApproved {
		t.Errorf("期望状态 approved，实际=%s", stored.Status)
	}
	if stored.PostID == nil || *stored.PostID != resp.PostID {
		t.Errorf("期望建议回链公告 %s，实际=%v", resp.PostID, stored.PostID)
	}

	// 已裁决的建议不能再批
	if _, err := svc.Approve(ctx, "p-admin", rec.ID, &dto.ApproveRecommendationRequest{}); !errors.Is(err, ErrRecommendationResolved) {
		t.Errorf("期望 ErrRecommendationResolved，实际=%v", err)
	}
}

func TestWeatherService_ApproveConflictSupersedes(t *testing.T) {
	svc, weatherRepo, uniformRepo, _ := setupTestWeatherService(t, testClock())
	ctx := context.Background()
	uniform := seedUniform(t, uniformRepo, 4, "作训服加防寒外套")

	first, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID))
	if err != nil {
		t.Fatalf("创建建议失败: %v", err)
	}
	second, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID))
	if err != nil {
		t.Fatalf("创建第二条建议失败: %v", err)
	}

	if _, err := svc.Approve(ctx, "p-admin", first.ID, &dto.ApproveRecommendationRequest{}); err != nil {
		t.Fatalf("批准失败: %v", err)
	}

	// 同时段第二条建议批准时撞上已发布公告：转 superseded，不报系统错误
	_, err = svc.Approve(ctx, "p-admin", second.ID, &dto.ApproveRecommendationRequest{})
	if !errors.Is(err, ErrSlotAlreadyPublished) {
		t.Errorf("期望 ErrSlotAlreadyPublished，实际=%v", err)
	}
	stored, _ := weatherRepo.GetByID(ctx, second.ID)
	if stored.Status != model.RecommendationSuperseded {
		t.Errorf("期望状态 superseded，实际=%s", stored.Status)
	}
	if stored.PostID != nil {
		t.Errorf("让位的建议不应带公告回链，实际=%v", stored.PostID)
	}

	// 已发布的时段不再接受新建议
	if _, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID)); !errors.Is(err, ErrSlotAlreadyPublished) {
		t.Errorf("期望 ErrSlotAlreadyPublished，实际=%v", err)
	}
}

func TestWeatherService_Reject(t *testing.T) {
	svc, weatherRepo, uniformRepo, _ := setupTestWeatherService(t, testClock())
	ctx := context.Background()
	uniform := seedUniform(t, uniformRepo, 4, "作训服加防寒外套")

	rec, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID))
	if err != nil {
		t.Fatalf("创建建议失败: %v", err)
	}
	if err := svc.Reject(ctx, "p-admin", rec.ID, "温度回升"); err != nil {
		t.Fatalf("驳回失败: %v", err)
	}
	stored, _ := weatherRepo.GetByID(ctx, rec.ID)
	if stored.Status != model.RecommendationRejected {
		t.Errorf("期望状态 rejected，实际=%s", stored.Status)
	}
	if stored.RejectionReason == nil || *stored.RejectionReason != "温度回升" {
		t.Errorf("期望记录驳回原因，实际=%v", stored.RejectionReason)
	}
	if err := svc.Reject(ctx, "p-admin", rec.ID, ""); !errors.Is(err, ErrRecommendationResolved) {
		t.Errorf("期望 ErrRecommendationResolved，实际=%v", err)
	}
}

func TestWeatherService_AutoPublishSkipsYoungPendings(t *testing.T) {
	clock := testClock()
	svc, weatherRepo, uniformRepo, postRepo := setupTestWeatherService(t, clock)
	ctx := context.Background()
	uniform := seedUniform(t, uniformRepo, 4, "作训服加防寒外套")

	rec, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID))
	if err != nil {
		t.Fatalf("创建建议失败: %v", err)
	}
	weatherRepo.recs[rec.ID].CreatedAt = clock.T

	// 等待期未满：不发布
	published, err := svc.AutoPublishPending(ctx)
	if err != nil {
		t.Fatalf("自动发布失败: %v", err)
	}
	if published != 0 {
		t.Errorf("等待期未满不应发布，实际=%d", published)
	}

	// 拨快时钟越过等待期
	clock.Advance(6 * time.Minute)
	published, err = svc.AutoPublishPending(ctx)
	if err != nil {
		t.Fatalf("自动发布失败: %v", err)
	}
	if published != 1 {
		t.Errorf("期望发布 1 条，实际=%d", published)
	}

	stored, _ := weatherRepo.GetByID(ctx, rec.ID)
	if stored.Status != model.RecommendationApproved {
		t.Errorf("期望状态 approved，实际=%s", stored.Status)
	}
	post, err := postRepo.GetByID(ctx, *stored.PostID)
	if err != nil {
		t.Fatalf("系统公告缺失: %v", err)
	}
	if post.AuthorID != model.SystemAuthorID {
		t.Errorf("期望作者为系统标识，实际=%s", post.AuthorID)
	}
}

func TestWeatherService_AutoPublishConflictNotFatal(t *testing.T) {
	clock := testClock()
	svc, weatherRepo, uniformRepo, _ := setupTestWeatherService(t, clock)
	ctx := context.Background()
	uniform := seedUniform(t, uniformRepo, 4, "作训服加防寒外套")

	first, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID))
	if err != nil {
		t.Fatalf("创建建议失败: %v", err)
	}
	second, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID))
	if err != nil {
		t.Fatalf("创建第二条建议失败: %v", err)
	}
	weatherRepo.recs[first.ID].CreatedAt = clock.T
	weatherRepo.recs[second.ID].CreatedAt = clock.T

	clock.Advance(6 * time.Minute)
	published, err := svc.AutoPublishPending(ctx)
	if err != nil {
		t.Fatalf("自动发布失败: %v", err)
	}
	// 同时段两条建议只发布一条，另一条让位
	if published != 1 {
		t.Errorf("期望只发布 1 条，实际=%d", published)
	}
	firstStored, _ := weatherRepo.GetByID(ctx, first.ID)
	secondStored, _ := weatherRepo.GetByID(ctx, second.ID)
	statuses := map[string]int{firstStored.Status: 1, secondStored.Status: 1}
	if statuses[model.RecommendationApproved] != 1 || statuses[model.RecommendationSuperseded] != 1 {
		t.Errorf("期望一条 approved 一条 superseded，实际=%s/%s", firstStored.Status, secondStored.Status)
	}
}

func TestWeatherService_ExpireOld(t *testing.T) {
	clock := testClock()
	svc, weatherRepo, uniformRepo, _ := setupTestWeatherService(t, clock)
	ctx := context.Background()
	uniform := seedUniform(t, uniformRepo, 4, "作训服加防寒外套")

	rec, err := svc.CreateRecommendation(ctx, testRecommendationRequest(uniform.UniformID))
	if err != nil {
		t.Fatalf("创建建议失败: %v", err)
	}

	expired, err := svc.ExpireOld(ctx)
	if err != nil {
		t.Fatalf("过期清理失败: %v", err)
	}
	if expired != 0 {
		t.Errorf("有效期内不应过期，实际=%d", expired)
	}

	clock.Advance(13 * time.Hour)
	expired, err = svc.ExpireOld(ctx)
	if err != nil {
		t.Fatalf("过期清理失败: %v", err)
	}
	if expired != 1 {
		t.Errorf("期望过期 1 条，实际=%d", expired)
	}
	stored, _ := weatherRepo.GetByID(ctx, rec.ID)
	if stored.Status != model.RecommendationExpired {
		t.Errorf("期望状态 expired，实际=%s", stored.Status)
	}

	// 过期的建议不再出现在待审列表
	pending, _ := svc.ListPending(ctx)
	if len(pending) != 0 {
		t.Errorf("期望待审列表为空，实际=%d", len(pending))
	}
}

