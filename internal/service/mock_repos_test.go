package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"wotsapp/internal/model"
	pkgerrors "wotsapp/pkg/errors"
)

// ── Mock PersonRepository ──

type mockPersonRepo struct {
	persons map[string]*model.Person
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{persons: make(map[string]*model.Person)}
}

func (m *mockPersonRepo) Create(_ context.Context, person *model.Person) error {
	if person.PersonID == "" {
		person.PersonID = fmt.Sprintf("p-%d", len(m.persons)+1)
	}
	if person.Version == 0 {
		person.Version = 1
	}
	m.persons[person.PersonID] = person
	return nil
}

func (m *mockPersonRepo) GetByID(_ context.Context, id string) (*model.Person, error) {
	if p, ok := m.persons[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) GetByAuthUID(_ context.Context, authUID string) (*model.Person, error) {
	for _, p := range m.persons {
		if p.AuthUID != nil && *p.AuthUID == authUID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) GetByEmail(_ context.Context, email string) (*model.Person, error) {
	for _, p := range m.persons {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) List(_ context.Context, platoon string) ([]model.Person, error) {
	var result []model.Person
	for _, p := range m.persons {
		if platoon != "" && p.Platoon != platoon {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockPersonRepo) ListByIDs(_ context.Context, ids []string) ([]model.Person, error) {
	var result []model.Person
	for _, id := range ids {
		if p, ok := m.persons[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPersonRepo) Update(_ context.Context, person *model.Person) error {
	stored, ok := m.persons[person.PersonID]
	if !ok || stored.Version != person.Version {
		return pkgerrors.ErrOptimisticLock
	}
	person.Version++
	m.persons[person.PersonID] = person
	return nil
}

func (m *mockPersonRepo) Delete(_ context.Context, id string) error {
	delete(m.persons, id)
	return nil
}

// ── Mock StatusRepository ──

type mockStatusRepo struct {
	statuses   map[string]*model.PersonStatus // key: PersonID 字段（可能漂移）
	histories  []model.PersonStatusHistory
	nextID     int
	cascadeErr error // 设置后 SaveCascade 直接失败，模拟落盘故障
}

func newMockStatusRepo() *mockStatusRepo {
	return &mockStatusRepo{statuses: make(map[string]*model.PersonStatus)}
}

func (m *mockStatusRepo) GetByPersonID(_ context.Context, personID string) (*model.PersonStatus, error) {
	if st, ok := m.statuses[personID]; ok {
		return st, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStatusRepo) GetByAnyKey(ctx context.Context, keys []string) (*model.PersonStatus, error) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if st, err := m.GetByPersonID(ctx, key); err == nil {
			return st, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStatusRepo) ListByKeys(_ context.Context, keys []string) ([]model.PersonStatus, error) {
	var result []model.PersonStatus
	for _, key := range keys {
		if st, ok := m.statuses[key]; ok {
			result = append(result, *st)
		}
	}
	return result, nil
}

func (m *mockStatusRepo) ListAll(_ context.Context) ([]model.PersonStatus, error) {
	var result []model.PersonStatus
	for _, st := range m.statuses {
		result = append(result, *st)
	}
	return result, nil
}

func (m *mockStatusRepo) Create(_ context.Context, status *model.PersonStatus) error {
	m.nextID++
	if status.StatusID == "" {
		status.StatusID = fmt.Sprintf("st-%d", m.nextID)
	}
	status.Version = 1
	m.statuses[status.PersonID] = status
	return nil
}

func (m *mockStatusRepo) Update(_ context.Context, status *model.PersonStatus) error {
	stored, ok := m.statuses[status.PersonID]
	if !ok || stored.Version != status.Version {
		return pkgerrors.ErrOptimisticLock
	}
	status.Version++
	m.statuses[status.PersonID] = status
	return nil
}

func (m *mockStatusRepo) SaveCascade(ctx context.Context, statuses []*model.PersonStatus, histories []*model.PersonStatusHistory) error {
	if m.cascadeErr != nil {
		return m.cascadeErr
	}
	for _, status := range statuses {
		if status.StatusID == "" || status.Version == 0 {
			if err := m.Create(ctx, status); err != nil {
				return err
			}
			continue
		}
		if err := m.Update(ctx, status); err != nil {
			return err
		}
	}
	for _, h := range histories {
		if err := m.CreateHistory(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStatusRepo) Merge(_ context.Context, canonical string, strays []string) (int64, error) {
	for i := range m.histories {
		for _, stray := range strays {
			if m.histories[i].PersonID == stray {
				m.histories[i].PersonID = canonical
			}
		}
	}
	var deleted int64
	_, canonicalExists := m.statuses[canonical]
	for _, stray := range strays {
		st, ok := m.statuses[stray]
		if !ok {
			continue
		}
		if !canonicalExists {
			st.PersonID = canonical
			m.statuses[canonical] = st
			canonicalExists = true
		} else {
			deleted++
		}
		delete(m.statuses, stray)
	}
	return deleted, nil
}

func (m *mockStatusRepo) CreateHistory(_ context.Context, history *model.PersonStatusHistory) error {
	m.nextID++
	if history.HistoryID == "" {
		history.HistoryID = fmt.Sprintf("h-%d", m.nextID)
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	m.histories = append(m.histories, *history)
	return nil
}

func (m *mockStatusRepo) ListHistory(_ context.Context, personID string, from, to *time.Time, offset, limit int) ([]model.PersonStatusHistory, int64, error) {
	var matched []model.PersonStatusHistory
	for _, h := range m.histories {
		if personID != "" && h.PersonID != personID {
			continue
		}
		if from != nil && h.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !h.CreatedAt.Before(*to) {
			continue
		}
		matched = append(matched, h)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ── Mock PassRequestRepository ──

type mockPassRequestRepo struct {
	requests map[string]*model.PassRequest
	status   *mockStatusRepo
	nextID   int
}

func newMockPassRequestRepo(status *mockStatusRepo) *mockPassRequestRepo {
	return &mockPassRequestRepo{
		requests: make(map[string]*model.PassRequest),
		status:   status,
	}
}

func (m *mockPassRequestRepo) Create(_ context.Context, req *model.PassRequest) error {
	m.nextID++
	if req.PassRequestID == "" {
		req.PassRequestID = fmt.Sprintf("pr-%d", m.nextID)
	}
	req.Version = 1
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	m.requests[req.PassRequestID] = req
	return nil
}

func (m *mockPassRequestRepo) GetByID(_ context.Context, id string) (*model.PassRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPassRequestRepo) FirstPendingByRequester(_ context.Context, requesterID string) (*model.PassRequest, error) {
	for _, r := range m.requests {
		if r.RequesterID == requesterID && r.Status == model.RequestPending {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPassRequestRepo) ListByRequester(_ context.Context, requesterID string, _, _ int) ([]model.PassRequest, int64, error) {
	var result []model.PassRequest
	for _, r := range m.requests {
		if r.RequesterID == requesterID {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockPassRequestRepo) ListByStatus(_ context.Context, status string, _, _ int) ([]model.PassRequest, int64, error) {
	var result []model.PassRequest
	for _, r := range m.requests {
		if status == "" || r.Status == status {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockPassRequestRepo) CountPending(_ context.Context) (int64, error) {
	var count int64
	for _, r := range m.requests {
		if r.Status == model.RequestPending {
			count++
		}
	}
	return count, nil
}

func (m *mockPassRequestRepo) Update(_ context.Context, req *model.PassRequest) error {
	stored, ok := m.requests[req.PassRequestID]
	if !ok || stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	m.requests[req.PassRequestID] = req
	return nil
}

// ApproveAndSignOut 同库内事务语义：状态落盘失败时申请保持原样
func (m *mockPassRequestRepo) ApproveAndSignOut(ctx context.Context, req *model.PassRequest, statuses []*model.PersonStatus, histories []*model.PersonStatusHistory) error {
	stored, ok := m.requests[req.PassRequestID]
	if !ok || stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if err := m.status.SaveCascade(ctx, statuses, histories); err != nil {
		return err
	}
	req.Version++
	m.requests[req.PassRequestID] = req
	return nil
}

// ── Mock LibertyRequestRepository ──

type mockLibertyRequestRepo struct {
	requests map[string]*model.LibertyRequest
	nextID   int
}

func newMockLibertyRequestRepo() *mockLibertyRequestRepo {
	return &mockLibertyRequestRepo{requests: make(map[string]*model.LibertyRequest)}
}

func (m *mockLibertyRequestRepo) Create(_ context.Context, req *model.LibertyRequest) error {
	m.nextID++
	if req.LibertyRequestID == "" {
		req.LibertyRequestID = fmt.Sprintf("lr-%d", m.nextID)
	}
	req.Version = 1
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	m.requests[req.LibertyRequestID] = req
	return nil
}

func (m *mockLibertyRequestRepo) GetByID(_ context.Context, id string) (*model.LibertyRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLibertyRequestRepo) FirstPendingByRequesterAndWeekend(_ context.Context, requesterID string, startDate time.Time) (*model.LibertyRequest, error) {
	for _, r := range m.requests {
		if r.RequesterID == requesterID && r.Status == model.RequestPending && r.StartDate.Equal(startDate) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLibertyRequestRepo) ListByRequester(_ context.Context, requesterID string, _, _ int) ([]model.LibertyRequest, int64, error) {
	var result []model.LibertyRequest
	for _, r := range m.requests {
		if r.RequesterID == requesterID {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockLibertyRequestRepo) ListByStatus(_ context.Context, status string, _, _ int) ([]model.LibertyRequest, int64, error) {
	var result []model.LibertyRequest
	for _, r := range m.requests {
		if status == "" || r.Status == status {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockLibertyRequestRepo) CountPending(_ context.Context) (int64, error) {
	var count int64
	for _, r := range m.requests {
		if r.Status == model.RequestPending {
			count++
		}
	}
	return count, nil
}

func (m *mockLibertyRequestRepo) Update(_ context.Context, req *model.LibertyRequest) error {
	stored, ok := m.requests[req.LibertyRequestID]
	if !ok || stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	m.requests[req.LibertyRequestID] = req
	return nil
}

// ── Mock CQScheduleRepository ──

type mockCQScheduleRepo struct {
	entries map[string]*model.CQScheduleEntry // key: duty_date "2006-01-02"
	nextID  int
}

func newMockCQScheduleRepo() *mockCQScheduleRepo {
	return &mockCQScheduleRepo{entries: make(map[string]*model.CQScheduleEntry)}
}

func (m *mockCQScheduleRepo) GetByDate(_ context.Context, dutyDate time.Time) (*model.CQScheduleEntry, error) {
	if e, ok := m.entries[dutyDate.Format("2006-01-02")]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCQScheduleRepo) ListRange(_ context.Context, from, to time.Time) ([]model.CQScheduleEntry, error) {
	var result []model.CQScheduleEntry
	for _, e := range m.entries {
		if !e.DutyDate.Before(from) && !e.DutyDate.After(to) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockCQScheduleRepo) ListFrom(_ context.Context, from time.Time) ([]model.CQScheduleEntry, error) {
	var result []model.CQScheduleEntry
	for _, e := range m.entries {
		if !e.DutyDate.Before(from) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockCQScheduleRepo) Create(_ context.Context, entry *model.CQScheduleEntry) error {
	m.nextID++
	if entry.EntryID == "" {
		entry.EntryID = fmt.Sprintf("sch-%d", m.nextID)
	}
	entry.Version = 1
	m.entries[entry.DutyDate.Format("2006-01-02")] = entry
	return nil
}

func (m *mockCQScheduleRepo) Update(_ context.Context, entry *model.CQScheduleEntry) error {
	key := entry.DutyDate.Format("2006-01-02")
	stored, ok := m.entries[key]
	if !ok || stored.Version != entry.Version {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version++
	m.entries[key] = entry
	return nil
}

func (m *mockCQScheduleRepo) Delete(_ context.Context, id string) error {
	for key, e := range m.entries {
		if e.EntryID == id {
			delete(m.entries, key)
		}
	}
	return nil
}

// ── Mock SwapRequestRepository ──

type mockSwapRequestRepo struct {
	requests map[string]*model.CQSwapRequest
	schedule *mockCQScheduleRepo
	nextID   int
}

func newMockSwapRequestRepo(schedule *mockCQScheduleRepo) *mockSwapRequestRepo {
	return &mockSwapRequestRepo{
		requests: make(map[string]*model.CQSwapRequest),
		schedule: schedule,
	}
}

func (m *mockSwapRequestRepo) Create(_ context.Context, req *model.CQSwapRequest) error {
	m.nextID++
	if req.SwapRequestID == "" {
		req.SwapRequestID = fmt.Sprintf("sw-%d", m.nextID)
	}
	req.Version = 1
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	m.requests[req.SwapRequestID] = req
	return nil
}

func (m *mockSwapRequestRepo) GetByID(_ context.Context, id string) (*model.CQSwapRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSwapRequestRepo) FirstPendingByRequesterAndSlot(_ context.Context, requesterID string, scheduleDate time.Time, shiftType string) (*model.CQSwapRequest, error) {
	for _, r := range m.requests {
		if r.RequesterID == requesterID && r.Status == model.RequestPending &&
			r.ScheduleDate.Equal(scheduleDate) && r.ShiftType == shiftType {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSwapRequestRepo) ListByRequester(_ context.Context, requesterID string, _, _ int) ([]model.CQSwapRequest, int64, error) {
	var result []model.CQSwapRequest
	for _, r := range m.requests {
		if r.RequesterID == requesterID {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockSwapRequestRepo) ListByStatus(_ context.Context, status string, _, _ int) ([]model.CQSwapRequest, int64, error) {
	var result []model.CQSwapRequest
	for _, r := range m.requests {
		if status == "" || r.Status == status {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockSwapRequestRepo) CountPending(_ context.Context) (int64, error) {
	var count int64
	for _, r := range m.requests {
		if r.Status == model.RequestPending {
			count++
		}
	}
	return count, nil
}

func (m *mockSwapRequestRepo) Update(_ context.Context, req *model.CQSwapRequest) error {
	stored, ok := m.requests[req.SwapRequestID]
	if !ok || stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	m.requests[req.SwapRequestID] = req
	return nil
}

func (m *mockSwapRequestRepo) ApproveAndApply(ctx context.Context, req *model.CQSwapRequest) error {
	if err := m.Update(ctx, req); err != nil {
		return err
	}
	source, err := m.schedule.GetByDate(ctx, req.ScheduleDate)
	if err != nil {
		return fmt.Errorf("%w: 无值班安排", pkgerrors.ErrFailedPrecondition)
	}
	switch req.SwapType {
	case model.SwapTypeIndividual:
		shift := source.ShiftOf(req.ShiftType)
		replaced, found := shift.Replace(req.RequesterID, model.Assignee{ID: *req.ProposedID, Name: *req.ProposedName})
		if !found {
			return fmt.Errorf("%w: 申请人不在班次上", pkgerrors.ErrFailedPrecondition)
		}
		source.SetShift(req.ShiftType, replaced)
		return m.schedule.Update(ctx, source)
	case model.SwapTypeFullShift:
		sourceShift := source.ShiftOf(req.ShiftType)
		if source.DutyDate.Equal(*req.TargetDate) {
			targetShift := source.ShiftOf(*req.TargetShiftType)
			source.SetShift(req.ShiftType, targetShift)
			source.SetShift(*req.TargetShiftType, sourceShift)
			return m.schedule.Update(ctx, source)
		}
		target, err := m.schedule.GetByDate(ctx, *req.TargetDate)
		if err != nil {
			return fmt.Errorf("%w: 目标班次无安排", pkgerrors.ErrFailedPrecondition)
		}
		targetShift := target.ShiftOf(*req.TargetShiftType)
		source.SetShift(req.ShiftType, targetShift)
		target.SetShift(*req.TargetShiftType, sourceShift)
		if err := m.schedule.Update(ctx, source); err != nil {
			return err
		}
		return m.schedule.Update(ctx, target)
	}
	return nil
}

// ── Mock WeatherRepository ──

type mockWeatherRepo struct {
	recs   map[string]*model.WeatherRecommendation
	posts  *mockPostRepo
	nextID int
}

func newMockWeatherRepo(posts *mockPostRepo) *mockWeatherRepo {
	return &mockWeatherRepo{
		recs:  make(map[string]*model.WeatherRecommendation),
		posts: posts,
	}
}

func (m *mockWeatherRepo) Create(_ context.Context, rec *model.WeatherRecommendation) error {
	m.nextID++
	if rec.RecommendationID == "" {
		rec.RecommendationID = fmt.Sprintf("rec-%d", m.nextID)
	}
	rec.Version = 1
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.recs[rec.RecommendationID] = rec
	return nil
}

// GetByID 返回副本：调用方对读出记录的改动在 Update 前不落库，
// 与 gorm 的读取语义一致
func (m *mockWeatherRepo) GetByID(_ context.Context, id string) (*model.WeatherRecommendation, error) {
	if r, ok := m.recs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWeatherRepo) ListPending(_ context.Context) ([]model.WeatherRecommendation, error) {
	var result []model.WeatherRecommendation
	for _, r := range m.recs {
		if r.Status == model.RecommendationPending {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockWeatherRepo) ListPendingBefore(_ context.Context, cutoff time.Time) ([]model.WeatherRecommendation, error) {
	var result []model.WeatherRecommendation
	for _, r := range m.recs {
		if r.Status == model.RecommendationPending &&
			!r.CreatedAt.After(cutoff) && r.ExpiresAt.After(cutoff) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockWeatherRepo) CountPending(_ context.Context) (int64, error) {
	var count int64
	for _, r := range m.recs {
		if r.Status == model.RecommendationPending {
			count++
		}
	}
	return count, nil
}

func (m *mockWeatherRepo) Update(_ context.Context, rec *model.WeatherRecommendation) error {
	stored, ok := m.recs[rec.RecommendationID]
	if !ok || stored.Version != rec.Version {
		return pkgerrors.ErrOptimisticLock
	}
	rec.Version++
	m.recs[rec.RecommendationID] = rec
	return nil
}

func (m *mockWeatherRepo) ApproveAndPublish(ctx context.Context, rec *model.WeatherRecommendation, post *model.Post) error {
	if _, err := m.posts.GetPublishedUOTD(ctx, rec.TargetDate, rec.TargetSlot); err == nil {
		return fmt.Errorf("%w: 时段已发布", pkgerrors.ErrAlreadyExists)
	}
	if err := m.Update(ctx, rec); err != nil {
		return err
	}
	return m.posts.Create(ctx, post)
}

func (m *mockWeatherRepo) ExpireOlderThan(_ context.Context, now time.Time) (int64, error) {
	var expired int64
	for _, r := range m.recs {
		if r.Status == model.RecommendationPending && !r.ExpiresAt.After(now) {
			r.Status = model.RecommendationExpired
			r.Version++
			expired++
		}
	}
	return expired, nil
}

// ── Mock UniformRepository ──

type mockUniformRepo struct {
	uniforms map[string]*model.Uniform
}

func newMockUniformRepo() *mockUniformRepo {
	return &mockUniformRepo{uniforms: make(map[string]*model.Uniform)}
}

func (m *mockUniformRepo) Create(_ context.Context, uniform *model.Uniform) error {
	if uniform.UniformID == "" {
		uniform.UniformID = fmt.Sprintf("u-%d", len(m.uniforms)+1)
	}
	m.uniforms[uniform.UniformID] = uniform
	return nil
}

func (m *mockUniformRepo) GetByID(_ context.Context, id string) (*model.Uniform, error) {
	if u, ok := m.uniforms[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUniformRepo) List(_ context.Context, activeOnly bool) ([]model.Uniform, error) {
	var result []model.Uniform
	for _, u := range m.uniforms {
		if activeOnly && !u.IsActive {
			continue
		}
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUniformRepo) Update(_ context.Context, uniform *model.Uniform) error {
	m.uniforms[uniform.UniformID] = uniform
	return nil
}

func (m *mockUniformRepo) Delete(_ context.Context, id string) error {
	delete(m.uniforms, id)
	return nil
}

// ── Mock PostRepository ──

type mockPostRepo struct {
	posts  map[string]*model.Post
	nextID int
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[string]*model.Post)}
}

func (m *mockPostRepo) Create(_ context.Context, post *model.Post) error {
	m.nextID++
	if post.PostID == "" {
		post.PostID = fmt.Sprintf("post-%d", m.nextID)
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	m.posts[post.PostID] = post
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	if p, ok := m.posts[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPostRepo) GetPublishedUOTD(_ context.Context, targetDate time.Time, targetSlot string) (*model.Post, error) {
	for _, p := range m.posts {
		if p.Type == model.PostTypeUOTD && p.Status == model.PostPublished &&
			p.TargetDate != nil && p.TargetDate.Equal(targetDate) &&
			p.TargetSlot != nil && *p.TargetSlot == targetSlot {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPostRepo) List(_ context.Context, postType string, _, _ int) ([]model.Post, int64, error) {
	var result []model.Post
	for _, p := range m.posts {
		if p.Status != model.PostPublished {
			continue
		}
		if postType != "" && p.Type != postType {
			continue
		}
		result = append(result, *p)
	}
	return result, int64(len(result)), nil
}

func (m *mockPostRepo) Retract(_ context.Context, id string) error {
	if p, ok := m.posts[id]; ok {
		p.Status = model.PostRetracted
	}
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
	nextID        int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	m.nextID++
	if notification.NotificationID == "" {
		notification.NotificationID = fmt.Sprintf("n-%d", m.nextID)
	}
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *mockNotificationRepo) BatchCreate(ctx context.Context, notifications []model.Notification) error {
	for i := range notifications {
		if err := m.Create(ctx, &notifications[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockNotificationRepo) ListByPerson(_ context.Context, personID string, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.PersonID != personID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, personID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.PersonID == personID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, personID, notificationID string) error {
	for i := range m.notifications {
		if m.notifications[i].NotificationID == notificationID && m.notifications[i].PersonID == personID {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, personID string) error {
	for i := range m.notifications {
		if m.notifications[i].PersonID == personID {
			m.notifications[i].IsRead = true
		}
	}
	return nil
}

