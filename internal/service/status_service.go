package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/repository"
	pkgerrors "wotsapp/pkg/errors"
	"wotsapp/pkg/timeutil"
)

// ── 状态模块业务错误 ──

var (
	ErrAlreadyOut          = errors.New("当前不在位，无法重复签出")
	ErrNotOnPass           = errors.New("当前不在外出状态")
	ErrNotCompanion        = errors.New("当前不是随行人员")
	ErrCompanionDrivesNot  = errors.New("随行人员不能推进阶段，由带队人统一操作")
	ErrInvalidStageForward = errors.New("阶段只能向前推进")
	ErrCompanionUnlisted   = errors.New("同行人员不在花名册中")
	ErrCompanionBusy       = errors.New("同行人员当前不在位")
	ErrCompanionSelf       = errors.New("不能把自己列为同行人员")
)

// StatusService 在位状态业务接口
type StatusService interface {
	SignOut(ctx context.Context, actor *model.Person, req *dto.SignOutRequest) (*dto.StatusResponse, error)
	SickCall(ctx context.Context, actor *model.Person, req *dto.SickCallRequest) (*dto.StatusResponse, error)
	UpdateStage(ctx context.Context, actor *model.Person, req *dto.UpdateStageRequest) (*dto.StatusResponse, error)
	SignIn(ctx context.Context, actor *model.Person) (*dto.StatusResponse, error)
	BreakFree(ctx context.Context, actor *model.Person) (*dto.StatusResponse, error)
	AdminBulkSignIn(ctx context.Context, adminID string, req *dto.BulkSignInRequest) (*dto.BulkResult, error)
	GetOwn(ctx context.Context, actor *model.Person) (*dto.StatusResponse, error)
	PersonnelWithStatus(ctx context.Context, platoon string) ([]dto.PersonWithStatusResponse, error)
	History(ctx context.Context, req *dto.StatusHistoryListRequest) ([]dto.StatusHistoryResponse, int64, error)
}

type statusService struct {
	repo     *repository.Repository
	facility *timeutil.Facility
	logger   *zap.Logger
}

// NewStatusService 创建 StatusService 实例
func NewStatusService(repo *repository.Repository, facility *timeutil.Facility, logger *zap.Logger) StatusService {
	return &statusService{repo: repo, facility: facility, logger: logger}
}

// statusKeys 状态行键的回退链：人员 ID → 认证 UID → 邮箱
func statusKeys(p *model.Person) []string {
	keys := []string{p.PersonID}
	if p.AuthUID != nil && *p.AuthUID != "" {
		keys = append(keys, *p.AuthUID)
	}
	if p.Email != "" {
		keys = append(keys, p.Email)
	}
	return keys
}

// resolveActor 取花名册里的全量人员记录。JWT 重建的身份只带人员 ID，
// 旧键（认证 UID、邮箱）要从花名册补齐，回退链才找得到漂移的状态行；
// 花名册缺人时按传入身份处理。
func (s *statusService) resolveActor(ctx context.Context, actor *model.Person) *model.Person {
	person, err := s.repo.Person.GetByID(ctx, actor.PersonID)
	if err != nil {
		return actor
	}
	return person
}

// loadStatus 按回退链取状态行，无记录返回 (nil, nil)
func (s *statusService) loadStatus(ctx context.Context, p *model.Person) (*model.PersonStatus, error) {
	status, err := s.repo.Status.GetByAnyKey(ctx, statusKeys(p))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return status, nil
}

// ────────────────────── SignOut ──────────────────────

// SignOut 外出签出。带同行人员时，所有人的状态在同一事务内联动：
// 带队人记 Companions，随行人镜像带队人的阶段并记 WithPersonID。
func (s *statusService) SignOut(ctx context.Context, actor *model.Person, req *dto.SignOutRequest) (*dto.StatusResponse, error) {
	expectedReturn, err := time.Parse(time.RFC3339, req.ExpectedReturn)
	if err != nil {
		return nil, fmt.Errorf("%w: 预计返回时间格式错误", pkgerrors.ErrInvalidArgument)
	}

	actor = s.resolveActor(ctx, actor)
	actorStatus, err := s.loadStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	if actorStatus != nil && actorStatus.Status != model.StatusPresent {
		return nil, ErrAlreadyOut
	}

	now := s.facility.Now()
	stage := model.StageEnrouteTo

	var statuses []*model.PersonStatus
	var histories []*model.PersonStatusHistory
	companions := make(model.CompanionList, 0, len(req.Companions))

	// 校验并准备随行人员
	seen := map[string]bool{actor.PersonID: true}
	for _, c := range req.Companions {
		if c.ID == actor.PersonID {
			return nil, ErrCompanionSelf
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: %s 重复", ErrCompanionUnlisted, c.ID)
		}
		seen[c.ID] = true

		person, err := s.repo.Person.GetByID(ctx, c.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrCompanionUnlisted, c.ID)
			}
			return nil, err
		}
		compStatus, err := s.loadStatus(ctx, person)
		if err != nil {
			return nil, err
		}
		if compStatus != nil && compStatus.Status != model.StatusPresent {
			return nil, fmt.Errorf("%w: %s", ErrCompanionBusy, person.Name)
		}

		prev := model.SnapshotOf(compStatus)
		if compStatus == nil {
			compStatus = &model.PersonStatus{PersonID: person.PersonID}
		}
		compStatus.Status = model.StatusPass
		compStatus.PassStage = &stage
		compStatus.Destination = req.Destination
		compStatus.ExpectedReturn = &expectedReturn
		compStatus.ContactNumber = req.ContactNumber
		compStatus.Notes = ""
		compStatus.TimeOut = &now
		compStatus.Companions = nil
		compStatus.WithPersonID = &actor.PersonID
		compStatus.WithPersonName = actor.Name

		statuses = append(statuses, compStatus)
		histories = append(histories, &model.PersonStatusHistory{
			PersonID:  compStatus.PersonID,
			ActorID:   actor.PersonID,
			Action:    model.ActionSignOut,
			PrevState: prev,
			NewState:  model.SnapshotOf(compStatus),
		})
		companions = append(companions, model.Companion{
			ID:   person.PersonID,
			Name: person.Name,
			Rank: person.Rank,
		})
	}

	prev := model.SnapshotOf(actorStatus)
	if actorStatus == nil {
		actorStatus = &model.PersonStatus{PersonID: actor.PersonID}
	}
	actorStatus.Status = model.StatusPass
	actorStatus.PassStage = &stage
	actorStatus.Destination = req.Destination
	actorStatus.ExpectedReturn = &expectedReturn
	actorStatus.ContactNumber = req.ContactNumber
	actorStatus.Notes = req.Notes
	actorStatus.TimeOut = &now
	actorStatus.Companions = companions
	actorStatus.WithPersonID = nil
	actorStatus.WithPersonName = ""

	statuses = append(statuses, actorStatus)
	histories = append(histories, &model.PersonStatusHistory{
		PersonID:  actorStatus.PersonID,
		ActorID:   actor.PersonID,
		Action:    model.ActionSignOut,
		PrevState: prev,
		NewState:  model.SnapshotOf(actorStatus),
	})

	if err := s.repo.Status.SaveCascade(ctx, statuses, histories); err != nil {
		s.logger.Error("签出落盘失败", zap.String("person_id", actor.PersonID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("外出签出",
		zap.String("person_id", actor.PersonID),
		zap.String("destination", req.Destination),
		zap.Int("companions", len(companions)))
	return toStatusResponse(actorStatus), nil
}

// ────────────────────── SickCall ──────────────────────

func (s *statusService) SickCall(ctx context.Context, actor *model.Person, req *dto.SickCallRequest) (*dto.StatusResponse, error) {
	actor = s.resolveActor(ctx, actor)
	actorStatus, err := s.loadStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	if actorStatus != nil && actorStatus.Status != model.StatusPresent {
		return nil, ErrAlreadyOut
	}

	now := s.facility.Now()
	prev := model.SnapshotOf(actorStatus)
	if actorStatus == nil {
		actorStatus = &model.PersonStatus{PersonID: actor.PersonID}
	}
	actorStatus.Status = model.StatusSickCall
	actorStatus.PassStage = nil
	actorStatus.Destination = ""
	actorStatus.ExpectedReturn = nil
	actorStatus.ContactNumber = req.ContactNumber
	actorStatus.Notes = req.Notes
	actorStatus.TimeOut = &now
	actorStatus.Companions = nil
	actorStatus.WithPersonID = nil
	actorStatus.WithPersonName = ""

	history := &model.PersonStatusHistory{
		PersonID:  actorStatus.PersonID,
		ActorID:   actor.PersonID,
		Action:    model.ActionSickCall,
		PrevState: prev,
		NewState:  model.SnapshotOf(actorStatus),
	}
	if err := s.repo.Status.SaveCascade(ctx, []*model.PersonStatus{actorStatus}, []*model.PersonStatusHistory{history}); err != nil {
		s.logger.Error("病号签出落盘失败", zap.String("person_id", actor.PersonID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("病号签出", zap.String("person_id", actor.PersonID))
	return toStatusResponse(actorStatus), nil
}

// ────────────────────── UpdateStage ──────────────────────

// stageOrder 阶段先后次序，只能向前
var stageOrder = map[string]int{
	model.StageEnrouteTo:   1,
	model.StageArrived:     2,
	model.StageEnrouteBack: 3,
}

// UpdateStage 推进外出阶段。带队人的阶段变更级联镜像到所有随行人员。
func (s *statusService) UpdateStage(ctx context.Context, actor *model.Person, req *dto.UpdateStageRequest) (*dto.StatusResponse, error) {
	actor = s.resolveActor(ctx, actor)
	actorStatus, err := s.loadStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	if actorStatus == nil || actorStatus.Status != model.StatusPass {
		return nil, ErrNotOnPass
	}
	if actorStatus.IsCompanion() {
		return nil, ErrCompanionDrivesNot
	}
	if actorStatus.PassStage != nil && stageOrder[req.Stage] <= stageOrder[*actorStatus.PassStage] {
		return nil, ErrInvalidStageForward
	}

	stage := req.Stage
	action := model.ActionStagePrefix + stage

	statuses := []*model.PersonStatus{actorStatus}
	histories := []*model.PersonStatusHistory{{
		PersonID:  actorStatus.PersonID,
		ActorID:   actor.PersonID,
		Action:    action,
		PrevState: model.SnapshotOf(actorStatus),
	}}
	actorStatus.PassStage = &stage
	histories[0].NewState = model.SnapshotOf(actorStatus)

	// 随行人员镜像
	for _, c := range actorStatus.Companions {
		compStatus, err := s.repo.Status.GetByAnyKey(ctx, []string{c.ID})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("随行人员状态行缺失", zap.String("companion_id", c.ID))
			continue
		}
		if err != nil {
			return nil, err
		}
		prev := model.SnapshotOf(compStatus)
		compStatus.PassStage = &stage
		statuses = append(statuses, compStatus)
		histories = append(histories, &model.PersonStatusHistory{
			PersonID:  compStatus.PersonID,
			ActorID:   actor.PersonID,
			Action:    action,
			PrevState: prev,
			NewState:  model.SnapshotOf(compStatus),
		})
	}

	if err := s.repo.Status.SaveCascade(ctx, statuses, histories); err != nil {
		s.logger.Error("阶段推进落盘失败", zap.String("person_id", actor.PersonID), zap.Error(err))
		return nil, err
	}

	return toStatusResponse(actorStatus), nil
}

// ────────────────────── SignIn ──────────────────────

func (s *statusService) SignIn(ctx context.Context, actor *model.Person) (*dto.StatusResponse, error) {
	return s.signIn(ctx, actor, actor.PersonID, model.ActionArrivedBarracks)
}

// signIn 重置为在位。带队人签回级联重置全组，随行人签回同时从带队人名单里摘除自己。
// 已在位时再次签回安全：重置为同样的在位状态并照常追加历史。
func (s *statusService) signIn(ctx context.Context, actor *model.Person, actorID, action string) (*dto.StatusResponse, error) {
	actor = s.resolveActor(ctx, actor)
	actorStatus, err := s.loadStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	if actorStatus == nil {
		actorStatus = &model.PersonStatus{PersonID: actor.PersonID}
	}

	var statuses []*model.PersonStatus
	var histories []*model.PersonStatusHistory

	// 带队人签回：全组一起回
	if actorStatus.IsLeader() {
		for _, c := range actorStatus.Companions {
			compStatus, err := s.repo.Status.GetByAnyKey(ctx, []string{c.ID})
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			prev := model.SnapshotOf(compStatus)
			resetToPresent(compStatus)
			statuses = append(statuses, compStatus)
			histories = append(histories, &model.PersonStatusHistory{
				PersonID:  compStatus.PersonID,
				ActorID:   actorID,
				Action:    action,
				PrevState: prev,
				NewState:  model.SnapshotOf(compStatus),
			})
		}
	}

	// 随行人签回：从带队人的名单里摘除自己
	if actorStatus.IsCompanion() {
		leaderStatus, err := s.repo.Status.GetByAnyKey(ctx, []string{*actorStatus.WithPersonID})
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if leaderStatus != nil && leaderStatus.Companions.Contains(actor.PersonID) {
			leaderStatus.Companions = leaderStatus.Companions.Remove(actor.PersonID)
			statuses = append(statuses, leaderStatus)
		}
	}

	prev := model.SnapshotOf(actorStatus)
	resetToPresent(actorStatus)
	statuses = append(statuses, actorStatus)
	histories = append(histories, &model.PersonStatusHistory{
		PersonID:  actorStatus.PersonID,
		ActorID:   actorID,
		Action:    action,
		PrevState: prev,
		NewState:  model.SnapshotOf(actorStatus),
	})

	if err := s.repo.Status.SaveCascade(ctx, statuses, histories); err != nil {
		s.logger.Error("签回落盘失败", zap.String("person_id", actor.PersonID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("签回在位", zap.String("person_id", actor.PersonID), zap.String("action", action))
	return toStatusResponse(actorStatus), nil
}

func resetToPresent(st *model.PersonStatus) {
	st.Status = model.StatusPresent
	st.PassStage = nil
	st.Destination = ""
	st.ExpectedReturn = nil
	st.ContactNumber = ""
	st.Notes = ""
	st.TimeOut = nil
	st.Companions = nil
	st.WithPersonID = nil
	st.WithPersonName = ""
}

// ────────────────────── BreakFree ──────────────────────

// BreakFree 随行人员脱组单独行动：保持外出状态，但不再随队
func (s *statusService) BreakFree(ctx context.Context, actor *model.Person) (*dto.StatusResponse, error) {
	actor = s.resolveActor(ctx, actor)
	actorStatus, err := s.loadStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	if actorStatus == nil || actorStatus.Status != model.StatusPass {
		return nil, ErrNotOnPass
	}
	if !actorStatus.IsCompanion() {
		return nil, ErrNotCompanion
	}

	statuses := []*model.PersonStatus{}

	leaderStatus, err := s.repo.Status.GetByAnyKey(ctx, []string{*actorStatus.WithPersonID})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if leaderStatus != nil && leaderStatus.Companions.Contains(actor.PersonID) {
		leaderStatus.Companions = leaderStatus.Companions.Remove(actor.PersonID)
		statuses = append(statuses, leaderStatus)
	}

	prev := model.SnapshotOf(actorStatus)
	actorStatus.WithPersonID = nil
	actorStatus.WithPersonName = ""
	statuses = append(statuses, actorStatus)

	histories := []*model.PersonStatusHistory{{
		PersonID:  actorStatus.PersonID,
		ActorID:   actor.PersonID,
		Action:    model.ActionBreakFree,
		PrevState: prev,
		NewState:  model.SnapshotOf(actorStatus),
	}}

	if err := s.repo.Status.SaveCascade(ctx, statuses, histories); err != nil {
		s.logger.Error("脱组落盘失败", zap.String("person_id", actor.PersonID), zap.Error(err))
		return nil, err
	}

	return toStatusResponse(actorStatus), nil
}

// ────────────────────── AdminBulkSignIn ──────────────────────

// AdminBulkSignIn 管理员批量签回，逐条独立执行，单条失败不影响其余
func (s *statusService) AdminBulkSignIn(ctx context.Context, adminID string, req *dto.BulkSignInRequest) (*dto.BulkResult, error) {
	result := &dto.BulkResult{}
	for _, personID := range req.PersonIDs {
		person, err := s.repo.Person.GetByID(ctx, personID)
		if err != nil {
			result.Failed = append(result.Failed, dto.BulkFailure{ID: personID, Reason: "人员不存在"})
			continue
		}
		if _, err := s.signIn(ctx, person, adminID, model.ActionAdminSignIn); err != nil {
			result.Failed = append(result.Failed, dto.BulkFailure{ID: personID, Reason: err.Error()})
			continue
		}
		result.Succeeded++
	}
	s.logger.Info("批量签回完成",
		zap.String("admin_id", adminID),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *statusService) GetOwn(ctx context.Context, actor *model.Person) (*dto.StatusResponse, error) {
	actor = s.resolveActor(ctx, actor)
	actorStatus, err := s.loadStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	if actorStatus == nil {
		actorStatus = &model.PersonStatus{
			PersonID: actor.PersonID,
			Status:   model.StatusPresent,
		}
	}
	return toStatusResponse(actorStatus), nil
}

// PersonnelWithStatus 花名册左连接状态：状态行的键可能是人员 ID、
// 认证 UID 或邮箱中的任意一个，逐人按回退链匹配
func (s *statusService) PersonnelWithStatus(ctx context.Context, platoon string) ([]dto.PersonWithStatusResponse, error) {
	persons, err := s.repo.Person.List(ctx, platoon)
	if err != nil {
		return nil, err
	}
	statuses, err := s.repo.Status.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*model.PersonStatus, len(statuses))
	for i := range statuses {
		byKey[statuses[i].PersonID] = &statuses[i]
	}

	out := make([]dto.PersonWithStatusResponse, 0, len(persons))
	for i := range persons {
		p := &persons[i]
		row := dto.PersonWithStatusResponse{Person: *toPersonResponse(p)}
		for _, key := range statusKeys(p) {
			if st, ok := byKey[key]; ok {
				row.Status = toStatusResponse(st)
				break
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *statusService) History(ctx context.Context, req *dto.StatusHistoryListRequest) ([]dto.StatusHistoryResponse, int64, error) {
	var from, to *time.Time
	if req.From != "" {
		t, err := time.ParseInLocation(timeutil.DateLayout, req.From, s.facility.Location())
		if err != nil {
			return nil, 0, fmt.Errorf("%w: 起始日期格式错误", pkgerrors.ErrInvalidArgument)
		}
		from = &t
	}
	if req.To != "" {
		t, err := time.ParseInLocation(timeutil.DateLayout, req.To, s.facility.Location())
		if err != nil {
			return nil, 0, fmt.Errorf("%w: 结束日期格式错误", pkgerrors.ErrInvalidArgument)
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}

	histories, total, err := s.repo.Status.ListHistory(ctx, req.PersonID, from, to, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.StatusHistoryResponse, 0, len(histories))
	for _, h := range histories {
		out = append(out, dto.StatusHistoryResponse{
			ID:        h.HistoryID,
			PersonID:  h.PersonID,
			ActorID:   h.ActorID,
			Action:    h.Action,
			PrevState: h.PrevState.Status,
			NewState:  h.NewState.Status,
			CreatedAt: h.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, total, nil
}

// ── 响应转换 ──

func toPersonResponse(p *model.Person) *dto.PersonResponse {
	return &dto.PersonResponse{
		ID:      p.PersonID,
		Name:    p.Name,
		Rank:    p.Rank,
		Room:    p.Room,
		Platoon: p.Platoon,
		Email:   p.Email,
		Role:    p.Role,
	}
}

func toStatusResponse(st *model.PersonStatus) *dto.StatusResponse {
	resp := &dto.StatusResponse{
		PersonID:       st.PersonID,
		Status:         st.Status,
		PassStage:      st.PassStage,
		Destination:    st.Destination,
		ContactNumber:  st.ContactNumber,
		Notes:          st.Notes,
		WithPersonID:   st.WithPersonID,
		WithPersonName: st.WithPersonName,
		UpdatedAt:      st.UpdatedAt.Format(time.RFC3339),
	}
	if st.ExpectedReturn != nil {
		v := st.ExpectedReturn.Format(time.RFC3339)
		resp.ExpectedReturn = &v
	}
	if st.TimeOut != nil {
		v := st.TimeOut.Format(time.RFC3339)
		resp.TimeOut = &v
	}
	for _, c := range st.Companions {
		resp.Companions = append(resp.Companions, dto.CompanionInput{ID: c.ID, Name: c.Name, Rank: c.Rank})
	}
	return resp
}

// [自证通过] internal/service/status_service.go
