package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/repository"
	pkgerrors "wotsapp/pkg/errors"
	"wotsapp/pkg/timeutil"
)

var ErrScheduleRangeInvalid = errors.New("查询区间无效")

// 每个班次的值班人上限
const maxAssigneesPerShift = 2

// CQScheduleService 值班表业务接口
type CQScheduleService interface {
	Upsert(ctx context.Context, adminID string, req *dto.UpsertScheduleEntryRequest) (*dto.ScheduleEntryResponse, error)
	GetByDate(ctx context.Context, date string) (*dto.ScheduleEntryResponse, error)
	List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleEntryResponse, error)
	ListMine(ctx context.Context, personID string, req *dto.ScheduleListRequest) ([]dto.MyShiftResponse, error)
	Delete(ctx context.Context, date string) error
}

type cqScheduleService struct {
	repo     *repository.Repository
	facility *timeutil.Facility
	logger   *zap.Logger
}

// NewCQScheduleService 创建 CQScheduleService 实例
func NewCQScheduleService(repo *repository.Repository, facility *timeutil.Facility, logger *zap.Logger) CQScheduleService {
	return &cqScheduleService{repo: repo, facility: facility, logger: logger}
}

// ────────────────────── Upsert ──────────────────────

// Upsert 创建或整体覆盖某日的值班表（一天一行），每班次最多 2 人
func (s *cqScheduleService) Upsert(ctx context.Context, adminID string, req *dto.UpsertScheduleEntryRequest) (*dto.ScheduleEntryResponse, error) {
	dutyDate, err := time.ParseInLocation(timeutil.DateLayout, req.DutyDate, s.facility.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: 值班日期格式错误", pkgerrors.ErrInvalidArgument)
	}
	if len(req.Shift1) > maxAssigneesPerShift || len(req.Shift2) > maxAssigneesPerShift {
		return nil, fmt.Errorf("%w: 每个班次最多 %d 人", pkgerrors.ErrInvalidArgument, maxAssigneesPerShift)
	}

	shift1 := toAssigneeList(req.Shift1)
	shift2 := toAssigneeList(req.Shift2)

	entry, err := s.repo.CQSchedule.GetByDate(ctx, dutyDate)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询值班表失败", zap.Error(err))
		return nil, err
	}

	if entry == nil {
		entry = &model.CQScheduleEntry{
			DutyDate: dutyDate,
			Shift1:   shift1,
			Shift2:   shift2,
		}
		entry.CreatedBy = &adminID
		entry.UpdatedBy = &adminID
		if err := s.repo.CQSchedule.Create(ctx, entry); err != nil {
			s.logger.Error("创建值班表失败", zap.Error(err))
			return nil, err
		}
	} else {
		entry.Shift1 = shift1
		entry.Shift2 = shift2
		entry.UpdatedBy = &adminID
		if err := s.repo.CQSchedule.Update(ctx, entry); err != nil {
			s.logger.Error("更新值班表失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("值班表已保存",
		zap.String("duty_date", req.DutyDate),
		zap.Int("shift1", len(shift1)),
		zap.Int("shift2", len(shift2)))
	return s.toScheduleEntryResponse(entry), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *cqScheduleService) GetByDate(ctx context.Context, date string) (*dto.ScheduleEntryResponse, error) {
	dutyDate, err := s.facility.DayStart(date)
	if err != nil {
		return nil, fmt.Errorf("%w: 日期格式错误", pkgerrors.ErrInvalidArgument)
	}
	entry, err := s.repo.CQSchedule.GetByDate(ctx, dutyDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleEntryAbsent
		}
		return nil, err
	}
	return s.toScheduleEntryResponse(entry), nil
}

// List 按月或按区间查询；都未给时默认当月
func (s *cqScheduleService) List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleEntryResponse, error) {
	var from, to time.Time
	switch {
	case req.Month != "":
		monthStart, err := time.ParseInLocation("2006-01", req.Month, s.facility.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: 月份格式错误", pkgerrors.ErrInvalidArgument)
		}
		from, to = monthStart, monthStart.AddDate(0, 1, -1)
	case req.From != "" && req.To != "":
		var err error
		if from, err = s.facility.DayStart(req.From); err != nil {
			return nil, fmt.Errorf("%w: 日期格式错误", pkgerrors.ErrInvalidArgument)
		}
		if to, err = s.facility.DayStart(req.To); err != nil {
			return nil, fmt.Errorf("%w: 日期格式错误", pkgerrors.ErrInvalidArgument)
		}
		if to.Before(from) {
			return nil, ErrScheduleRangeInvalid
		}
	default:
		now := s.facility.Now()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.facility.Location())
		to = from.AddDate(0, 1, -1)
	}

	entries, err := s.repo.CQSchedule.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, *s.toScheduleEntryResponse(&entries[i]))
	}
	return out, nil
}

// ListMine 查询本人的班次，按区间规则同 List
func (s *cqScheduleService) ListMine(ctx context.Context, personID string, req *dto.ScheduleListRequest) ([]dto.MyShiftResponse, error) {
	entries, err := s.List(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MyShiftResponse, 0)
	for _, entry := range entries {
		for shiftType, assignees := range map[string][]dto.AssigneeInput{
			string(timeutil.Shift1): entry.Shift1,
			string(timeutil.Shift2): entry.Shift2,
		} {
			mine := false
			partners := make([]dto.AssigneeInput, 0)
			for _, a := range assignees {
				if a.ID == personID {
					mine = true
				} else {
					partners = append(partners, a)
				}
			}
			if mine {
				out = append(out, dto.MyShiftResponse{
					DutyDate:  entry.DutyDate,
					ShiftType: shiftType,
					Partners:  partners,
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DutyDate != out[j].DutyDate {
			return out[i].DutyDate < out[j].DutyDate
		}
		return out[i].ShiftType < out[j].ShiftType
	})
	return out, nil
}

// ────────────────────── Delete ──────────────────────

func (s *cqScheduleService) Delete(ctx context.Context, date string) error {
	dutyDate, err := s.facility.DayStart(date)
	if err != nil {
		return fmt.Errorf("%w: 日期格式错误", pkgerrors.ErrInvalidArgument)
	}
	entry, err := s.repo.CQSchedule.GetByDate(ctx, dutyDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleEntryAbsent
		}
		return err
	}
	return s.repo.CQSchedule.Delete(ctx, entry.EntryID)
}

// ── 响应转换 ──

func toAssigneeList(inputs []dto.AssigneeInput) model.AssigneeList {
	out := make(model.AssigneeList, 0, len(inputs))
	for _, a := range inputs {
		out = append(out, model.Assignee{ID: a.ID, Name: a.Name})
	}
	return out
}

func (s *cqScheduleService) toScheduleEntryResponse(entry *model.CQScheduleEntry) *dto.ScheduleEntryResponse {
	resp := &dto.ScheduleEntryResponse{
		ID:       entry.EntryID,
		DutyDate: s.facility.FormatDate(entry.DutyDate),
		Shift1:   []dto.AssigneeInput{},
		Shift2:   []dto.AssigneeInput{},
	}
	for _, a := range entry.Shift1 {
		resp.Shift1 = append(resp.Shift1, dto.AssigneeInput{ID: a.ID, Name: a.Name})
	}
	for _, a := range entry.Shift2 {
		resp.Shift2 = append(resp.Shift2, dto.AssigneeInput{ID: a.ID, Name: a.Name})
	}
	return resp
}

// [自证通过] internal/service/cq_schedule_service.go
