package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"wotsapp/internal/dto"
	"wotsapp/internal/model"
	"wotsapp/internal/repository"
	pkgerrors "wotsapp/pkg/errors"
	"wotsapp/pkg/timeutil"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoHistory    = errors.New("查询区间内无状态历史")
	ErrExportNoSchedule   = errors.New("查询月份无值班安排")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportStatusHistory 导出状态历史为 Excel（审计留痕用）
	ExportStatusHistory(ctx context.Context, req *dto.StatusHistoryListRequest) (*bytes.Buffer, string, error)
	// ExportSchedule 导出某月值班表为 Excel
	ExportSchedule(ctx context.Context, month string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	facility *timeutil.Facility
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, facility *timeutil.Facility, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, facility: facility, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportStatusHistory — 导出状态历史
// ═══════════════════════════════════════════════════════════
//
// 表头: | 时间 | 人员 | 操作人 | 动作 | 前状态 | 后状态 | 去向 |

func (s *exportService) ExportStatusHistory(ctx context.Context, req *dto.StatusHistoryListRequest) (*bytes.Buffer, string, error) {
	var from, to *time.Time
	if req.From != "" {
		t, err := s.facility.DayStart(req.From)
		if err != nil {
			return nil, "", err
		}
		from = &t
	}
	if req.To != "" {
		t, err := s.facility.DayStart(req.To)
		if err != nil {
			return nil, "", err
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}

	// 导出不分页，上限一次取够
	histories, _, err := s.repo.Status.ListHistory(ctx, req.PersonID, from, to, 0, 10000)
	if err != nil {
		s.logger.Error("查询状态历史失败", zap.Error(err))
		return nil, "", err
	}
	if len(histories) == 0 {
		return nil, "", ErrExportNoHistory
	}

	// 人员 ID → 姓名，历史行键可能是漂移键，查不到时原样展示
	nameByKey, err := s.personNameIndex(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "状态历史"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "C", 16)
	f.SetColWidth(sheetName, "D", "F", 14)
	f.SetColWidth(sheetName, "G", "G", 24)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"时间", "人员", "操作人", "动作", "前状态", "后状态", "去向"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	for _, h := range histories {
		name := h.PersonID
		if n, ok := nameByKey[h.PersonID]; ok {
			name = n
		}
		actor := h.ActorID
		if n, ok := nameByKey[h.ActorID]; ok {
			actor = n
		}
		f.SetCellValue(sheetName, cell("A", row), h.CreatedAt.In(s.facility.Location()).Format("2006-01-02 15:04"))
		f.SetCellValue(sheetName, cell("B", row), name)
		f.SetCellValue(sheetName, cell("C", row), actor)
		f.SetCellValue(sheetName, cell("D", row), h.Action)
		f.SetCellValue(sheetName, cell("E", row), statusLabel(h.PrevState.Status))
		f.SetCellValue(sheetName, cell("F", row), statusLabel(h.NewState.Status))
		f.SetCellValue(sheetName, cell("G", row), h.NewState.Destination)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("状态历史_%s.xlsx", s.facility.Today())
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportSchedule — 导出某月值班表
// ═══════════════════════════════════════════════════════════
//
// 表头: | 日期 | 一班 (20:00–01:00) | 二班 (01:00–06:00) |

func (s *exportService) ExportSchedule(ctx context.Context, month string) (*bytes.Buffer, string, error) {
	monthStart, err := time.ParseInLocation("2006-01", month, s.facility.Location())
	if err != nil {
		return nil, "", fmt.Errorf("%w: 月份格式错误", pkgerrors.ErrInvalidArgument)
	}
	entries, err := s.repo.CQSchedule.ListRange(ctx, monthStart, monthStart.AddDate(0, 1, -1))
	if err != nil {
		s.logger.Error("查询值班表失败", zap.Error(err))
		return nil, "", err
	}
	if len(entries) == 0 {
		return nil, "", ErrExportNoSchedule
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "值班表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "C", 30)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", "日期")
	f.SetCellValue(sheetName, "B1", "一班 (20:00–01:00)")
	f.SetCellValue(sheetName, "C1", "二班 (01:00–06:00)")
	f.SetCellStyle(sheetName, "A1", "C1", headerStyle)

	row := 2
	for i := range entries {
		entry := &entries[i]
		f.SetCellValue(sheetName, cell("A", row), s.facility.FormatDate(entry.DutyDate))
		f.SetCellValue(sheetName, cell("B", row), assigneeNames(entry.Shift1))
		f.SetCellValue(sheetName, cell("C", row), assigneeNames(entry.Shift2))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("值班表_%s.xlsx", month)
	return buf, filename, nil
}

// ── 辅助函数 ──

func (s *exportService) personNameIndex(ctx context.Context) (map[string]string, error) {
	persons, err := s.repo.Person.List(ctx, "")
	if err != nil {
		return nil, err
	}
	nameByKey := make(map[string]string, len(persons)*3)
	for i := range persons {
		p := &persons[i]
		for _, key := range statusKeys(p) {
			nameByKey[key] = p.Name
		}
	}
	nameByKey[model.SystemAuthorID] = "值班系统"
	return nameByKey, nil
}

func assigneeNames(list model.AssigneeList) string {
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.Name)
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "、")
}

func statusLabel(status string) string {
	switch status {
	case model.StatusPresent:
		return "在位"
	case model.StatusPass:
		return "外出"
	case model.StatusSickCall:
		return "病号"
	default:
		return status
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

