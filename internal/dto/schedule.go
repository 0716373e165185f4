package dto

// AssigneeInput 班次值班人
type AssigneeInput struct {
	ID   string `json:"id"   binding:"required"`
	Name string `json:"name" binding:"required,max=100"`
}

// UpsertScheduleEntryRequest 创建或更新某日值班表，每班次最多 2 人
type UpsertScheduleEntryRequest struct {
	DutyDate string          `json:"duty_date" binding:"required"` // 2006-01-02
	Shift1   []AssigneeInput `json:"shift1"    binding:"omitempty,max=2,dive"`
	Shift2   []AssigneeInput `json:"shift2"    binding:"omitempty,max=2,dive"`
}

// ScheduleListRequest 按月或按区间查询值班表
type ScheduleListRequest struct {
	Month string `form:"month" binding:"omitempty"` // 2006-01
	From  string `form:"from"  binding:"omitempty"` // 2006-01-02
	To    string `form:"to"    binding:"omitempty"`
}

// ScheduleEntryResponse 某日值班表响应
type ScheduleEntryResponse struct {
	ID       string          `json:"id"`
	DutyDate string          `json:"duty_date"`
	Shift1   []AssigneeInput `json:"shift1"`
	Shift2   []AssigneeInput `json:"shift2"`
}

// MyShiftResponse 本人班次视图，Partners 为同班其他人
type MyShiftResponse struct {
	DutyDate  string          `json:"duty_date"`
	ShiftType string          `json:"shift_type"` // shift1 | shift2
	Partners  []AssigneeInput `json:"partners,omitempty"`
}

// SwapTargetResponse 整班互换的可选目标班次，起止时刻按营区时区换算
type SwapTargetResponse struct {
	DutyDate  string          `json:"duty_date"`
	ShiftType string          `json:"shift_type"`
	StartsAt  string          `json:"starts_at"`
	EndsAt    string          `json:"ends_at"`
	Assignees []AssigneeInput `json:"assignees"`
}

