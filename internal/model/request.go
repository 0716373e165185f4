package model

import "time"

// 审批请求状态取值（pass / liberty / swap / weather 共用）
// pending 为初始态；其余均为终态，一经写入不再变化
// （唯一例外：weather 的 pending/approved → superseded，见 WeatherRecommendation）
const (
	RequestPending    = "pending"
	RequestApproved   = "approved"
	RequestRejected   = "rejected"
	RequestCancelled  = "cancelled"
	RequestSuperseded = "superseded"
)

// Resolution 审批裁决字段（仅在脱离 pending 时填充其中一组）
type Resolution struct {
	ApprovedBy      *string    `gorm:"type:varchar(255)" json:"approved_by,omitempty"`
	ApprovedByName  *string    `gorm:"type:varchar(100)" json:"approved_by_name,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      *string    `gorm:"type:varchar(255)" json:"rejected_by,omitempty"`
	RejectedByName  *string    `gorm:"type:varchar(100)" json:"rejected_by_name,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `gorm:"type:varchar(500)" json:"rejection_reason,omitempty"`
}

// PassRequest 外出申请 — 对应 pass_requests
// 批准后由审批人代为签出（写入 PersonStatus），申请人无需再操作
type PassRequest struct {
	PassRequestID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pass_request_id"`
	RequesterID    string    `gorm:"type:varchar(255);not null"                     json:"requester_id"`
	RequesterName  string    `gorm:"type:varchar(100);not null"                     json:"requester_name"`
	Destination    string    `gorm:"type:varchar(200);not null"                     json:"destination"`
	ExpectedReturn time.Time `gorm:"not null"                                       json:"expected_return"`
	ContactNumber  string    `gorm:"type:varchar(30)"                               json:"contact_number,omitempty"`
	Reason         string    `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Resolution
	VersionedModel
}

// TableName 指定表名
func (PassRequest) TableName() string { return "pass_requests" }

// LibertyRequest 周末外宿申请 — 对应 liberty_requests
// StartDate 标识所属周末：同一申请人同一周末只允许一个 pending 申请
type LibertyRequest struct {
	LibertyRequestID string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"liberty_request_id"`
	RequesterID      string        `gorm:"type:varchar(255);not null"                     json:"requester_id"`
	RequesterName    string        `gorm:"type:varchar(100);not null"                     json:"requester_name"`
	Destination      string        `gorm:"type:varchar(200);not null"                     json:"destination"`
	StartDate        time.Time     `gorm:"type:date;not null"                             json:"start_date"`
	EndDate          time.Time     `gorm:"type:date;not null"                             json:"end_date"`
	Companions       CompanionList `gorm:"type:jsonb"                                     json:"companions,omitempty"`
	Purpose          string        `gorm:"type:varchar(500)"                              json:"purpose,omitempty"`
	ContactNumber    string        `gorm:"type:varchar(30)"                               json:"contact_number,omitempty"`
	Status           string        `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Resolution
	VersionedModel
}

// TableName 指定表名
func (LibertyRequest) TableName() string { return "liberty_requests" }

// 换班类型取值
const (
	SwapTypeIndividual = "individual" // 仅替换申请人自己的席位
	SwapTypeFullShift  = "full_shift" // 整班与另一 (日期, 班次) 对调
)

// CQSwapRequest 换班申请 — 对应 cq_swap_requests
type CQSwapRequest struct {
	SwapRequestID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"swap_request_id"`
	RequesterID   string    `gorm:"type:varchar(255);not null"                     json:"requester_id"`
	RequesterName string    `gorm:"type:varchar(100);not null"                     json:"requester_name"`
	SwapType      string    `gorm:"type:varchar(20);not null;default:'individual'" json:"swap_type"` // individual | full_shift
	ScheduleDate  time.Time `gorm:"type:date;not null"                             json:"schedule_date"`
	ShiftType     string    `gorm:"type:varchar(10);not null"                      json:"shift_type"` // shift1 | shift2

	// individual：提名顶替自己席位的人
	ProposedID   *string `gorm:"type:varchar(255)" json:"proposed_id,omitempty"`
	ProposedName *string `gorm:"type:varchar(100)" json:"proposed_name,omitempty"`

	// full_shift：对调的目标 (日期, 班次)
	TargetDate      *time.Time `gorm:"type:date"         json:"target_date,omitempty"`
	TargetShiftType *string    `gorm:"type:varchar(10)"  json:"target_shift_type,omitempty"`

	Reason string `gorm:"type:varchar(500)"                           json:"reason,omitempty"`
	Status string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Resolution
	VersionedModel
}

// TableName 指定表名
func (CQSwapRequest) TableName() string { return "cq_swap_requests" }

// [自证通过] internal/model/request.go
