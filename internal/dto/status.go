package dto

// CompanionInput 同行人员条目
type CompanionInput struct {
	ID   string `json:"id"   binding:"required"`
	Name string `json:"name" binding:"required"`
	Rank string `json:"rank"`
}

// SignOutRequest 外出签出请求
type SignOutRequest struct {
	Destination    string           `json:"destination"     binding:"required,max=200"`
	ExpectedReturn string           `json:"expected_return" binding:"required"` // RFC3339
	ContactNumber  string           `json:"contact_number"  binding:"max=30"`
	Notes          string           `json:"notes"           binding:"max=500"`
	Companions     []CompanionInput `json:"companions"      binding:"omitempty,max=10,dive"`
}

// SickCallRequest 病号签出请求
type SickCallRequest struct {
	ContactNumber string `json:"contact_number" binding:"max=30"`
	Notes         string `json:"notes"          binding:"max=500"`
}

// UpdateStageRequest 外出阶段推进请求
type UpdateStageRequest struct {
	Stage string `json:"stage" binding:"required,oneof=enroute_to arrived enroute_back"`
}

// BulkSignInRequest 管理员批量签回请求
type BulkSignInRequest struct {
	PersonIDs []string `json:"person_ids" binding:"required,min=1,dive,required"`
}

// StatusResponse 人员状态响应
type StatusResponse struct {
	PersonID       string           `json:"person_id"`
	Status         string           `json:"status"`
	PassStage      *string          `json:"pass_stage,omitempty"`
	Destination    string           `json:"destination,omitempty"`
	ExpectedReturn *string          `json:"expected_return,omitempty"`
	ContactNumber  string           `json:"contact_number,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	TimeOut        *string          `json:"time_out,omitempty"`
	Companions     []CompanionInput `json:"companions,omitempty"`
	WithPersonID   *string          `json:"with_person_id,omitempty"`
	WithPersonName string           `json:"with_person_name,omitempty"`
	UpdatedAt      string           `json:"updated_at"`
}

// PersonWithStatusResponse 花名册与状态的左连接行
// 无状态记录的人员 Status 字段为 present 的缺省快照
type PersonWithStatusResponse struct {
	Person PersonResponse  `json:"person"`
	Status *StatusResponse `json:"status,omitempty"`
}

// StatusHistoryResponse 状态历史条目
type StatusHistoryResponse struct {
	ID        string  `json:"id"`
	PersonID  string  `json:"person_id"`
	ActorID   string  `json:"actor_id"`
	Action    string  `json:"action"`
	PrevState string  `json:"prev_status"`
	NewState  string  `json:"new_status"`
	CreatedAt string  `json:"created_at"`
}

// StatusHistoryListRequest 状态历史查询参数
type StatusHistoryListRequest struct {
	PersonID string `form:"person_id"`
	From     string `form:"from"` // 2006-01-02
	To       string `form:"to"`
	PaginationRequest
}

// [自证通过] internal/dto/status.go
