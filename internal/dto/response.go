package dto

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	ExpiresIn    int            `json:"expires_in"` // Access Token 有效期（秒）
	Person       PersonResponse `json:"person"`
}

// PersonResponse 人员信息响应（脱敏）
type PersonResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Rank    string `json:"rank,omitempty"`
	Room    string `json:"room,omitempty"`
	Platoon string `json:"platoon,omitempty"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// ── 批量操作响应 ──

// BulkFailure 批量操作中单条失败的原因
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult 批量操作结果：逐条独立执行，单条失败不影响其余
type BulkResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    []BulkFailure `json:"failed,omitempty"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// [自证通过] internal/dto/response.go
