package dto

// WeatherSnapshotDTO 生成建议时采样的天气
type WeatherSnapshotDTO struct {
	TemperatureF float64 `json:"temperature_f"`
	Condition    string  `json:"condition"`
	Humidity     int     `json:"humidity"`
	WindMPH      float64 `json:"wind_mph"`
	PrecipChance int     `json:"precip_chance"`
}

// CreateRecommendationRequest 生成今日着装建议
type CreateRecommendationRequest struct {
	TargetDate string             `json:"target_date" binding:"required"` // 2006-01-02
	TargetSlot string             `json:"target_slot" binding:"required,oneof=am pm"`
	UniformID  string             `json:"uniform_id"  binding:"required"`
	Weather    WeatherSnapshotDTO `json:"weather"     binding:"required"`
}

// ApproveRecommendationRequest 人工批准，允许覆盖发布文案
type ApproveRecommendationRequest struct {
	CustomTitle   string `json:"custom_title"   binding:"max=200"`
	CustomContent string `json:"custom_content" binding:"max=2000"`
}

// ApproveRecommendationResponse 批准并发布的结果
type ApproveRecommendationResponse struct {
	Success       bool   `json:"success"`
	PostID        string `json:"post_id"`
	UniformNumber int    `json:"uniform_number"`
	UniformName   string `json:"uniform_name"`
}

// RecommendationResponse 着装建议响应
type RecommendationResponse struct {
	ID            string             `json:"id"`
	TargetDate    string             `json:"target_date"`
	TargetSlot    string             `json:"target_slot"`
	UniformID     string             `json:"uniform_id"`
	UniformNumber int                `json:"uniform_number,omitempty"`
	UniformName   string             `json:"uniform_name,omitempty"`
	Weather       WeatherSnapshotDTO `json:"weather"`
	Status        string             `json:"status"`
	ExpiresAt     string             `json:"expires_at"`
	PostID        *string            `json:"post_id,omitempty"`
	CreatedAt     string             `json:"created_at"`
}

// PendingCountResponse 待审数量
type PendingCountResponse struct {
	Count int64 `json:"count"`
}

// UniformResponse 制服条目
type UniformResponse struct {
	ID          string `json:"id"`
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// PostResponse 公告响应
type PostResponse struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Status     string  `json:"status"`
	TargetDate *string `json:"target_date,omitempty"`
	TargetSlot *string `json:"target_slot,omitempty"`
	AuthorID   string  `json:"author_id"`
	AuthorName string  `json:"author_name"`
	CreatedAt  string  `json:"created_at"`
}

// [自证通过] internal/dto/weather.go
