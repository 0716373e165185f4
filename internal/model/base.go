package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ── JSONB 辅助 ──

// scanJSONB 将 PostgreSQL JSONB 列反序列化到目标结构
func scanJSONB(src interface{}, dst interface{}) error {
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scanJSONB: unsupported type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}

// Companion 同行人员条目（随队外出时挂在带队人记录上）
type Companion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank string `json:"rank,omitempty"`
}

// CompanionList 对应 PostgreSQL JSONB 列，实现 GORM Scanner/Valuer 接口
type CompanionList []Companion

// Scan 反序列化 JSONB
func (l *CompanionList) Scan(src interface{}) error {
	return scanJSONB(src, l)
}

// Value 序列化为 JSONB
func (l CompanionList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Contains 判断列表中是否含有指定人员
func (l CompanionList) Contains(id string) bool {
	for _, c := range l {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Remove 返回去掉指定人员后的新列表
func (l CompanionList) Remove(id string) CompanionList {
	out := make(CompanionList, 0, len(l))
	for _, c := range l {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// Assignee 值班人员条目
type Assignee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AssigneeList 对应 PostgreSQL JSONB 列，实现 GORM Scanner/Valuer 接口
type AssigneeList []Assignee

// Scan 反序列化 JSONB
func (l *AssigneeList) Scan(src interface{}) error {
	return scanJSONB(src, l)
}

// Value 序列化为 JSONB
func (l AssigneeList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Contains 判断人员是否在班次名单上
func (l AssigneeList) Contains(id string) bool {
	for _, a := range l {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Replace 将 oldID 对应的席位换为新人员，返回是否找到
func (l AssigneeList) Replace(oldID string, repl Assignee) (AssigneeList, bool) {
	out := make(AssigneeList, len(l))
	copy(out, l)
	for i, a := range out {
		if a.ID == oldID {
			out[i] = repl
			return out, true
		}
	}
	return out, false
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"     json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// [自证通过] internal/model/base.go
