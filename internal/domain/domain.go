package domain

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// User is a patient identity. There is no password: patients identify
// themselves by mobile number only, matching the registration flow of
// the kiosk frontend.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Mobile      string `gorm:"column:mobile;type:varchar(20);uniqueIndex;not null"`
	Name        string `gorm:"column:name;type:varchar(100);not null"`
	Age         int    `gorm:"column:age"`
	DateOfBirth string `gorm:"column:dob;type:varchar(20)"`
	Gender      Gender `gorm:"column:gender;type:varchar(20)"`
	Address     string `gorm:"column:address;type:text"`
	State       string `gorm:"column:state;type:varchar(50)"`

	// National health identifiers (ABHA number and address).
	HIDN string `gorm:"column:hidn;type:varchar(50)"`
	HID  string `gorm:"column:hid;type:varchar(100)"`
}

func (User) TableName() string {
	return "auth.users"
}

type AuditAction string

const (
	ActionCreate   AuditAction = "create"
	ActionRead     AuditAction = "read"
	ActionUpdate   AuditAction = "update"
	ActionLogin    AuditAction = "login"
	ActionAnalyze  AuditAction = "analyze"
	ActionComplete AuditAction = "complete"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	ActorID   string `gorm:"column:actor_id;type:varchar(100);index"`
	ActorRole string `gorm:"column:actor_role;type:varchar(30);not null"`
	IPAddress string `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

// Claims identify an authenticated doctor session.
type Claims struct {
	DoctorID uuid.UUID `json:"sub"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
}
