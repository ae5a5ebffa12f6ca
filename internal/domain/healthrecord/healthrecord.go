package healthrecord

import (
	"time"

	"github.com/google/uuid"
)

// Vitals is a point-in-time measurement set captured at the kiosk.
// Values are kept as strings end to end: the capture devices report
// them formatted and nothing downstream does arithmetic on them.
type Vitals struct {
	Height      string `gorm:"column:height;type:varchar(20)" json:"height"`
	Weight      string `gorm:"column:weight;type:varchar(20)" json:"weight"`
	Temperature string `gorm:"column:temperature;type:varchar(20)" json:"temperature"`
	SpO2        string `gorm:"column:spo2;type:varchar(20)" json:"spo2"`
	HeartRate   string `gorm:"column:heartrate;type:varchar(20)" json:"heartrate"`
}

// HealthRecord is one vitals/symptoms submission by a patient.
type HealthRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UserMobile string `gorm:"column:user_mobile;type:varchar(20);not null;index"`

	Vitals

	Symptoms []string `gorm:"column:symptoms;serializer:json"`
}

func (HealthRecord) TableName() string {
	return "clinical.health_records"
}

// Analysis is the AI-generated diagnosis text attached to a record.
type Analysis struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	RecordID     uuid.UUID `gorm:"column:record_id;type:uuid;not null;uniqueIndex"`
	ResponseText string    `gorm:"column:response_text;type:text;not null"`
}

func (Analysis) TableName() string {
	return "clinical.analyses"
}

type CreateRecordCommand struct {
	UserMobile string
	Vitals     Vitals
	Symptoms   []string
}

// HistoryEntry is one row of a patient's consolidated history: the
// submitted record joined with its AI analysis and, when a live
// consultation happened, the doctor's response.
type HistoryEntry struct {
	RecordID     uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Symptoms     []string  `json:"symptoms"`
	Vitals       Vitals    `json:"vitals"`
	ResponseText string    `json:"response_text,omitempty"`
	DoctorNotes  string    `json:"doctor_notes,omitempty"`
	Prescription string    `json:"prescription,omitempty"`
	DoctorName   string    `json:"doctor_name,omitempty"`
}
