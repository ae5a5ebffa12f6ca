package consultation

import (
	"time"

	"github.com/google/uuid"
)

// State transitions possibilities:
//
//	pending → accepted → completed
//
// A consultation never mutates after completion. There is no expiry
// state: a request nobody accepts stays pending until the patient
// abandons the session client-side.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusCompleted Status = "completed"
)

type Consultation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UserMobile string    `gorm:"column:user_mobile;type:varchar(20);not null;index"`
	RecordID   uuid.UUID `gorm:"column:record_id;type:uuid;not null;index"`

	Status   Status     `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	DoctorID *uuid.UUID `gorm:"column:doctor_id;type:uuid;index"`

	AcceptedAt  *time.Time `gorm:"column:accepted_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	// Filled at completion by the accepting doctor.
	DoctorNotes  string `gorm:"column:doctor_notes;type:text"`
	Prescription string `gorm:"column:prescription;type:text"`
}

func (Consultation) TableName() string {
	return "clinical.consultations"
}

func (c *Consultation) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusPending:   {StatusAccepted},
		StatusAccepted:  {StatusCompleted},
		StatusCompleted: {},
	}

	for _, s := range allowed[c.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

func (c *Consultation) Accept(doctorID uuid.UUID) error {
	if !c.CanTransitionTo(StatusAccepted) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	c.Status = StatusAccepted
	c.DoctorID = &doctorID
	c.AcceptedAt = &now
	return nil
}

func (c *Consultation) Complete(notes, prescription string) error {
	if !c.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	c.Status = StatusCompleted
	c.CompletedAt = &now
	c.DoctorNotes = notes
	c.Prescription = prescription
	return nil
}

type CreateConsultationCommand struct {
	UserMobile string
	RecordID   uuid.UUID
}

// CompletedEntry is a completed consultation joined with the patient
// snapshot and the AI diagnosis, as shown on the doctor's case list.
type CompletedEntry struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	PatientName  string    `json:"patient_name"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	Symptoms     []string  `json:"symptoms"`
	Diagnosis    string    `json:"diagnosis,omitempty"`
	DoctorNotes  string    `json:"doctor_notes"`
	Prescription string    `json:"prescription"`
}
