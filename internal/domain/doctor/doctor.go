package doctor

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/telecare/telecare/internal/domain"
)

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft Delete

	Name         string        `gorm:"column:name;type:varchar(100);not null"`
	Email        string        `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string        `gorm:"column:password_hash;type:varchar(255);not null"`
	Gender       domain.Gender `gorm:"column:gender;type:varchar(20)"`

	Specialization string `gorm:"column:specialization;type:varchar(100);index"`
	Location       string `gorm:"column:location;type:varchar(100)"`
	Hospital       string `gorm:"column:hospital;type:varchar(255)"`
	ContactNo      string `gorm:"column:contact_no;type:varchar(20)"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

func (d *Doctor) DisplayName() string {
	return strings.TrimSpace(d.Name)
}

type RegisterDoctorCommand struct {
	Name           string
	Email          string
	Password       string
	Specialization string
	Location       string
	Hospital       string
	ContactNo      string
	Gender         domain.Gender
}

type UpdateProfileCommand struct {
	Name           *string
	Specialization *string
	Location       *string
	Hospital       *string
	ContactNo      *string
	Gender         *domain.Gender
}

// Profile is the public view of a doctor record, without credentials.
type Profile struct {
	ID             uuid.UUID     `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Specialization string        `json:"specialization"`
	Location       string        `json:"location"`
	Hospital       string        `json:"hospital"`
	ContactNo      string        `json:"contact_no"`
	Gender         domain.Gender `json:"gender"`
}

func (d *Doctor) Profile() *Profile {
	return &Profile{
		ID:             d.ID,
		Name:           d.Name,
		Email:          d.Email,
		Specialization: d.Specialization,
		Location:       d.Location,
		Hospital:       d.Hospital,
		ContactNo:      d.ContactNo,
		Gender:         d.Gender,
	}
}
