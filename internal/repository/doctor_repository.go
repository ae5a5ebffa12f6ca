package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/telecare/telecare/internal/domain/doctor"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return doctor.ErrDoctorAlreadyExists
		}
		return fmt.Errorf("creating doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("fetching doctor: %w", err)
	}
	return &d, nil
}

func (r *DoctorRepository) GetByEmail(ctx context.Context, email string) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("fetching doctor by email: %w", err)
	}
	return &d, nil
}

func (r *DoctorRepository) UpdateProfile(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateProfileCommand) (*doctor.Doctor, error) {
	updates := map[string]any{}
	if cmd.Name != nil {
		updates["name"] = *cmd.Name
	}
	if cmd.Specialization != nil {
		updates["specialization"] = *cmd.Specialization
	}
	if cmd.Location != nil {
		updates["location"] = *cmd.Location
	}
	if cmd.Hospital != nil {
		updates["hospital"] = *cmd.Hospital
	}
	if cmd.ContactNo != nil {
		updates["contact_no"] = *cmd.ContactNo
	}
	if cmd.Gender != nil {
		updates["gender"] = *cmd.Gender
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&doctor.Doctor{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("updating doctor profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, doctor.ErrDoctorNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *DoctorRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&doctor.Doctor{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking doctor email: %w", err)
	}
	return count > 0, nil
}
