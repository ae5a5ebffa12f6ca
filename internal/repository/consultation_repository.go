package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/telecare/telecare/internal/domain/consultation"
)

type ConsultationRepository struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

func (r *ConsultationRepository) Create(ctx context.Context, c *consultation.Consultation) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("creating consultation: %w", err)
	}
	return nil
}

func (r *ConsultationRepository) GetByID(ctx context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	var c consultation.Consultation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, consultation.ErrConsultationNotFound
		}
		return nil, fmt.Errorf("fetching consultation: %w", err)
	}
	return &c, nil
}

// MarkAccepted is a guarded pending→accepted transition. The status
// predicate makes the update atomic under concurrent accepts: exactly
// one doctor's update matches the pending row.
func (r *ConsultationRepository) MarkAccepted(ctx context.Context, id uuid.UUID, doctorID uuid.UUID) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&consultation.Consultation{}).
		Where("id = ? AND status = ?", id, consultation.StatusPending).
		Updates(map[string]any{
			"status":      consultation.StatusAccepted,
			"doctor_id":   doctorID,
			"accepted_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("accepting consultation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return consultation.ErrAlreadyAccepted
	}
	return nil
}

func (r *ConsultationRepository) MarkCompleted(ctx context.Context, id uuid.UUID, notes, prescription string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&consultation.Consultation{}).
		Where("id = ? AND status = ?", id, consultation.StatusAccepted).
		Updates(map[string]any{
			"status":       consultation.StatusCompleted,
			"completed_at": now,
			"doctor_notes": notes,
			"prescription": prescription,
		})
	if res.Error != nil {
		return fmt.Errorf("completing consultation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return consultation.ErrInvalidStatusTransition
	}
	return nil
}

type completedRow struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	PatientName  string
	Age          int
	Gender       string
	Symptoms     string
	Diagnosis    string
	DoctorNotes  string
	Prescription string
}

func (r *ConsultationRepository) ListCompletedByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*consultation.CompletedEntry, error) {
	rows, err := r.db.WithContext(ctx).Raw(`
		SELECT
			c.id,
			c.created_at,
			COALESCE(u.name, '')          AS patient_name,
			COALESCE(u.age, 0)            AS age,
			COALESCE(u.gender, '')        AS gender,
			COALESCE(hr.symptoms::text, '') AS symptoms,
			COALESCE(a.response_text, '') AS diagnosis,
			c.doctor_notes,
			c.prescription
		FROM clinical.consultations c
		LEFT JOIN auth.users u
			ON u.mobile = c.user_mobile
		LEFT JOIN clinical.health_records hr
			ON hr.id = c.record_id
		LEFT JOIN clinical.analyses a
			ON a.record_id = c.record_id
		WHERE c.doctor_id = ? AND c.status = 'completed'
		ORDER BY c.completed_at DESC`, doctorID).Rows()
	if err != nil {
		return nil, fmt.Errorf("querying completed consultations: %w", err)
	}
	defer rows.Close()

	var entries []*consultation.CompletedEntry
	for rows.Next() {
		var row completedRow
		err := rows.Scan(
			&row.ID, &row.CreatedAt,
			&row.PatientName, &row.Age, &row.Gender,
			&row.Symptoms, &row.Diagnosis,
			&row.DoctorNotes, &row.Prescription,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning completed consultation: %w", err)
		}

		entry := &consultation.CompletedEntry{
			ID:           row.ID,
			CreatedAt:    row.CreatedAt,
			PatientName:  row.PatientName,
			Age:          row.Age,
			Gender:       row.Gender,
			Diagnosis:    row.Diagnosis,
			DoctorNotes:  row.DoctorNotes,
			Prescription: row.Prescription,
		}
		if row.Symptoms != "" {
			if err := json.Unmarshal([]byte(row.Symptoms), &entry.Symptoms); err != nil {
				return nil, fmt.Errorf("decoding symptoms for consultation %s: %w", row.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completed consultations: %w", err)
	}

	return entries, nil
}
