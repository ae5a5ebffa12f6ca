package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/telecare/telecare/internal/domain/healthrecord"
)

type HealthRecordRepository struct {
	db *gorm.DB
}

func NewHealthRecordRepository(db *gorm.DB) *HealthRecordRepository {
	return &HealthRecordRepository{db: db}
}

func (r *HealthRecordRepository) Create(ctx context.Context, rec *healthrecord.HealthRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("creating health record: %w", err)
	}
	return nil
}

func (r *HealthRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*healthrecord.HealthRecord, error) {
	var rec healthrecord.HealthRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, healthrecord.ErrRecordNotFound
		}
		return nil, fmt.Errorf("fetching health record: %w", err)
	}
	return &rec, nil
}

func (r *HealthRecordRepository) AttachAnalysis(ctx context.Context, a *healthrecord.Analysis) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("attaching analysis: %w", err)
	}
	return nil
}

// historyRow is the flat scan target for the history join. Symptoms
// come back as the raw JSON column and are decoded per row.
type historyRow struct {
	RecordID     uuid.UUID `gorm:"column:record_id"`
	Height       string    `gorm:"column:height"`
	Weight       string    `gorm:"column:weight"`
	Temperature  string    `gorm:"column:temperature"`
	SpO2         string    `gorm:"column:spo2"`
	HeartRate    string    `gorm:"column:heartrate"`
	Symptoms     string    `gorm:"column:symptoms"`
	ResponseText string    `gorm:"column:response_text"`
	DoctorNotes  string    `gorm:"column:doctor_notes"`
	Prescription string    `gorm:"column:prescription"`
	DoctorName   string    `gorm:"column:doctor_name"`
}

func (r *HealthRecordRepository) History(ctx context.Context, userMobile string) ([]*healthrecord.HistoryEntry, error) {
	rows, err := r.db.WithContext(ctx).Raw(`
		SELECT
			hr.id          AS record_id,
			hr.created_at,
			hr.height, hr.weight, hr.temperature, hr.spo2, hr.heartrate,
			hr.symptoms,
			COALESCE(a.response_text, '')  AS response_text,
			COALESCE(c.doctor_notes, '')   AS doctor_notes,
			COALESCE(c.prescription, '')   AS prescription,
			COALESCE(d.name, '')           AS doctor_name
		FROM clinical.health_records hr
		LEFT JOIN clinical.analyses a
			ON a.record_id = hr.id
		LEFT JOIN clinical.consultations c
			ON c.record_id = hr.id AND c.status = 'completed'
		LEFT JOIN clinical.doctors d
			ON d.id = c.doctor_id
		WHERE hr.user_mobile = ?
		ORDER BY hr.created_at DESC`, userMobile).Rows()
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []*healthrecord.HistoryEntry
	for rows.Next() {
		var row historyRow
		var entry healthrecord.HistoryEntry
		err := rows.Scan(
			&row.RecordID, &entry.CreatedAt,
			&row.Height, &row.Weight, &row.Temperature, &row.SpO2, &row.HeartRate,
			&row.Symptoms,
			&row.ResponseText, &row.DoctorNotes, &row.Prescription, &row.DoctorName,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}

		entry.RecordID = row.RecordID
		entry.Vitals = healthrecord.Vitals{
			Height:      row.Height,
			Weight:      row.Weight,
			Temperature: row.Temperature,
			SpO2:        row.SpO2,
			HeartRate:   row.HeartRate,
		}
		if row.Symptoms != "" {
			if err := json.Unmarshal([]byte(row.Symptoms), &entry.Symptoms); err != nil {
				return nil, fmt.Errorf("decoding symptoms for record %s: %w", row.RecordID, err)
			}
		}
		entry.ResponseText = row.ResponseText
		entry.DoctorNotes = row.DoctorNotes
		entry.Prescription = row.Prescription
		entry.DoctorName = row.DoctorName

		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}

	return entries, nil
}
