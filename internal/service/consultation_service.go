package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/domain"
	"github.com/telecare/telecare/internal/domain/consultation"
)

// ConsultationService owns the consultation lifecycle rows. Its
// MarkAccepted method backs the live accept race: the guarded update in
// the repository makes concurrent accepts settle on exactly one doctor.
type ConsultationService struct {
	repo  consultation.Repository
	audit *AuditService
	log   *zap.Logger
}

func NewConsultationService(repo consultation.Repository, audit *AuditService, log *zap.Logger) *ConsultationService {
	return &ConsultationService{repo: repo, audit: audit, log: log}
}

func (s *ConsultationService) Create(ctx context.Context, cmd *consultation.CreateConsultationCommand) (*consultation.Consultation, error) {
	var fields []string
	if cmd.UserMobile == "" {
		fields = append(fields, "user mobile is required")
	}
	if cmd.RecordID == uuid.Nil {
		fields = append(fields, "record id is required")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	c := &consultation.Consultation{
		UserMobile: cmd.UserMobile,
		RecordID:   cmd.RecordID,
		Status:     consultation.StatusPending,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.log.Info("consultation requested",
		zap.String("consultation_id", c.ID.String()),
		zap.String("record_id", cmd.RecordID.String()),
	)
	return c, nil
}

func (s *ConsultationService) GetByID(ctx context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

// MarkAccepted records which doctor won the accept race.
func (s *ConsultationService) MarkAccepted(ctx context.Context, id uuid.UUID, doctorID uuid.UUID) error {
	if err := s.repo.MarkAccepted(ctx, id, doctorID); err != nil {
		return err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		ActorID:      doctorID.String(),
		ActorRole:    "doctor",
		Action:       string(domain.ActionUpdate),
		ResourceType: "consultation",
		ResourceID:   id.String(),
	})
	return nil
}

// Complete stores the doctor's notes and prescription after the call.
// The responding doctor is the one stamped on the row at acceptance.
func (s *ConsultationService) Complete(ctx context.Context, id uuid.UUID, notes, prescription string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.DoctorID == nil {
		return consultation.ErrInvalidStatusTransition
	}
	doctorID := *c.DoctorID

	if err := s.repo.MarkCompleted(ctx, id, notes, prescription); err != nil {
		return err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		ActorID:      doctorID.String(),
		ActorRole:    "doctor",
		Action:       string(domain.ActionComplete),
		ResourceType: "consultation",
		ResourceID:   id.String(),
	})

	s.log.Info("consultation completed",
		zap.String("consultation_id", id.String()),
		zap.String("doctor_id", doctorID.String()),
	)
	return nil
}

func (s *ConsultationService) ListCompletedByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*consultation.CompletedEntry, error) {
	return s.repo.ListCompletedByDoctor(ctx, doctorID)
}
