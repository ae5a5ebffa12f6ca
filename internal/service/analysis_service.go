package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/domain"
	"github.com/telecare/telecare/internal/domain/healthrecord"
	"github.com/telecare/telecare/internal/oracle"
)

// Diagnoser produces a diagnosis from a patient snapshot. Satisfied by
// *oracle.Client.
type Diagnoser interface {
	Diagnose(ctx context.Context, data oracle.PatientData) (string, error)
}

// AnalysisService runs an AI diagnosis over a vitals/symptoms
// submission and persists both the submission and the result.
type AnalysisService struct {
	userRepo   UserRepository
	recordRepo healthrecord.Repository
	diagnoser  Diagnoser
	audit      *AuditService
	log        *zap.Logger
}

func NewAnalysisService(userRepo UserRepository, recordRepo healthrecord.Repository, diagnoser Diagnoser, audit *AuditService, log *zap.Logger) *AnalysisService {
	return &AnalysisService{
		userRepo:   userRepo,
		recordRepo: recordRepo,
		diagnoser:  diagnoser,
		audit:      audit,
		log:        log,
	}
}

type AnalysisResult struct {
	RecordID uuid.UUID
	Text     string
}

// Analyze stores the submission, asks the model for a diagnosis and
// attaches the response to the stored record. The record survives even
// when the model call ultimately fails, so the submission is never
// lost.
func (s *AnalysisService) Analyze(ctx context.Context, cmd *healthrecord.CreateRecordCommand) (*AnalysisResult, error) {
	if len(cmd.Symptoms) == 0 {
		return nil, &ValidationError{Fields: []string{"at least one symptom is required"}}
	}

	user, err := s.userRepo.GetByMobile(ctx, cmd.UserMobile)
	if err != nil {
		return nil, err
	}

	rec := &healthrecord.HealthRecord{
		UserMobile: cmd.UserMobile,
		Vitals:     cmd.Vitals,
		Symptoms:   cmd.Symptoms,
	}
	if err := s.recordRepo.Create(ctx, rec); err != nil {
		return nil, err
	}

	text, err := s.diagnoser.Diagnose(ctx, oracle.PatientData{
		Vitals:   cmd.Vitals,
		Age:      user.Age,
		Gender:   string(user.Gender),
		Symptoms: cmd.Symptoms,
	})
	if err != nil {
		s.log.Error("diagnosis failed",
			zap.String("record_id", rec.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("diagnosing record %s: %w", rec.ID, err)
	}

	if err := s.recordRepo.AttachAnalysis(ctx, &healthrecord.Analysis{
		RecordID:     rec.ID,
		ResponseText: text,
	}); err != nil {
		return nil, err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		ActorID:      cmd.UserMobile,
		ActorRole:    "patient",
		Action:       string(domain.ActionAnalyze),
		ResourceType: "health_record",
		ResourceID:   rec.ID.String(),
	})

	return &AnalysisResult{RecordID: rec.ID, Text: text}, nil
}
