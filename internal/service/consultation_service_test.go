package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/domain/consultation"
)

type fakeConsultationRepo struct {
	rows map[uuid.UUID]*consultation.Consultation
}

func newFakeConsultationRepo() *fakeConsultationRepo {
	return &fakeConsultationRepo{rows: make(map[uuid.UUID]*consultation.Consultation)}
}

func (f *fakeConsultationRepo) Create(_ context.Context, c *consultation.Consultation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.rows[c.ID] = c
	return nil
}

func (f *fakeConsultationRepo) GetByID(_ context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, consultation.ErrConsultationNotFound
	}
	return c, nil
}

func (f *fakeConsultationRepo) MarkAccepted(_ context.Context, id uuid.UUID, doctorID uuid.UUID) error {
	c, ok := f.rows[id]
	if !ok {
		return consultation.ErrConsultationNotFound
	}
	if c.Status != consultation.StatusPending {
		return consultation.ErrAlreadyAccepted
	}
	return c.Accept(doctorID)
}

func (f *fakeConsultationRepo) MarkCompleted(_ context.Context, id uuid.UUID, notes, prescription string) error {
	c, ok := f.rows[id]
	if !ok {
		return consultation.ErrConsultationNotFound
	}
	return c.Complete(notes, prescription)
}

func (f *fakeConsultationRepo) ListCompletedByDoctor(_ context.Context, doctorID uuid.UUID) ([]*consultation.CompletedEntry, error) {
	var entries []*consultation.CompletedEntry
	for _, c := range f.rows {
		if c.Status == consultation.StatusCompleted && c.DoctorID != nil && *c.DoctorID == doctorID {
			entries = append(entries, &consultation.CompletedEntry{
				ID:           c.ID,
				DoctorNotes:  c.DoctorNotes,
				Prescription: c.Prescription,
			})
		}
	}
	return entries, nil
}

func newTestConsultationService(t *testing.T) (*ConsultationService, *fakeConsultationRepo) {
	t.Helper()
	repo := newFakeConsultationRepo()
	return NewConsultationService(repo, newTestAudit(t), zap.NewNop()), repo
}

func TestConsultationService_Lifecycle(t *testing.T) {
	svc, _ := newTestConsultationService(t)
	ctx := context.Background()
	doctorID := uuid.New()

	c, err := svc.Create(ctx, &consultation.CreateConsultationCommand{
		UserMobile: "9876543210",
		RecordID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != consultation.StatusPending {
		t.Fatalf("new consultation should be pending, got %s", c.Status)
	}

	if err := svc.MarkAccepted(ctx, c.ID, doctorID); err != nil {
		t.Fatalf("MarkAccepted: %v", err)
	}
	if err := svc.Complete(ctx, c.ID, "viral fever", "paracetamol 500mg 1-0-1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := svc.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != consultation.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.DoctorNotes != "viral fever" || got.Prescription != "paracetamol 500mg 1-0-1" {
		t.Fatal("doctor response not stored")
	}

	cases, err := svc.ListCompletedByDoctor(ctx, doctorID)
	if err != nil {
		t.Fatalf("ListCompletedByDoctor: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("expected 1 completed case, got %d", len(cases))
	}
}

func TestConsultationService_SecondAcceptRejected(t *testing.T) {
	svc, _ := newTestConsultationService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, &consultation.CreateConsultationCommand{
		UserMobile: "9876543210",
		RecordID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.MarkAccepted(ctx, c.ID, uuid.New()); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if err := svc.MarkAccepted(ctx, c.ID, uuid.New()); !errors.Is(err, consultation.ErrAlreadyAccepted) {
		t.Fatalf("expected ErrAlreadyAccepted, got %v", err)
	}
}

func TestConsultationService_CompleteRequiresAccepted(t *testing.T) {
	svc, _ := newTestConsultationService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, &consultation.CreateConsultationCommand{
		UserMobile: "9876543210",
		RecordID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Complete(ctx, c.ID, "notes", "rx")
	if !errors.Is(err, consultation.ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestConsultationService_CompleteUsesAcceptingDoctor(t *testing.T) {
	svc, repo := newTestConsultationService(t)
	ctx := context.Background()
	doctorID := uuid.New()

	c, err := svc.Create(ctx, &consultation.CreateConsultationCommand{
		UserMobile: "9876543210",
		RecordID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.MarkAccepted(ctx, c.ID, doctorID); err != nil {
		t.Fatalf("MarkAccepted: %v", err)
	}

	if err := svc.Complete(ctx, c.ID, "notes", "rx"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	stored := repo.rows[c.ID]
	if stored.DoctorID == nil || *stored.DoctorID != doctorID {
		t.Fatal("completion must keep the doctor recorded at acceptance")
	}
}

func TestConsultationService_CreateValidation(t *testing.T) {
	svc, _ := newTestConsultationService(t)

	_, err := svc.Create(context.Background(), &consultation.CreateConsultationCommand{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
