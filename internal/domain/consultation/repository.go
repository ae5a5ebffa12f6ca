package consultation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)

	// MarkAccepted performs a guarded pending→accepted update and
	// returns ErrAlreadyAccepted when the row was no longer pending.
	MarkAccepted(ctx context.Context, id uuid.UUID, doctorID uuid.UUID) error

	// MarkCompleted stores the doctor's notes and prescription and
	// stamps completion.
	MarkCompleted(ctx context.Context, id uuid.UUID, notes, prescription string) error

	// ListCompletedByDoctor returns a doctor's completed cases newest
	// first, joined with patient and diagnosis data.
	ListCompletedByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*CompletedEntry, error)
}
