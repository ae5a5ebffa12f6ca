package healthrecord

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *HealthRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthRecord, error)

	// AttachAnalysis stores the AI response for a record.
	AttachAnalysis(ctx context.Context, a *Analysis) error

	// History returns a patient's records newest first, each joined
	// with its analysis and any completed consultation response.
	History(ctx context.Context, userMobile string) ([]*HistoryEntry, error)
}
