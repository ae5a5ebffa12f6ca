package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, cmd *UpdateProfileCommand) (*Doctor, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
