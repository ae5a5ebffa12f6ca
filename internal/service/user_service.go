package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/domain"
	"github.com/telecare/telecare/internal/domain/healthrecord"
)

type UserRepository interface {
	Upsert(ctx context.Context, u *domain.User) error
	GetByMobile(ctx context.Context, mobile string) (*domain.User, error)
}

// UserService handles kiosk patient registration and history lookups.
type UserService struct {
	userRepo   UserRepository
	recordRepo healthrecord.Repository
	audit      *AuditService
	log        *zap.Logger
}

func NewUserService(userRepo UserRepository, recordRepo healthrecord.Repository, audit *AuditService, log *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, recordRepo: recordRepo, audit: audit, log: log}
}

type RegisterUserCommand struct {
	Mobile      string
	Name        string
	Age         int
	DateOfBirth string
	Gender      domain.Gender
	Address     string
	State       string
	HIDN        string
	HID         string
}

// Register creates or refreshes a patient record keyed by mobile
// number. Re-registration with the same mobile is not an error: the
// kiosk resubmits the form whenever a returning patient updates
// their details.
func (s *UserService) Register(ctx context.Context, cmd *RegisterUserCommand) (*domain.User, error) {
	var fields []string
	if strings.TrimSpace(cmd.Mobile) == "" {
		fields = append(fields, "mobile is required")
	}
	if strings.TrimSpace(cmd.Name) == "" {
		fields = append(fields, "name is required")
	}
	if cmd.Gender != "" && !cmd.Gender.IsValid() {
		fields = append(fields, "gender must be one of male, female, other")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	u := &domain.User{
		Mobile:      strings.TrimSpace(cmd.Mobile),
		Name:        strings.TrimSpace(cmd.Name),
		Age:         cmd.Age,
		DateOfBirth: cmd.DateOfBirth,
		Gender:      cmd.Gender,
		Address:     cmd.Address,
		State:       cmd.State,
		HIDN:        cmd.HIDN,
		HID:         cmd.HID,
	}
	if err := s.userRepo.Upsert(ctx, u); err != nil {
		return nil, err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		ActorID:      u.Mobile,
		ActorRole:    "patient",
		Action:       string(domain.ActionCreate),
		ResourceType: "user",
		ResourceID:   u.Mobile,
	})

	s.log.Info("user registered", zap.String("mobile", u.Mobile))
	return u, nil
}

func (s *UserService) GetByMobile(ctx context.Context, mobile string) (*domain.User, error) {
	return s.userRepo.GetByMobile(ctx, mobile)
}

// History returns a patient's submissions newest first, each joined
// with its AI analysis and any doctor response.
func (s *UserService) History(ctx context.Context, mobile string) ([]*healthrecord.HistoryEntry, error) {
	if _, err := s.userRepo.GetByMobile(ctx, mobile); err != nil {
		return nil, err
	}
	return s.recordRepo.History(ctx, mobile)
}
