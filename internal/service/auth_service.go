package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/telecare/telecare/internal/domain"
	"github.com/telecare/telecare/internal/domain/doctor"
	"github.com/telecare/telecare/pkg/auth"
)

// AuthService manages doctor accounts and sessions. Patients never
// authenticate: they are identified by mobile number alone.
type AuthService struct {
	doctorRepo doctor.Repository
	jwtManager *auth.JWTManager
	audit      *AuditService
	log        *zap.Logger
}

func NewAuthService(doctorRepo doctor.Repository, jwtManager *auth.JWTManager, audit *AuditService, log *zap.Logger) *AuthService {
	return &AuthService{doctorRepo: doctorRepo, jwtManager: jwtManager, audit: audit, log: log}
}

func (s *AuthService) RegisterDoctor(ctx context.Context, cmd *doctor.RegisterDoctorCommand) (*doctor.Profile, error) {
	if err := validateRegisterDoctor(cmd); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	exists, err := s.doctorRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking doctor email: %w", err)
	}
	if exists {
		return nil, doctor.ErrDoctorAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	d := &doctor.Doctor{
		Name:           strings.TrimSpace(cmd.Name),
		Email:          email,
		PasswordHash:   string(hash),
		Specialization: cmd.Specialization,
		Location:       cmd.Location,
		Hospital:       cmd.Hospital,
		ContactNo:      cmd.ContactNo,
		Gender:         cmd.Gender,
	}
	if err := s.doctorRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		ActorID:      d.ID.String(),
		ActorRole:    "doctor",
		Action:       string(domain.ActionCreate),
		ResourceType: "doctor",
		ResourceID:   d.ID.String(),
	})

	s.log.Info("doctor registered",
		zap.String("doctor_id", d.ID.String()),
		zap.String("specialization", d.Specialization),
	)

	return d.Profile(), nil
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.TokenPair, *doctor.Profile, error) {
	d, err := s.doctorRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Use bcrypt dummy hash to prevent timing-based user enumeration.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", ip),
		)
		return nil, nil, ErrInvalidCredentials
	}

	claims := &domain.Claims{
		DoctorID: d.ID,
		Email:    d.Email,
		Name:     d.Name,
	}
	pair, err := s.jwtManager.GenerateTokenPair(claims)
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.audit.LogAsync(ctx, AuditEntry{
		ActorID:      d.ID.String(),
		ActorRole:    "doctor",
		Action:       string(domain.ActionLogin),
		ResourceType: "doctor",
		ResourceID:   d.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("doctor logged in",
		zap.String("doctor_id", d.ID.String()),
		zap.String("ip", ip),
	)

	return pair, d.Profile(), nil
}

// RefreshToken issues a new access token given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate the doctor still exists.
	d, err := s.doctorRepo.GetByID(ctx, claims.DoctorID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(&domain.Claims{
		DoctorID: d.ID,
		Email:    d.Email,
		Name:     d.Name,
	})
}

func (s *AuthService) GetProfile(ctx context.Context, id uuid.UUID) (*doctor.Profile, error) {
	d, err := s.doctorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.Profile(), nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateProfileCommand) (*doctor.Profile, error) {
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		return nil, &ValidationError{Fields: []string{"gender must be one of male, female, other"}}
	}

	d, err := s.doctorRepo.UpdateProfile(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.audit.LogAsync(ctx, AuditEntry{
		ActorID:      id.String(),
		ActorRole:    "doctor",
		Action:       string(domain.ActionUpdate),
		ResourceType: "doctor",
		ResourceID:   id.String(),
	})

	return d.Profile(), nil
}

func validateRegisterDoctor(cmd *doctor.RegisterDoctorCommand) error {
	var fields []string
	if strings.TrimSpace(cmd.Name) == "" {
		fields = append(fields, "name is required")
	}
	if !strings.Contains(cmd.Email, "@") {
		fields = append(fields, "a valid email is required")
	}
	if len(cmd.Password) < 8 {
		fields = append(fields, "password must be at least 8 characters")
	}
	if cmd.Gender != "" && !cmd.Gender.IsValid() {
		fields = append(fields, "gender must be one of male, female, other")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
