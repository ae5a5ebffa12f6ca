package consultation

import "errors"

var (
	ErrConsultationNotFound    = errors.New("consultation not found")
	ErrInvalidStatusTransition = errors.New("invalid consultation status transition")
	ErrAlreadyAccepted         = errors.New("consultation already accepted by another doctor")
)
