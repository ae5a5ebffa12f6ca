package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/telecare/telecare/pkg/mailer"
)

// ErrNotificationsDisabled is returned when no admin address is
// configured, so callers can report the miss without treating it as a
// delivery failure.
var ErrNotificationsDisabled = errors.New("admin notifications are not configured")

// NotificationService emails the on-call admin when a patient asked for
// a live consultation and no doctor was available to take it.
type NotificationService struct {
	sender     mailer.Sender
	adminEmail string
	log        *zap.Logger
}

func NewNotificationService(sender mailer.Sender, adminEmail string, log *zap.Logger) *NotificationService {
	return &NotificationService{sender: sender, adminEmail: adminEmail, log: log}
}

type MissedConsultation struct {
	PatientName string
	Mobile      string
	Symptoms    []string
}

func (s *NotificationService) NotifyMissedConsultation(ctx context.Context, m *MissedConsultation) error {
	if s.adminEmail == "" || s.sender == nil {
		return ErrNotificationsDisabled
	}

	subject := "Missed consultation request"
	var b strings.Builder
	fmt.Fprintf(&b, "A patient requested a live consultation but no doctor was online.\n\n")
	fmt.Fprintf(&b, "Patient: %s\n", m.PatientName)
	fmt.Fprintf(&b, "Mobile: %s\n", m.Mobile)
	if len(m.Symptoms) > 0 {
		fmt.Fprintf(&b, "Symptoms: %s\n", strings.Join(m.Symptoms, ", "))
	}
	b.WriteString("\nPlease follow up with the patient.\n")

	if err := s.sender.Send(s.adminEmail, subject, b.String()); err != nil {
		s.log.Error("failed to send missed consultation email",
			zap.String("patient", m.Mobile),
			zap.Error(err),
		)
		return fmt.Errorf("sending admin notification: %w", err)
	}

	s.log.Info("missed consultation reported to admin", zap.String("patient", m.Mobile))
	return nil
}
