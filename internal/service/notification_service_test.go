package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeSender struct {
	to      string
	subject string
	body    string
	err     error
	calls   int
}

func (f *fakeSender) Send(to, subject, body string) error {
	f.calls++
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

func TestNotificationService_NotifyMissedConsultation(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(sender, "admin@example.com", zap.NewNop())

	err := svc.NotifyMissedConsultation(context.Background(), &MissedConsultation{
		PatientName: "Ravi",
		Mobile:      "9876543210",
		Symptoms:    []string{"cough", "fever"},
	})
	if err != nil {
		t.Fatalf("NotifyMissedConsultation: %v", err)
	}

	if sender.to != "admin@example.com" {
		t.Fatalf("sent to %q", sender.to)
	}
	if !strings.Contains(sender.body, "Ravi") || !strings.Contains(sender.body, "cough, fever") {
		t.Fatalf("body missing patient details: %q", sender.body)
	}
}

func TestNotificationService_Disabled(t *testing.T) {
	svc := NewNotificationService(nil, "", zap.NewNop())

	err := svc.NotifyMissedConsultation(context.Background(), &MissedConsultation{Mobile: "9876543210"})
	if !errors.Is(err, ErrNotificationsDisabled) {
		t.Fatalf("expected ErrNotificationsDisabled, got %v", err)
	}
}

func TestNotificationService_SendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	svc := NewNotificationService(sender, "admin@example.com", zap.NewNop())

	err := svc.NotifyMissedConsultation(context.Background(), &MissedConsultation{Mobile: "9876543210"})
	if err == nil {
		t.Fatal("expected delivery error")
	}
}
