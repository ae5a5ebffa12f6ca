package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/domain"
	"github.com/telecare/telecare/internal/domain/healthrecord"
	"github.com/telecare/telecare/internal/oracle"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Upsert(_ context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.Mobile] = u
	return nil
}

func (f *fakeUserRepo) GetByMobile(_ context.Context, mobile string) (*domain.User, error) {
	u, ok := f.users[mobile]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type fakeRecordRepo struct {
	records  map[uuid.UUID]*healthrecord.HealthRecord
	analyses map[uuid.UUID]*healthrecord.Analysis
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		records:  make(map[uuid.UUID]*healthrecord.HealthRecord),
		analyses: make(map[uuid.UUID]*healthrecord.Analysis),
	}
}

func (f *fakeRecordRepo) Create(_ context.Context, r *healthrecord.HealthRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.records[r.ID] = r
	return nil
}

func (f *fakeRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*healthrecord.HealthRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, healthrecord.ErrRecordNotFound
	}
	return r, nil
}

func (f *fakeRecordRepo) AttachAnalysis(_ context.Context, a *healthrecord.Analysis) error {
	f.analyses[a.RecordID] = a
	return nil
}

func (f *fakeRecordRepo) History(_ context.Context, mobile string) ([]*healthrecord.HistoryEntry, error) {
	var entries []*healthrecord.HistoryEntry
	for id, r := range f.records {
		if r.UserMobile != mobile {
			continue
		}
		entry := &healthrecord.HistoryEntry{
			RecordID: id,
			Symptoms: r.Symptoms,
			Vitals:   r.Vitals,
		}
		if a, ok := f.analyses[id]; ok {
			entry.ResponseText = a.ResponseText
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type fakeDiagnoser struct {
	text    string
	err     error
	gotData oracle.PatientData
	calls   int
}

func (f *fakeDiagnoser) Diagnose(_ context.Context, data oracle.PatientData) (string, error) {
	f.calls++
	f.gotData = data
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newTestAnalysisService(t *testing.T, diag *fakeDiagnoser) (*AnalysisService, *fakeUserRepo, *fakeRecordRepo) {
	t.Helper()
	users := newFakeUserRepo()
	records := newFakeRecordRepo()
	svc := NewAnalysisService(users, records, diag, newTestAudit(t), zap.NewNop())
	return svc, users, records
}

func seedUser(t *testing.T, users *fakeUserRepo) {
	t.Helper()
	err := users.Upsert(context.Background(), &domain.User{
		Mobile: "9876543210",
		Name:   "Ravi",
		Age:    34,
		Gender: domain.GenderMale,
	})
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
}

func TestAnalysisService_Analyze(t *testing.T) {
	diag := &fakeDiagnoser{text: "Problem: Common cold\nMedicines:\n- Cetirizine - 10mg - 0-0-1"}
	svc, users, records := newTestAnalysisService(t, diag)
	seedUser(t, users)

	res, err := svc.Analyze(context.Background(), &healthrecord.CreateRecordCommand{
		UserMobile: "9876543210",
		Vitals:     healthrecord.Vitals{Temperature: "99.1", SpO2: "98"},
		Symptoms:   []string{"cough", "runny nose"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(res.Text, "Common cold") {
		t.Fatalf("unexpected result text: %q", res.Text)
	}

	// Demographics are pulled from the stored user, not the request.
	if diag.gotData.Age != 34 || diag.gotData.Gender != "male" {
		t.Fatalf("diagnoser got wrong demographics: %+v", diag.gotData)
	}

	if _, ok := records.records[res.RecordID]; !ok {
		t.Fatal("record not persisted")
	}
	a, ok := records.analyses[res.RecordID]
	if !ok {
		t.Fatal("analysis not attached")
	}
	if a.ResponseText != res.Text {
		t.Fatal("stored analysis differs from returned text")
	}
}

func TestAnalysisService_Analyze_UnknownUser(t *testing.T) {
	svc, _, records := newTestAnalysisService(t, &fakeDiagnoser{text: "x"})

	_, err := svc.Analyze(context.Background(), &healthrecord.CreateRecordCommand{
		UserMobile: "0000000000",
		Symptoms:   []string{"cough"},
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(records.records) != 0 {
		t.Fatal("no record should be stored for an unknown user")
	}
}

func TestAnalysisService_Analyze_ModelFailureKeepsRecord(t *testing.T) {
	diag := &fakeDiagnoser{err: oracle.ErrOverloaded}
	svc, users, records := newTestAnalysisService(t, diag)
	seedUser(t, users)

	_, err := svc.Analyze(context.Background(), &healthrecord.CreateRecordCommand{
		UserMobile: "9876543210",
		Symptoms:   []string{"cough"},
	})
	if !errors.Is(err, oracle.ErrOverloaded) {
		t.Fatalf("expected wrapped ErrOverloaded, got %v", err)
	}

	// The submission itself must survive a failed diagnosis.
	if len(records.records) != 1 {
		t.Fatalf("expected the record to be kept, found %d", len(records.records))
	}
	if len(records.analyses) != 0 {
		t.Fatal("no analysis should be attached on failure")
	}
}

func TestAnalysisService_Analyze_RequiresSymptoms(t *testing.T) {
	svc, users, _ := newTestAnalysisService(t, &fakeDiagnoser{text: "x"})
	seedUser(t, users)

	_, err := svc.Analyze(context.Background(), &healthrecord.CreateRecordCommand{
		UserMobile: "9876543210",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUserService_RegisterAndHistory(t *testing.T) {
	users := newFakeUserRepo()
	records := newFakeRecordRepo()
	svc := NewUserService(users, records, newTestAudit(t), zap.NewNop())
	ctx := context.Background()

	u, err := svc.Register(ctx, &RegisterUserCommand{
		Mobile: " 9876543210 ",
		Name:   "Ravi",
		Age:    34,
		Gender: domain.GenderMale,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Mobile != "9876543210" {
		t.Fatalf("mobile not trimmed: %q", u.Mobile)
	}

	// Re-registration updates in place rather than failing.
	if _, err := svc.Register(ctx, &RegisterUserCommand{Mobile: "9876543210", Name: "Ravi Kumar"}); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	got, err := svc.GetByMobile(ctx, "9876543210")
	if err != nil {
		t.Fatalf("GetByMobile: %v", err)
	}
	if got.Name != "Ravi Kumar" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}

	rec := &healthrecord.HealthRecord{UserMobile: "9876543210", Symptoms: []string{"cough"}}
	if err := records.Create(ctx, rec); err != nil {
		t.Fatalf("seeding record: %v", err)
	}

	history, err := svc.History(ctx, "9876543210")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}

	if _, err := svc.History(ctx, "1111111111"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown patient, got %v", err)
	}
}
