package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/telecare/telecare/internal/config"
	"github.com/telecare/telecare/internal/domain"
	"github.com/telecare/telecare/internal/domain/consultation"
	"github.com/telecare/telecare/internal/domain/doctor"
	"github.com/telecare/telecare/internal/domain/healthrecord"
	"github.com/telecare/telecare/internal/oracle"
	"github.com/telecare/telecare/internal/service"
	"github.com/telecare/telecare/pkg/auth"
	"github.com/telecare/telecare/pkg/metrics"
)

// In-memory repositories backing the real services under test.

type memUserRepo struct{ users map[string]*domain.User }

func (m *memUserRepo) Upsert(_ context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.Mobile] = u
	return nil
}

func (m *memUserRepo) GetByMobile(_ context.Context, mobile string) (*domain.User, error) {
	u, ok := m.users[mobile]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type memRecordRepo struct {
	records  map[uuid.UUID]*healthrecord.HealthRecord
	analyses map[uuid.UUID]*healthrecord.Analysis
}

func (m *memRecordRepo) Create(_ context.Context, r *healthrecord.HealthRecord) error {
	r.ID = uuid.New()
	m.records[r.ID] = r
	return nil
}

func (m *memRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*healthrecord.HealthRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, healthrecord.ErrRecordNotFound
	}
	return r, nil
}

func (m *memRecordRepo) AttachAnalysis(_ context.Context, a *healthrecord.Analysis) error {
	m.analyses[a.RecordID] = a
	return nil
}

func (m *memRecordRepo) History(_ context.Context, mobile string) ([]*healthrecord.HistoryEntry, error) {
	var entries []*healthrecord.HistoryEntry
	for id, r := range m.records {
		if r.UserMobile != mobile {
			continue
		}
		entry := &healthrecord.HistoryEntry{RecordID: id, Symptoms: r.Symptoms, Vitals: r.Vitals}
		if a, ok := m.analyses[id]; ok {
			entry.ResponseText = a.ResponseText
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type memDoctorRepo struct {
	byEmail map[string]*doctor.Doctor
	byID    map[uuid.UUID]*doctor.Doctor
}

func (m *memDoctorRepo) Create(_ context.Context, d *doctor.Doctor) error {
	if _, ok := m.byEmail[d.Email]; ok {
		return doctor.ErrDoctorAlreadyExists
	}
	d.ID = uuid.New()
	m.byEmail[d.Email] = d
	m.byID[d.ID] = d
	return nil
}

func (m *memDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func (m *memDoctorRepo) GetByEmail(_ context.Context, email string) (*doctor.Doctor, error) {
	d, ok := m.byEmail[email]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func (m *memDoctorRepo) UpdateProfile(_ context.Context, id uuid.UUID, cmd *doctor.UpdateProfileCommand) (*doctor.Doctor, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	if cmd.Name != nil {
		d.Name = *cmd.Name
	}
	if cmd.Specialization != nil {
		d.Specialization = *cmd.Specialization
	}
	return d, nil
}

func (m *memDoctorRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

type memConsultRepo struct{ rows map[uuid.UUID]*consultation.Consultation }

func (m *memConsultRepo) Create(_ context.Context, c *consultation.Consultation) error {
	c.ID = uuid.New()
	m.rows[c.ID] = c
	return nil
}

func (m *memConsultRepo) GetByID(_ context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, consultation.ErrConsultationNotFound
	}
	return c, nil
}

func (m *memConsultRepo) MarkAccepted(_ context.Context, id uuid.UUID, doctorID uuid.UUID) error {
	c, ok := m.rows[id]
	if !ok {
		return consultation.ErrConsultationNotFound
	}
	if c.Status != consultation.StatusPending {
		return consultation.ErrAlreadyAccepted
	}
	return c.Accept(doctorID)
}

func (m *memConsultRepo) MarkCompleted(_ context.Context, id uuid.UUID, notes, prescription string) error {
	c, ok := m.rows[id]
	if !ok {
		return consultation.ErrConsultationNotFound
	}
	return c.Complete(notes, prescription)
}

func (m *memConsultRepo) ListCompletedByDoctor(_ context.Context, doctorID uuid.UUID) ([]*consultation.CompletedEntry, error) {
	var entries []*consultation.CompletedEntry
	for _, c := range m.rows {
		if c.Status == consultation.StatusCompleted && c.DoctorID != nil && *c.DoctorID == doctorID {
			entries = append(entries, &consultation.CompletedEntry{ID: c.ID})
		}
	}
	return entries, nil
}

type memAuditRepo struct{}

func (memAuditRepo) Create(context.Context, *domain.AuditLog) error { return nil }

type stubDiagnoser struct {
	text string
	err  error
}

func (s *stubDiagnoser) Diagnose(context.Context, oracle.PatientData) (string, error) {
	return s.text, s.err
}

type testEnv struct {
	engine   *gin.Engine
	consults *memConsultRepo
	jwt      *auth.JWTManager
}

func newTestEnv(t *testing.T, diag service.Diagnoser) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	collector := metrics.NewCollector(prometheus.NewRegistry(), "test")

	users := &memUserRepo{users: map[string]*domain.User{}}
	records := &memRecordRepo{
		records:  map[uuid.UUID]*healthrecord.HealthRecord{},
		analyses: map[uuid.UUID]*healthrecord.Analysis{},
	}
	doctors := &memDoctorRepo{byEmail: map[string]*doctor.Doctor{}, byID: map[uuid.UUID]*doctor.Doctor{}}
	consults := &memConsultRepo{rows: map[uuid.UUID]*consultation.Consultation{}}

	audit := service.NewAuditService(memAuditRepo{}, collector, log)
	t.Cleanup(audit.Shutdown)

	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "telecare-test",
	})

	authSvc := service.NewAuthService(doctors, jwtManager, audit, log)
	userSvc := service.NewUserService(users, records, audit, log)
	analysisSvc := service.NewAnalysisService(users, records, diag, audit, log)
	consultSvc := service.NewConsultationService(consults, audit, log)
	notifySvc := service.NewNotificationService(nil, "", log)

	engine := gin.New()
	uh := NewUserHandler(userSvc)
	engine.POST("/register", uh.Register)
	engine.POST("/login", uh.Login)
	engine.GET("/user/:mobile", uh.GetByMobile)
	engine.GET("/history/:mobile", uh.History)
	engine.POST("/analyze", NewAnalysisHandler(analysisSvc).Analyze)

	ch := NewConsultationHandler(consultSvc, notifySvc)
	engine.POST("/consult/request", ch.Request)
	engine.POST("/consult/email-admin", ch.EmailAdmin)

	dh := NewDoctorHandler(authSvc, consultSvc)
	engine.POST("/doctor/register", dh.Register)
	engine.POST("/doctor/login", dh.Login)
	engine.POST("/doctor/response", dh.Response)
	engine.GET("/doctor/patients/:doctorId", RequireDoctor(jwtManager), dh.Patients)

	return &testEnv{engine: engine, consults: consults, jwt: jwtManager}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return resp.Data
}

func TestAnalyzeFlow(t *testing.T) {
	env := newTestEnv(t, &stubDiagnoser{text: "Problem: Common cold"})

	rec := env.do(t, http.MethodPost, "/register", gin.H{
		"mobile": "9876543210", "name": "Ravi", "age": 34, "gender": "male",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/analyze", gin.H{
		"user_mobile": "9876543210",
		"vitals":      gin.H{"temperature": "99.1", "spo2": "98"},
		"symptoms":    []string{"cough"},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: %d %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["result"] != "Problem: Common cold" {
		t.Fatalf("unexpected result: %v", data["result"])
	}
	if data["dataId"] == "" || data["dataId"] == nil {
		t.Fatal("expected dataId in response")
	}

	rec = env.do(t, http.MethodGet, "/history/9876543210", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUserLoginByMobile(t *testing.T) {
	env := newTestEnv(t, &stubDiagnoser{text: "x"})

	env.do(t, http.MethodPost, "/register", gin.H{"mobile": "9876543210", "name": "Ravi"}, nil)

	rec := env.do(t, http.MethodPost, "/login", gin.H{"mobile": "9876543210"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	if decodeData(t, rec)["Name"] == nil && decodeData(t, rec)["name"] == nil {
		t.Fatalf("expected user payload, got %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/login", gin.H{"mobile": "0000000000"}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown mobile, got %d", rec.Code)
	}
}

func TestAnalyzeOverloadedMapsTo503(t *testing.T) {
	env := newTestEnv(t, &stubDiagnoser{err: oracle.ErrOverloaded})

	env.do(t, http.MethodPost, "/register", gin.H{"mobile": "9876543210", "name": "Ravi"}, nil)

	rec := env.do(t, http.MethodPost, "/analyze", gin.H{
		"user_mobile": "9876543210",
		"symptoms":    []string{"cough"},
	}, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeUnknownUser(t *testing.T) {
	env := newTestEnv(t, &stubDiagnoser{text: "x"})

	rec := env.do(t, http.MethodPost, "/analyze", gin.H{
		"user_mobile": "0000000000",
		"symptoms":    []string{"cough"},
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestConsultRequestAndDoctorResponse(t *testing.T) {
	env := newTestEnv(t, &stubDiagnoser{text: "x"})

	env.do(t, http.MethodPost, "/register", gin.H{"mobile": "9876543210", "name": "Ravi"}, nil)

	rec := env.do(t, http.MethodPost, "/consult/request", gin.H{
		"user_mobile": "9876543210",
		"data_id":     uuid.NewString(),
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("consult request: %d %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	consultationID := data["consultationId"].(string)
	if data["success"] != true {
		t.Fatal("expected success=true")
	}

	doctorID := uuid.New()
	cid := uuid.MustParse(consultationID)
	if err := env.consults.MarkAccepted(context.Background(), cid, doctorID); err != nil {
		t.Fatalf("accepting: %v", err)
	}

	// Completion carries no doctor id: the responder is whoever the
	// row says accepted.
	rec = env.do(t, http.MethodPost, "/doctor/response", gin.H{
		"consultation_id": consultationID,
		"doctor_notes":    "viral fever",
		"prescription":    "paracetamol 500mg 1-0-1",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("doctor response: %d %s", rec.Code, rec.Body.String())
	}

	stored := env.consults.rows[cid]
	if stored.Status != consultation.StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if stored.Prescription != "paracetamol 500mg 1-0-1" || stored.DoctorNotes != "viral fever" {
		t.Fatal("doctor response not stored")
	}
	if stored.DoctorID == nil || *stored.DoctorID != doctorID {
		t.Fatal("accepting doctor lost on completion")
	}
}

func TestDoctorResponseBeforeAcceptRejected(t *testing.T) {
	env := newTestEnv(t, &stubDiagnoser{text: "x"})
	env.do(t, http.MethodPost, "/register", gin.H{"mobile": "9876543210", "name": "Ravi"}, nil)

	rec := env.do(t, http.MethodPost, "/consult/request", gin.H{
		"user_mobile": "9876543210",
		"data_id":     uuid.NewString(),
	}, nil)
	consultationID := decodeData(t, rec)["consultationId"].(string)

	rec = env.do(t, http.MethodPost, "/doctor/response", gin.H{
		"consultation_id": consultationID,
		"doctor_notes":    "n",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for pending consultation, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestDoctorAuthFlow(t *testing.T) {
	env := newTestEnv(t, &stubDiagnoser{text: "x"})

	rec := env.do(t, http.MethodPost, "/doctor/register", gin.H{
		"name":     "Dr. Asha Rao",
		"email":    "asha@example.com",
		"password": "strongpass1",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("doctor register: %d %s", rec.Code, rec.Body.String())
	}
	doctorID := decodeData(t, rec)["id"].(string)

	rec = env.do(t, http.MethodPost, "/doctor/login", gin.H{
		"email":    "asha@example.com",
		"password": "strongpass1",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("doctor login: %d %s", rec.Code, rec.Body.String())
	}
	tokens := decodeData(t, rec)["tokens"].(map[string]any)
	accessToken := tokens["access_token"].(string)

	// Protected route rejects anonymous calls.
	rec = env.do(t, http.MethodGet, "/doctor/patients/"+doctorID, nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/doctor/patients/"+doctorID, nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patients with token: %d %s", rec.Code, rec.Body.String())
	}

	// A doctor cannot read another doctor's case list.
	rec = env.do(t, http.MethodGet, "/doctor/patients/"+uuid.NewString(), nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign doctor id, got %d", rec.Code)
	}
}

func TestDoctorLoginBadPassword(t *testing.T) {
	env := newTestEnv(t, &stubDiagnoser{text: "x"})

	env.do(t, http.MethodPost, "/doctor/register", gin.H{
		"name": "Dr. Asha Rao", "email": "asha@example.com", "password": "strongpass1",
	}, nil)

	rec := env.do(t, http.MethodPost, "/doctor/login", gin.H{
		"email": "asha@example.com", "password": "wrong",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestEmailAdminWithoutConfig(t *testing.T) {
	env := newTestEnv(t, &stubDiagnoser{text: "x"})

	rec := env.do(t, http.MethodPost, "/consult/email-admin", gin.H{
		"mobile": "9876543210",
	}, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when notifications disabled, got %d %s", rec.Code, rec.Body.String())
	}
}
