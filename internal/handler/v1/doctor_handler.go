package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/telecare/telecare/internal/domain"
	"github.com/telecare/telecare/internal/domain/doctor"
	"github.com/telecare/telecare/internal/service"
)

type DoctorHandler struct {
	auth     *service.AuthService
	consults *service.ConsultationService
}

func NewDoctorHandler(auth *service.AuthService, consults *service.ConsultationService) *DoctorHandler {
	return &DoctorHandler{auth: auth, consults: consults}
}

type registerDoctorRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	Password       string `json:"password" binding:"required"`
	Specialization string `json:"specialization"`
	Location       string `json:"location"`
	Hospital       string `json:"hospital"`
	ContactNo      string `json:"contact_no"`
	Gender         string `json:"gender"`
}

func (h *DoctorHandler) Register(c *gin.Context) {
	var req registerDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.auth.RegisterDoctor(c.Request.Context(), &doctor.RegisterDoctorCommand{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Specialization: req.Specialization,
		Location:       req.Location,
		Hospital:       req.Hospital,
		ContactNo:      req.ContactNo,
		Gender:         domain.Gender(req.Gender),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, profile)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *DoctorHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, profile, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"tokens": pair,
		"doctor": profile,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *DoctorHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

func (h *DoctorHandler) GetProfile(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	profile, err := h.auth.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, profile)
}

type updateProfileRequest struct {
	Name           *string `json:"name"`
	Specialization *string `json:"specialization"`
	Location       *string `json:"location"`
	Hospital       *string `json:"hospital"`
	ContactNo      *string `json:"contact_no"`
	Gender         *string `json:"gender"`
}

// UpdateProfile lets an authenticated doctor edit their own profile.
func (h *DoctorHandler) UpdateProfile(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	claims, ok := claimsFrom(c)
	if !ok || claims.DoctorID != id {
		respondError(c, http.StatusForbidden, "you can only edit your own profile")
		return
	}

	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &doctor.UpdateProfileCommand{
		Name:           req.Name,
		Specialization: req.Specialization,
		Location:       req.Location,
		Hospital:       req.Hospital,
		ContactNo:      req.ContactNo,
	}
	if req.Gender != nil {
		g := domain.Gender(*req.Gender)
		cmd.Gender = &g
	}

	profile, err := h.auth.UpdateProfile(c.Request.Context(), id, cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, profile)
}

// Patients returns the authenticated doctor's completed cases.
func (h *DoctorHandler) Patients(c *gin.Context) {
	id, ok := parseUUID(c, "doctorId")
	if !ok {
		return
	}

	claims, ok := claimsFrom(c)
	if !ok || claims.DoctorID != id {
		respondError(c, http.StatusForbidden, "you can only view your own patients")
		return
	}

	entries, err := h.consults.ListCompletedByDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, entries)
}

type doctorResponseRequest struct {
	ConsultationID string `json:"consultation_id" binding:"required"`
	DoctorNotes    string `json:"doctor_notes"`
	Prescription   string `json:"prescription"`
}

// Response records the doctor's notes and prescription at the end of a
// live consultation. The kiosk client calls this alongside the
// consultation_completed socket event. The responding doctor is the one
// recorded on the row at acceptance.
func (h *DoctorHandler) Response(c *gin.Context) {
	var req doctorResponseRequest
	if !bindJSON(c, &req) {
		return
	}

	consultationID, err := uuid.Parse(req.ConsultationID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid consultation_id: must be a valid UUID")
		return
	}

	if err := h.consults.Complete(c.Request.Context(), consultationID, req.DoctorNotes, req.Prescription); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"success": true})
}
