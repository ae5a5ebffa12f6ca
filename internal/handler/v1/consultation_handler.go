package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/telecare/telecare/internal/domain/consultation"
	"github.com/telecare/telecare/internal/service"
)

type ConsultationHandler struct {
	consults *service.ConsultationService
	notify   *service.NotificationService
}

func NewConsultationHandler(consults *service.ConsultationService, notify *service.NotificationService) *ConsultationHandler {
	return &ConsultationHandler{consults: consults, notify: notify}
}

type consultRequestBody struct {
	UserMobile string `json:"user_mobile" binding:"required"`
	DataID     string `json:"data_id" binding:"required"`
}

// Request creates a pending consultation row. The returned id is what
// the patient client sends over the socket in patient_request.
func (h *ConsultationHandler) Request(c *gin.Context) {
	var req consultRequestBody
	if !bindJSON(c, &req) {
		return
	}

	recordID, err := uuid.Parse(req.DataID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid data_id: must be a valid UUID")
		return
	}

	created, err := h.consults.Create(c.Request.Context(), &consultation.CreateConsultationCommand{
		UserMobile: req.UserMobile,
		RecordID:   recordID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"success":        true,
		"consultationId": created.ID,
	})
}

type emailAdminRequest struct {
	PatientName string   `json:"patientName"`
	Mobile      string   `json:"mobile" binding:"required"`
	Symptoms    []string `json:"symptoms"`
}

// EmailAdmin reports a consultation request that no doctor was online
// to take.
func (h *ConsultationHandler) EmailAdmin(c *gin.Context) {
	var req emailAdminRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.notify.NotifyMissedConsultation(c.Request.Context(), &service.MissedConsultation{
		PatientName: req.PatientName,
		Mobile:      req.Mobile,
		Symptoms:    req.Symptoms,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"success": true})
}
