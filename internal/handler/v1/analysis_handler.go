package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/telecare/telecare/internal/domain/healthrecord"
	"github.com/telecare/telecare/internal/service"
)

type AnalysisHandler struct {
	analysis *service.AnalysisService
}

func NewAnalysisHandler(analysis *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

type analyzeRequest struct {
	UserMobile string              `json:"user_mobile" binding:"required"`
	Vitals     healthrecord.Vitals `json:"vitals"`
	Symptoms   []string            `json:"symptoms" binding:"required"`
}

// Analyze stores the submission and returns the AI diagnosis along
// with the stored record id, which the frontend passes back when
// requesting a live consultation.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.analysis.Analyze(c.Request.Context(), &healthrecord.CreateRecordCommand{
		UserMobile: req.UserMobile,
		Vitals:     req.Vitals,
		Symptoms:   req.Symptoms,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"result": res.Text,
		"dataId": res.RecordID,
	})
}
