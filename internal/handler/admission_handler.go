package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-admission-api/internal/service"
	"github.com/noah-isme/uni-admission-api/pkg/response"
)

// AdmissionHandler exposes computed admission outcomes.
type AdmissionHandler struct {
	admission *service.AdmissionService
}

// NewAdmissionHandler constructs handler.
func NewAdmissionHandler(admission *service.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{admission: admission}
}

// GetDay godoc
// @Summary Per-program admission outcomes for a campaign day
// @Tags Admission
// @Produce json
// @Param day path string true "Campaign day (YYYY-MM-DD), or latest"
// @Success 200 {object} response.Envelope
// @Router /admission/{day} [get]
func (h *AdmissionHandler) GetDay(c *gin.Context) {
	result, err := h.admission.ComputeDay(c.Request.Context(), c.Param("day"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetCutoffs godoc
// @Summary Cutoff table for a campaign day
// @Tags Admission
// @Produce json
// @Param day path string true "Campaign day (YYYY-MM-DD), or latest"
// @Success 200 {object} response.Envelope
// @Router /admission/{day}/cutoffs [get]
func (h *AdmissionHandler) GetCutoffs(c *gin.Context) {
	rows, err := h.admission.CutoffTable(c.Request.Context(), c.Param("day"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
