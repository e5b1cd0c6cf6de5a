package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/internal/service"
	"github.com/noah-isme/uni-admission-api/pkg/response"
)

// SnapshotHandler exposes raw snapshot views: per-program boards and the
// unified per-applicant priority chains.
type SnapshotHandler struct {
	admission *service.AdmissionService
}

// NewSnapshotHandler constructs handler.
func NewSnapshotHandler(admission *service.AdmissionService) *SnapshotHandler {
	return &SnapshotHandler{admission: admission}
}

// ProgramBoard godoc
// @Summary Paged application rows of one program for a campaign day
// @Tags Snapshots
// @Produce json
// @Param day path string true "Campaign day (YYYY-MM-DD), or latest"
// @Param code path string true "Program code"
// @Param page query int false "Page (1-based)"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /snapshots/{day}/programs/{code} [get]
func (h *SnapshotHandler) ProgramBoard(c *gin.Context) {
	filter := models.SnapshotRowFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 0),
	}
	board, err := h.admission.Board(c.Request.Context(), c.Param("day"), c.Param("code"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, &board.Pagination)
}

// PriorityChains godoc
// @Summary Per-applicant ranked application lists for a campaign day
// @Tags Snapshots
// @Produce json
// @Param day path string true "Campaign day (YYYY-MM-DD), or latest"
// @Success 200 {object} response.Envelope
// @Router /snapshots/{day}/applicants [get]
func (h *SnapshotHandler) PriorityChains(c *gin.Context) {
	chains, err := h.admission.PriorityChains(c.Request.Context(), c.Param("day"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chains, nil)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
