package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-admission-api/internal/dto"
	"github.com/noah-isme/uni-admission-api/internal/service"
	"github.com/noah-isme/uni-admission-api/pkg/response"
)

// ImportHandler exposes the guarded import and reset endpoints.
type ImportHandler struct {
	imports *service.ImportService
}

// NewImportHandler constructs handler.
func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// ImportDay godoc
// @Summary Import one day's CSV exports as a new snapshot
// @Tags Imports
// @Produce json
// @Param day path string true "Campaign day (YYYY-MM-DD)"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /imports/{day} [post]
func (h *ImportHandler) ImportDay(c *gin.Context) {
	summary, err := h.imports.ImportDay(c.Request.Context(), c.Param("day"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ImportResponse{
		SnapshotID: summary.SnapshotID,
		Day:        summary.Day,
		Rows:       summary.Rows,
		Files:      summary.Files,
		DurationMs: summary.Duration.Milliseconds(),
	})
}

// Reset godoc
// @Summary Drop all admission data and recreate the empty schema
// @Tags Imports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /imports/reset [post]
func (h *ImportHandler) Reset(c *gin.Context) {
	if err := h.imports.Reset(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "reset"}, nil)
}
