package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-admission-api/internal/dto"
	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/internal/service"
	"github.com/noah-isme/uni-admission-api/pkg/response"
)

// ReportHandler exposes report generation and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func reportJobResponse(job *models.ReportJob) dto.ReportJobResponse {
	resp := dto.ReportJobResponse{
		ID:         job.ID,
		Day:        job.Day,
		Status:     string(job.Status),
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.Error != "" {
		msg := job.Error
		resp.Error = &msg
	}
	return resp
}

// CreateJob godoc
// @Summary Enqueue PDF report generation for a campaign day
// @Tags Reports
// @Produce json
// @Param day path string true "Campaign day (YYYY-MM-DD)"
// @Security BearerAuth
// @Success 202 {object} response.Envelope
// @Router /reports/{day} [post]
func (h *ReportHandler) CreateJob(c *gin.Context) {
	job, err := h.reports.CreateJob(c.Request.Context(), c.Param("day"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, reportJobResponse(job), nil)
}

// JobStatus godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/jobs/{id} [get]
func (h *ReportHandler) JobStatus(c *gin.Context) {
	job, err := h.reports.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reportJobResponse(job), nil)
}

// Download godoc
// @Summary Download the rendered PDF of a finished report job
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Job ID"
// @Success 200 {file} file
// @Router /reports/jobs/{id}/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, filename, err := h.reports.OpenReport(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}

// AdmittedCSV godoc
// @Summary Admitted lists for a campaign day as CSV
// @Tags Reports
// @Produce text/csv
// @Param day path string true "Campaign day (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /reports/{day}/admitted.csv [get]
func (h *ReportHandler) AdmittedCSV(c *gin.Context) {
	day := c.Param("day")
	payload, err := h.reports.AdmittedCSV(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("admitted_%s.csv", day)))
	c.Data(http.StatusOK, "text/csv", payload)
}
