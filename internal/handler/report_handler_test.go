package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-admission-api/internal/dto"
	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/internal/service"
	"github.com/noah-isme/uni-admission-api/pkg/config"
	"github.com/noah-isme/uni-admission-api/pkg/jobs"
)

type recordingDispatcher struct {
	enqueued []jobs.Job
}

func (r *recordingDispatcher) Enqueue(job jobs.Job) error {
	r.enqueued = append(r.enqueued, job)
	return nil
}

func newReportHandlerFixture(t *testing.T) (*ReportHandler, *service.ReportService, *recordingDispatcher) {
	t.Helper()
	snapshots := &stubSnapshotRepo{
		snapshot: &models.Snapshot{ID: 2, Day: "2025-08-01"},
		records: []models.ApplicationRecord{
			{ApplicantID: 1001, ProgramCode: "PM", Priority: 1, Score: 240},
		},
		allRows: []models.ApplicationRow{
			{ApplicantID: 1001, ProgramCode: "PM", Priority: 1, Total: 240},
		},
	}
	admission := newAdmissionService(snapshots, &stubProgramRepo{})
	svc := service.NewReportService(admission, snapshots, config.ReportsConfig{
		StorageDir: t.TempDir(),
		ResultTTL:  time.Hour,
	}, handlerAdmissionConfig(), nil)
	dispatcher := &recordingDispatcher{}
	svc.AttachQueue(dispatcher)
	return NewReportHandler(svc), svc, dispatcher
}

func TestReportHandlerCreateJob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, dispatcher := newReportHandlerFixture(t)

	c, w := newGinContext(http.MethodPost, "/reports/2025-08-01")
	c.Params = gin.Params{{Key: "day", Value: "2025-08-01"}}

	handler.CreateJob(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, dispatcher.enqueued, 1)

	var envelope struct {
		Data dto.ReportJobResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, string(models.ReportStatusQueued), envelope.Data.Status)
	assert.Equal(t, "2025-08-01", envelope.Data.Day)
}

func TestReportHandlerJobStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newReportHandlerFixture(t)

	c, w := newGinContext(http.MethodGet, "/reports/jobs/nope")
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	handler.JobStatus(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerDownloadFinishedJob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, svc, dispatcher := newReportHandlerFixture(t)

	c, w := newGinContext(http.MethodPost, "/reports/2025-08-01")
	c.Params = gin.Params{{Key: "day", Value: "2025-08-01"}}
	handler.CreateJob(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, dispatcher.enqueued, 1)

	job := dispatcher.enqueued[0]
	require.NoError(t, svc.Handle(c.Request.Context(), job))

	c, w = newGinContext(http.MethodGet, "/reports/jobs/"+job.ID+"/download")
	c.Params = gin.Params{{Key: "id", Value: job.ID}}
	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestReportHandlerAdmittedCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newReportHandlerFixture(t)

	c, w := newGinContext(http.MethodGet, "/reports/2025-08-01/admitted.csv")
	c.Params = gin.Params{{Key: "day", Value: "2025-08-01"}}

	handler.AdmittedCSV(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2025-08-01,PM,1,1001,240")
}
