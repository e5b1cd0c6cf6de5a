package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/pkg/config"
	appErrors "github.com/noah-isme/uni-admission-api/pkg/errors"
	"github.com/noah-isme/uni-admission-api/pkg/jobs"
)

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func newReportFixture(t *testing.T) (*ReportService, *mockDispatcher, string) {
	t.Helper()
	dir := t.TempDir()
	snapshots := &mockSnapshotRepo{
		snapshot: &models.Snapshot{ID: 6, Day: "2025-08-01"},
		records: []models.ApplicationRecord{
			{ApplicantID: 1001, ProgramCode: "PM", Priority: 1, Score: 250},
			{ApplicantID: 1002, ProgramCode: "PM", Priority: 2, Score: 240},
			{ApplicantID: 1003, ProgramCode: "IVT", Priority: 1, Score: 230},
		},
		allRows: []models.ApplicationRow{
			{ApplicantID: 1001, ProgramCode: "PM", Priority: 1, Total: 250},
			{ApplicantID: 1002, ProgramCode: "PM", Priority: 2, Total: 240},
			{ApplicantID: 1003, ProgramCode: "IVT", Priority: 1, Total: 230},
		},
	}
	admission := NewAdmissionService(snapshots, &mockProgramRepo{}, disabledCache(), nil, testAdmissionConfig(), nil)
	svc := NewReportService(admission, snapshots, config.ReportsConfig{
		StorageDir: dir,
		ResultTTL:  time.Hour,
	}, testAdmissionConfig(), nil)
	dispatcher := &mockDispatcher{}
	svc.AttachQueue(dispatcher)
	return svc, dispatcher, dir
}

func TestReportServiceCreateJob(t *testing.T) {
	svc, dispatcher, _ := newReportFixture(t)

	job, err := svc.CreateJob(context.Background(), "2025-08-01")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, job.ID, dispatcher.enqueued[0].ID)
	assert.Equal(t, "2025-08-01", dispatcher.enqueued[0].Day)
}

func TestReportServiceCreateJobUnknownDay(t *testing.T) {
	svc, _, _ := newReportFixture(t)

	_, err := svc.CreateJob(context.Background(), "2025-01-01")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReportServiceHandleRendersPDF(t *testing.T) {
	svc, _, dir := newReportFixture(t)

	job, err := svc.CreateJob(context.Background(), "2025-08-01")
	require.NoError(t, err)

	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: job.ID, Day: job.Day}))

	done, err := svc.Job(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, done.Status)
	require.NotEmpty(t, done.FilePath)
	assert.Equal(t, dir, filepath.Dir(done.FilePath))

	payload, err := os.ReadFile(done.FilePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestReportServiceJobNotFound(t *testing.T) {
	svc, _, _ := newReportFixture(t)

	_, err := svc.Job("missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReportServiceOpenReportNotReady(t *testing.T) {
	svc, _, _ := newReportFixture(t)

	job, err := svc.CreateJob(context.Background(), "2025-08-01")
	require.NoError(t, err)

	_, _, err = svc.OpenReport(job.ID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReportServiceAdmittedCSV(t *testing.T) {
	svc, _, _ := newReportFixture(t)

	payload, err := svc.AdmittedCSV(context.Background(), "2025-08-01")
	require.NoError(t, err)
	content := string(payload)
	assert.Contains(t, content, "day,program_code,rank,applicant_id,score")
	assert.Contains(t, content, "2025-08-01,PM,1,1001,250")
	assert.Contains(t, content, "2025-08-01,IVT,1,1003,230")
}

func TestReportServiceCleanupExpired(t *testing.T) {
	svc, _, dir := newReportFixture(t)

	job, err := svc.CreateJob(context.Background(), "2025-08-01")
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: job.ID, Day: job.Day}))

	done, err := svc.Job(job.ID)
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(done.FilePath, old, old))
	svc.updateJob(job.ID, func(j *models.ReportJob) {
		j.FinishedAt = &old
	})

	svc.CleanupExpired()

	_, err = os.Stat(done.FilePath)
	assert.True(t, os.IsNotExist(err))
	_, err = svc.Job(job.ID)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
