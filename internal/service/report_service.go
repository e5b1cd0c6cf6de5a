package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/pkg/config"
	appErrors "github.com/noah-isme/uni-admission-api/pkg/errors"
	"github.com/noah-isme/uni-admission-api/pkg/export"
	"github.com/noah-isme/uni-admission-api/pkg/jobs"
)

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ReportService builds per-day admission reports asynchronously. Job state
// lives in memory only; a restart forgets unfinished jobs and clients simply
// request the report again.
type ReportService struct {
	admission  *AdmissionService
	snapshots  snapshotReader
	queue      jobDispatcher
	pdf        *export.PDFExporter
	csv        *export.CSVExporter
	cfg        config.ReportsConfig
	admCfg     config.AdmissionConfig
	logger     *zap.Logger
	maxRetries int

	mu      sync.RWMutex
	jobByID map[string]*models.ReportJob
}

// NewReportService constructs the report service. Attach the returned
// service's Handle to the jobs queue.
func NewReportService(admission *AdmissionService, snapshots snapshotReader, cfg config.ReportsConfig, admCfg config.AdmissionConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRetries := cfg.WorkerRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportService{
		admission:  admission,
		snapshots:  snapshots,
		pdf:        export.NewPDFExporter(),
		csv:        export.NewCSVExporter(),
		cfg:        cfg,
		admCfg:     admCfg,
		logger:     logger,
		maxRetries: maxRetries,
		jobByID:    make(map[string]*models.ReportJob),
	}
}

// AttachQueue wires the dispatcher used by CreateJob. Set once during boot.
func (s *ReportService) AttachQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob registers a report job for the day and enqueues it.
func (s *ReportService) CreateJob(ctx context.Context, day string) (*models.ReportJob, error) {
	if err := s.admission.requireDay(day); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Wrap(fmt.Errorf("report queue not attached"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "report queue unavailable")
	}

	job := &models.ReportJob{
		ID:        uuid.NewString(),
		Day:       day,
		Status:    models.ReportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobByID[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Day: day}); err != nil {
		s.updateJob(job.ID, func(j *models.ReportJob) {
			j.Status = models.ReportStatusFailed
			j.Error = "failed to enqueue report job"
			now := time.Now().UTC()
			j.FinishedAt = &now
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return s.jobCopy(job.ID), nil
}

// Job returns the current state of a report job.
func (s *ReportService) Job(id string) (*models.ReportJob, error) {
	job := s.jobCopy(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("report job %s not found", id))
	}
	return job, nil
}

// OpenReport opens the rendered PDF of a finished job.
func (s *ReportService) OpenReport(id string) (*os.File, string, error) {
	job, err := s.Job(id)
	if err != nil {
		return nil, "", err
	}
	if job.Status != models.ReportStatusFinished || job.FilePath == "" {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report not ready")
	}
	f, err := os.Open(job.FilePath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report file")
	}
	return f, filepath.Base(job.FilePath), nil
}

// Handle processes one queued report job. It is the jobs.Queue handler.
func (s *ReportService) Handle(ctx context.Context, job jobs.Job) error {
	if s.jobCopy(job.ID) == nil {
		s.logger.Warn("unknown report job", zap.String("job_id", job.ID))
		return nil
	}
	s.updateJob(job.ID, func(j *models.ReportJob) {
		j.Status = models.ReportStatusProcessing
	})

	err := s.render(ctx, job.ID, job.Day)
	if err == nil {
		return nil
	}

	if job.Attempt >= s.maxRetries {
		s.updateJob(job.ID, func(j *models.ReportJob) {
			j.Status = models.ReportStatusFailed
			j.Error = err.Error()
			now := time.Now().UTC()
			j.FinishedAt = &now
		})
	} else {
		s.updateJob(job.ID, func(j *models.ReportJob) {
			j.Status = models.ReportStatusQueued
			j.Error = err.Error()
		})
	}
	return err
}

func (s *ReportService) render(ctx context.Context, jobID, day string) error {
	data, err := s.buildReportData(ctx, day)
	if err != nil {
		return err
	}
	payload, err := s.pdf.Render(*data)
	if err != nil {
		return fmt.Errorf("render report for day %s: %w", day, err)
	}

	if err := os.MkdirAll(s.cfg.StorageDir, 0o755); err != nil {
		return fmt.Errorf("create report storage dir: %w", err)
	}
	path := filepath.Join(s.cfg.StorageDir, fmt.Sprintf("admission_report_%s_%s.pdf", day, jobID))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}

	s.updateJob(jobID, func(j *models.ReportJob) {
		j.Status = models.ReportStatusFinished
		j.FilePath = path
		j.Error = ""
		now := time.Now().UTC()
		j.FinishedAt = &now
	})
	s.logger.Info("report rendered", zap.String("job_id", jobID), zap.String("day", day), zap.String("path", path))
	return nil
}

// AdmittedCSV renders the day's admitted lists as CSV.
func (s *ReportService) AdmittedCSV(ctx context.Context, day string) ([]byte, error) {
	result, err := s.admission.ComputeDay(ctx, day)
	if err != nil {
		return nil, err
	}
	return s.csv.RenderAdmitted(day, s.admCfg.ProgramCodes(), result.Programs)
}

func (s *ReportService) buildReportData(ctx context.Context, day string) (*export.ReportData, error) {
	dayResult, err := s.admission.ComputeDay(ctx, day)
	if err != nil {
		return nil, err
	}

	appsByPriority, admittedPriority, maxPriority, err := s.priorityStats(ctx, day, dayResult)
	if err != nil {
		return nil, err
	}

	programs := make([]export.ReportProgram, 0, len(s.admCfg.Programs))
	for _, program := range s.admCfg.Programs {
		outcome := dayResult.Programs[program.Code]
		stats := appsByPriority[program.Code]
		total := 0
		for _, n := range stats {
			total += n
		}
		programs = append(programs, export.ReportProgram{
			Code:                   program.Code,
			Name:                   program.Name,
			Seats:                  program.Seats,
			ConsentCount:           outcome.ConsentCount,
			DisplayCutoff:          outcome.DisplayCutoff,
			Admitted:               outcome.Admitted,
			ApplicationsByPriority: stats,
			AdmittedByPriority:     admittedPriority[program.Code],
			TotalApplications:      total,
		})
	}

	series := make(map[string][]*int, len(s.admCfg.Programs))
	for _, d := range s.admCfg.Days {
		var perDay *DayAdmissionResult
		if d == day {
			perDay = dayResult
		} else {
			perDay, err = s.admission.ComputeDay(ctx, d)
			if err != nil {
				return nil, err
			}
		}
		for _, program := range s.admCfg.Programs {
			series[program.Code] = append(series[program.Code], perDay.Programs[program.Code].Cutoff)
		}
	}

	return &export.ReportData{
		Day:          day,
		GeneratedAt:  time.Now().UTC(),
		Programs:     programs,
		DayLabels:    append([]string(nil), s.admCfg.Days...),
		CutoffSeries: series,
		MaxPriority:  maxPriority,
	}, nil
}

// priorityStats counts applications and admissions per program broken down by
// the priority the applicant assigned to that program.
func (s *ReportService) priorityStats(ctx context.Context, day string, dayResult *DayAdmissionResult) (map[string]map[int]int, map[string]map[int]int, int, error) {
	apps := make(map[string]map[int]int)
	admitted := make(map[string]map[int]int)
	maxPriority := 0
	if dayResult.SnapshotID == nil {
		return apps, admitted, maxPriority, nil
	}

	rows, err := s.snapshots.AllRows(ctx, *dayResult.SnapshotID)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("load snapshot rows: %w", err)
	}

	priorityOf := make(map[int64]map[string]int)
	for _, row := range rows {
		if apps[row.ProgramCode] == nil {
			apps[row.ProgramCode] = make(map[int]int)
		}
		apps[row.ProgramCode][row.Priority]++
		if row.Priority > maxPriority {
			maxPriority = row.Priority
		}
		if priorityOf[row.ApplicantID] == nil {
			priorityOf[row.ApplicantID] = make(map[string]int)
		}
		priorityOf[row.ApplicantID][row.ProgramCode] = row.Priority
	}

	for code, outcome := range dayResult.Programs {
		for _, entry := range outcome.Admitted {
			priority, ok := priorityOf[entry.ApplicantID][code]
			if !ok {
				continue
			}
			if admitted[code] == nil {
				admitted[code] = make(map[int]int)
			}
			admitted[code][priority]++
		}
	}
	return apps, admitted, maxPriority, nil
}

// CleanupExpired prunes rendered report files and finished job records older
// than the configured TTL. Scheduled runs call this.
func (s *ReportService) CleanupExpired() {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)

	entries, err := os.ReadDir(s.cfg.StorageDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(s.cfg.StorageDir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn("report cleanup failed", zap.String("path", path), zap.Error(err))
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobByID {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(s.jobByID, id)
		}
	}
}

func (s *ReportService) updateJob(id string, mutate func(*models.ReportJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobByID[id]; ok {
		mutate(job)
	}
}

func (s *ReportService) jobCopy(id string) *models.ReportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobByID[id]
	if !ok {
		return nil
	}
	clone := *job
	return &clone
}
