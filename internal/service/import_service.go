package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/pkg/config"
	appErrors "github.com/noah-isme/uni-admission-api/pkg/errors"
)

type snapshotWriter interface {
	Create(ctx context.Context, day string, rows []models.ApplicationRow) (int64, error)
	LatestForDay(ctx context.Context, day string) (*models.Snapshot, error)
}

type applicationWriter interface {
	ReplaceAll(ctx context.Context, day string, rows []models.ApplicationRow) error
	CountByProgram(ctx context.Context) (map[string]int, error)
}

type schemaManager interface {
	Ensure(ctx context.Context) error
	Reset(ctx context.Context) error
}

type programCatalog interface {
	programReader
	Seed(ctx context.Context, programs []config.ProgramSeats) error
}

// ImportSummary describes one completed day import.
type ImportSummary struct {
	SnapshotID int64
	Day        string
	Rows       int
	Files      int
	Duration   time.Duration
}

// ImportService loads per-day CSV exports into immutable snapshots and keeps
// the current-state application table in sync with the latest import.
type ImportService struct {
	snapshots    snapshotWriter
	applications applicationWriter
	programs     programCatalog
	schema       schemaManager
	cache        *CacheService
	metrics      *MetricsService
	admission    config.AdmissionConfig
	dataDir      string
	logger       *zap.Logger
}

// NewImportService constructs ImportService.
func NewImportService(snapshots snapshotWriter, applications applicationWriter, programs programCatalog, schema schemaManager, cache *CacheService, metrics *MetricsService, admission config.AdmissionConfig, dataDir string, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		snapshots:    snapshots,
		applications: applications,
		programs:     programs,
		schema:       schema,
		cache:        cache,
		metrics:      metrics,
		admission:    admission,
		dataDir:      dataDir,
		logger:       logger,
	}
}

// dayIndex maps a campaign day to its zero-based position.
func (s *ImportService) dayIndex(day string) (int, error) {
	for i, d := range s.admission.Days {
		if d == day {
			return i, nil
		}
	}
	return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %s is not part of the campaign", day))
}

// DayFolder returns the data folder name for the given zero-based day index.
func DayFolder(index int) string {
	return fmt.Sprintf("day_%02d", index+1)
}

// parseConsent mirrors the source export semantics: any other value means no
// consent, not an error.
func parseConsent(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// ImportDay reads every configured program's CSV for the day and records a
// new snapshot. Re-importing a day creates a newer snapshot; readers always
// resolve the latest one.
func (s *ImportService) ImportDay(ctx context.Context, day string) (*ImportSummary, error) {
	index, err := s.dayIndex(day)
	if err != nil {
		return nil, err
	}

	byCode, err := s.programs.MapByCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}

	start := time.Now()
	folder := filepath.Join(s.dataDir, DayFolder(index))
	rows := make([]models.ApplicationRow, 0, 256)
	files := 0
	for _, program := range s.admission.Programs {
		dbProgram, ok := byCode[program.Code]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("program %s is not seeded", program.Code))
		}
		path := filepath.Join(folder, program.Code+".csv")
		programRows, err := s.readProgramFile(path, dbProgram.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, programRows...)
		files++
	}

	snapshotID, err := s.snapshots.Create(ctx, day, rows)
	if err != nil {
		return nil, fmt.Errorf("create snapshot for day %s: %w", day, err)
	}
	if err := s.applications.ReplaceAll(ctx, day, rows); err != nil {
		return nil, fmt.Errorf("refresh applications for day %s: %w", day, err)
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveImport(day, len(rows), duration)
	}
	counts, err := s.applications.CountByProgram(ctx)
	if err != nil {
		s.logger.Warn("counting current applications failed", zap.Error(err))
	}
	s.logger.Info("day imported",
		zap.String("day", day),
		zap.Int64("snapshot_id", snapshotID),
		zap.Int("rows", len(rows)),
		zap.Any("per_program", counts),
		zap.Duration("duration", duration),
	)

	return &ImportSummary{SnapshotID: snapshotID, Day: day, Rows: len(rows), Files: files, Duration: duration}, nil
}

// csv column layout of one day export.
var importColumns = []string{"applicant_id", "consent", "priority", "physics_ikt", "russian", "math", "achievements", "total"}

func (s *ImportService) readProgramFile(path string, programID int64) ([]models.ApplicationRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing export file %s", path))
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(importColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("read header of %s: %v", path, err))
	}
	for i, col := range importColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unexpected column %q in %s, want %q", header[i], path, col))
		}
	}

	rows := make([]models.ApplicationRow, 0, 128)
	seen := make(map[int64]int)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("read %s line %d: %v", path, line, err))
		}
		row, err := parseImportRow(record, programID)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("parse %s line %d: %v", path, line, err))
		}
		if prev, dup := seen[row.ApplicantID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("duplicate applicant %d in %s, lines %d and %d", row.ApplicantID, path, prev, line))
		}
		seen[row.ApplicantID] = line
		rows = append(rows, row)
	}
	return rows, nil
}

func parseImportRow(record []string, programID int64) (models.ApplicationRow, error) {
	applicantID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return models.ApplicationRow{}, fmt.Errorf("applicant_id %q: %w", record[0], err)
	}

	ints := make([]int, 0, 6)
	for _, idx := range []int{2, 3, 4, 5, 6, 7} {
		v, err := strconv.Atoi(strings.TrimSpace(record[idx]))
		if err != nil {
			return models.ApplicationRow{}, fmt.Errorf("%s %q: %w", importColumns[idx], record[idx], err)
		}
		ints = append(ints, v)
	}

	return models.ApplicationRow{
		ApplicantID:  applicantID,
		ProgramID:    programID,
		Consent:      parseConsent(record[1]),
		Priority:     ints[0],
		PhysicsIKT:   ints[1],
		Russian:      ints[2],
		Math:         ints[3],
		Achievements: ints[4],
		Total:        ints[5],
	}, nil
}

// ImportNextPending imports the first configured day that has an export
// folder on disk but no snapshot yet. Scheduled runs call this.
func (s *ImportService) ImportNextPending(ctx context.Context) (*ImportSummary, error) {
	for i, day := range s.admission.Days {
		if _, err := s.snapshots.LatestForDay(ctx, day); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check snapshot for day %s: %w", day, err)
		}
		folder := filepath.Join(s.dataDir, DayFolder(i))
		if _, err := os.Stat(folder); err != nil {
			continue
		}
		return s.ImportDay(ctx, day)
	}
	return nil, nil
}

// Reset drops and recreates the schema, re-seeds the program table, and
// clears cached results.
func (s *ImportService) Reset(ctx context.Context) error {
	if err := s.schema.Reset(ctx); err != nil {
		return fmt.Errorf("reset schema: %w", err)
	}
	if err := s.programs.Seed(ctx, s.admission.Programs); err != nil {
		return fmt.Errorf("reseed programs: %w", err)
	}
	if err := s.cache.Invalidate(ctx, "admission:*"); err != nil {
		s.logger.Warn("cache invalidation after reset failed", zap.Error(err))
	}
	s.logger.Info("storage reset")
	return nil
}
