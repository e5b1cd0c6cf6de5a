package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-admission-api/internal/matching"
	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/pkg/config"
	appErrors "github.com/noah-isme/uni-admission-api/pkg/errors"
)

type snapshotReader interface {
	LatestForDay(ctx context.Context, day string) (*models.Snapshot, error)
	LatestOverall(ctx context.Context) (*models.Snapshot, error)
	ConsentingRecords(ctx context.Context, snapshotID int64) ([]models.ApplicationRecord, error)
	ProgramRows(ctx context.Context, snapshotID, programID int64, filter models.SnapshotRowFilter) ([]models.ApplicationRow, int, error)
	AllRows(ctx context.Context, snapshotID int64) ([]models.ApplicationRow, error)
}

// LatestDay is the day alias the read endpoints resolve to whichever campaign
// day received the most recent import.
const LatestDay = "latest"

type programReader interface {
	MapByCode(ctx context.Context) (map[string]models.Program, error)
}

// DayAdmissionResult bundles the per-program outcomes of one campaign day.
// SnapshotID is nil when the day has no imported snapshot yet; the per-program
// results are then defined empty, not an error.
type DayAdmissionResult struct {
	Day        string                            `json:"day"`
	SnapshotID *int64                            `json:"snapshot_id"`
	Programs   map[string]models.AdmissionResult `json:"programs"`
}

// ProgramBoard is one paged slice of a program's snapshot rows, ordered by
// total score descending.
type ProgramBoard struct {
	Day        string                  `json:"day"`
	Program    models.Program          `json:"program"`
	Rows       []models.ApplicationRow `json:"rows"`
	Pagination models.Pagination       `json:"pagination"`
}

// AdmissionService computes admission outcomes from stored snapshots and
// memoizes them per snapshot, since a snapshot never changes after import.
type AdmissionService struct {
	snapshots snapshotReader
	programs  programReader
	cache     *CacheService
	metrics   *MetricsService
	cfg       config.AdmissionConfig
	logger    *zap.Logger
}

// NewAdmissionService constructs AdmissionService.
func NewAdmissionService(snapshots snapshotReader, programs programReader, cache *CacheService, metrics *MetricsService, cfg config.AdmissionConfig, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{
		snapshots: snapshots,
		programs:  programs,
		cache:     cache,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *AdmissionService) requireDay(day string) error {
	for _, d := range s.cfg.Days {
		if d == day {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day %s is not part of the campaign", day))
}

// resolveDay validates the day parameter, translating the latest alias into
// the day of the newest imported snapshot.
func (s *AdmissionService) resolveDay(ctx context.Context, day string) (string, error) {
	if day != LatestDay {
		if err := s.requireDay(day); err != nil {
			return "", err
		}
		return day, nil
	}
	snapshot, err := s.snapshots.LatestOverall(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "no snapshots imported yet")
		}
		return "", fmt.Errorf("resolve latest snapshot: %w", err)
	}
	return snapshot.Day, nil
}

func snapshotCacheKey(snapshotID int64) string {
	return fmt.Sprintf("admission:snapshot:%d", snapshotID)
}

// ComputeDay resolves the latest snapshot for the day and runs the matching
// pipeline over it. Results are cached by snapshot id.
func (s *AdmissionService) ComputeDay(ctx context.Context, day string) (*DayAdmissionResult, error) {
	day, err := s.resolveDay(ctx, day)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshots.LatestForDay(ctx, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &DayAdmissionResult{
				Day:      day,
				Programs: matching.EmptyResults(s.cfg.ProgramCodes()),
			}, nil
		}
		return nil, fmt.Errorf("load snapshot for day %s: %w", day, err)
	}

	results, err := s.computeSnapshot(ctx, day, snapshot.ID)
	if err != nil {
		return nil, err
	}

	return &DayAdmissionResult{Day: day, SnapshotID: &snapshot.ID, Programs: results}, nil
}

func (s *AdmissionService) computeSnapshot(ctx context.Context, day string, snapshotID int64) (map[string]models.AdmissionResult, error) {
	key := snapshotCacheKey(snapshotID)
	cached := make(map[string]models.AdmissionResult)
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	records, err := s.snapshots.ConsentingRecords(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("load consenting records for snapshot %d: %w", snapshotID, err)
	}

	start := time.Now()
	results, err := matching.Compute(records, s.cfg.Capacities())
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveMatching(day, time.Since(start))
	}

	if err := s.cache.Set(ctx, key, results, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("caching admission results failed", zap.Int64("snapshot_id", snapshotID), zap.Error(err))
	}

	return results, nil
}

// CutoffTable renders the per-day cutoff rows in configured program order.
func (s *AdmissionService) CutoffTable(ctx context.Context, day string) ([]models.CutoffRow, error) {
	result, err := s.ComputeDay(ctx, day)
	if err != nil {
		return nil, err
	}

	rows := make([]models.CutoffRow, 0, len(s.cfg.Programs))
	for _, program := range s.cfg.Programs {
		outcome := result.Programs[program.Code]
		rows = append(rows, models.CutoffRow{
			ProgramCode:   program.Code,
			ProgramName:   program.Name,
			Seats:         program.Seats,
			ConsentCount:  outcome.ConsentCount,
			Cutoff:        outcome.Cutoff,
			DisplayCutoff: outcome.DisplayCutoff,
			Filled:        outcome.Filled(program.Seats),
		})
	}
	return rows, nil
}

// Board pages through one program's rows of the day's latest snapshot.
func (s *AdmissionService) Board(ctx context.Context, day, programCode string, filter models.SnapshotRowFilter) (*ProgramBoard, error) {
	day, err := s.resolveDay(ctx, day)
	if err != nil {
		return nil, err
	}
	if _, ok := s.cfg.ProgramByCode(programCode); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("program %s not found", programCode))
	}
	filter = filter.Normalize()

	byCode, err := s.programs.MapByCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}
	program, ok := byCode[programCode]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("program %s is not seeded", programCode))
	}

	board := &ProgramBoard{
		Day:     day,
		Program: program,
		Rows:    []models.ApplicationRow{},
	}

	snapshot, err := s.snapshots.LatestForDay(ctx, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			board.Pagination = models.Pagination{Page: filter.Page, PageSize: filter.PageSize}
			return board, nil
		}
		return nil, fmt.Errorf("load snapshot for day %s: %w", day, err)
	}

	rows, total, err := s.snapshots.ProgramRows(ctx, snapshot.ID, program.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("load program rows: %w", err)
	}

	board.Rows = rows
	board.Pagination = models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return board, nil
}

// PriorityChains groups the day's snapshot rows into per-applicant ranked
// application lists.
func (s *AdmissionService) PriorityChains(ctx context.Context, day string) ([]models.PriorityChain, error) {
	day, err := s.resolveDay(ctx, day)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshots.LatestForDay(ctx, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.PriorityChain{}, nil
		}
		return nil, fmt.Errorf("load snapshot for day %s: %w", day, err)
	}

	rows, err := s.snapshots.AllRows(ctx, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot rows: %w", err)
	}

	// Rows arrive ordered by (applicant_id, priority), so one linear pass
	// builds the chains.
	chains := make([]models.PriorityChain, 0)
	for _, row := range rows {
		if len(chains) == 0 || chains[len(chains)-1].ApplicantID != row.ApplicantID {
			chains = append(chains, models.PriorityChain{ApplicantID: row.ApplicantID})
		}
		last := &chains[len(chains)-1]
		last.Entries = append(last.Entries, models.PriorityChainEntry{
			ProgramCode: row.ProgramCode,
			Priority:    row.Priority,
		})
	}
	return chains, nil
}
