package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-admission-api/internal/models"
)

// SnapshotRepository handles immutable per-day snapshot imports and reads.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create persists a new snapshot with all its application rows. Each import
// creates a fresh snapshot; existing ones are never touched.
func (r *SnapshotRepository) Create(ctx context.Context, day string, rows []models.ApplicationRow) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var snapshotID int64
	if err := tx.GetContext(ctx, &snapshotID,
		`INSERT INTO snapshots (day, imported_at) VALUES ($1, $2) RETURNING id`,
		day, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	if err := insertApplicants(ctx, tx, rows); err != nil {
		return 0, err
	}
	if err := insertSnapshotRows(ctx, tx, snapshotID, rows); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}
	return snapshotID, nil
}

func insertApplicants(ctx context.Context, tx *sqlx.Tx, rows []models.ApplicationRow) error {
	seen := make(map[int64]struct{}, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.ApplicantID]; ok {
			continue
		}
		seen[row.ApplicantID] = struct{}{}
		ids = append(ids, row.ApplicantID)
	}

	const chunkSize = 500
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		placeholders := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			placeholders[i] = fmt.Sprintf("($%d)", i+1)
			args[i] = id
		}
		query := fmt.Sprintf(`INSERT INTO applicants (id) VALUES %s ON CONFLICT (id) DO NOTHING`, strings.Join(placeholders, ","))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert applicants: %w", err)
		}
	}
	return nil
}

func insertSnapshotRows(ctx context.Context, tx *sqlx.Tx, snapshotID int64, rows []models.ApplicationRow) error {
	const cols = 10
	const chunkSize = 100
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		placeholders := make([]string, len(chunk))
		args := make([]interface{}, 0, len(chunk)*cols)
		for i, row := range chunk {
			base := i * cols
			placeholders[i] = fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
			args = append(args, snapshotID, row.ApplicantID, row.ProgramID, row.Consent, row.Priority,
				row.PhysicsIKT, row.Russian, row.Math, row.Achievements, row.Total)
		}
		query := fmt.Sprintf(`INSERT INTO application_snapshots
            (snapshot_id, applicant_id, program_id, consent, priority, physics_ikt, russian, math, achievements, total)
            VALUES %s`, strings.Join(placeholders, ","))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert snapshot rows: %w", err)
		}
	}
	return nil
}

// LatestForDay returns the most recently imported snapshot for a day, or
// sql.ErrNoRows when the day has none.
func (r *SnapshotRepository) LatestForDay(ctx context.Context, day string) (*models.Snapshot, error) {
	const query = `SELECT id, day, imported_at FROM snapshots WHERE day = $1 ORDER BY imported_at DESC LIMIT 1`
	var snapshot models.Snapshot
	if err := r.db.GetContext(ctx, &snapshot, query, day); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// LatestOverall returns the newest snapshot across all days, or sql.ErrNoRows.
func (r *SnapshotRepository) LatestOverall(ctx context.Context) (*models.Snapshot, error) {
	const query = `SELECT id, day, imported_at FROM snapshots ORDER BY imported_at DESC LIMIT 1`
	var snapshot models.Snapshot
	if err := r.db.GetContext(ctx, &snapshot, query); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ConsentingRecords returns the matching-engine input for one snapshot: only
// records with consent, ranked by the total score.
func (r *SnapshotRepository) ConsentingRecords(ctx context.Context, snapshotID int64) ([]models.ApplicationRecord, error) {
	const query = `SELECT a.applicant_id, p.code AS program_code, a.priority, a.total AS score
        FROM application_snapshots a
        JOIN programs p ON p.id = a.program_id
        WHERE a.snapshot_id = $1 AND a.consent = TRUE`
	var records []models.ApplicationRecord
	if err := r.db.SelectContext(ctx, &records, query, snapshotID); err != nil {
		return nil, fmt.Errorf("load consenting records: %w", err)
	}
	return records, nil
}

// ProgramRows pages one program's snapshot rows ordered by the ranking rule.
func (r *SnapshotRepository) ProgramRows(ctx context.Context, snapshotID, programID int64, filter models.SnapshotRowFilter) ([]models.ApplicationRow, int, error) {
	filter = filter.Normalize()
	offset := (filter.Page - 1) * filter.PageSize

	query := fmt.Sprintf(`SELECT a.id, a.snapshot_id, a.applicant_id, a.program_id, p.code AS program_code,
        a.consent, a.priority, a.physics_ikt, a.russian, a.math, a.achievements, a.total
        FROM application_snapshots a
        JOIN programs p ON p.id = a.program_id
        WHERE a.snapshot_id = $1 AND a.program_id = $2
        ORDER BY a.total DESC, a.applicant_id ASC
        LIMIT %d OFFSET %d`, filter.PageSize, offset)

	var rows []models.ApplicationRow
	if err := r.db.SelectContext(ctx, &rows, query, snapshotID, programID); err != nil {
		return nil, 0, fmt.Errorf("list program rows: %w", err)
	}

	var total int
	const countQuery = `SELECT COUNT(*) FROM application_snapshots WHERE snapshot_id = $1 AND program_id = $2`
	if err := r.db.GetContext(ctx, &total, countQuery, snapshotID, programID); err != nil {
		return nil, 0, fmt.Errorf("count program rows: %w", err)
	}
	return rows, total, nil
}

// AllRows returns every row of one snapshot with resolved program codes.
func (r *SnapshotRepository) AllRows(ctx context.Context, snapshotID int64) ([]models.ApplicationRow, error) {
	const query = `SELECT a.id, a.snapshot_id, a.applicant_id, a.program_id, p.code AS program_code,
        a.consent, a.priority, a.physics_ikt, a.russian, a.math, a.achievements, a.total
        FROM application_snapshots a
        JOIN programs p ON p.id = a.program_id
        WHERE a.snapshot_id = $1
        ORDER BY a.applicant_id ASC, a.priority ASC`
	var rows []models.ApplicationRow
	if err := r.db.SelectContext(ctx, &rows, query, snapshotID); err != nil {
		return nil, fmt.Errorf("load snapshot rows: %w", err)
	}
	return rows, nil
}
