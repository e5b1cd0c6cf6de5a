package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-admission-api/internal/models"
)

// ApplicationRepository maintains the current-state application table that
// always mirrors the latest imported day.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// ReplaceAll swaps the current applications for the latest imported rows.
// Pairs absent from the new import are dropped, matching the source export.
func (r *ApplicationRepository) ReplaceAll(ctx context.Context, day string, rows []models.ApplicationRow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin applications tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM applications`); err != nil {
		return fmt.Errorf("clear applications: %w", err)
	}

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
			args = append(args, row.ApplicantID, row.ProgramID, row.Consent, row.Priority,
				row.PhysicsIKT, row.Russian, row.Math, row.Achievements, row.Total, day)
		}
		query := fmt.Sprintf(`INSERT INTO applications
            (applicant_id, program_id, consent, priority, physics_ikt, russian, math, achievements, total, day)
            VALUES %s`, strings.Join(placeholders, ","))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert applications: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit applications: %w", err)
	}
	return nil
}

// CountByProgram tallies current applications per program code.
func (r *ApplicationRepository) CountByProgram(ctx context.Context) (map[string]int, error) {
	const query = `SELECT p.code AS program_code, COUNT(*) AS total
        FROM applications a
        JOIN programs p ON p.id = a.program_id
        GROUP BY p.code`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var code string
		var total int
		if err := rows.Scan(&code, &total); err != nil {
			return nil, fmt.Errorf("scan application count: %w", err)
		}
		counts[code] = total
	}
	return counts, rows.Err()
}
