package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/pkg/config"
)

// ProgramRepository handles persistence of the configured program table.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// Seed inserts configured programs that are not present yet. Capacities are
// configuration, so existing rows are left untouched.
func (r *ProgramRepository) Seed(ctx context.Context, programs []config.ProgramSeats) error {
	const query = `INSERT INTO programs (code, name, seats) VALUES ($1, $2, $3) ON CONFLICT (code) DO NOTHING`
	for _, p := range programs {
		if _, err := r.db.ExecContext(ctx, query, p.Code, p.Name, p.Seats); err != nil {
			return fmt.Errorf("seed program %s: %w", p.Code, err)
		}
	}
	return nil
}

// List returns all programs ordered by id.
func (r *ProgramRepository) List(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT id, code, name, seats FROM programs ORDER BY id`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// MapByCode returns programs keyed by their code.
func (r *ProgramRepository) MapByCode(ctx context.Context) (map[string]models.Program, error) {
	programs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]models.Program, len(programs))
	for _, p := range programs {
		byCode[p.Code] = p
	}
	return byCode, nil
}
