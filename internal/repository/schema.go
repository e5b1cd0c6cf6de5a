package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS programs (
    id    BIGSERIAL PRIMARY KEY,
    code  TEXT NOT NULL UNIQUE,
    name  TEXT NOT NULL,
    seats INTEGER NOT NULL CHECK (seats > 0)
);

CREATE TABLE IF NOT EXISTS applicants (
    id BIGINT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS snapshots (
    id          BIGSERIAL PRIMARY KEY,
    day         TEXT NOT NULL,
    imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_snapshots_day ON snapshots (day);

CREATE TABLE IF NOT EXISTS application_snapshots (
    id           BIGSERIAL PRIMARY KEY,
    snapshot_id  BIGINT NOT NULL REFERENCES snapshots (id),
    applicant_id BIGINT NOT NULL REFERENCES applicants (id),
    program_id   BIGINT NOT NULL REFERENCES programs (id),
    consent      BOOLEAN NOT NULL,
    priority     INTEGER NOT NULL,
    physics_ikt  INTEGER NOT NULL,
    russian      INTEGER NOT NULL,
    math         INTEGER NOT NULL,
    achievements INTEGER NOT NULL,
    total        INTEGER NOT NULL,
    CONSTRAINT uq_snapshot_app_program UNIQUE (snapshot_id, applicant_id, program_id)
);
CREATE INDEX IF NOT EXISTS idx_application_snapshots_snapshot ON application_snapshots (snapshot_id);

CREATE TABLE IF NOT EXISTS applications (
    id           BIGSERIAL PRIMARY KEY,
    applicant_id BIGINT NOT NULL REFERENCES applicants (id),
    program_id   BIGINT NOT NULL REFERENCES programs (id),
    consent      BOOLEAN NOT NULL,
    priority     INTEGER NOT NULL,
    physics_ikt  INTEGER NOT NULL,
    russian      INTEGER NOT NULL,
    math         INTEGER NOT NULL,
    achievements INTEGER NOT NULL,
    total        INTEGER NOT NULL,
    day          TEXT NOT NULL,
    CONSTRAINT uq_current_app_program UNIQUE (applicant_id, program_id)
);
`

const schemaDropDDL = `
DROP TABLE IF EXISTS applications;
DROP TABLE IF EXISTS application_snapshots;
DROP TABLE IF EXISTS snapshots;
DROP TABLE IF EXISTS applicants;
DROP TABLE IF EXISTS programs;
`

// SchemaRepository bootstraps and resets the relational schema.
type SchemaRepository struct {
	db *sqlx.DB
}

// NewSchemaRepository constructs the repository.
func NewSchemaRepository(db *sqlx.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// Ensure creates all tables when missing.
func (r *SchemaRepository) Ensure(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Reset drops all admission data and recreates the empty schema.
func (r *SchemaRepository) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaDropDDL); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return r.Ensure(ctx)
}
