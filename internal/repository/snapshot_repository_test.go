package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-admission-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSnapshotRepositoryLatestForDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "day", "imported_at"}).
		AddRow(int64(7), "2025-08-02", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, imported_at FROM snapshots WHERE day = $1 ORDER BY imported_at DESC LIMIT 1")).
		WithArgs("2025-08-02").
		WillReturnRows(rows)

	snapshot, err := repo.LatestForDay(context.Background(), "2025-08-02")
	require.NoError(t, err)
	require.Equal(t, int64(7), snapshot.ID)
	require.Equal(t, "2025-08-02", snapshot.Day)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryLatestForDayNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, imported_at FROM snapshots WHERE day = $1")).
		WithArgs("2025-08-09").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LatestForDay(context.Background(), "2025-08-09")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryConsentingRecords(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"applicant_id", "program_code", "priority", "score"}).
		AddRow(int64(1001), "PM", 1, 240).
		AddRow(int64(1001), "IVT", 2, 231)
	mock.ExpectQuery("SELECT a.applicant_id, p.code AS program_code, a.priority, a.total AS score").
		WithArgs(int64(5)).
		WillReturnRows(rows)

	records, err := repo.ConsentingRecords(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, models.ApplicationRecord{ApplicantID: 1001, ProgramCode: "PM", Priority: 1, Score: 240}, records[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryProgramRowsPaging(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "snapshot_id", "applicant_id", "program_id", "program_code",
		"consent", "priority", "physics_ikt", "russian", "math", "achievements", "total",
	}).AddRow(int64(1), int64(5), int64(1001), int64(2), "IVT", true, 1, 80, 75, 86, 5, 246)
	mock.ExpectQuery("ORDER BY a.total DESC, a.applicant_id ASC").
		WithArgs(int64(5), int64(2)).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM application_snapshots WHERE snapshot_id = $1 AND program_id = $2")).
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(321))

	result, total, err := repo.ProgramRows(context.Background(), 5, 2, models.SnapshotRowFilter{Page: 2, PageSize: 200})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, 321, total)
	require.Equal(t, "IVT", result[0].ProgramCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	rows := []models.ApplicationRow{
		{ApplicantID: 1001, ProgramID: 1, Consent: true, Priority: 1, PhysicsIKT: 80, Russian: 70, Math: 85, Achievements: 5, Total: 240},
		{ApplicantID: 1002, ProgramID: 1, Consent: false, Priority: 1, PhysicsIKT: 60, Russian: 66, Math: 71, Achievements: 0, Total: 197},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO snapshots (day, imported_at) VALUES ($1, $2) RETURNING id")).
		WithArgs("2025-08-01", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec("INSERT INTO applicants").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO application_snapshots").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	snapshotID, err := repo.Create(context.Background(), "2025-08-01", rows)
	require.NoError(t, err)
	require.Equal(t, int64(11), snapshotID)
	require.NoError(t, mock.ExpectationsWereMet())
}
