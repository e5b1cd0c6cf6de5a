package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-admission-api/internal/models"
)

func TestApplicationRepositoryReplaceAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := []models.ApplicationRow{
		{ApplicantID: 1001, ProgramID: 1, Consent: true, Priority: 1, PhysicsIKT: 80, Russian: 70, Math: 85, Achievements: 5, Total: 240},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM applications")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceAll(context.Background(), "2025-08-01", rows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCountByProgram(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"program_code", "total"}).
		AddRow("PM", 120).
		AddRow("IVT", 95)
	mock.ExpectQuery("SELECT p.code AS program_code, COUNT").
		WillReturnRows(rows)

	counts, err := repo.CountByProgram(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{"PM": 120, "IVT": 95}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}
