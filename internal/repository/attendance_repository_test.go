package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/univlabs/campus-portal-api/internal/models"
)

func TestAttendanceRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	rows := sqlmock.NewRows([]string{"id", "student_id", "subject", "attended", "total", "updated_at"}).
		AddRow("r1", "s1", "Labs", 2, 3, time.Now()).
		AddRow("r2", "s1", "Math", 3, 4, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, subject")).
		WithArgs("s1").
		WillReturnRows(rows)

	records, err := repo.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Labs", records[0].Subject)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subject_attendance")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.SubjectAttendance{StudentID: "s1", Subject: "Math", Attended: 3, Total: 4}
	require.NoError(t, repo.Upsert(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.False(t, record.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
