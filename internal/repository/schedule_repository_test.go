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

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "day", "start_minute", "duration_min", "subject", "teacher_id", "teacher_name", "course", "semester", "created_at"})
}

func TestScheduleRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	rows := sessionRows().
		AddRow("sess-1", "MONDAY", 540, 60, "Algorithms", "t1", "Dr. Chen", "CS", 4, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, start_minute")).
		WithArgs("CS", 4, "MONDAY").
		WillReturnRows(rows)

	sessions, err := repo.List(context.Background(), models.ScheduleFilter{
		Course:   "CS",
		Semester: 4,
		Day:      models.Monday,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, 540, sessions[0].StartMinute)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListByTeacherAndDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	rows := sessionRows().
		AddRow("sess-1", "MONDAY", 540, 60, "Algorithms", "t1", "Dr. Chen", "CS", 4, time.Now()).
		AddRow("sess-2", "MONDAY", 660, 60, "Databases", "t1", "Dr. Chen", "CS", 4, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, start_minute")).
		WithArgs("t1", "MONDAY").
		WillReturnRows(rows)

	sessions, err := repo.ListByTeacherAndDay(context.Background(), "t1", models.Monday)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sessions := []models.Session{
		{Day: models.Monday, StartMinute: 540, DurationMin: 60, Subject: "Algorithms", TeacherName: "Dr. Chen"},
		{Day: models.Tuesday, StartMinute: 600, DurationMin: 90, Subject: "Networks", TeacherName: "Prof. Okafor"},
	}
	require.NoError(t, repo.ReplaceAll(context.Background(), sessions))
	require.NotEmpty(t, sessions[0].ID)
	require.False(t, sessions[0].CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceAllRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.ReplaceAll(context.Background(), []models.Session{
		{Day: models.Monday, StartMinute: 540, DurationMin: 60, Subject: "Algorithms", TeacherName: "Dr. Chen"},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).
		WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.DeleteAll(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
