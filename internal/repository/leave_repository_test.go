package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/univlabs/campus-portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLeaveRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLeaveRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO leave_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.LeaveRequest{
		StudentID:    "s1",
		StudentName:  "Jamie Park",
		StudentEmail: "jamie@example.edu",
		FromDate:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		ToDate:       time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		Reason:       "medical",
		Status:       models.LeaveStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)

	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "student_email", "teacher_name", "from_date", "to_date", "reason", "document", "status", "created_at", "reviewed_at", "reviewed_by"}).
		AddRow(request.ID, "s1", "Jamie Park", "jamie@example.edu", nil, request.FromDate, request.ToDate, "medical", nil, "PENDING", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, student_name")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, models.LeaveStatusPending, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryGetByIDNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLeaveRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, student_name")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLeaveRepository(db)
	rows := sqlmock.NewRows([]string{"id", "student_id", "student_name", "student_email", "teacher_name", "from_date", "to_date", "reason", "document", "status", "created_at", "reviewed_at", "reviewed_by"}).
		AddRow("l1", "s1", "Jamie Park", "jamie@example.edu", nil, time.Now(), time.Now(), "medical", nil, "PENDING", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, student_name")).
		WithArgs("PENDING", "s1").
		WillReturnRows(rows)

	pending := models.LeaveStatusPending
	list, err := repo.List(context.Background(), models.LeaveFilter{Status: &pending, StudentID: "s1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "l1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryTransitionStatusGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLeaveRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE leave_requests")).
		WithArgs("l1", "APPROVED", "admin-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.TransitionStatus(context.Background(), "l1", models.LeaveStatusApproved, "admin-1", now)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	// Already-reviewed rows fail the status guard and match nothing.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE leave_requests")).
		WithArgs("l1", "REJECTED", "admin-2", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err = repo.TransitionStatus(context.Background(), "l1", models.LeaveStatusRejected, "admin-2", now)
	require.NoError(t, err)
	require.Zero(t, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLeaveRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leave_requests")).
		WithArgs("PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByStatus(context.Background(), models.LeaveStatusPending)
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
