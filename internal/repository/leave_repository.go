package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univlabs/campus-portal-api/internal/models"
)

// LeaveRepository persists leave requests. Rows are never deleted; terminal
// records stay for audit.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = "id, student_id, student_name, student_email, teacher_name, from_date, to_date, reason, document, status, created_at, reviewed_at, reviewed_by"

// List returns leave requests newest-first, optionally filtered.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	query := fmt.Sprintf(`SELECT %s FROM leave_requests WHERE %s ORDER BY created_at DESC`,
		leaveColumns, strings.Join(where, " AND "))
	var requests []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	return requests, nil
}

// GetByID returns a leave request. sql.ErrNoRows passes through untouched.
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE id = $1", leaveColumns)
	var request models.LeaveRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create inserts a new leave request.
func (r *LeaveRepository) Create(ctx context.Context, request *models.LeaveRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO leave_requests (id, student_id, student_name, student_email, teacher_name, from_date, to_date, reason, document, status, created_at)
VALUES (:id, :student_id, :student_name, :student_email, :teacher_name, :from_date, :to_date, :reason, :document, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// TransitionStatus moves a PENDING request into a terminal state. The status
// guard in the WHERE clause is the safety net against retried PUTs: it
// returns zero affected rows when the record was already reviewed.
func (r *LeaveRepository) TransitionStatus(ctx context.Context, id string, status models.LeaveStatus, reviewedBy string, reviewedAt time.Time) (int64, error) {
	const query = `UPDATE leave_requests
SET status = $2, reviewed_by = $3, reviewed_at = $4
WHERE id = $1 AND status = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, string(status), reviewedBy, reviewedAt)
	if err != nil {
		return 0, fmt.Errorf("transition leave request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("transition leave request rows: %w", err)
	}
	return affected, nil
}

// CountByStatus returns the number of requests in the given state.
func (r *LeaveRepository) CountByStatus(ctx context.Context, status models.LeaveStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM leave_requests WHERE status = $1", string(status)); err != nil {
		return 0, fmt.Errorf("count leave requests: %w", err)
	}
	return count, nil
}
