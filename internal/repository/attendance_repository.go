package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univlabs/campus-portal-api/internal/models"
)

// AttendanceRepository persists per-subject attendance counters.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = "id, student_id, subject, attended, total, updated_at"

// ListByStudent returns a student's per-subject counters ordered by subject.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SubjectAttendance, error) {
	query := fmt.Sprintf("SELECT %s FROM subject_attendance WHERE student_id = $1 ORDER BY subject", attendanceColumns)
	var records []models.SubjectAttendance
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return records, nil
}

// ListAll returns every counter row, used by the attendance report export.
func (r *AttendanceRepository) ListAll(ctx context.Context) ([]models.SubjectAttendance, error) {
	query := fmt.Sprintf("SELECT %s FROM subject_attendance ORDER BY student_id, subject", attendanceColumns)
	var records []models.SubjectAttendance
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// Upsert writes a counter row keyed by (student, subject).
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.SubjectAttendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO subject_attendance (id, student_id, subject, attended, total, updated_at)
VALUES (:id, :student_id, :subject, :attended, :total, :updated_at)
ON CONFLICT (student_id, subject) DO UPDATE SET attended = EXCLUDED.attended, total = EXCLUDED.total, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}
