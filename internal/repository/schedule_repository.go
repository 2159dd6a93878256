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

// ScheduleRepository persists the weekly timetable. The table is only ever
// replaced wholesale or cleared; rows are never edited individually.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const sessionColumns = "id, day, start_minute, duration_min, subject, teacher_id, teacher_name, course, semester, created_at"

// List returns sessions matching the filter, ordered by day then start time.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Session, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Course != "" {
		where = append(where, fmt.Sprintf("course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.Semester > 0 {
		where = append(where, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Day != "" {
		where = append(where, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, string(filter.Day))
	}

	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE %s ORDER BY day, start_minute`,
		sessionColumns, strings.Join(where, " AND "))
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListByTeacherAndDay returns one teacher's sessions for a single day.
func (r *ScheduleRepository) ListByTeacherAndDay(ctx context.Context, teacherID string, day models.WeekDay) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE teacher_id = $1 AND day = $2 ORDER BY start_minute`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID, string(day)); err != nil {
		return nil, fmt.Errorf("list teacher sessions: %w", err)
	}
	return sessions, nil
}

// ReplaceAll swaps the entire timetable in one transaction. Either every row
// lands or none do.
func (r *ScheduleRepository) ReplaceAll(ctx context.Context, sessions []models.Session) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}

	const insert = `INSERT INTO sessions (id, day, start_minute, duration_min, subject, teacher_id, teacher_name, course, semester, created_at)
VALUES (:id, :day, :start_minute, :duration_min, :subject, :teacher_id, :teacher_name, :course, :semester, :created_at)`
	now := time.Now().UTC()
	for i := range sessions {
		if sessions[i].ID == "" {
			sessions[i].ID = uuid.NewString()
		}
		if sessions[i].CreatedAt.IsZero() {
			sessions[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insert, sessions[i]); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule replace: %w", err)
	}
	return nil
}

// DeleteAll clears the timetable.
func (r *ScheduleRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
