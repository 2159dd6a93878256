package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
)

type scheduleRepoStub struct {
	sessions []models.Session
	replaced bool
	cleared  bool
}

func (r *scheduleRepoStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Session, error) {
	result := make([]models.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if filter.Day != "" && s.Day != filter.Day {
			continue
		}
		if filter.Course != "" && s.Course != filter.Course {
			continue
		}
		if filter.Semester != 0 && s.Semester != filter.Semester {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (r *scheduleRepoStub) ListByTeacherAndDay(ctx context.Context, teacherID string, day models.WeekDay) ([]models.Session, error) {
	result := make([]models.Session, 0)
	for _, s := range r.sessions {
		if s.TeacherID == teacherID && s.Day == day {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *scheduleRepoStub) ReplaceAll(ctx context.Context, sessions []models.Session) error {
	r.sessions = sessions
	r.replaced = true
	return nil
}

func (r *scheduleRepoStub) DeleteAll(ctx context.Context) error {
	r.sessions = nil
	r.cleared = true
	return nil
}

type extractorStub struct {
	text string
	err  error
}

func (e *extractorStub) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	return e.text, e.err
}

const validTimetable = `day,time,subject,teacher,teacher_id,course,semester,duration
monday,09:00,Algorithms,Dr. Chen,t1,CS,4,60
monday,10:00,Databases,Dr. Chen,t1,CS,4,60
tuesday,09:00,Networks,Prof. Okafor,t2,CS,4,90
`

func TestScheduleUploadCSVReplacesWholesale(t *testing.T) {
	repo := &scheduleRepoStub{sessions: []models.Session{{ID: "old", Day: models.Friday}}}
	svc := NewScheduleService(repo, nil, nil, time.Hour, nil)

	result, err := svc.Upload(context.Background(), "timetable.csv", []byte(validTimetable))
	require.NoError(t, err)
	require.Equal(t, models.UploadKindRows, result.Kind)
	require.Equal(t, 3, result.RowsProcessed)
	require.Empty(t, result.ExtractedText)

	require.True(t, repo.replaced)
	require.Len(t, repo.sessions, 3)
	require.Equal(t, models.Monday, repo.sessions[0].Day)
	require.Equal(t, 9*60, repo.sessions[0].StartMinute)
	require.Equal(t, 90, repo.sessions[2].DurationMin)
}

func TestScheduleUploadImageExtractsTextOnly(t *testing.T) {
	repo := &scheduleRepoStub{sessions: []models.Session{{ID: "keep"}}}
	svc := NewScheduleService(repo, &extractorStub{text: "MON 09:00 Algorithms"}, nil, time.Hour, nil)

	result, err := svc.Upload(context.Background(), "timetable.png", []byte{0x89, 0x50})
	require.NoError(t, err)
	require.Equal(t, models.UploadKindText, result.Kind)
	require.Equal(t, "MON 09:00 Algorithms", result.ExtractedText)
	require.Zero(t, result.RowsProcessed)

	// The schedule store is untouched by image uploads.
	require.False(t, repo.replaced)
	require.Len(t, repo.sessions, 1)
}

func TestScheduleUploadRejectsUnknownExtension(t *testing.T) {
	svc := NewScheduleService(&scheduleRepoStub{}, nil, nil, time.Hour, nil)

	_, err := svc.Upload(context.Background(), "timetable.xlsx", []byte("data"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleUploadOverlapRejectsBatch(t *testing.T) {
	repo := &scheduleRepoStub{sessions: []models.Session{{ID: "keep"}}}
	svc := NewScheduleService(repo, nil, nil, time.Hour, nil)

	overlapping := `day,time,subject,teacher,course,semester
monday,09:00,Algorithms,Dr. Chen,CS,4
monday,09:30,Databases,Prof. Okafor,CS,4
`
	_, err := svc.Upload(context.Background(), "timetable.csv", []byte(overlapping))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Nothing was applied.
	require.False(t, repo.replaced)
	require.Len(t, repo.sessions, 1)
}

func TestScheduleUploadDistinctCohortsMayOverlap(t *testing.T) {
	repo := &scheduleRepoStub{}
	svc := NewScheduleService(repo, nil, nil, time.Hour, nil)

	parallel := `day,time,subject,teacher,course,semester
monday,09:00,Algorithms,Dr. Chen,CS,4
monday,09:00,Thermodynamics,Dr. Rao,ME,4
`
	result, err := svc.Upload(context.Background(), "timetable.csv", []byte(parallel))
	require.NoError(t, err)
	require.Equal(t, 2, result.RowsProcessed)
}

func TestScheduleUploadRowErrorsCarryLineNumbers(t *testing.T) {
	svc := NewScheduleService(&scheduleRepoStub{}, nil, nil, time.Hour, nil)

	bad := `day,time,subject,teacher
monday,25:00,Algorithms,Dr. Chen
`
	_, err := svc.Upload(context.Background(), "timetable.csv", []byte(bad))
	require.Error(t, err)
	require.Contains(t, appErrors.FromError(err).Message, "row 2")
}

func TestScheduleWeekGroupsAndSorts(t *testing.T) {
	repo := &scheduleRepoStub{sessions: []models.Session{
		{ID: "b", Day: models.Monday, StartMinute: 11 * 60},
		{ID: "a", Day: models.Monday, StartMinute: 9 * 60},
		{ID: "c", Day: models.Tuesday, StartMinute: 10 * 60},
	}}
	svc := NewScheduleService(repo, nil, nil, time.Hour, nil)

	week, err := svc.Week(context.Background(), models.ScheduleFilter{})
	require.NoError(t, err)
	require.Len(t, week[models.Monday], 2)
	require.Equal(t, "a", week[models.Monday][0].ID)
	require.Equal(t, "b", week[models.Monday][1].ID)
	require.Len(t, week[models.Tuesday], 1)
}

func TestScheduleClear(t *testing.T) {
	repo := &scheduleRepoStub{sessions: []models.Session{{ID: "a"}}}
	svc := NewScheduleService(repo, nil, nil, time.Hour, nil)

	require.NoError(t, svc.Clear(context.Background()))
	require.True(t, repo.cleared)
	require.Empty(t, repo.sessions)
}
