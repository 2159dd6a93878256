package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
)

type dashboardScheduleStub struct {
	teacherSessions []models.Session
	cohortSessions  []models.Session
	teacherCalls    int
	cohortCalls     int
}

func (s *dashboardScheduleStub) TodayForTeacher(ctx context.Context, teacherID string, now time.Time) ([]models.Session, error) {
	s.teacherCalls++
	return s.teacherSessions, nil
}

func (s *dashboardScheduleStub) DayForCohort(ctx context.Context, course string, semester int, now time.Time) ([]models.Session, error) {
	s.cohortCalls++
	return s.cohortSessions, nil
}

type dashboardAttendanceStub struct {
	report *models.AttendanceReport
}

func (s *dashboardAttendanceStub) StudentReport(ctx context.Context, studentID string) (*models.AttendanceReport, error) {
	return s.report, nil
}

type dashboardLeaveStub struct {
	requests []models.LeaveRequest
	pending  int
}

func (s *dashboardLeaveStub) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error) {
	return s.requests, nil
}

func (s *dashboardLeaveStub) PendingCount(ctx context.Context) (int, error) {
	return s.pending, nil
}

type dashboardAnnouncementStub struct {
	items []models.Announcement
}

func (s *dashboardAnnouncementStub) List(ctx context.Context) ([]models.Announcement, error) {
	return s.items, nil
}

func (s *dashboardAnnouncementStub) Count(ctx context.Context) (int, error) {
	return len(s.items), nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func fixedClock(hour, minute int) func() time.Time {
	return func() time.Time {
		// A Monday.
		return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
	}
}

func dashboardParams() DashboardServiceParams {
	return DashboardServiceParams{
		Schedule: &dashboardScheduleStub{
			teacherSessions: []models.Session{
				{ID: "t-now", Day: models.Monday, StartMinute: 10 * 60, DurationMin: 60, TeacherID: "t1"},
			},
			cohortSessions: []models.Session{
				{ID: "c-now", Day: models.Monday, StartMinute: 10 * 60, DurationMin: 60, Course: "CS", Semester: 4},
			},
		},
		Attendance: &dashboardAttendanceStub{
			report: &models.AttendanceReport{StudentID: "s1", Overall: intPtr(80)},
		},
		Leaves: &dashboardLeaveStub{
			pending:  2,
			requests: []models.LeaveRequest{{ID: "l1", StudentID: "s1", Status: models.LeaveStatusPending}},
		},
		Announcements: &dashboardAnnouncementStub{
			items: []models.Announcement{{ID: "a1", Title: "Exams"}},
		},
		Resolver: NewSessionResolver(time.Hour),
		Now:      fixedClock(10, 30),
	}
}

func TestDashboardAdminComposes(t *testing.T) {
	svc := NewDashboardService(dashboardParams())

	dashboard, err := svc.Admin(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, dashboard.CurrentClass)
	require.Equal(t, "t-now", dashboard.CurrentClass.ID)
	require.Equal(t, 2, dashboard.PendingLeaveCount)
	require.Equal(t, 1, dashboard.AnnouncementCount)
	require.Len(t, dashboard.Announcements, 1)
}

func TestDashboardAdminWithoutTeacherScope(t *testing.T) {
	params := dashboardParams()
	schedule := params.Schedule.(*dashboardScheduleStub)
	svc := NewDashboardService(params)

	dashboard, err := svc.Admin(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, dashboard.CurrentClass)
	require.Zero(t, schedule.teacherCalls)
}

func TestDashboardStudentComposes(t *testing.T) {
	svc := NewDashboardService(dashboardParams())

	claims := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent, Course: "CS", Semester: 4}
	dashboard, err := svc.Student(context.Background(), claims)
	require.NoError(t, err)
	require.NotNil(t, dashboard.CurrentSession)
	require.Equal(t, "c-now", dashboard.CurrentSession.ID)
	require.Equal(t, 80, *dashboard.Attendance.Overall)
	require.Len(t, dashboard.LeaveRequests, 1)
}

func TestDashboardStudentOutsideAnySession(t *testing.T) {
	params := dashboardParams()
	params.Now = fixedClock(7, 0)
	svc := NewDashboardService(params)

	claims := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent, Course: "CS", Semester: 4}
	dashboard, err := svc.Student(context.Background(), claims)
	require.NoError(t, err)
	require.Nil(t, dashboard.CurrentSession)
}

func TestDashboardAdminCacheHit(t *testing.T) {
	params := dashboardParams()
	schedule := params.Schedule.(*dashboardScheduleStub)
	params.Cache = NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewDashboardService(params)

	_, err := svc.Admin(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, schedule.teacherCalls)

	// Second call is served from cache.
	dashboard, err := svc.Admin(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, schedule.teacherCalls)
	require.Equal(t, 2, dashboard.PendingLeaveCount)
}
