package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/univlabs/campus-portal-api/internal/dto"
	"github.com/univlabs/campus-portal-api/internal/models"
)

type dashboardScheduleProvider interface {
	TodayForTeacher(ctx context.Context, teacherID string, now time.Time) ([]models.Session, error)
	DayForCohort(ctx context.Context, course string, semester int, now time.Time) ([]models.Session, error)
}

type dashboardAttendanceProvider interface {
	StudentReport(ctx context.Context, studentID string) (*models.AttendanceReport, error)
}

type dashboardLeaveProvider interface {
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error)
	PendingCount(ctx context.Context) (int, error)
}

type dashboardAnnouncementProvider interface {
	List(ctx context.Context) ([]models.Announcement, error)
	Count(ctx context.Context) (int, error)
}

type currentSessionResolver interface {
	Resolve(sessions []models.Session, now time.Time) *models.Session
}

// DashboardService composes role-specific dashboard payloads from the
// schedule, attendance, leave and announcement services. Payloads are cached
// per subject under the dash: prefix; mutating services invalidate that
// prefix wholesale.
type DashboardService struct {
	schedule      dashboardScheduleProvider
	attendance    dashboardAttendanceProvider
	leaves        dashboardLeaveProvider
	announcements dashboardAnnouncementProvider
	resolver      currentSessionResolver
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Schedule      dashboardScheduleProvider
	Attendance    dashboardAttendanceProvider
	Leaves        dashboardLeaveProvider
	Announcements dashboardAnnouncementProvider
	Resolver      currentSessionResolver
	Cache         *CacheService
	CacheTTL      time.Duration
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	nowFn := params.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{
		schedule:      params.Schedule,
		attendance:    params.Attendance,
		leaves:        params.Leaves,
		announcements: params.Announcements,
		resolver:      params.Resolver,
		cache:         params.Cache,
		cacheTTL:      ttl,
		logger:        logger,
		now:           nowFn,
	}
}

// Admin builds the admin dashboard. teacherID scopes the "current class"
// panel; it may be empty for admins without a teaching assignment.
func (s *DashboardService) Admin(ctx context.Context, teacherID string) (*dto.AdminDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dash:admin:%s", teacherID)
	var cached dto.AdminDashboardResponse
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	now := s.now()
	resp := &dto.AdminDashboardResponse{
		TodaySessions: []models.Session{},
		Announcements: []models.Announcement{},
		GeneratedAt:   now.UTC().Format(time.RFC3339),
	}

	if teacherID != "" {
		sessions, err := s.schedule.TodayForTeacher(ctx, teacherID, now)
		if err != nil {
			return nil, err
		}
		resp.TodaySessions = sessions
		resp.CurrentClass = s.resolver.Resolve(sessions, now)
	}

	pending, err := s.leaves.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	resp.PendingLeaveCount = pending

	count, err := s.announcements.Count(ctx)
	if err != nil {
		return nil, err
	}
	resp.AnnouncementCount = count

	announcements, err := s.announcements.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(announcements) > 5 {
		announcements = announcements[:5]
	}
	resp.Announcements = announcements

	if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
		s.logger.Warn("admin dashboard cache write failed", zap.Error(err))
	}
	return resp, nil
}

// Student builds the student dashboard from the caller's token claims.
func (s *DashboardService) Student(ctx context.Context, claims *models.JWTClaims) (*dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dash:student:%s", claims.UserID)
	var cached dto.StudentDashboardResponse
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	now := s.now()
	resp := &dto.StudentDashboardResponse{
		TodaySessions: []models.Session{},
		Announcements: []models.Announcement{},
		LeaveRequests: []models.LeaveRequest{},
		GeneratedAt:   now.UTC().Format(time.RFC3339),
	}

	sessions, err := s.schedule.DayForCohort(ctx, claims.Course, claims.Semester, now)
	if err != nil {
		return nil, err
	}
	resp.TodaySessions = sessions
	resp.CurrentSession = s.resolver.Resolve(sessions, now)

	report, err := s.attendance.StudentReport(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	resp.Attendance = report

	announcements, err := s.announcements.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(announcements) > 5 {
		announcements = announcements[:5]
	}
	resp.Announcements = announcements

	leaves, err := s.leaves.List(ctx, models.LeaveFilter{StudentID: claims.UserID})
	if err != nil {
		return nil, err
	}
	resp.LeaveRequests = leaves

	if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil {
		s.logger.Warn("student dashboard cache write failed", zap.Error(err))
	}
	return resp, nil
}
