package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Session, error)
	ListByTeacherAndDay(ctx context.Context, teacherID string, day models.WeekDay) ([]models.Session, error)
	ReplaceAll(ctx context.Context, sessions []models.Session) error
	DeleteAll(ctx context.Context) error
}

// TextExtractor pulls raw text out of an unstructured timetable image. The
// extraction itself lives in the external capture collaborator.
type TextExtractor interface {
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
}

// ScheduleService owns the weekly timetable: bulk replace on upload, full
// clear, and day/teacher queries. It is the only mutation path into the
// schedule store.
type ScheduleService struct {
	repo            scheduleRepository
	extractor       TextExtractor
	cache           *CacheService
	logger          *zap.Logger
	defaultDuration time.Duration
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, extractor TextExtractor, cache *CacheService, defaultDuration time.Duration, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultDuration <= 0 {
		defaultDuration = time.Hour
	}
	return &ScheduleService{
		repo:            repo,
		extractor:       extractor,
		cache:           cache,
		logger:          logger,
		defaultDuration: defaultDuration,
	}
}

// Week returns the timetable grouped by day, each day sorted by start time.
func (s *ScheduleService) Week(ctx context.Context, filter models.ScheduleFilter) (models.WeekSchedule, error) {
	sessions, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	week := make(models.WeekSchedule, len(models.WeekDays))
	for _, session := range sessions {
		week[session.Day] = append(week[session.Day], session)
	}
	for day := range week {
		daySessions := week[day]
		sort.SliceStable(daySessions, func(i, j int) bool {
			return daySessions[i].StartMinute < daySessions[j].StartMinute
		})
		week[day] = daySessions
	}
	return week, nil
}

// TodayForTeacher returns a teacher's sessions for the current timetable day.
func (s *ScheduleService) TodayForTeacher(ctx context.Context, teacherID string, now time.Time) ([]models.Session, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	sessions, err := s.repo.ListByTeacherAndDay(ctx, teacherID, models.WeekDayFromTime(now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher sessions")
	}
	return sessions, nil
}

// DayForCohort returns the sessions of one course+semester for the timetable
// day containing now.
func (s *ScheduleService) DayForCohort(ctx context.Context, course string, semester int, now time.Time) ([]models.Session, error) {
	sessions, err := s.repo.List(ctx, models.ScheduleFilter{
		Course:   course,
		Semester: semester,
		Day:      models.WeekDayFromTime(now),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort sessions")
	}
	return sessions, nil
}

// Upload ingests a timetable file. Structured files (CSV) replace the whole
// schedule atomically; images only yield extracted text for manual entry and
// leave the schedule untouched. The two outcomes are distinct variants, never
// guessed from optional fields.
func (s *ScheduleService) Upload(ctx context.Context, filename string, data []byte) (*models.ScheduleUploadResult, error) {
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uploaded file is empty")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		sessions, err := s.parseCSV(data)
		if err != nil {
			return nil, err
		}
		if err := s.validateWeek(sessions); err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceAll(ctx, sessions); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace schedule")
		}
		s.invalidateDashboards(ctx)
		s.logger.Info("schedule replaced", zap.Int("rows", len(sessions)))
		return &models.ScheduleUploadResult{Kind: models.UploadKindRows, RowsProcessed: len(sessions)}, nil

	case ".png", ".jpg", ".jpeg":
		if s.extractor == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "image uploads are not supported without a text extractor")
		}
		text, err := s.extractor.ExtractText(ctx, filename, data)
		if err != nil {
			return nil, err
		}
		return &models.ScheduleUploadResult{Kind: models.UploadKindText, ExtractedText: text}, nil

	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported file type, expected .csv or an image")
	}
}

// Clear removes the entire timetable.
func (s *ScheduleService) Clear(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear schedule")
	}
	s.invalidateDashboards(ctx)
	return nil
}

func (s *ScheduleService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

// parseCSV reads rows of the form day,time,subject,teacher with optional
// teacher_id, course, semester and duration columns resolved by header name.
func (s *ScheduleService) parseCSV(data []byte) ([]models.Session, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed csv")
	}
	if len(rows) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "csv has no data rows")
	}

	index := map[string]int{}
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"day", "time", "subject", "teacher"} {
		if _, ok := index[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("csv missing required column %q", required))
		}
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	sessions := make([]models.Session, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2

		day, ok := models.ParseWeekDay(cell(row, "day"))
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: unknown day %q", line, cell(row, "day")))
		}
		startMinute, err := parseClock(cell(row, "time"))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: %v", line, err))
		}
		subject := cell(row, "subject")
		teacher := cell(row, "teacher")
		if subject == "" || teacher == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: subject and teacher are required", line))
		}

		session := models.Session{
			Day:         day,
			StartMinute: startMinute,
			DurationMin: int(s.defaultDuration.Minutes()),
			Subject:     subject,
			TeacherName: teacher,
			TeacherID:   cell(row, "teacher_id"),
			Course:      cell(row, "course"),
		}
		if raw := cell(row, "semester"); raw != "" {
			semester, err := strconv.Atoi(raw)
			if err != nil || semester < 1 {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: invalid semester %q", line, raw))
			}
			session.Semester = semester
		}
		if raw := cell(row, "duration"); raw != "" {
			duration, err := strconv.Atoi(raw)
			if err != nil || duration < 1 {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: invalid duration %q", line, raw))
			}
			session.DurationMin = duration
		}

		sessions = append(sessions, session)
	}
	return sessions, nil
}

// validateWeek rejects batches where two sessions of the same cohort overlap
// on the same day. Identical start times fall out of the same rule. The
// whole batch is rejected; nothing is partially applied.
func (s *ScheduleService) validateWeek(sessions []models.Session) error {
	type cohortDay struct {
		day      models.WeekDay
		course   string
		semester int
	}
	groups := map[cohortDay][]models.Session{}
	for _, session := range sessions {
		key := cohortDay{day: session.Day, course: session.Course, semester: session.Semester}
		groups[key] = append(groups[key], session)
	}

	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].StartMinute < group[j].StartMinute
		})
		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			if cur.StartMinute < prev.EndMinute() {
				return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf(
					"overlapping sessions on %s for %s/%d: %q at %s and %q at %s",
					key.day, orAny(key.course), key.semester,
					prev.Subject, prev.StartClock(), cur.Subject, cur.StartClock()))
			}
		}
	}
	return nil
}

func orAny(course string) string {
	if course == "" {
		return "all"
	}
	return course
}

func parseClock(raw string) (int, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour*60 + minute, nil
}
