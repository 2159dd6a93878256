package service

import (
	"context"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
)

type attendanceRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.SubjectAttendance, error)
	Upsert(ctx context.Context, record *models.SubjectAttendance) error
}

// AttendanceService computes attendance ratios and threshold flags from raw
// per-subject counters.
type AttendanceService struct {
	repo          attendanceRepository
	validator     *validator.Validate
	cache         *CacheService
	logger        *zap.Logger
	riskThreshold int
}

// NewAttendanceService constructs the service. Records below riskThreshold
// percent are flagged at risk; zero uses the conventional 75.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, cache *CacheService, riskThreshold int, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if riskThreshold <= 0 {
		riskThreshold = 75
	}
	return &AttendanceService{repo: repo, validator: validate, cache: cache, riskThreshold: riskThreshold, logger: logger}
}

// Percentage derives the attendance ratio of a single record, rounded to the
// nearest integer. It returns nil when there is no data: "no classes held
// yet" is a distinct state from "attended none of N classes".
func (s *AttendanceService) Percentage(record models.SubjectAttendance) *int {
	if record.Total == 0 {
		return nil
	}
	p := int(math.Round(float64(record.Attended) / float64(record.Total) * 100))
	return &p
}

// Overall reduces records to a single ratio weighted by class counts:
// sum(attended)/sum(total). Averaging per-subject percentages would let a
// two-class subject count as much as a forty-class one.
func (s *AttendanceService) Overall(records []models.SubjectAttendance) *int {
	var attended, total int
	for _, record := range records {
		attended += record.Attended
		total += record.Total
	}
	return s.Percentage(models.SubjectAttendance{Attended: attended, Total: total})
}

// AtRisk reports whether a known percentage falls below the threshold.
// Unknown percentages (nil) are never flagged.
func (s *AttendanceService) AtRisk(percentage *int) bool {
	return percentage != nil && *percentage < s.riskThreshold
}

// RecordAttendanceRequest updates one (student, subject) counter pair.
type RecordAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Attended  int    `json:"attended" validate:"min=0"`
	Total     int    `json:"total" validate:"min=0"`
}

// Record validates and stores a counter update. attended > total is rejected
// outright, never clamped.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.SubjectAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if req.Attended > req.Total {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attended count cannot exceed total classes")
	}
	record := &models.SubjectAttendance{
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Attended:  req.Attended,
		Total:     req.Total,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}
	return record, nil
}

// StudentReport aggregates a student's records into per-subject views plus
// the weighted overall figure.
func (s *AttendanceService) StudentReport(ctx context.Context, studentID string) (*models.AttendanceReport, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	subjects := make([]models.SubjectAttendanceView, 0, len(records))
	for _, record := range records {
		percentage := s.Percentage(record)
		subjects = append(subjects, models.SubjectAttendanceView{
			Subject:    record.Subject,
			Attended:   record.Attended,
			Total:      record.Total,
			Percentage: percentage,
			AtRisk:     s.AtRisk(percentage),
		})
	}
	overall := s.Overall(records)

	return &models.AttendanceReport{
		StudentID: studentID,
		Subjects:  subjects,
		Overall:   overall,
		AtRisk:    s.AtRisk(overall),
	}, nil
}
