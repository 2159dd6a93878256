package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
)

type leaveRepository interface {
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error)
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	Create(ctx context.Context, request *models.LeaveRequest) error
	TransitionStatus(ctx context.Context, id string, status models.LeaveStatus, reviewedBy string, reviewedAt time.Time) (int64, error)
	CountByStatus(ctx context.Context, status models.LeaveStatus) (int, error)
}

type documentStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

// LeaveService is the leave-request workflow engine: PENDING is the only
// non-terminal state, and each request is transitioned exactly once.
type LeaveService struct {
	repo      leaveRepository
	documents documentStore
	validator *validator.Validate
	cache     *CacheService
	logger    *zap.Logger

	// inflight guards against duplicate transitions for the same id racing
	// through double-submission. Held only for the duration of one call.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewLeaveService constructs the workflow engine.
func NewLeaveService(repo leaveRepository, documents documentStore, validate *validator.Validate, cache *CacheService, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{
		repo:      repo,
		documents: documents,
		validator: validate,
		cache:     cache,
		logger:    logger,
		inflight:  make(map[string]struct{}),
	}
}

// SubmitLeaveRequest is the student submission payload. Dates are calendar
// days; the document is optional supporting evidence.
type SubmitLeaveRequest struct {
	StudentID    string    `validate:"required"`
	StudentName  string    `validate:"required"`
	StudentEmail string    `validate:"required,email"`
	TeacherName  *string
	FromDate     time.Time `validate:"required"`
	ToDate       time.Time `validate:"required"`
	Reason       string    `validate:"required"`
	Document     *DocumentUpload
}

// DocumentUpload carries an uploaded supporting file.
type DocumentUpload struct {
	Filename string
	Data     []byte
}

// Submit validates and creates a new request. Every request starts PENDING;
// the caller cannot choose the initial state. Validation failures reject the
// submission before any record exists.
func (s *LeaveService) Submit(ctx context.Context, req SubmitLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave request payload")
	}
	if req.FromDate.After(req.ToDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from_date must not be after to_date")
	}

	request := &models.LeaveRequest{
		StudentID:    req.StudentID,
		StudentName:  req.StudentName,
		StudentEmail: req.StudentEmail,
		TeacherName:  req.TeacherName,
		FromDate:     req.FromDate,
		ToDate:       req.ToDate,
		Reason:       req.Reason,
		Status:       models.LeaveStatusPending,
	}

	if req.Document != nil && len(req.Document.Data) > 0 {
		if s.documents == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "document uploads are not supported")
		}
		name := fmt.Sprintf("leave/%s%s", uuid.NewString(), filepath.Ext(req.Document.Filename))
		stored, err := s.documents.Save(name, req.Document.Data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
		}
		request.Document = &stored
	}

	if err := s.repo.Create(ctx, request); err != nil {
		if request.Document != nil {
			if delErr := s.documents.Delete(*request.Document); delErr != nil {
				s.logger.Warn("orphaned leave document", zap.String("file", *request.Document), zap.Error(delErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave request")
	}
	s.invalidateDashboards(ctx)
	s.logger.Info("leave request submitted",
		zap.String("id", request.ID),
		zap.String("student_id", request.StudentID))
	return request, nil
}

// Approve transitions a PENDING request to APPROVED.
func (s *LeaveService) Approve(ctx context.Context, id, reviewerID string) (*models.LeaveRequest, error) {
	return s.transition(ctx, id, models.LeaveStatusApproved, reviewerID)
}

// Reject transitions a PENDING request to REJECTED.
func (s *LeaveService) Reject(ctx context.Context, id, reviewerID string) (*models.LeaveRequest, error) {
	return s.transition(ctx, id, models.LeaveStatusRejected, reviewerID)
}

func (s *LeaveService) transition(ctx context.Context, id string, status models.LeaveStatus, reviewerID string) (*models.LeaveRequest, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request id is required")
	}
	if !s.acquire(id) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a transition for this request is already in flight")
	}
	defer s.release(id)

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}
	if request.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("leave request already %s", request.Status))
	}

	now := time.Now().UTC()
	affected, err := s.repo.TransitionStatus(ctx, id, status, reviewerID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave request")
	}
	if affected == 0 {
		// Lost a race with a concurrent reviewer; the row guard held.
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "leave request was already reviewed")
	}

	request.Status = status
	request.ReviewedAt = &now
	request.ReviewedBy = &reviewerID
	s.invalidateDashboards(ctx)
	s.logger.Info("leave request transitioned",
		zap.String("id", id),
		zap.String("status", string(status)),
		zap.String("reviewer", reviewerID))
	return request, nil
}

// List returns requests newest-first. Filtering is a pure view over the full
// record set.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error) {
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	return requests, nil
}

// PendingCount backs the admin dashboard badge.
func (s *LeaveService) PendingCount(ctx context.Context) (int, error) {
	count, err := s.repo.CountByStatus(ctx, models.LeaveStatusPending)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending requests")
	}
	return count, nil
}

func (s *LeaveService) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *LeaveService) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func (s *LeaveService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
