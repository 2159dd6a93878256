package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
)

type leaveRepoStub struct {
	requests map[string]*models.LeaveRequest
	// staleReads makes GetByID report PENDING even after a transition,
	// simulating a reviewer racing between the load and the update.
	staleReads bool
	clock      int64
}

func newLeaveRepoStub() *leaveRepoStub {
	return &leaveRepoStub{requests: make(map[string]*models.LeaveRequest)}
}

// List mirrors the repository contract, newest first.
func (r *leaveRepoStub) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, error) {
	result := make([]models.LeaveRequest, 0, len(r.requests))
	for _, req := range r.requests {
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.StudentID != "" && req.StudentID != filter.StudentID {
			continue
		}
		result = append(result, *req)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *leaveRepoStub) GetByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	if req, ok := r.requests[id]; ok {
		copied := *req
		if r.staleReads {
			copied.Status = models.LeaveStatusPending
		}
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (r *leaveRepoStub) Create(ctx context.Context, request *models.LeaveRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	r.clock++
	request.CreatedAt = time.Unix(r.clock, 0)
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *leaveRepoStub) TransitionStatus(ctx context.Context, id string, status models.LeaveStatus, reviewedBy string, reviewedAt time.Time) (int64, error) {
	req, ok := r.requests[id]
	if !ok || req.Status != models.LeaveStatusPending {
		return 0, nil
	}
	req.Status = status
	req.ReviewedBy = &reviewedBy
	req.ReviewedAt = &reviewedAt
	return 1, nil
}

func (r *leaveRepoStub) CountByStatus(ctx context.Context, status models.LeaveStatus) (int, error) {
	count := 0
	for _, req := range r.requests {
		if req.Status == status {
			count++
		}
	}
	return count, nil
}

func validSubmission() SubmitLeaveRequest {
	return SubmitLeaveRequest{
		StudentID:    "s1",
		StudentName:  "Jamie Park",
		StudentEmail: "jamie@example.edu",
		FromDate:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		ToDate:       time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		Reason:       "medical",
	}
}

func TestLeaveSubmitStartsPending(t *testing.T) {
	repo := newLeaveRepoStub()
	svc := NewLeaveService(repo, nil, nil, nil, nil)

	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	require.Equal(t, models.LeaveStatusPending, request.Status)
	require.Nil(t, request.ReviewedAt)
}

func TestLeaveSubmitRejectsInvertedDates(t *testing.T) {
	repo := newLeaveRepoStub()
	svc := NewLeaveService(repo, nil, nil, nil, nil)

	req := validSubmission()
	req.FromDate, req.ToDate = req.ToDate, req.FromDate

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	// Nothing was persisted.
	require.Empty(t, repo.requests)
}

func TestLeaveApproveThenApproveAgain(t *testing.T) {
	repo := newLeaveRepoStub()
	svc := NewLeaveService(repo, nil, nil, nil, nil)

	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), request.ID, "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.LeaveStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)
	require.Equal(t, "admin-1", *approved.ReviewedBy)

	// A second transition is rejected and the state stays APPROVED.
	_, err = svc.Approve(context.Background(), request.ID, "admin-2")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.Reject(context.Background(), request.ID, "admin-2")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	stored := repo.requests[request.ID]
	require.Equal(t, models.LeaveStatusApproved, stored.Status)
	require.Equal(t, "admin-1", *stored.ReviewedBy)
}

func TestLeaveTransitionUnknownID(t *testing.T) {
	svc := NewLeaveService(newLeaveRepoStub(), nil, nil, nil, nil)

	_, err := svc.Reject(context.Background(), "missing", "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLeaveRowGuardLostRace(t *testing.T) {
	repo := newLeaveRepoStub()
	svc := NewLeaveService(repo, nil, nil, nil, nil)

	request, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	// Another reviewer lands between the load and the update; the read
	// still shows PENDING but the row guard matches nothing.
	repo.requests[request.ID].Status = models.LeaveStatusRejected
	repo.staleReads = true

	_, err = svc.Approve(context.Background(), request.ID, "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestLeaveListFiltersByStatus(t *testing.T) {
	repo := newLeaveRepoStub()
	svc := NewLeaveService(repo, nil, nil, nil, nil)

	first, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	third, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), first.ID, "admin-1")
	require.NoError(t, err)

	pending := models.LeaveStatusPending
	requests, err := svc.List(context.Background(), models.LeaveFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, requests, 2)
	require.Equal(t, third.ID, requests[0].ID)
	require.Equal(t, second.ID, requests[1].ID)

	approved := models.LeaveStatusApproved
	requests, err = svc.List(context.Background(), models.LeaveFilter{Status: &approved})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, first.ID, requests[0].ID)

	count, err := svc.PendingCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
