package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
)

type announcementRepoStub struct {
	items []models.Announcement
}

func (r *announcementRepoStub) List(ctx context.Context) ([]models.Announcement, error) {
	result := make([]models.Announcement, len(r.items))
	copy(result, r.items)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *announcementRepoStub) Count(ctx context.Context) (int, error) {
	return len(r.items), nil
}

func (r *announcementRepoStub) Create(ctx context.Context, announcement *models.Announcement) error {
	announcement.ID = uuid.NewString()
	announcement.CreatedAt = time.Now().Add(time.Duration(len(r.items)) * time.Second)
	r.items = append(r.items, *announcement)
	return nil
}

func (r *announcementRepoStub) Delete(ctx context.Context, id string) (int64, error) {
	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func TestAnnouncementPostAndListNewestFirst(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := NewAnnouncementService(repo, nil, nil)

	_, err := svc.Post(context.Background(), "Exams", "Schedule published")
	require.NoError(t, err)
	second, err := svc.Post(context.Background(), "Holiday", "Campus closed Friday")
	require.NoError(t, err)

	announcements, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, announcements, 2)
	require.Equal(t, second.ID, announcements[0].ID)
}

func TestAnnouncementPostRequiresTitleAndContent(t *testing.T) {
	svc := NewAnnouncementService(&announcementRepoStub{}, nil, nil)

	_, err := svc.Post(context.Background(), "  ", "body")
	require.Error(t, err)
	_, err = svc.Post(context.Background(), "title", "")
	require.Error(t, err)
}

func TestAnnouncementRemoveMissing(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := NewAnnouncementService(repo, nil, nil)

	posted, err := svc.Post(context.Background(), "Exams", "Schedule published")
	require.NoError(t, err)

	err = svc.Remove(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// The feed is untouched by the failed delete.
	announcements, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, announcements, 1)
	require.Equal(t, posted.ID, announcements[0].ID)

	require.NoError(t, svc.Remove(context.Background(), posted.ID))
	announcements, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, announcements)
}
