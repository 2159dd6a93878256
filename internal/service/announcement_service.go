package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/univlabs/campus-portal-api/internal/models"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context) ([]models.Announcement, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) (int64, error)
}

// AnnouncementService manages the campus-wide announcement feed.
type AnnouncementService struct {
	repo   announcementRepository
	cache  *CacheService
	logger *zap.Logger
}

func NewAnnouncementService(repo announcementRepository, cache *CacheService, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, cache: cache, logger: logger}
}

// Post publishes an announcement. Title and content are both required.
func (s *AnnouncementService) Post(ctx context.Context, title, content string) (*models.Announcement, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title and content are required")
	}

	announcement := &models.Announcement{Title: title, Content: content}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	s.invalidateDashboards(ctx)
	s.logger.Info("announcement posted", zap.String("id", announcement.ID))
	return announcement, nil
}

// Remove deletes an announcement by id. Removing an id that no longer exists
// reports not-found and leaves the feed untouched.
func (s *AnnouncementService) Remove(ctx context.Context, id string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "announcement id is required")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	s.invalidateDashboards(ctx)
	s.logger.Info("announcement removed", zap.String("id", id))
	return nil
}

// List returns all announcements newest-first.
func (s *AnnouncementService) List(ctx context.Context) ([]models.Announcement, error) {
	announcements, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}

// Count backs the admin dashboard.
func (s *AnnouncementService) Count(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count announcements")
	}
	return count, nil
}

func (s *AnnouncementService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
