package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/dto"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	appErrors "github.com/Ashu-Jha004/sportsv2-sub003/pkg/errors"
)

type notificationStore interface {
	FindOwned(ctx context.Context, id, athleteID string) (*models.Notification, error)
	ListPage(ctx context.Context, athleteID string, cursor *models.Notification, limit int, unreadOnly bool) ([]models.Notification, error)
	CountUnread(ctx context.Context, athleteID string) (int, error)
	SetRead(ctx context.Context, id, athleteID string, read bool) (int64, error)
	Delete(ctx context.Context, id, athleteID string) (int64, error)
	MarkAllRead(ctx context.Context, athleteID string) (int64, error)
	DeleteAll(ctx context.Context, athleteID string) (int64, error)
}

// NotificationService is the pull-based delivery path: cursor-paginated
// listing, read-state toggling and bulk operations, all scoped to the
// calling athlete. The unread badge is cached briefly in Redis and
// invalidated whenever the athlete mutates their own notifications.
type NotificationService struct {
	repo            notificationStore
	cache           *CacheService
	metrics         *MetricsService
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
	unreadTTL       time.Duration
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger, defaultPageSize, maxPageSize int, unreadTTL time.Duration) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &NotificationService{
		repo:            repo,
		cache:           cache,
		metrics:         metrics,
		logger:          logger,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		unreadTTL:       unreadTTL,
	}
}

// List returns one page ordered by (created_at desc, id desc). The cursor
// is the id of the last item seen; the page after it contains only rows
// strictly older in that ordering, so concatenated pages yield every row
// exactly once even while new rows arrive. UnreadCount is computed
// independently of the page.
func (s *NotificationService) List(ctx context.Context, query dto.NotificationListQuery, actor *models.JWTClaims) (*dto.NotificationListResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	limit := query.Limit
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	unreadOnly := false
	switch query.Filter {
	case "", dto.NotificationFilterAll:
	case dto.NotificationFilterUnread:
		unreadOnly = true
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "filter must be all or unread")
	}

	var cursor *models.Notification
	if query.Cursor != "" {
		row, err := s.repo.FindOwned(ctx, query.Cursor, actor.AthleteID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "invalid cursor")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve cursor")
		}
		cursor = row
	}

	start := time.Now()
	items, err := s.repo.ListPage(ctx, actor.AthleteID, cursor, limit+1, unreadOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	s.metrics.ObserveNotificationList(time.Since(start))

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	unread, err := s.UnreadCount(ctx, actor)
	if err != nil {
		return nil, err
	}

	resp := &dto.NotificationListResponse{
		Items:       items,
		HasMore:     hasMore,
		UnreadCount: unread,
	}
	if hasMore && len(items) > 0 {
		resp.NextCursor = items[len(items)-1].ID
	}
	return resp, nil
}

// UnreadCount returns the athlete's badge counter, served from cache when
// fresh.
func (s *NotificationService) UnreadCount(ctx context.Context, actor *models.JWTClaims) (int, error) {
	if actor == nil {
		return 0, appErrors.ErrUnauthorized
	}

	key := unreadCountKey(actor.AthleteID)
	var cached int
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	count, err := s.repo.CountUnread(ctx, actor.AthleteID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	if err := s.cache.Set(ctx, key, count, s.unreadTTL); err != nil {
		s.logger.Warn("failed to cache unread count", zap.Error(err))
	}
	return count, nil
}

// MarkRead marks one owned notification as read. Repeating the call on an
// already-read notification succeeds with the same outcome.
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor *models.JWTClaims) error {
	return s.setRead(ctx, id, actor, true)
}

// MarkUnread marks one owned notification as unread.
func (s *NotificationService) MarkUnread(ctx context.Context, id string, actor *models.JWTClaims) error {
	return s.setRead(ctx, id, actor, false)
}

func (s *NotificationService) setRead(ctx context.Context, id string, actor *models.JWTClaims, read bool) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	rows, err := s.repo.SetRead(ctx, id, actor.AthleteID, read)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	if rows == 0 {
		// Either the id does not exist or it belongs to someone else;
		// both read as NOT_FOUND for this actor.
		return appErrors.ErrNotFound
	}
	s.cache.Invalidate(ctx, unreadCountKey(actor.AthleteID))
	return nil
}

// Delete removes one owned notification. Deleting an already-deleted id is
// a no-op success.
func (s *NotificationService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if _, err := s.repo.Delete(ctx, id, actor.AthleteID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	s.cache.Invalidate(ctx, unreadCountKey(actor.AthleteID))
	return nil
}

// MarkAllRead marks every notification of the athlete as read and returns
// the affected count.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *models.JWTClaims) (*dto.BulkResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	count, err := s.repo.MarkAllRead(ctx, actor.AthleteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	s.cache.Invalidate(ctx, unreadCountKey(actor.AthleteID))
	return &dto.BulkResult{Count: count}, nil
}

// ClearAll deletes every notification of the athlete and returns the
// affected count.
func (s *NotificationService) ClearAll(ctx context.Context, actor *models.JWTClaims) (*dto.BulkResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	count, err := s.repo.DeleteAll(ctx, actor.AthleteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear notifications")
	}
	s.cache.Invalidate(ctx, unreadCountKey(actor.AthleteID))
	return &dto.BulkResult{Count: count}, nil
}

func unreadCountKey(athleteID string) string {
	return fmt.Sprintf("notifications:unread:%s", athleteID)
}
