package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/dto"
	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
	appErrors "github.com/Ashu-Jha004/sportsv2-sub003/pkg/errors"
)

type notificationRepoStub struct {
	notifications []*models.Notification
	countCalls    int
}

func (m *notificationRepoStub) find(id, athleteID string) *models.Notification {
	for _, n := range m.notifications {
		if n.ID == id && n.AthleteID == athleteID {
			return n
		}
	}
	return nil
}

func (m *notificationRepoStub) FindOwned(ctx context.Context, id, athleteID string) (*models.Notification, error) {
	if n := m.find(id, athleteID); n != nil {
		copy := *n
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *notificationRepoStub) ListPage(ctx context.Context, athleteID string, cursor *models.Notification, limit int, unreadOnly bool) ([]models.Notification, error) {
	sorted := make([]*models.Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		if n.AthleteID != athleteID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		sorted = append(sorted, n)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})

	result := make([]models.Notification, 0, limit)
	for _, n := range sorted {
		if cursor != nil {
			if n.CreatedAt.After(cursor.CreatedAt) {
				continue
			}
			if n.CreatedAt.Equal(cursor.CreatedAt) && n.ID >= cursor.ID {
				continue
			}
		}
		result = append(result, *n)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *notificationRepoStub) CountUnread(ctx context.Context, athleteID string) (int, error) {
	m.countCalls++
	count := 0
	for _, n := range m.notifications {
		if n.AthleteID == athleteID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *notificationRepoStub) SetRead(ctx context.Context, id, athleteID string, read bool) (int64, error) {
	if n := m.find(id, athleteID); n != nil {
		n.IsRead = read
		return 1, nil
	}
	return 0, nil
}

func (m *notificationRepoStub) Delete(ctx context.Context, id, athleteID string) (int64, error) {
	for i, n := range m.notifications {
		if n.ID == id && n.AthleteID == athleteID {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *notificationRepoStub) MarkAllRead(ctx context.Context, athleteID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.AthleteID == athleteID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *notificationRepoStub) DeleteAll(ctx context.Context, athleteID string) (int64, error) {
	kept := m.notifications[:0]
	var count int64
	for _, n := range m.notifications {
		if n.AthleteID == athleteID {
			count++
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return count, nil
}

func seedNotifications(repo *notificationRepoStub, athleteID string, n int) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		repo.notifications = append(repo.notifications, &models.Notification{
			ID:        fmt.Sprintf("n-%03d", i),
			AthleteID: athleteID,
			Type:      models.NotifEvaluationRequested,
			Title:     "New evaluation request",
			Message:   "An athlete has requested a physical evaluation with you.",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func newNotificationTestService(repo *notificationRepoStub) *NotificationService {
	cache := NewCacheService(nil, nil, time.Minute, nil, false)
	return NewNotificationService(repo, cache, nil, nil, 20, 100, time.Minute)
}

func TestNotificationServiceListPaginates(t *testing.T) {
	repo := &notificationRepoStub{}
	seedNotifications(repo, "ath-1", 25)
	svc := newNotificationTestService(repo)

	first, err := svc.List(context.Background(), dto.NotificationListQuery{Limit: 10}, athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Len(t, first.Items, 10)
	require.True(t, first.HasMore)
	require.Equal(t, first.Items[9].ID, first.NextCursor)
	require.Equal(t, 25, first.UnreadCount)

	second, err := svc.List(context.Background(), dto.NotificationListQuery{Limit: 10, Cursor: first.NextCursor}, athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Len(t, second.Items, 10)
	require.True(t, second.HasMore)

	third, err := svc.List(context.Background(), dto.NotificationListQuery{Limit: 10, Cursor: second.NextCursor}, athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Len(t, third.Items, 5)
	require.False(t, third.HasMore)
	require.Empty(t, third.NextCursor)

	// Concatenated pages cover every row exactly once, newest first.
	seen := make(map[string]struct{})
	var all []models.Notification
	all = append(all, first.Items...)
	all = append(all, second.Items...)
	all = append(all, third.Items...)
	for i, n := range all {
		if i > 0 {
			require.False(t, n.CreatedAt.After(all[i-1].CreatedAt))
		}
		_, dup := seen[n.ID]
		require.False(t, dup, "duplicate id %s", n.ID)
		seen[n.ID] = struct{}{}
	}
	require.Len(t, seen, 25)
}

func TestNotificationServiceListInvalidCursor(t *testing.T) {
	repo := &notificationRepoStub{}
	seedNotifications(repo, "ath-1", 3)
	seedNotifications(repo, "ath-2", 1)
	svc := newNotificationTestService(repo)

	_, err := svc.List(context.Background(), dto.NotificationListQuery{Cursor: "n-missing"}, athleteClaims("ath-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	// A cursor belonging to another athlete is just as invalid.
	other := repo.notifications[len(repo.notifications)-1]
	require.Equal(t, "ath-2", other.AthleteID)
	_, err = svc.List(context.Background(), dto.NotificationListQuery{Cursor: other.ID}, athleteClaims("ath-1"))
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestNotificationServiceListUnreadFilter(t *testing.T) {
	repo := &notificationRepoStub{}
	seedNotifications(repo, "ath-1", 4)
	repo.notifications[0].IsRead = true
	repo.notifications[1].IsRead = true
	svc := newNotificationTestService(repo)

	page, err := svc.List(context.Background(), dto.NotificationListQuery{Filter: "unread"}, athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, 2, page.UnreadCount)

	_, err = svc.List(context.Background(), dto.NotificationListQuery{Filter: "starred"}, athleteClaims("ath-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestNotificationServiceListClampsLimit(t *testing.T) {
	repo := &notificationRepoStub{}
	seedNotifications(repo, "ath-1", 150)
	svc := newNotificationTestService(repo)

	page, err := svc.List(context.Background(), dto.NotificationListQuery{Limit: 5000}, athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Len(t, page.Items, 100)

	page, err = svc.List(context.Background(), dto.NotificationListQuery{}, athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Len(t, page.Items, 20)
}

func TestNotificationServiceMarkRead(t *testing.T) {
	repo := &notificationRepoStub{}
	seedNotifications(repo, "ath-1", 2)
	svc := newNotificationTestService(repo)

	require.NoError(t, svc.MarkRead(context.Background(), "n-000", athleteClaims("ath-1")))
	require.True(t, repo.notifications[0].IsRead)

	// Marking again is a no-op success.
	require.NoError(t, svc.MarkRead(context.Background(), "n-000", athleteClaims("ath-1")))

	require.NoError(t, svc.MarkUnread(context.Background(), "n-000", athleteClaims("ath-1")))
	require.False(t, repo.notifications[0].IsRead)
}

func TestNotificationServiceMarkReadNotOwned(t *testing.T) {
	repo := &notificationRepoStub{}
	seedNotifications(repo, "ath-1", 1)
	svc := newNotificationTestService(repo)

	err := svc.MarkRead(context.Background(), "n-000", athleteClaims("ath-2"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	err = svc.MarkRead(context.Background(), "n-missing", athleteClaims("ath-1"))
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestNotificationServiceDeleteIdempotent(t *testing.T) {
	repo := &notificationRepoStub{}
	seedNotifications(repo, "ath-1", 1)
	svc := newNotificationTestService(repo)

	require.NoError(t, svc.Delete(context.Background(), "n-000", athleteClaims("ath-1")))
	require.Empty(t, repo.notifications)

	// Deleting an already-deleted id succeeds.
	require.NoError(t, svc.Delete(context.Background(), "n-000", athleteClaims("ath-1")))
}

func TestNotificationServiceBulkOperations(t *testing.T) {
	repo := &notificationRepoStub{}
	seedNotifications(repo, "ath-1", 5)
	seedNotifications(repo, "ath-2", 2)
	repo.notifications[0].IsRead = true
	svc := newNotificationTestService(repo)

	marked, err := svc.MarkAllRead(context.Background(), athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Equal(t, int64(4), marked.Count)

	count, err := svc.UnreadCount(context.Background(), athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Zero(t, count)

	cleared, err := svc.ClearAll(context.Background(), athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Equal(t, int64(5), cleared.Count)

	// The other athlete's feed is untouched.
	require.Len(t, repo.notifications, 2)
}

type cacheStoreStub struct {
	values map[string]int
	sets   int
}

func (m *cacheStoreStub) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*int)) = v
	return nil
}

func (m *cacheStoreStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	m.values[key] = value.(int)
	return nil
}

func (m *cacheStoreStub) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func TestNotificationServiceUnreadCountCaching(t *testing.T) {
	repo := &notificationRepoStub{}
	seedNotifications(repo, "ath-1", 3)
	store := &cacheStoreStub{values: make(map[string]int)}
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	svc := NewNotificationService(repo, cache, nil, nil, 20, 100, time.Minute)

	count, err := svc.UnreadCount(context.Background(), athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.Equal(t, 1, repo.countCalls)
	require.Equal(t, 1, store.sets)

	// Second read is served from cache.
	count, err = svc.UnreadCount(context.Background(), athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.Equal(t, 1, repo.countCalls)

	// A mutation invalidates the cached badge.
	require.NoError(t, svc.MarkRead(context.Background(), "n-000", athleteClaims("ath-1")))
	count, err = svc.UnreadCount(context.Background(), athleteClaims("ath-1"))
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, 2, repo.countCalls)
}
