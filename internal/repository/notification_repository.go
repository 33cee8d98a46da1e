package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Ashu-Jha004/sportsv2-sub003/internal/models"
)

const notificationColumns = `id, athlete_id, actor_id, type, title, message, data, is_read, created_at`

// NotificationRepository is the append-only store behind the notification
// delivery service. Rows are only ever inserted, read, flipped between
// read/unread, or deleted by their recipient.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification on the caller's transaction handle, so the
// insert commits or rolls back together with the workflow transition that
// produced it.
func (r *NotificationRepository) Create(ctx context.Context, ext sqlx.ExtContext, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, athlete_id, actor_id, type, title, message, data, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := ext.ExecContext(ctx, query,
		n.ID, n.AthleteID, n.ActorID, n.Type, n.Title, n.Message, []byte(n.Data), n.IsRead, n.CreatedAt); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FindOwned fetches a notification only when it belongs to the athlete.
func (r *NotificationRepository) FindOwned(ctx context.Context, id, athleteID string) (*models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1 AND athlete_id = $2`, notificationColumns)
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id, athleteID); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListPage returns up to limit notifications for the athlete, strictly
// ordered by (created_at desc, id desc). A non-nil cursor row restricts the
// page to rows strictly older than the cursor in that ordering; the row
// comparison keeps pagination stable under concurrent inserts.
func (r *NotificationRepository) ListPage(ctx context.Context, athleteID string, cursor *models.Notification, limit int, unreadOnly bool) ([]models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE athlete_id = $1`, notificationColumns)
	args := []interface{}{athleteID}

	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	if cursor != nil {
		args = append(args, cursor.CreatedAt, cursor.ID)
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// CountUnread returns the athlete's unread notification count.
func (r *NotificationRepository) CountUnread(ctx context.Context, athleteID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE athlete_id = $1 AND is_read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, athleteID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// SetRead flips the read flag on a single notification. The athlete_id
// condition is the ownership check; the returned count is the number of
// rows the athlete actually owns under that id (0 or 1).
func (r *NotificationRepository) SetRead(ctx context.Context, id, athleteID string, read bool) (int64, error) {
	const query = `UPDATE notifications SET is_read = $1 WHERE id = $2 AND athlete_id = $3`
	result, err := r.db.ExecContext(ctx, query, read, id, athleteID)
	if err != nil {
		return 0, fmt.Errorf("set notification read state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check notification update rows: %w", err)
	}
	return rows, nil
}

// Delete removes a single owned notification.
func (r *NotificationRepository) Delete(ctx context.Context, id, athleteID string) (int64, error) {
	const query = `DELETE FROM notifications WHERE id = $1 AND athlete_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, athleteID)
	if err != nil {
		return 0, fmt.Errorf("delete notification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check notification delete rows: %w", err)
	}
	return rows, nil
}

// MarkAllRead marks every unread notification of the athlete as read in a
// single bulk update.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, athleteID string) (int64, error) {
	const query = `UPDATE notifications SET is_read = TRUE WHERE athlete_id = $1 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, athleteID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check mark-all rows: %w", err)
	}
	return rows, nil
}

// DeleteAll removes every notification of the athlete in a single bulk
// delete.
func (r *NotificationRepository) DeleteAll(ctx context.Context, athleteID string) (int64, error) {
	const query = `DELETE FROM notifications WHERE athlete_id = $1`
	result, err := r.db.ExecContext(ctx, query, athleteID)
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check clear-all rows: %w", err)
	}
	return rows, nil
}
