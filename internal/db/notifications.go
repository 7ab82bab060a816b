package db

import (
	"context"
	"fmt"
	"time"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/models"
)

const notificationColumns = `id, user_id, type, title, message, order_id, status, read_at, created_at, updated_at`

func scanNotification(row interface{ Scan(dest ...any) error }) (*models.Notification, error) {
	var n models.Notification
	var kind, status string
	if err := row.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Message, &n.OrderID, &status,
		&n.ReadAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Type = models.NotificationType(kind)
	n.Status = models.NotificationStatus(status)
	return &n, nil
}

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.OrderID, string(n.Status), n.ReadAt, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	n, err := scanNotification(s.q.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "Notification")
	}
	return n, nil
}

// MarkNotificationRead keeps the first read timestamp when called twice.
func (s *Store) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE notifications
		SET status = 'read', read_at = COALESCE(read_at, $2), updated_at = $2
		WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Notification not found")
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE notifications
		SET status = 'read', read_at = $2, updated_at = $2
		WHERE user_id = $1 AND status = 'unread'
	`, userID, at)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, status models.NotificationStatus, limit int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		args = append(args, string(status))
		query += ` AND status = $2`
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// DeleteReadNotificationsBefore removes read notifications older than cutoff and
// returns how many rows were deleted.
func (s *Store) DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM notifications WHERE status = 'read' AND read_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
