package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/models"
)

// Notify appends a new unread notification to a user's inbox. No deduplication is attempted.
func (s *Service) Notify(ctx context.Context, recipientID string, kind models.NotificationType, title, message, orderID string) (*models.Notification, error) {
	if strings.TrimSpace(recipientID) == "" {
		return nil, apperr.InvalidInput("Recipient is required")
	}
	n, err := s.notify(ctx, s.store, recipientID, kind, title, message, orderID)
	if err != nil {
		return nil, err
	}
	s.deliver(ctx, []models.Notification{*n})
	return n, nil
}

func (s *Service) notify(ctx context.Context, st Store, recipientID string, kind models.NotificationType, title, message, orderID string) (*models.Notification, error) {
	now := s.now()
	n := &models.Notification{
		ID:        s.newID(),
		UserID:    recipientID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Status:    models.NotificationUnread,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if orderID != "" {
		ref := orderID
		n.OrderID = &ref
	}
	if err := st.InsertNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns the caller's newest notifications, optionally filtered by status.
func (s *Service) ListNotifications(ctx context.Context, caller models.Caller, status models.NotificationStatus) ([]models.Notification, error) {
	if status != "" && !status.IsValid() {
		return nil, apperr.InvalidInput("Status must be one of: unread, read")
	}
	notes, err := s.store.ListNotifications(ctx, caller.UserID, status, models.MaxNotificationLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notes == nil {
		notes = []models.Notification{}
	}
	return notes, nil
}

// MarkNotificationRead marks one of the caller's notifications read. Already read ones are returned as is.
func (s *Service) MarkNotificationRead(ctx context.Context, caller models.Caller, notificationID string) (*models.Notification, error) {
	n, err := s.store.GetNotification(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != caller.UserID {
		return nil, apperr.Forbidden("Not authorized to update this notification")
	}
	if n.Status == models.NotificationRead {
		return n, nil
	}

	now := s.now()
	if err := s.store.MarkNotificationRead(ctx, n.ID, now); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.Status = models.NotificationRead
	n.ReadAt = &now
	n.UpdatedAt = now
	return n, nil
}

// MarkAllNotificationsRead marks every unread notification of the caller read with one timestamp.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, caller models.Caller) (int64, error) {
	count, err := s.store.MarkAllNotificationsRead(ctx, caller.UserID, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return count, nil
}
