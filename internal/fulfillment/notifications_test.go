package fulfillment_test

import (
	"fmt"
	"testing"

	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyAlwaysAppends(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		_, err := f.svc.Notify(f.ctx, merchX.UserID, models.NotificationOrderReady, "Ready", "same text", "order-1")
		require.NoError(t, err)
	}
	inbox := f.inbox(t, merchX)
	require.Len(t, inbox, 2)
	assert.NotEqual(t, inbox[0].ID, inbox[1].ID)
	require.NotNil(t, inbox[0].OrderID)
	assert.Equal(t, "order-1", *inbox[0].OrderID)
	assert.Len(t, f.alerts.merchants, 2)

	_, err := f.svc.Notify(f.ctx, " ", models.NotificationOrderReady, "Ready", "x", "")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestMarkNotificationRead(t *testing.T) {
	f := newFixture(t)
	n, err := f.svc.Notify(f.ctx, merchX.UserID, models.NotificationOrderAssigned, "New Order Assigned", "hello", "")
	require.NoError(t, err)

	_, err = f.svc.MarkNotificationRead(f.ctx, merchY, n.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.MarkNotificationRead(f.ctx, merchX, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	read, err := f.svc.MarkNotificationRead(f.ctx, merchX, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationRead, read.Status)
	require.NotNil(t, read.ReadAt)

	again, err := f.svc.MarkNotificationRead(f.ctx, merchX, n.ID)
	require.NoError(t, err)
	assert.Equal(t, read.ReadAt.Unix(), again.ReadAt.Unix())
}

func TestMarkAllNotificationsRead(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Notify(f.ctx, merchX.UserID, models.NotificationOrderAssigned, "t", fmt.Sprint(i), "")
		require.NoError(t, err)
	}
	_, err := f.svc.Notify(f.ctx, merchY.UserID, models.NotificationOrderAssigned, "t", "other", "")
	require.NoError(t, err)

	count, err := f.svc.MarkAllNotificationsRead(f.ctx, merchX)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	unread, err := f.svc.ListNotifications(f.ctx, merchX, models.NotificationUnread)
	require.NoError(t, err)
	assert.Empty(t, unread)

	read, err := f.svc.ListNotifications(f.ctx, merchX, models.NotificationRead)
	require.NoError(t, err)
	require.Len(t, read, 3)
	for _, n := range read {
		assert.Equal(t, read[0].ReadAt, n.ReadAt)
	}

	yUnread, err := f.svc.ListNotifications(f.ctx, merchY, models.NotificationUnread)
	require.NoError(t, err)
	assert.Len(t, yUnread, 1)

	count, err = f.svc.MarkAllNotificationsRead(f.ctx, merchX)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListNotificationsLimitAndOrder(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < models.MaxNotificationLimit+5; i++ {
		_, err := f.svc.Notify(f.ctx, merchX.UserID, models.NotificationOrderAssigned, "t", fmt.Sprint(i), "")
		require.NoError(t, err)
	}
	inbox := f.inbox(t, merchX)
	require.Len(t, inbox, models.MaxNotificationLimit)
	assert.Equal(t, fmt.Sprint(models.MaxNotificationLimit+4), inbox[0].Message)

	_, err := f.svc.ListNotifications(f.ctx, merchX, "archived")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}
