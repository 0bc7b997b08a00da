package database

import (
	"context"
	"testing"

	"nannylink/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n := &models.Notification{
		ID:         uuid.NewString(),
		Type:       models.NotificationLinkRequest,
		FromUserID: "e1",
		ToUserID:   "n1",
		Message:    "Emma wants to link with you",
	}
	require.NoError(t, db.CreateNotification(ctx, n))
	assert.Equal(t, models.NotificationUnread, n.Status)

	inbox, err := db.GetNotifications(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, n.Message, inbox[0].Message)

	require.NoError(t, db.MarkNotificationRead(ctx, "n1", n.ID))

	inbox, err = db.GetNotifications(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, models.NotificationRead, inbox[0].Status)
}

func TestMarkNotificationReadWrongRecipient(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	n := &models.Notification{
		ID:         uuid.NewString(),
		Type:       models.NotificationLinkRequest,
		FromUserID: "e1",
		ToUserID:   "n1",
	}
	require.NoError(t, db.CreateNotification(ctx, n))

	err := db.MarkNotificationRead(ctx, "someone-else", n.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
