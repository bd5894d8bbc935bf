package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillhub/skillhub/internal/models"
)

func TestNotifier_NotifyOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.user(t, "sender")
	recipient := env.user(t, "recipient")

	n, err := env.svc.Notifier.NotifyOne(ctx, recipient.ID, sender.ID, models.NotificationComment, "hello")
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.False(t, n.IsRead)

	tests := []struct {
		name      string
		recipient uint
		sender    uint
		typ       models.NotificationType
		kind      error
	}{
		{"missing recipient", 999, sender.ID, models.NotificationLike, ErrNotFound},
		{"missing sender", recipient.ID, 999, models.NotificationLike, ErrNotFound},
		{"unknown type", recipient.ID, sender.ID, models.NotificationType("POKE"), ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Notifier.NotifyOne(ctx, tt.recipient, tt.sender, tt.typ, "m")
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	assert.Len(t, env.notifications(t, recipient.ID), 1)
}

func TestNotifier_NotifyManySkipsInvalidRecipients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.user(t, "sender")

	var recipients []uint
	for _, name := range []string{"r1", "r2", "r3", "r4"} {
		recipients = append(recipients, env.user(t, name).ID)
	}

	// all resolve: exactly N rows
	count, err := env.svc.Notifier.NotifyMany(ctx, recipients, sender.ID, models.NotificationPost, "new post")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.EqualValues(t, 4, env.count(t, &models.Notification{}, "sender_user_id = ?", sender.ID))

	// k invalid ids interleaved: exactly N - k rows, no error
	mixed := []uint{recipients[0], 9001, recipients[1], 9002, recipients[2], recipients[3]}
	count, err = env.svc.Notifier.NotifyMany(ctx, mixed, sender.ID, models.NotificationPost, "another post")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.EqualValues(t, 8, env.count(t, &models.Notification{}, "sender_user_id = ?", sender.ID))
}

func TestNotifier_NotifyManyMissingSender(t *testing.T) {
	env := newTestEnv(t)
	r := env.user(t, "r")

	count, err := env.svc.Notifier.NotifyMany(context.Background(), []uint{r.ID}, 777, models.NotificationPost, "m")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, count)
	assert.Empty(t, env.notifications(t, r.ID))
}

func TestNotifier_NotifyManyEmpty(t *testing.T) {
	env := newTestEnv(t)
	sender := env.user(t, "sender")

	count, err := env.svc.Notifier.NotifyMany(context.Background(), nil, sender.ID, models.NotificationPost, "m")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotifier_ListForUserPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.user(t, "sender")
	recipient := env.user(t, "recipient")

	for i := 0; i < 7; i++ {
		_, err := env.svc.Notifier.NotifyOne(ctx, recipient.ID, sender.ID, models.NotificationLike, "m")
		require.NoError(t, err)
	}

	page, err := env.svc.Notifier.ListForUser(ctx, recipient.ID, 0, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 7, page.Total)
	require.Len(t, page.Items, 3)
	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt), "newest first")
	}

	page, err = env.svc.Notifier.ListForUser(ctx, recipient.ID, 2, 3)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	page, err = env.svc.Notifier.ListForUser(ctx, recipient.ID, 0, 10000)
	require.NoError(t, err)
	assert.Equal(t, 50, page.PageSize, "clamped to the configured maximum")
	assert.Len(t, page.Items, 7)

	_, err = env.svc.Notifier.ListForUser(ctx, recipient.ID, -1, 3)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.svc.Notifier.ListForUser(ctx, recipient.ID, 0, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNotifier_ReadState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	notifier := env.svc.Notifier
	sender := env.user(t, "sender")
	recipient := env.user(t, "recipient")

	first, err := notifier.NotifyOne(ctx, recipient.ID, sender.ID, models.NotificationLike, "m1")
	require.NoError(t, err)
	_, err = notifier.NotifyOne(ctx, recipient.ID, sender.ID, models.NotificationComment, "m2")
	require.NoError(t, err)
	_, err = notifier.NotifyOne(ctx, recipient.ID, sender.ID, models.NotificationComment, "m3")
	require.NoError(t, err)

	unread, err := notifier.UnreadCount(ctx, recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	require.NoError(t, notifier.MarkRead(ctx, first.ID))
	require.NoError(t, notifier.MarkRead(ctx, first.ID), "marking twice is fine")
	assert.ErrorIs(t, notifier.MarkRead(ctx, 12345), ErrNotFound)

	list, err := notifier.ListUnread(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	comments, err := notifier.ListByType(ctx, recipient.ID, models.NotificationComment)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	_, err = notifier.ListByType(ctx, recipient.ID, "BOGUS")
	assert.ErrorIs(t, err, ErrValidation)

	changed, err := notifier.MarkAllRead(ctx, recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	unread, err = notifier.UnreadCount(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
