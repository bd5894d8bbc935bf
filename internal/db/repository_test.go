package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/db/dbtest"
	"github.com/skillhub/skillhub/internal/models"
)

func TestUserRepository_GetByIDMissing(t *testing.T) {
	repo := dbtest.Repository(t)

	user, err := db.NewUserRepository(repo).GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	repo := dbtest.Repository(t)
	dbtest.CreateUser(t, repo, "alice")

	err := db.NewUserRepository(repo).Create(context.Background(), &models.User{
		Username: "alice", Email: "other@example.com", PasswordHash: "x",
	})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestFollowRepository_UniquePair(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	a := dbtest.CreateUser(t, repo, "a")
	b := dbtest.CreateUser(t, repo, "b")

	follows := db.NewFollowRepository(repo)
	require.NoError(t, follows.Create(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID}))

	err := follows.Create(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestFollowRepository_ForeignKey(t *testing.T) {
	repo := dbtest.Repository(t)
	a := dbtest.CreateUser(t, repo, "a")

	err := db.NewFollowRepository(repo).Create(context.Background(), &models.Follow{FollowerID: a.ID, FollowingID: 999})
	assert.True(t, errors.Is(err, gorm.ErrForeignKeyViolated), "got %v", err)
}

func TestFollowRepository_DeleteInvolving(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	a := dbtest.CreateUser(t, repo, "a")
	b := dbtest.CreateUser(t, repo, "b")
	c := dbtest.CreateUser(t, repo, "c")

	follows := db.NewFollowRepository(repo)
	require.NoError(t, follows.Create(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID}))
	require.NoError(t, follows.Create(ctx, &models.Follow{FollowerID: b.ID, FollowingID: a.ID}))
	require.NoError(t, follows.Create(ctx, &models.Follow{FollowerID: c.ID, FollowingID: a.ID}))
	require.NoError(t, follows.Create(ctx, &models.Follow{FollowerID: b.ID, FollowingID: c.ID}))

	counterparts, err := follows.DeleteInvolving(ctx, a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{b.ID, c.ID}, counterparts)

	n, err := follows.CountFollowers(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// the b -> c edge is untouched
	ok, err := follows.Exists(ctx, b.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepository_TransactionRollback(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx *db.Repository) error {
		dbtest.CreateUser(t, tx, "ghost")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	user, err := db.NewUserRepository(repo).GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRepository_NestedTransactionIsolation(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx *db.Repository) error {
		dbtest.CreateUser(t, tx, "kept")
		inner := tx.Transaction(ctx, func(sp *db.Repository) error {
			dbtest.CreateUser(t, sp, "dropped")
			return errors.New("inner failure")
		})
		assert.Error(t, inner)
		return nil
	})
	require.NoError(t, err)

	users := db.NewUserRepository(repo)
	kept, err := users.GetByUsername(ctx, "kept")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	dropped, err := users.GetByUsername(ctx, "dropped")
	require.NoError(t, err)
	assert.Nil(t, dropped)
}

func TestPostRepository_CascadeOnDelete(t *testing.T) {
	database := dbtest.Open(t)
	repo := db.NewRepository(database.DB)
	ctx := context.Background()
	author := dbtest.CreateUser(t, repo, "author")
	fan := dbtest.CreateUser(t, repo, "fan")
	post := dbtest.CreatePost(t, repo, author.ID, true)

	posts := db.NewPostRepository(repo)
	require.NoError(t, posts.CreateMedia(ctx, []models.PostMedia{
		{PostID: post.ID, MediaType: models.MediaTypePhoto, MediaURL: "u1", Position: 0},
		{PostID: post.ID, MediaType: models.MediaTypeVideo, MediaURL: "u2", Position: 1},
	}))
	require.NoError(t, db.NewCommentRepository(repo).Create(ctx, &models.Comment{PostID: post.ID, UserID: fan.ID, Text: "hi"}))

	loaded, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Media, 2)
	assert.Equal(t, "u1", loaded.Media[0].MediaURL)
	assert.Equal(t, "u2", loaded.Media[1].MediaURL)

	_, err = posts.Delete(ctx, post.ID)
	require.NoError(t, err)

	comments, err := db.NewCommentRepository(repo).CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, comments)

	var media int64
	require.NoError(t, database.Model(&models.PostMedia{}).Where("post_id = ?", post.ID).Count(&media).Error)
	assert.Zero(t, media)
}

func TestPostRepository_ListByUserVisibility(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	author := dbtest.CreateUser(t, repo, "author")
	dbtest.CreatePost(t, repo, author.ID, true)
	dbtest.CreatePost(t, repo, author.ID, false)

	posts := db.NewPostRepository(repo)
	public, err := posts.ListByUser(ctx, author.ID, false)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	all, err := posts.ListByUser(ctx, author.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLikeRepository_UniquePair(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	author := dbtest.CreateUser(t, repo, "author")
	post := dbtest.CreatePost(t, repo, author.ID, true)

	likes := db.NewLikeRepository(repo)
	require.NoError(t, likes.Create(ctx, &models.Like{PostID: post.ID, UserID: author.ID}))
	err := likes.Create(ctx, &models.Like{PostID: post.ID, UserID: author.ID})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestNotificationRepository_Paging(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	sender := dbtest.CreateUser(t, repo, "sender")
	recipient := dbtest.CreateUser(t, repo, "recipient")

	notifs := db.NewNotificationRepository(repo)
	for i := 0; i < 5; i++ {
		require.NoError(t, notifs.Create(ctx, &models.Notification{
			UserID: recipient.ID, SenderUserID: sender.ID, Type: models.NotificationLike, Message: "m",
		}))
	}

	page, err := notifs.ListByUser(ctx, recipient.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Greater(t, page[0].ID, page[1].ID, "newest first")

	last, err := notifs.ListByUser(ctx, recipient.ID, 4, 2)
	require.NoError(t, err)
	assert.Len(t, last, 1)

	changed, err := notifs.MarkAllRead(ctx, recipient.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, changed)

	unread, err := notifs.CountUnread(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestUserRepository_ExpirePremium(t *testing.T) {
	repo := dbtest.Repository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var stale []uint
	for _, name := range []string{"s1", "s2", "s3"} {
		stale = append(stale, dbtest.CreatePremiumUser(t, repo, name, now.AddDate(0, 0, -40)).ID)
	}
	fresh := dbtest.CreatePremiumUser(t, repo, "fresh", now.AddDate(0, 0, -5))

	var batches int
	var seen []uint
	total, err := db.NewUserRepository(repo).ExpirePremium(ctx, now.AddDate(0, 0, -30), 2, func(ids []uint) {
		batches++
		seen = append(seen, ids...)
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, 2, batches)
	assert.ElementsMatch(t, stale, seen)

	users := db.NewUserRepository(repo)
	got, err := users.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPremium)

	got, err = users.GetByID(ctx, stale[0])
	require.NoError(t, err)
	assert.False(t, got.IsPremium)
}
