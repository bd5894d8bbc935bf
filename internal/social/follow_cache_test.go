package social

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/cache"
	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/db/dbtest"
	"github.com/skillhub/skillhub/pkg/config"
)

// newCachedTestEnv is newTestEnv with follow counts cached in an in-memory
// Redis
func newCachedTestEnv(t *testing.T) (*testEnv, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	database := dbtest.Open(t)
	repo := db.NewRepository(database.DB)
	uploader := &mockUploader{}
	svc := NewService(repo, cache.NewWithClient(client, time.Minute), uploader,
		&config.SocialConfig{MaxMediaPerPost: 3, MaxPageSize: 50}, zap.NewNop())
	return &testEnv{db: database, repo: repo, svc: svc, uploader: uploader}, mr
}

func followersCacheKey(mr *miniredis.Miniredis, userID uint) string {
	gen, err := mr.Get("skillhub:" + generationKey(userID))
	if err != nil {
		gen = "0"
	}
	return fmt.Sprintf("skillhub:%s:%s", followersKey(userID), gen)
}

func requireFollowerCount(t *testing.T, g *FollowGraph, userID uint, want int64) {
	t.Helper()
	n, err := g.FollowerCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, want, n)
}

func TestFollowGraph_CachedCounts(t *testing.T) {
	env, mr := newCachedTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")
	c := env.user(t, "c")
	g := env.svc.Follows

	requireFollowerCount(t, g, b.ID, 0)
	assert.True(t, mr.Exists(followersCacheKey(mr, b.ID)), "count should be cached after a read")

	// a warm entry is served without touching the database
	require.NoError(t, mr.Set(followersCacheKey(mr, b.ID), "42"))
	requireFollowerCount(t, g, b.ID, 42)

	require.NoError(t, g.Follow(ctx, a.ID, b.ID))
	requireFollowerCount(t, g, b.ID, 1)
	require.NoError(t, g.Follow(ctx, c.ID, b.ID))
	requireFollowerCount(t, g, b.ID, 2)

	following, err := g.FollowingCount(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, following)

	require.NoError(t, g.Unfollow(ctx, a.ID, b.ID))
	requireFollowerCount(t, g, b.ID, 1)
	following, err = g.FollowingCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, following)

	require.NoError(t, env.svc.Cascader.DeleteUser(ctx, c.ID))
	requireFollowerCount(t, g, b.ID, 0)
}

func TestFollowGraph_LateCacheFillIsNotServed(t *testing.T) {
	env, mr := newCachedTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")
	g := env.svc.Follows

	// a reader picks its key before the follow commits and stores the
	// pre-follow count after the follow has invalidated
	staleKey := followersCacheKey(mr, b.ID)
	require.NoError(t, g.Follow(ctx, a.ID, b.ID))
	require.NoError(t, mr.Set(staleKey, "0"))

	requireFollowerCount(t, g, b.ID, 1)

	require.NoError(t, g.Unfollow(ctx, a.ID, b.ID))
	staleKey = followersCacheKey(mr, b.ID)
	require.NoError(t, g.Follow(ctx, a.ID, b.ID))
	require.NoError(t, mr.Set(staleKey, "0"))

	requireFollowerCount(t, g, b.ID, 1)
}

func TestCascader_DeleteUserInTxLeavesCacheToCommitter(t *testing.T) {
	env, mr := newCachedTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u")
	friend := env.user(t, "friend")
	require.NoError(t, env.svc.Follows.Follow(ctx, u.ID, friend.ID))
	requireFollowerCount(t, env.svc.Follows, friend.ID, 1)

	genBefore, err := mr.Get("skillhub:" + generationKey(friend.ID))
	require.NoError(t, err)

	err = env.repo.Transaction(ctx, func(tx *db.Repository) error {
		if err := env.svc.Cascader.WithTx(tx).DeleteUser(ctx, u.ID); err != nil {
			return err
		}
		genInside, err := mr.Get("skillhub:" + generationKey(friend.ID))
		require.NoError(t, err)
		assert.Equal(t, genBefore, genInside, "generation must not move before commit")
		return nil
	})
	require.NoError(t, err)

	// still the pre-delete entry until the committer invalidates
	requireFollowerCount(t, env.svc.Follows, friend.ID, 1)

	env.svc.Follows.Invalidate(ctx, friend.ID, u.ID)
	requireFollowerCount(t, env.svc.Follows, friend.ID, 0)
}

func TestFollowGraph_CacheUnavailable(t *testing.T) {
	env, mr := newCachedTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")

	mr.Close()

	require.NoError(t, env.svc.Follows.Follow(ctx, a.ID, b.ID))
	requireFollowerCount(t, env.svc.Follows, b.ID, 1)
}
