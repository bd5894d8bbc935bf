package social

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/cache"
	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/models"
	"github.com/skillhub/skillhub/pkg/logging"
	"github.com/skillhub/skillhub/pkg/telemetry"
)

// FollowEntry pairs an edge with the user on its far side
type FollowEntry struct {
	Edge *models.Follow `json:"edge"`
	User *models.User   `json:"user"`
}

// FollowGraph stores directed follow edges between users
type FollowGraph struct {
	repo     *db.Repository
	notifier *Notifier
	cache    *cache.Cache
	logger   *zap.Logger
	inTx     bool
}

// NewFollowGraph creates a follow graph. c may be nil.
func NewFollowGraph(repo *db.Repository, notifier *Notifier, c *cache.Cache, logger *zap.Logger) *FollowGraph {
	return &FollowGraph{
		repo:     repo,
		notifier: notifier,
		cache:    c,
		logger:   logger.With(zap.String("component", "follow-graph")),
	}
}

// WithTx returns a copy bound to tx. The copy leaves cache invalidation to
// whoever commits tx.
func (g *FollowGraph) WithTx(tx *db.Repository) *FollowGraph {
	cp := *g
	cp.repo = tx
	cp.notifier = g.notifier.WithTx(tx)
	cp.inTx = true
	return &cp
}

// Follow creates the edge subjectID -> objectID and notifies objectID
func (g *FollowGraph) Follow(ctx context.Context, subjectID, objectID uint) (err error) {
	const op = "follow.follow"
	ctx, span := telemetry.StartSpan(ctx, op, trace.WithAttributes(
		attribute.Int64("subject_id", int64(subjectID)),
		attribute.Int64("object_id", int64(objectID)),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if subjectID == objectID {
		return invalid(op, "user %d cannot follow themselves", subjectID)
	}

	err = g.repo.Transaction(ctx, func(tx *db.Repository) error {
		users := db.NewUserRepository(tx)
		subject, err := users.GetByID(ctx, subjectID)
		if err != nil {
			return storageErr(op, err)
		}
		if subject == nil {
			return notFound(op, "user %d does not exist", subjectID)
		}
		if err := requireUser(ctx, users, op, objectID, "user"); err != nil {
			return err
		}

		follows := db.NewFollowRepository(tx)
		exists, err := follows.Exists(ctx, subjectID, objectID)
		if err != nil {
			return storageErr(op, err)
		}
		if exists {
			return newError(ErrAlreadyExists, op, "user %d already follows %d", subjectID, objectID)
		}

		if err := follows.Create(ctx, &models.Follow{FollowerID: subjectID, FollowingID: objectID}); err != nil {
			return storageErr(op, err)
		}

		message := fmt.Sprintf("%s started following you.", subject.Username)
		if _, err := g.notifier.WithTx(tx).NotifyOne(ctx, objectID, subjectID, models.NotificationFollow, message); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	g.invalidate(ctx, subjectID, objectID)
	return nil
}

// Unfollow removes the edge subjectID -> objectID. Removing a missing edge
// succeeds.
func (g *FollowGraph) Unfollow(ctx context.Context, subjectID, objectID uint) (err error) {
	const op = "follow.unfollow"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer func() { telemetry.EndSpan(span, err) }()

	removed, err := db.NewFollowRepository(g.repo).Delete(ctx, subjectID, objectID)
	if err != nil {
		return storageErr(op, err)
	}
	if removed > 0 {
		g.invalidate(ctx, subjectID, objectID)
	}
	return nil
}

// IsFollowing reports whether subjectID follows objectID
func (g *FollowGraph) IsFollowing(ctx context.Context, subjectID, objectID uint) (bool, error) {
	ok, err := db.NewFollowRepository(g.repo).Exists(ctx, subjectID, objectID)
	if err != nil {
		return false, storageErr("follow.is_following", err)
	}
	return ok, nil
}

// FollowerCount counts the users following userID
func (g *FollowGraph) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	return g.count(ctx, "follow.follower_count", followersKey(userID), userID, db.NewFollowRepository(g.repo).CountFollowers)
}

// FollowingCount counts the users userID follows
func (g *FollowGraph) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return g.count(ctx, "follow.following_count", followingKey(userID), userID, db.NewFollowRepository(g.repo).CountFollowing)
}

func (g *FollowGraph) count(ctx context.Context, op, key string, userID uint, load func(context.Context, uint) (int64, error)) (n int64, err error) {
	ctx, span := telemetry.StartSpan(ctx, op)
	defer func() { telemetry.EndSpan(span, err) }()

	var cacheKey string
	if !g.inTx {
		cacheKey = g.versionedKey(ctx, key, userID)
	}
	if cacheKey != "" {
		if cached, err := g.cache.GetInt64(ctx, cacheKey); err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			logging.WithContext(ctx, g.logger).Warn("Follow count cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	if err := requireUser(ctx, db.NewUserRepository(g.repo), op, userID, "user"); err != nil {
		return 0, err
	}
	n, err = load(ctx, userID)
	if err != nil {
		return 0, storageErr(op, err)
	}

	if cacheKey != "" {
		if err := g.cache.Set(ctx, cacheKey, n); err != nil {
			logging.WithContext(ctx, g.logger).Warn("Follow count cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return n, nil
}

// versionedKey suffixes key with the user's count generation, or returns ""
// when the cache cannot be used. Writers bump the generation after commit,
// so a count loaded before the bump is stored under a key no later read
// asks for.
func (g *FollowGraph) versionedKey(ctx context.Context, key string, userID uint) string {
	gen, err := g.cache.GetInt64(ctx, generationKey(userID))
	switch {
	case err == nil, errors.Is(err, cache.ErrMiss):
		return fmt.Sprintf("%s:%d", key, gen)
	case errors.Is(err, cache.ErrCacheDisabled):
		return ""
	default:
		logging.WithContext(ctx, g.logger).Warn("Follow count generation read failed", zap.Uint("user_id", userID), zap.Error(err))
		return ""
	}
}

// ListFollowers returns the users following userID, oldest edge first
func (g *FollowGraph) ListFollowers(ctx context.Context, userID uint) ([]FollowEntry, error) {
	const op = "follow.list_followers"
	if err := requireUser(ctx, db.NewUserRepository(g.repo), op, userID, "user"); err != nil {
		return nil, err
	}
	edges, err := db.NewFollowRepository(g.repo).ListFollowers(ctx, userID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	entries := make([]FollowEntry, 0, len(edges))
	for _, e := range edges {
		entries = append(entries, FollowEntry{Edge: e, User: e.Follower})
	}
	return entries, nil
}

// ListFollowing returns the users userID follows, oldest edge first
func (g *FollowGraph) ListFollowing(ctx context.Context, userID uint) ([]FollowEntry, error) {
	const op = "follow.list_following"
	if err := requireUser(ctx, db.NewUserRepository(g.repo), op, userID, "user"); err != nil {
		return nil, err
	}
	edges, err := db.NewFollowRepository(g.repo).ListFollowing(ctx, userID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	entries := make([]FollowEntry, 0, len(edges))
	for _, e := range edges {
		entries = append(entries, FollowEntry{Edge: e, User: e.Following})
	}
	return entries, nil
}

// DeleteAllEdgesInvolving removes every edge touching userID in either
// direction and returns the distinct users on the other end. Reserved for
// the deletion coordinator.
func (g *FollowGraph) DeleteAllEdgesInvolving(ctx context.Context, userID uint) ([]uint, error) {
	counterparts, err := db.NewFollowRepository(g.repo).DeleteInvolving(ctx, userID)
	if err != nil {
		return nil, storageErr("follow.delete_all", err)
	}
	g.invalidate(ctx, append(counterparts, userID)...)
	return counterparts, nil
}

// Invalidate retires the cached counts of the given users. Call it after
// the transaction that changed their edges has committed.
func (g *FollowGraph) Invalidate(ctx context.Context, userIDs ...uint) {
	if g.cache == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, generationKey(id))
	}
	if err := g.cache.Incr(ctx, keys...); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		logging.WithContext(ctx, g.logger).Warn("Follow count cache invalidation failed", zap.Error(err))
	}
}

func (g *FollowGraph) invalidate(ctx context.Context, userIDs ...uint) {
	if g.inTx {
		return
	}
	g.Invalidate(ctx, userIDs...)
}

func followersKey(userID uint) string {
	return fmt.Sprintf("follow:followers:%d", userID)
}

func followingKey(userID uint) string {
	return fmt.Sprintf("follow:following:%d", userID)
}

func generationKey(userID uint) string {
	return fmt.Sprintf("follow:gen:%d", userID)
}
