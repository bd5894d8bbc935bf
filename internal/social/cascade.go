package social

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/pkg/logging"
	"github.com/skillhub/skillhub/pkg/telemetry"
)

// Cascader deletes users and posts together with everything that depends
// on them, all or nothing
type Cascader struct {
	repo   *db.Repository
	graph  *FollowGraph
	logger *zap.Logger
}

// NewCascader creates the deletion coordinator
func NewCascader(repo *db.Repository, graph *FollowGraph, logger *zap.Logger) *Cascader {
	return &Cascader{
		repo:   repo,
		graph:  graph,
		logger: logger.With(zap.String("component", "cascader")),
	}
}

// WithTx returns a copy bound to tx. The copy does not touch the follow
// count cache; the caller that commits tx passes the affected users to
// FollowGraph.Invalidate.
func (c *Cascader) WithTx(tx *db.Repository) *Cascader {
	cp := *c
	cp.repo = tx
	cp.graph = c.graph.WithTx(tx)
	return &cp
}

// DeleteUser removes a user. In order: notifications the user sent, every
// follow edge touching the user, the user's skills, then the user row,
// which takes the user's posts, likes and comments with it. Notifications
// the user received are kept.
func (c *Cascader) DeleteUser(ctx context.Context, userID uint) (err error) {
	const op = "cascade.delete_user"
	ctx, span := telemetry.StartSpan(ctx, op, trace.WithAttributes(attribute.Int64("user_id", int64(userID))))
	defer func() { telemetry.EndSpan(span, err) }()

	var counterparts []uint
	var sent int64

	err = c.repo.Transaction(ctx, func(tx *db.Repository) error {
		users := db.NewUserRepository(tx)
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return storageErr(op, err)
		}
		if user == nil {
			return notFound(op, "user %d does not exist", userID)
		}

		if sent, err = db.NewNotificationRepository(tx).DeleteBySender(ctx, userID); err != nil {
			return storageErr(op, err)
		}

		if counterparts, err = c.graph.WithTx(tx).DeleteAllEdgesInvolving(ctx, userID); err != nil {
			return err
		}

		if err := users.ClearSkills(ctx, user); err != nil {
			return storageErr(op, err)
		}

		if _, err := users.Delete(ctx, userID); err != nil {
			return storageErr(op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.graph.invalidate(ctx, append(counterparts, userID)...)

	logging.WithContext(ctx, c.logger).Info("User deleted",
		zap.Uint("user_id", userID),
		zap.Int64("notifications_removed", sent),
		zap.Int("edges_counterparts", len(counterparts)))
	return nil
}

// DeletePost removes a post and its likes; media and comments go with the
// post row
func (c *Cascader) DeletePost(ctx context.Context, postID uint) (err error) {
	const op = "cascade.delete_post"
	ctx, span := telemetry.StartSpan(ctx, op, trace.WithAttributes(attribute.Int64("post_id", int64(postID))))
	defer func() { telemetry.EndSpan(span, err) }()

	return c.repo.Transaction(ctx, func(tx *db.Repository) error {
		if err := requirePost(ctx, tx, op, postID); err != nil {
			return err
		}
		if _, err := db.NewLikeRepository(tx).DeleteByPost(ctx, postID); err != nil {
			return storageErr(op, err)
		}
		if _, err := db.NewPostRepository(tx).Delete(ctx, postID); err != nil {
			return storageErr(op, err)
		}
		return nil
	})
}
