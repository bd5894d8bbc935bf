package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/models"
	"github.com/skillhub/skillhub/pkg/telemetry"
)

// Engagement handles likes and comments on posts
type Engagement struct {
	repo     *db.Repository
	notifier *Notifier
	logger   *zap.Logger
}

// NewEngagement creates the engagement aggregator
func NewEngagement(repo *db.Repository, notifier *Notifier, logger *zap.Logger) *Engagement {
	return &Engagement{
		repo:     repo,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "engagement")),
	}
}

// WithTx returns a copy bound to tx
func (e *Engagement) WithTx(tx *db.Repository) *Engagement {
	cp := *e
	cp.repo = tx
	cp.notifier = e.notifier.WithTx(tx)
	return &cp
}

// postAndUser loads the post and the acting user, failing with NotFound for
// either
func postAndUser(ctx context.Context, tx *db.Repository, op string, postID, userID uint) (*models.Post, *models.User, error) {
	post, err := db.NewPostRepository(tx).GetByID(ctx, postID)
	if err != nil {
		return nil, nil, storageErr(op, err)
	}
	if post == nil {
		return nil, nil, notFound(op, "post %d does not exist", postID)
	}
	user, err := db.NewUserRepository(tx).GetByID(ctx, userID)
	if err != nil {
		return nil, nil, storageErr(op, err)
	}
	if user == nil {
		return nil, nil, notFound(op, "user %d does not exist", userID)
	}
	return post, user, nil
}

// LikePost records that userID likes postID and notifies the post's author
// unless the liker is the author
func (e *Engagement) LikePost(ctx context.Context, postID, userID uint) (like *models.Like, err error) {
	const op = "like.create"
	ctx, span := telemetry.StartSpan(ctx, op, trace.WithAttributes(
		attribute.Int64("post_id", int64(postID)),
		attribute.Int64("user_id", int64(userID)),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	err = e.repo.Transaction(ctx, func(tx *db.Repository) error {
		post, liker, err := postAndUser(ctx, tx, op, postID, userID)
		if err != nil {
			return err
		}

		likes := db.NewLikeRepository(tx)
		exists, err := likes.Exists(ctx, postID, userID)
		if err != nil {
			return storageErr(op, err)
		}
		if exists {
			return newError(ErrConflict, op, "user %d already likes post %d", userID, postID)
		}

		like = &models.Like{PostID: postID, UserID: userID}
		if err := likes.Create(ctx, like); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &Error{Kind: ErrConflict, Op: op, Msg: "like already recorded", Err: err}
			}
			return storageErr(op, err)
		}

		if post.UserID == userID {
			return nil
		}
		message := fmt.Sprintf("%s liked your post.", liker.Username)
		_, err = e.notifier.WithTx(tx).NotifyOne(ctx, post.UserID, userID, models.NotificationLike, message)
		return err
	})
	if err != nil {
		return nil, err
	}
	return like, nil
}

// UnlikePost removes the like of userID on postID. Removing a missing like
// succeeds.
func (e *Engagement) UnlikePost(ctx context.Context, postID, userID uint) error {
	if _, err := db.NewLikeRepository(e.repo).Delete(ctx, postID, userID); err != nil {
		return storageErr("like.delete", err)
	}
	return nil
}

// LikeCount counts the likes on postID
func (e *Engagement) LikeCount(ctx context.Context, postID uint) (int64, error) {
	const op = "like.count"
	if err := requirePost(ctx, e.repo, op, postID); err != nil {
		return 0, err
	}
	n, err := db.NewLikeRepository(e.repo).CountByPost(ctx, postID)
	if err != nil {
		return 0, storageErr(op, err)
	}
	return n, nil
}

// HasLiked reports whether userID likes postID
func (e *Engagement) HasLiked(ctx context.Context, postID, userID uint) (bool, error) {
	ok, err := db.NewLikeRepository(e.repo).Exists(ctx, postID, userID)
	if err != nil {
		return false, storageErr("like.exists", err)
	}
	return ok, nil
}

// AddComment adds a comment and notifies the post's author unless the
// commenter is the author
func (e *Engagement) AddComment(ctx context.Context, postID, userID uint, text string) (comment *models.Comment, err error) {
	const op = "comment.create"
	ctx, span := telemetry.StartSpan(ctx, op, trace.WithAttributes(
		attribute.Int64("post_id", int64(postID)),
		attribute.Int64("user_id", int64(userID)),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if strings.TrimSpace(text) == "" {
		return nil, invalid(op, "comment text must not be empty")
	}

	err = e.repo.Transaction(ctx, func(tx *db.Repository) error {
		post, author, err := postAndUser(ctx, tx, op, postID, userID)
		if err != nil {
			return err
		}

		comment = &models.Comment{PostID: postID, UserID: userID, Text: text}
		if err := db.NewCommentRepository(tx).Create(ctx, comment); err != nil {
			return storageErr(op, err)
		}

		if post.UserID == userID {
			return nil
		}
		message := fmt.Sprintf("%s commented on your post.", author.Username)
		_, err = e.notifier.WithTx(tx).NotifyOne(ctx, post.UserID, userID, models.NotificationComment, message)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ownComment loads a comment and checks that userID wrote it
func ownComment(ctx context.Context, comments *db.CommentRepository, op string, commentID, userID uint) (*models.Comment, error) {
	comment, err := comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if comment == nil {
		return nil, notFound(op, "comment %d does not exist", commentID)
	}
	if comment.UserID != userID {
		return nil, forbidden(op, "user %d is not the author of comment %d", userID, commentID)
	}
	return comment, nil
}

// UpdateComment replaces the text of a comment written by userID
func (e *Engagement) UpdateComment(ctx context.Context, commentID, userID uint, text string) (*models.Comment, error) {
	const op = "comment.update"
	if strings.TrimSpace(text) == "" {
		return nil, invalid(op, "comment text must not be empty")
	}

	comments := db.NewCommentRepository(e.repo)
	comment, err := ownComment(ctx, comments, op, commentID, userID)
	if err != nil {
		return nil, err
	}
	comment.Text = text
	if err := comments.Save(ctx, comment); err != nil {
		return nil, storageErr(op, err)
	}
	return comment, nil
}

// DeleteComment deletes a comment written by userID
func (e *Engagement) DeleteComment(ctx context.Context, commentID, userID uint) error {
	const op = "comment.delete"
	comments := db.NewCommentRepository(e.repo)
	if _, err := ownComment(ctx, comments, op, commentID, userID); err != nil {
		return err
	}
	if _, err := comments.Delete(ctx, commentID); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// ListComments returns the comments on postID oldest first
func (e *Engagement) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	const op = "comment.list"
	if err := requirePost(ctx, e.repo, op, postID); err != nil {
		return nil, err
	}
	comments, err := db.NewCommentRepository(e.repo).ListByPost(ctx, postID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	return comments, nil
}

// CommentCount counts the comments on postID
func (e *Engagement) CommentCount(ctx context.Context, postID uint) (int64, error) {
	const op = "comment.count"
	if err := requirePost(ctx, e.repo, op, postID); err != nil {
		return 0, err
	}
	n, err := db.NewCommentRepository(e.repo).CountByPost(ctx, postID)
	if err != nil {
		return 0, storageErr(op, err)
	}
	return n, nil
}

func requirePost(ctx context.Context, repo *db.Repository, op string, postID uint) error {
	ok, err := db.NewPostRepository(repo).Exists(ctx, postID)
	if err != nil {
		return storageErr(op, err)
	}
	if !ok {
		return notFound(op, "post %d does not exist", postID)
	}
	return nil
}
