package social

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/models"
	"github.com/skillhub/skillhub/pkg/logging"
	"github.com/skillhub/skillhub/pkg/telemetry"
)

const defaultMaxMediaPerPost = 3

// MediaUploader stores media binaries and returns their public URL
type MediaUploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

// MediaUpload is one attachment of a new post
type MediaUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// NewPost describes a post to create. A nil IsPublic means public.
type NewPost struct {
	AuthorID    uint
	Description string
	SkillID     *uint
	IsPublic    *bool
	Media       []MediaUpload
}

// PostPatch holds the fields to change on a post. Nil fields are left alone.
type PostPatch struct {
	Description *string
	SkillID     *uint
	ClearSkill  bool
	IsPublic    *bool
}

// PostStore manages posts and their media
type PostStore struct {
	repo     *db.Repository
	notifier *Notifier
	cascader *Cascader
	uploader MediaUploader
	maxMedia int
	logger   *zap.Logger
}

// NewPostStore creates a post store
func NewPostStore(repo *db.Repository, notifier *Notifier, cascader *Cascader, uploader MediaUploader, maxMedia int, logger *zap.Logger) *PostStore {
	if maxMedia <= 0 {
		maxMedia = defaultMaxMediaPerPost
	}
	return &PostStore{
		repo:     repo,
		notifier: notifier,
		cascader: cascader,
		uploader: uploader,
		maxMedia: maxMedia,
		logger:   logger.With(zap.String("component", "post-store")),
	}
}

// WithTx returns a copy bound to tx
func (s *PostStore) WithTx(tx *db.Repository) *PostStore {
	cp := *s
	cp.repo = tx
	cp.notifier = s.notifier.WithTx(tx)
	cp.cascader = s.cascader.WithTx(tx)
	return &cp
}

// CreatePost stores a post with its media and notifies the author's
// followers. Media binaries are uploaded before the post row is written; if
// anything fails afterwards the uploads are removed again.
func (s *PostStore) CreatePost(ctx context.Context, in NewPost) (post *models.Post, err error) {
	const op = "post.create"
	ctx, span := telemetry.StartSpan(ctx, op, trace.WithAttributes(
		attribute.Int64("author_id", int64(in.AuthorID)),
		attribute.Int("media", len(in.Media)),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if len(in.Media) > s.maxMedia {
		return nil, invalid(op, "a post can have at most %d media items, got %d", s.maxMedia, len(in.Media))
	}
	for i, m := range in.Media {
		if m.Body == nil {
			return nil, invalid(op, "media item %d has no content", i)
		}
	}

	users := db.NewUserRepository(s.repo)
	author, err := users.GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if author == nil {
		return nil, notFound(op, "user %d does not exist", in.AuthorID)
	}

	urls, err := s.upload(ctx, op, in.Media)
	if err != nil {
		return nil, err
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}
	post = &models.Post{
		UserID:      in.AuthorID,
		SkillID:     in.SkillID,
		Description: in.Description,
		IsPublic:    isPublic,
	}

	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		if in.SkillID != nil {
			skill, err := db.NewSkillRepository(tx).GetByID(ctx, *in.SkillID)
			if err != nil {
				return storageErr(op, err)
			}
			if skill == nil {
				return notFound(op, "skill %d does not exist", *in.SkillID)
			}
			post.Skill = skill
		}

		posts := db.NewPostRepository(tx)
		if err := posts.Create(ctx, post); err != nil {
			return storageErr(op, err)
		}

		media := make([]models.PostMedia, len(in.Media))
		for i, m := range in.Media {
			media[i] = models.PostMedia{
				PostID:    post.ID,
				MediaType: models.MediaTypeFor(m.ContentType),
				MediaURL:  urls[i],
				Position:  i,
			}
		}
		if err := posts.CreateMedia(ctx, media); err != nil {
			return storageErr(op, err)
		}
		post.Media = media

		message := fmt.Sprintf("%s added a new post.", author.Username)
		if _, err := s.notifier.WithTx(tx).NotifyFollowers(ctx, author.ID, models.NotificationPost, message); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, urls)
		return nil, err
	}

	logging.WithContext(ctx, s.logger).Debug("Post created",
		zap.Uint("post_id", post.ID),
		zap.Uint("author_id", post.UserID),
		zap.Int("media", len(post.Media)))
	return post, nil
}

func (s *PostStore) upload(ctx context.Context, op string, items []MediaUpload) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if s.uploader == nil {
		return nil, &Error{Kind: ErrUnavailable, Op: op, Msg: "media storage is not configured"}
	}

	urls := make([]string, 0, len(items))
	for _, m := range items {
		url, err := s.uploader.Upload(ctx, m.FileName, m.ContentType, m.Body)
		if err != nil {
			s.discard(ctx, urls)
			return nil, &Error{Kind: ErrUnavailable, Op: op, Msg: fmt.Sprintf("upload of %q failed", m.FileName), Err: err}
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// discard removes uploaded blobs whose post was never committed
func (s *PostStore) discard(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.uploader.Remove(ctx, url); err != nil {
			logging.WithContext(ctx, s.logger).Warn("Failed to remove orphaned media", zap.String("url", url), zap.Error(err))
		}
	}
}

// UpdatePost applies the fields present in patch and stamps updated_at
func (s *PostStore) UpdatePost(ctx context.Context, postID uint, patch PostPatch) (post *models.Post, err error) {
	const op = "post.update"
	ctx, span := telemetry.StartSpan(ctx, op)
	defer func() { telemetry.EndSpan(span, err) }()

	if patch.SkillID != nil && patch.ClearSkill {
		return nil, invalid(op, "cannot set and clear the skill at once")
	}

	err = s.repo.Transaction(ctx, func(tx *db.Repository) error {
		posts := db.NewPostRepository(tx)
		exists, err := posts.Exists(ctx, postID)
		if err != nil {
			return storageErr(op, err)
		}
		if !exists {
			return notFound(op, "post %d does not exist", postID)
		}

		fields := map[string]interface{}{"updated_at": time.Now().UTC()}
		if patch.Description != nil {
			fields["description"] = *patch.Description
		}
		if patch.IsPublic != nil {
			fields["is_public"] = *patch.IsPublic
		}
		if patch.ClearSkill {
			fields["skill_id"] = nil
		}
		if patch.SkillID != nil {
			skill, err := db.NewSkillRepository(tx).GetByID(ctx, *patch.SkillID)
			if err != nil {
				return storageErr(op, err)
			}
			if skill == nil {
				return notFound(op, "skill %d does not exist", *patch.SkillID)
			}
			fields["skill_id"] = *patch.SkillID
		}
		if _, err := posts.Updates(ctx, postID, fields); err != nil {
			return storageErr(op, err)
		}
		post, err = posts.GetByID(ctx, postID)
		return storageErr(op, err)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post with its likes, comments and media
func (s *PostStore) DeletePost(ctx context.Context, postID uint) error {
	return s.cascader.DeletePost(ctx, postID)
}

// GetPostByID returns a post if viewerID may see it. A nil viewer only sees
// public posts.
func (s *PostStore) GetPostByID(ctx context.Context, postID uint, viewerID *uint) (*models.Post, error) {
	const op = "post.get"
	post, err := s.LoadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(viewerID) {
		return nil, forbidden(op, "post %d is private", postID)
	}
	return post, nil
}

// LoadPost returns a post without a visibility check
func (s *PostStore) LoadPost(ctx context.Context, postID uint) (*models.Post, error) {
	const op = "post.load"
	post, err := db.NewPostRepository(s.repo).GetByID(ctx, postID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if post == nil {
		return nil, notFound(op, "post %d does not exist", postID)
	}
	return post, nil
}

// ListPostsByUser returns authorID's posts newest first. Private posts are
// included only when the viewer is the author.
func (s *PostStore) ListPostsByUser(ctx context.Context, authorID uint, viewerID *uint) ([]*models.Post, error) {
	const op = "post.list_by_user"
	if err := requireUser(ctx, db.NewUserRepository(s.repo), op, authorID, "user"); err != nil {
		return nil, err
	}
	self := viewerID != nil && *viewerID == authorID
	posts, err := db.NewPostRepository(s.repo).ListByUser(ctx, authorID, self)
	if err != nil {
		return nil, storageErr(op, err)
	}
	return posts, nil
}

// ListPostsBySkill returns public posts tagged with skillID newest first
func (s *PostStore) ListPostsBySkill(ctx context.Context, skillID uint) ([]*models.Post, error) {
	const op = "post.list_by_skill"
	skill, err := db.NewSkillRepository(s.repo).GetByID(ctx, skillID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if skill == nil {
		return nil, notFound(op, "skill %d does not exist", skillID)
	}
	posts, err := db.NewPostRepository(s.repo).ListPublicBySkill(ctx, skillID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	return posts, nil
}
