package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/social"
)

// EngagementAPI provides like and comment methods
type EngagementAPI struct {
	engagement *social.Engagement
	logger     *zap.Logger
}

// NewEngagementAPI creates a new engagement API
func NewEngagementAPI(svc *social.Service, logger *zap.Logger) *EngagementAPI {
	return &EngagementAPI{
		engagement: svc.Engagement,
		logger:     logger.With(zap.String("component", "engagement-api")),
	}
}

type likeParams struct {
	PostID uint `json:"post_id" validate:"required"`
	UserID uint `json:"user_id" validate:"required"`
}

type addCommentParams struct {
	PostID uint   `json:"post_id" validate:"required"`
	UserID uint   `json:"user_id" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

type editCommentParams struct {
	CommentID uint   `json:"comment_id" validate:"required"`
	UserID    uint   `json:"user_id" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

type deleteCommentParams struct {
	CommentID uint `json:"comment_id" validate:"required"`
	UserID    uint `json:"user_id" validate:"required"`
}

// Like handles like.add
func (a *EngagementAPI) Like(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p likeParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.engagement.LikePost(c.Request.Context(), p.PostID, p.UserID)
}

// Unlike handles like.remove
func (a *EngagementAPI) Unlike(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p likeParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.engagement.UnlikePost(c.Request.Context(), p.PostID, p.UserID); err != nil {
		return nil, err
	}
	return gin.H{"liked": false}, nil
}

// GetLikeCount handles like.count
func (a *EngagementAPI) GetLikeCount(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	n, err := a.engagement.LikeCount(c.Request.Context(), p.PostID)
	if err != nil {
		return nil, err
	}
	return gin.H{"post_id": p.PostID, "count": n}, nil
}

// HasLiked handles like.has_liked
func (a *EngagementAPI) HasLiked(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p likeParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	ok, err := a.engagement.HasLiked(c.Request.Context(), p.PostID, p.UserID)
	if err != nil {
		return nil, err
	}
	return gin.H{"liked": ok}, nil
}

// AddComment handles comment.add
func (a *EngagementAPI) AddComment(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p addCommentParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.engagement.AddComment(c.Request.Context(), p.PostID, p.UserID, p.Text)
}

// UpdateComment handles comment.update
func (a *EngagementAPI) UpdateComment(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p editCommentParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.engagement.UpdateComment(c.Request.Context(), p.CommentID, p.UserID, p.Text)
}

// DeleteComment handles comment.delete
func (a *EngagementAPI) DeleteComment(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p deleteCommentParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.engagement.DeleteComment(c.Request.Context(), p.CommentID, p.UserID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": true}, nil
}

// GetComments handles comment.list
func (a *EngagementAPI) GetComments(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.engagement.ListComments(c.Request.Context(), p.PostID)
}

// GetCommentCount handles comment.count
func (a *EngagementAPI) GetCommentCount(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	n, err := a.engagement.CommentCount(c.Request.Context(), p.PostID)
	if err != nil {
		return nil, err
	}
	return gin.H{"post_id": p.PostID, "count": n}, nil
}
