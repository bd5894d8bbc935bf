package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/social"
)

// PostAPI provides post methods
type PostAPI struct {
	posts  *social.PostStore
	logger *zap.Logger
}

// NewPostAPI creates a new post API
func NewPostAPI(svc *social.Service, logger *zap.Logger) *PostAPI {
	return &PostAPI{
		posts:  svc.Posts,
		logger: logger.With(zap.String("component", "post-api")),
	}
}

type mediaParams struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required"`
	Data        string `json:"data" validate:"required,base64"`
}

type createPostParams struct {
	AuthorID    uint          `json:"author_id" validate:"required"`
	Description string        `json:"description" validate:"required"`
	SkillID     *uint         `json:"skill_id"`
	IsPublic    *bool         `json:"is_public"`
	Media       []mediaParams `json:"media" validate:"dive"`
}

type updatePostParams struct {
	PostID      uint    `json:"post_id" validate:"required"`
	Description *string `json:"description"`
	SkillID     *uint   `json:"skill_id"`
	ClearSkill  bool    `json:"clear_skill"`
	IsPublic    *bool   `json:"is_public"`
}

type postIDParams struct {
	PostID uint `json:"post_id" validate:"required"`
}

type getPostParams struct {
	PostID   uint  `json:"post_id" validate:"required"`
	ViewerID *uint `json:"viewer_id"`
}

type postsByUserParams struct {
	AuthorID uint  `json:"author_id" validate:"required"`
	ViewerID *uint `json:"viewer_id"`
}

type postsBySkillParams struct {
	SkillID uint `json:"skill_id" validate:"required"`
}

// CreatePost handles post.create. Media bodies travel base64 encoded.
func (a *PostAPI) CreatePost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p createPostParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}

	media := make([]social.MediaUpload, 0, len(p.Media))
	for _, m := range p.Media {
		body, err := base64.StdEncoding.DecodeString(m.Data)
		if err != nil {
			return nil, &paramsError{err: err}
		}
		media = append(media, social.MediaUpload{
			FileName:    m.FileName,
			ContentType: m.ContentType,
			Body:        bytes.NewReader(body),
		})
	}

	return a.posts.CreatePost(c.Request.Context(), social.NewPost{
		AuthorID:    p.AuthorID,
		Description: p.Description,
		SkillID:     p.SkillID,
		IsPublic:    p.IsPublic,
		Media:       media,
	})
}

// UpdatePost handles post.update
func (a *PostAPI) UpdatePost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p updatePostParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.posts.UpdatePost(c.Request.Context(), p.PostID, social.PostPatch{
		Description: p.Description,
		SkillID:     p.SkillID,
		ClearSkill:  p.ClearSkill,
		IsPublic:    p.IsPublic,
	})
}

// DeletePost handles post.delete
func (a *PostAPI) DeletePost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.posts.DeletePost(c.Request.Context(), p.PostID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": true}, nil
}

// GetPost handles post.get
func (a *PostAPI) GetPost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p getPostParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.posts.GetPostByID(c.Request.Context(), p.PostID, p.ViewerID)
}

// GetUserPosts handles post.get_by_user
func (a *PostAPI) GetUserPosts(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postsByUserParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.posts.ListPostsByUser(c.Request.Context(), p.AuthorID, p.ViewerID)
}

// GetSkillPosts handles post.get_by_skill
func (a *PostAPI) GetSkillPosts(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postsBySkillParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.posts.ListPostsBySkill(c.Request.Context(), p.SkillID)
}
