package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/social"
)

// FollowAPI provides follow graph methods
type FollowAPI struct {
	graph  *social.FollowGraph
	logger *zap.Logger
}

// NewFollowAPI creates a new follow API
func NewFollowAPI(svc *social.Service, logger *zap.Logger) *FollowAPI {
	return &FollowAPI{
		graph:  svc.Follows,
		logger: logger.With(zap.String("component", "follow-api")),
	}
}

type edgeParams struct {
	Follower  uint `json:"follower" validate:"required"`
	Following uint `json:"following" validate:"required"`
}

// Follow handles follow.follow
func (a *FollowAPI) Follow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p edgeParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.graph.Follow(c.Request.Context(), p.Follower, p.Following); err != nil {
		return nil, err
	}
	return gin.H{"following": true}, nil
}

// Unfollow handles follow.unfollow
func (a *FollowAPI) Unfollow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p edgeParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.graph.Unfollow(c.Request.Context(), p.Follower, p.Following); err != nil {
		return nil, err
	}
	return gin.H{"following": false}, nil
}

// IsFollowing handles follow.is_following
func (a *FollowAPI) IsFollowing(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p edgeParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	ok, err := a.graph.IsFollowing(c.Request.Context(), p.Follower, p.Following)
	if err != nil {
		return nil, err
	}
	return gin.H{"following": ok}, nil
}

// GetFollowCount handles follow.get_follow_count
func (a *FollowAPI) GetFollowCount(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	ctx := c.Request.Context()

	followers, err := a.graph.FollowerCount(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	following, err := a.graph.FollowingCount(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"user_id":         p.UserID,
		"follower_count":  followers,
		"following_count": following,
	}, nil
}

// GetFollowers handles follow.get_followers
func (a *FollowAPI) GetFollowers(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	entries, err := a.graph.ListFollowers(c.Request.Context(), p.UserID)
	if err != nil {
		return nil, err
	}
	return followEntries(entries), nil
}

// GetFollowing handles follow.get_following
func (a *FollowAPI) GetFollowing(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	entries, err := a.graph.ListFollowing(c.Request.Context(), p.UserID)
	if err != nil {
		return nil, err
	}
	return followEntries(entries), nil
}

func followEntries(entries []social.FollowEntry) []gin.H {
	result := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		item := gin.H{
			"follower":  e.Edge.FollowerID,
			"following": e.Edge.FollowingID,
			"since":     e.Edge.CreatedAt,
		}
		if e.User != nil {
			item["username"] = e.User.Username
		}
		result = append(result, item)
	}
	return result
}
