package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/cache"
	"github.com/skillhub/skillhub/internal/db"
	"github.com/skillhub/skillhub/internal/social"
)

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	db      *db.DB
	cache   *cache.Cache
	svc     *social.Service
	logger  *zap.Logger
}

// NewRouter creates a new API router. redisCache may be nil.
func NewRouter(database *db.DB, redisCache *cache.Cache, svc *social.Service, logger *zap.Logger) *Router {
	router := &Router{
		handler: NewJSONRPCHandler(logger),
		db:      database,
		cache:   redisCache,
		svc:     svc,
		logger:  logger.With(zap.String("component", "api-router")),
	}

	router.registerMethods()

	return router
}

// Handler returns the JSON-RPC dispatcher
func (r *Router) Handler() *JSONRPCHandler {
	return r.handler
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	users := NewUserAPI(r.svc, r.logger)
	r.handler.RegisterMethod("user.register", users.Register)
	r.handler.RegisterMethod("user.get", users.Get)
	r.handler.RegisterMethod("user.add_skill", users.AddSkill)
	r.handler.RegisterMethod("user.record_payment", users.RecordPayment)
	r.handler.RegisterMethod("user.delete", users.Delete)

	follows := NewFollowAPI(r.svc, r.logger)
	r.handler.RegisterMethod("follow.follow", follows.Follow)
	r.handler.RegisterMethod("follow.unfollow", follows.Unfollow)
	r.handler.RegisterMethod("follow.is_following", follows.IsFollowing)
	r.handler.RegisterMethod("follow.get_follow_count", follows.GetFollowCount)
	r.handler.RegisterMethod("follow.get_followers", follows.GetFollowers)
	r.handler.RegisterMethod("follow.get_following", follows.GetFollowing)

	posts := NewPostAPI(r.svc, r.logger)
	r.handler.RegisterMethod("post.create", posts.CreatePost)
	r.handler.RegisterMethod("post.update", posts.UpdatePost)
	r.handler.RegisterMethod("post.delete", posts.DeletePost)
	r.handler.RegisterMethod("post.get", posts.GetPost)
	r.handler.RegisterMethod("post.get_by_user", posts.GetUserPosts)
	r.handler.RegisterMethod("post.get_by_skill", posts.GetSkillPosts)

	engagement := NewEngagementAPI(r.svc, r.logger)
	r.handler.RegisterMethod("like.add", engagement.Like)
	r.handler.RegisterMethod("like.remove", engagement.Unlike)
	r.handler.RegisterMethod("like.count", engagement.GetLikeCount)
	r.handler.RegisterMethod("like.has_liked", engagement.HasLiked)
	r.handler.RegisterMethod("comment.add", engagement.AddComment)
	r.handler.RegisterMethod("comment.update", engagement.UpdateComment)
	r.handler.RegisterMethod("comment.delete", engagement.DeleteComment)
	r.handler.RegisterMethod("comment.list", engagement.GetComments)
	r.handler.RegisterMethod("comment.count", engagement.GetCommentCount)

	notify := NewNotifyAPI(r.svc, r.logger)
	r.handler.RegisterMethod("notify.list", notify.AccountNotifications)
	r.handler.RegisterMethod("notify.unread", notify.UnreadNotifications)
	r.handler.RegisterMethod("notify.by_type", notify.NotificationsByType)
	r.handler.RegisterMethod("notify.unread_count", notify.UnreadCount)
	r.handler.RegisterMethod("notify.mark_read", notify.MarkRead)
	r.handler.RegisterMethod("notify.mark_all_read", notify.MarkAllRead)
}

// healthHandler reports database and cache reachability
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":   "OK",
		"service":  "skillhub-api",
		"database": "ok",
	}

	if r.db != nil {
		if err := r.db.Health(ctx); err != nil {
			r.logger.Warn("Database health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body["status"] = "DEGRADED"
			body["database"] = "unreachable"
		}
	}
	if r.cache != nil {
		body["cache"] = "ok"
		if err := r.cache.Health(ctx); err != nil {
			r.logger.Warn("Cache health check failed", zap.Error(err))
			body["cache"] = "unreachable"
		}
	}

	c.JSON(status, body)
}
