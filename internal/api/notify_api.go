package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skillhub/skillhub/internal/models"
	"github.com/skillhub/skillhub/internal/social"
)

// NotifyAPI provides notification inbox methods
type NotifyAPI struct {
	notifier *social.Notifier
	logger   *zap.Logger
}

// NewNotifyAPI creates a new notify API
func NewNotifyAPI(svc *social.Service, logger *zap.Logger) *NotifyAPI {
	return &NotifyAPI{
		notifier: svc.Notifier,
		logger:   logger.With(zap.String("component", "notify-api")),
	}
}

type inboxParams struct {
	UserID   uint `json:"user_id" validate:"required"`
	Page     int  `json:"page" validate:"gte=0"`
	PageSize int  `json:"page_size" validate:"gte=0"`
}

type inboxByTypeParams struct {
	UserID uint   `json:"user_id" validate:"required"`
	Type   string `json:"type" validate:"required,oneof=LIKE COMMENT POST FOLLOW"`
}

type notificationIDParams struct {
	NotificationID uint `json:"notification_id" validate:"required"`
}

const defaultInboxPageSize = 20

// AccountNotifications handles notify.list. page_size defaults to 20.
func (a *NotifyAPI) AccountNotifications(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p inboxParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.PageSize == 0 {
		p.PageSize = defaultInboxPageSize
	}
	return a.notifier.ListForUser(c.Request.Context(), p.UserID, p.Page, p.PageSize)
}

// UnreadNotifications handles notify.unread
func (a *NotifyAPI) UnreadNotifications(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.notifier.ListUnread(c.Request.Context(), p.UserID)
}

// NotificationsByType handles notify.by_type
func (a *NotifyAPI) NotificationsByType(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p inboxByTypeParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return a.notifier.ListByType(c.Request.Context(), p.UserID, models.NotificationType(p.Type))
}

// UnreadCount handles notify.unread_count
func (a *NotifyAPI) UnreadCount(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	n, err := a.notifier.UnreadCount(c.Request.Context(), p.UserID)
	if err != nil {
		return nil, err
	}
	return gin.H{"user_id": p.UserID, "unread": n}, nil
}

// MarkRead handles notify.mark_read
func (a *NotifyAPI) MarkRead(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p notificationIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if err := a.notifier.MarkRead(c.Request.Context(), p.NotificationID); err != nil {
		return nil, err
	}
	return gin.H{"read": true}, nil
}

// MarkAllRead handles notify.mark_all_read
func (a *NotifyAPI) MarkAllRead(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	n, err := a.notifier.MarkAllRead(c.Request.Context(), p.UserID)
	if err != nil {
		return nil, err
	}
	return gin.H{"user_id": p.UserID, "marked": n}, nil
}
