package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/skillhub/skillhub/internal/models"
)

// NotificationRepository provides notification-related database operations
type NotificationRepository struct {
	*Repository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{Repository: repo}
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// Create inserts a notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Omit("Sender").Create(n).Error
}

// ListByUser returns one page of a user's inbox newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, error) {
	var items []*models.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountByUser counts all notifications addressed to userID
func (r *NotificationRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListUnread returns unread notifications for userID newest first
func (r *NotificationRepository) ListUnread(ctx context.Context, userID uint) ([]*models.Notification, error) {
	var items []*models.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountUnread counts unread notifications for userID
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// ListByType returns notifications of one type for userID newest first
func (r *NotificationRepository) ListByType(ctx context.Context, userID uint, typ models.NotificationType) ([]*models.Notification, error) {
	var items []*models.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, typ).
		Order("created_at DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkRead flags one notification as read and reports rows matched
func (r *NotificationRepository) MarkRead(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true)
	return res.RowsAffected, res.Error
}

// MarkAllRead flags every unread notification of userID as read in one UPDATE
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteBySender removes every notification sent by senderID
func (r *NotificationRepository) DeleteBySender(ctx context.Context, senderID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("sender_user_id = ?", senderID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
