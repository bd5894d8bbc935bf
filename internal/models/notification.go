package models

import (
	"time"
)

// NotificationType is the closed set of notification kinds
type NotificationType string

// Notification type constants
const (
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
	NotificationPost    NotificationType = "POST"
	NotificationFollow  NotificationType = "FOLLOW"
)

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationPost, NotificationFollow:
		return true
	}
	return false
}

// Notification is an inbox entry for UserID caused by SenderUserID.
// UserID has no foreign key so a recipient's history is not tied to the
// users table.
type Notification struct {
	ID           uint             `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID       uint             `gorm:"not null;index:notifications_user_created_idx,priority:1;column:user_id" json:"user_id"`
	SenderUserID uint             `gorm:"not null;index:notifications_sender_idx;column:sender_user_id" json:"sender_user_id"`
	Type         NotificationType `gorm:"type:varchar(16);not null;column:type" json:"type"`
	Message      string           `gorm:"type:text;not null;column:message" json:"message"`
	IsRead       bool             `gorm:"not null;default:false;column:is_read" json:"is_read"`
	CreatedAt    time.Time        `gorm:"not null;index:notifications_user_created_idx,priority:2;column:created_at" json:"created_at"`

	// Relationships
	Sender *User `gorm:"foreignKey:SenderUserID;references:ID" json:"-"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}
