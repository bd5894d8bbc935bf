package models

import (
	"time"
)

// Like records that UserID liked PostID. At most one per pair.
type Like struct {
	ID        uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:post_likes_post_user_ux;column:post_id" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:post_likes_post_user_ux;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "post_likes"
}
