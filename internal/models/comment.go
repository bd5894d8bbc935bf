package models

import (
	"time"
)

// Comment represents a comment on a post
type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PostID    uint      `gorm:"not null;index:comments_post_idx;column:post_id" json:"post_id"`
	UserID    uint      `gorm:"not null;index:comments_user_idx;column:user_id" json:"user_id"`
	Text      string    `gorm:"type:text;not null;column:text" json:"text"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`

	// Relationships
	Post *Post `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
