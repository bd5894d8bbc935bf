package models

import (
	"strings"
	"time"
)

// Post represents a user post
type Post struct {
	ID          uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID      uint      `gorm:"not null;index:posts_user_idx;column:user_id" json:"user_id"`
	SkillID     *uint     `gorm:"index:posts_skill_idx;column:skill_id" json:"skill_id,omitempty"`
	Description string    `gorm:"type:text;not null;column:description" json:"description"`
	IsPublic    bool      `gorm:"not null;column:is_public" json:"is_public"`
	CreatedAt   time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;column:updated_at" json:"updated_at"`

	// Relationships
	Author *User       `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Skill  *Skill      `gorm:"foreignKey:SkillID;references:ID;constraint:OnDelete:SET NULL" json:"skill,omitempty"`
	Media  []PostMedia `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE" json:"media"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// VisibleTo reports whether viewerID may read the post. A nil viewer is
// never the author.
func (p *Post) VisibleTo(viewerID *uint) bool {
	if p.IsPublic {
		return true
	}
	return viewerID != nil && *viewerID == p.UserID
}

// MediaType classifies an attachment
type MediaType string

// Media type constants
const (
	MediaTypePhoto MediaType = "PHOTO"
	MediaTypeVideo MediaType = "VIDEO"
)

// MediaTypeFor maps an upload content type to a MediaType
func MediaTypeFor(contentType string) MediaType {
	if strings.HasPrefix(strings.ToLower(contentType), "image") {
		return MediaTypePhoto
	}
	return MediaTypeVideo
}

// PostMedia is a media attachment owned by a post
type PostMedia struct {
	ID        uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PostID    uint      `gorm:"not null;index:post_media_post_idx;column:post_id" json:"post_id"`
	MediaType MediaType `gorm:"type:varchar(16);not null;column:media_type" json:"media_type"`
	MediaURL  string    `gorm:"type:varchar(1024);not null;column:media_url" json:"media_url"`
	Position  int       `gorm:"not null;column:position" json:"position"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

// TableName specifies the table name for PostMedia
func (PostMedia) TableName() string {
	return "post_media"
}
