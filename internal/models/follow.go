package models

import (
	"time"
)

// Follow is a directed edge: FollowerID follows FollowingID.
// Edges carry no cascade; deleting a user requires removing its edges first.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false;column:follower_id" json:"follower_id"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index:follows_following_idx;column:following_id" json:"following_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at" json:"created_at"`

	// Relationships
	Follower  *User `gorm:"foreignKey:FollowerID;references:ID" json:"-"`
	Following *User `gorm:"foreignKey:FollowingID;references:ID" json:"-"`
}

// TableName specifies the table name for Follow
func (Follow) TableName() string {
	return "follows"
}
