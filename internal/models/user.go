package models

import (
	"time"
)

// User represents a platform member
type User struct {
	ID            uint       `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Username      string     `gorm:"type:varchar(64);not null;uniqueIndex:users_username_ux;column:username" json:"username"`
	Email         string     `gorm:"type:varchar(255);not null;uniqueIndex:users_email_ux;column:email" json:"email"`
	PasswordHash  string     `gorm:"type:varchar(255);not null;column:password_hash" json:"-"`
	IsPremium     bool       `gorm:"not null;default:false;index;column:is_premium" json:"is_premium"`
	LastPaymentAt *time.Time `gorm:"column:last_payment_at" json:"last_payment_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;column:created_at" json:"created_at"`

	// Relationships
	Skills []Skill `gorm:"many2many:user_skills;constraint:OnDelete:CASCADE" json:"skills,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// PremiumExpired reports whether a premium membership paid at LastPaymentAt
// has lapsed at now given a validity window in days.
func (u *User) PremiumExpired(now time.Time, days int) bool {
	if !u.IsPremium || u.LastPaymentAt == nil {
		return false
	}
	return u.LastPaymentAt.Before(now.AddDate(0, 0, -days))
}
