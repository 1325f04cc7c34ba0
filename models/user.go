package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Passwords are stored as bcrypt hashes only.
// Users may also be created implicitly during OAuth sign-in, in which case
// PasswordHash stays empty and at least one Authorization row exists.
type User struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Username       string          `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email          string          `gorm:"size:255;index" json:"email"`
	PasswordHash   string          `gorm:"size:255" json:"-"`
	AvatarURL      string          `gorm:"size:512" json:"avatar_url"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
	Authorizations []Authorization `json:"-"`
	Questions      []Question      `json:"-"`
	Answers        []Answer        `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
