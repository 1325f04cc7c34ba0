package models

import "time"

// Authorization links a local user to an external identity provider account.
// The (provider, uid) pair is unique across the whole table so a third-party
// identity can never resolve to more than one user.
type Authorization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Provider  string    `gorm:"size:32;index:idx_auth_provider_uid,unique;not null" json:"provider"`
	UID       string    `gorm:"size:255;index:idx_auth_provider_uid,unique;not null" json:"uid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
