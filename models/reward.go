package models

import "time"

// Reward is an incentive attached to a question at creation time. UserID is
// nil until the question author accepts a best answer; it is then reassigned
// whenever the best answer changes, never deleted by that flow.
type Reward struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"index;not null" json:"question_id"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
