package models

import "time"

// Subscription marks a user's opt-in to new-answer notifications for one
// question. The pair is unique; subscribing twice is a no-op at the DB level.
type Subscription struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index:idx_sub_user_question,unique;not null" json:"user_id"`
	QuestionID uint      `gorm:"index:idx_sub_user_question,unique;not null" json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
	User       User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}
