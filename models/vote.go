package models

import "time"

// Vote records a single user's up/down vote on a question or an answer.
// Value is +1 or -1; one row per (user, votable), revoting updates it.
type Vote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index:idx_vote_user_question,unique;index:idx_vote_user_answer,unique;not null" json:"user_id"`
	QuestionID *uint     `gorm:"index:idx_vote_user_question,unique" json:"question_id,omitempty"`
	AnswerID   *uint     `gorm:"index:idx_vote_user_answer,unique" json:"answer_id,omitempty"`
	Value      int       `gorm:"not null" json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
