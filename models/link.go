package models

import "time"

// Link is an external reference attached to either a question or an answer.
// Exactly one of QuestionID/AnswerID is set.
type Link struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID *uint     `gorm:"index" json:"question_id,omitempty"`
	AnswerID   *uint     `gorm:"index" json:"answer_id,omitempty"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	URL        string    `gorm:"size:1024;not null" json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}
