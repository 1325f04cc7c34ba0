package models

import "time"

// MinAnswerBodyLen is the minimum accepted answer body length in runes.
const MinAnswerBodyLen = 10

// Answer belongs to exactly one question and one author. Within a question at
// most one answer carries Best=true; the flag is flipped only through
// services.BestAnswer so the invariant holds under concurrent promotions.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"index;not null" json:"question_id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	Best       bool      `gorm:"not null;default:false" json:"best"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Links      []Link    `gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE;" json:"links,omitempty"`
}

// ByWorth is the default display ordering clause for a question's answers:
// the best answer first, everything else oldest first. ID breaks timestamp
// ties so the order is stable.
const ByWorth = "best DESC, created_at ASC, id ASC"
