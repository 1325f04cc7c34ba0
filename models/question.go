package models

import "time"

// Question is the root entity of the Q&A domain. It owns its answers, links,
// subscriptions and an optional reward created together with the question.
type Question struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"index;not null" json:"user_id"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Body          string         `gorm:"type:text;not null" json:"body"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	User          User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Answers       []Answer       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"answers,omitempty"`
	Links         []Link         `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE;" json:"links,omitempty"`
	Subscriptions []Subscription `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Reward        *Reward        `gorm:"constraint:OnDelete:CASCADE;" json:"reward,omitempty"`
}
