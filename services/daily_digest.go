package services

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qnahub/qna/models"
)

// Mailer delivers a single outbound message. The SMTP implementation lives in
// utils; tests substitute a recorder.
type Mailer interface {
	Send(to, subject, body string) error
}

// DailyDigest produces the two outbound mail flows: the unconditional daily
// digest to every user, and per-answer notifications scoped to a question's
// subscribers. They are independent operations, not a pipeline.
type DailyDigest struct {
	db     *gorm.DB
	mailer Mailer
	log    *zap.SugaredLogger
}

// NewDailyDigest creates a DailyDigest service.
func NewDailyDigest(db *gorm.DB, mailer Mailer, log *zap.SugaredLogger) *DailyDigest {
	return &DailyDigest{db: db, mailer: mailer, log: log}
}

// SendDigest mails one digest to every user regardless of subscriptions.
// Individual delivery failures are logged and do not stop the run.
func (s *DailyDigest) SendDigest() error {
	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return err
	}

	var questions []models.Question
	if err := s.db.Order("created_at DESC").Limit(20).Find(&questions).Error; err != nil {
		return err
	}

	body := digestBody(questions)
	for _, user := range users {
		if user.Email == "" {
			continue
		}
		if err := s.mailer.Send(user.Email, "Your daily digest", body); err != nil {
			s.log.Warnf("digest delivery to %s failed: %v", user.Email, err)
		}
	}
	return nil
}

// SendNewAnswers mails the question's current subscribers about one new
// answer. One message per subscriber.
func (s *DailyDigest) SendNewAnswers(question *models.Question, answer *models.Answer) error {
	var subs []models.Subscription
	if err := s.db.Preload("User").Where("question_id = ?", question.ID).Find(&subs).Error; err != nil {
		return err
	}

	var author models.User
	if err := s.db.First(&author, answer.UserID).Error; err != nil {
		return err
	}

	subject := fmt.Sprintf("New answer for: %s", question.Title)
	body := fmt.Sprintf("%s answered the question %q:\n\n%s\n", author.Email, question.Title, answer.Body)
	for _, sub := range subs {
		if sub.User.Email == "" {
			continue
		}
		if err := s.mailer.Send(sub.User.Email, subject, body); err != nil {
			s.log.Warnf("answer notification to %s failed: %v", sub.User.Email, err)
		}
	}
	return nil
}

func digestBody(questions []models.Question) string {
	if len(questions) == 0 {
		return "No new questions today.\n"
	}
	body := "Latest questions:\n\n"
	for _, q := range questions {
		body += fmt.Sprintf("- %s\n", q.Title)
	}
	return body
}
