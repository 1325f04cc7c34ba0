package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/qnahub/qna/models"
)

// BestAnswer promotes answers to "best" status. Promotion is the only write
// path for the Best flag, and it always runs inside one transaction so a
// question can never end up with zero or two best answers, no matter how many
// promotions race on it.
type BestAnswer struct {
	db *gorm.DB
}

// NewBestAnswer creates a BestAnswer service bound to db.
func NewBestAnswer(db *gorm.DB) *BestAnswer {
	return &BestAnswer{db: db}
}

// Promote marks the answer as the question's best one, clearing the flag from
// the previous holder. Only the question's author may promote; the answer
// must belong to the question. Returns the promoted answer on success.
func (s *BestAnswer) Promote(callerID, questionID, answerID uint) (*models.Answer, error) {
	var answer models.Answer
	if err := s.db.First(&answer, answerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("answer %d: %w", answerID, ErrNotFound)
		}
		return nil, err
	}
	if answer.QuestionID != questionID {
		return nil, fmt.Errorf("answer %d does not belong to question %d: %w", answerID, questionID, ErrNotFound)
	}

	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question %d: %w", questionID, ErrNotFound)
		}
		return nil, err
	}
	if question.UserID != callerID {
		return nil, fmt.Errorf("only the question author can accept an answer: %w", ErrUnauthorized)
	}

	// Clear-and-set as one atomic unit. Two racing promotions serialize on the
	// question's answer rows; whichever commits last wins and the loser's flag
	// is cleared by the winner's first UPDATE.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND best = ?", questionID, true).
			Update("best", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Answer{}).
			Where("id = ?", answerID).
			Update("best", true).Error
	})
	if err != nil {
		return nil, err
	}

	answer.Best = true
	return &answer, nil
}

// OrderedAnswers returns the question's answers in display order: the best
// answer first, the rest oldest first.
func (s *BestAnswer) OrderedAnswers(questionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	err := s.db.Preload("User").Preload("Links").
		Where("question_id = ?", questionID).
		Order(models.ByWorth).
		Find(&answers).Error
	return answers, err
}

// Rewards assigns a question's reward to the best answer's author. Kept
// separate from BestAnswer so promotion can be exercised without rewards.
type Rewards struct {
	db *gorm.DB
}

// NewRewards creates a Rewards service bound to db.
func NewRewards(db *gorm.DB) *Rewards {
	return &Rewards{db: db}
}

// Apply hands the question's reward to the author of bestAnswer. Questions
// without a reward are a no-op, not an error. Idempotent: re-applying for the
// same best answer changes nothing. Must be called only after a successful
// promotion; its failure does not undo the already committed promotion.
func (s *Rewards) Apply(questionID uint, bestAnswer *models.Answer) error {
	var reward models.Reward
	err := s.db.Where("question_id = ?", questionID).First(&reward).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if reward.UserID != nil && *reward.UserID == bestAnswer.UserID {
		return nil
	}

	return s.db.Model(&reward).Update("user_id", bestAnswer.UserID).Error
}
