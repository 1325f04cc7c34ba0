package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qnahub/qna/models"
)

// NotificationJob is the unit of work handed to the task queue: the worker
// re-loads both records and mails every subscriber. At-least-once execution
// is acceptable.
type NotificationJob struct {
	QuestionID uint `json:"question_id"`
	AnswerID   uint `json:"answer_id"`
}

// TaskQueue accepts notification jobs for asynchronous execution.
type TaskQueue interface {
	Enqueue(ctx context.Context, job NotificationJob) error
}

// Broadcaster fans a payload out to currently connected listeners of a
// channel. Best-effort, at most once per listener.
type Broadcaster interface {
	Broadcast(channel string, payload []byte) int
}

// AnswerChannel is the realtime channel key for one question's answers.
func AnswerChannel(questionID uint) string {
	return fmt.Sprintf("answers_for_question_%d", questionID)
}

// AnswerNotifier runs the two post-commit side effects of answer creation:
// the queued subscriber notification and the live broadcast. The two hooks
// fail independently; neither can roll back the already committed answer.
type AnswerNotifier struct {
	db    *gorm.DB
	queue TaskQueue
	hub   Broadcaster
	log   *zap.SugaredLogger
}

// NewAnswerNotifier creates an AnswerNotifier.
func NewAnswerNotifier(db *gorm.DB, queue TaskQueue, hub Broadcaster, log *zap.SugaredLogger) *AnswerNotifier {
	return &AnswerNotifier{db: db, queue: queue, hub: hub, log: log}
}

// AnswerCreated must be called after the answer row is durably created.
// It enqueues exactly one job when the question has subscribers (zero
// otherwise) and emits one broadcast event. Failures are logged, never
// returned to the request that created the answer.
func (n *AnswerNotifier) AnswerCreated(question *models.Question, answer *models.Answer) {
	n.enqueueSubscriberJob(question, answer)
	n.broadcastAnswer(question, answer)
}

func (n *AnswerNotifier) enqueueSubscriberJob(question *models.Question, answer *models.Answer) {
	var subscribers int64
	if err := n.db.Model(&models.Subscription{}).
		Where("question_id = ?", question.ID).
		Count(&subscribers).Error; err != nil {
		n.log.Errorf("subscriber count for question %d failed: %v", question.ID, err)
		return
	}
	if subscribers == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	job := NotificationJob{QuestionID: question.ID, AnswerID: answer.ID}
	if err := n.queue.Enqueue(ctx, job); err != nil {
		n.log.Errorf("notification enqueue for answer %d failed: %v", answer.ID, err)
	}
}

func (n *AnswerNotifier) broadcastAnswer(question *models.Question, answer *models.Answer) {
	var author models.User
	if err := n.db.First(&author, answer.UserID).Error; err != nil {
		n.log.Errorf("broadcast author lookup for answer %d failed: %v", answer.ID, err)
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"author": author.Email,
		"body":   answer.Body,
	})
	if err != nil {
		n.log.Errorf("broadcast payload for answer %d failed: %v", answer.ID, err)
		return
	}
	n.hub.Broadcast(AnswerChannel(question.ID), payload)
}
