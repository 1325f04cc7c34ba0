package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qnahub/qna/models"
	"github.com/qnahub/qna/services"
	"github.com/qnahub/qna/utils"
)

// AnswerController manages answers: creation with its post-commit side
// effects, editing, deletion and best-answer promotion.
type AnswerController struct {
	db       *gorm.DB
	ranking  *services.BestAnswer
	rewards  *services.Rewards
	notifier *services.AnswerNotifier
}

// NewAnswerController creates a new AnswerController instance.
func NewAnswerController(db *gorm.DB, notifier *services.AnswerNotifier) *AnswerController {
	return &AnswerController{
		db:       db,
		ranking:  services.NewBestAnswer(db),
		rewards:  services.NewRewards(db),
		notifier: notifier,
	}
}

// CreateAnswer adds an answer to a question. Notification and broadcast run
// only after the row is committed and cannot fail the request.
func (a *AnswerController) CreateAnswer(ctx *gin.Context) {
	questionID, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid question id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Body  string        `json:"body" binding:"required"`
		Links []linkRequest `json:"links"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}

	body := utils.Sanitize(strings.TrimSpace(req.Body))
	if len([]rune(body)) < models.MinAnswerBodyLen {
		utils.Error(ctx, http.StatusBadRequest, 40032, "answer body is too short")
		return
	}

	var question models.Question
	if err := a.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "question not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load question")
		return
	}

	answer := models.Answer{
		QuestionID: question.ID,
		UserID:     userID,
		Body:       body,
	}
	for _, l := range req.Links {
		answer.Links = append(answer.Links, models.Link{Name: strings.TrimSpace(l.Name), URL: strings.TrimSpace(l.URL)})
	}

	if err := a.db.Create(&answer).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create answer")
		return
	}

	// Post-commit hooks: queued subscriber mail and live broadcast. Both are
	// fire-and-forget from the request's point of view.
	a.notifier.AnswerCreated(&question, &answer)

	utils.Success(ctx, gin.H{"answer": answer})
}

// UpdateAnswer lets the author edit the body.
func (a *AnswerController) UpdateAnswer(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid answer id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}

	body := utils.Sanitize(strings.TrimSpace(req.Body))
	if len([]rune(body)) < models.MinAnswerBodyLen {
		utils.Error(ctx, http.StatusBadRequest, 40032, "answer body is too short")
		return
	}

	var answer models.Answer
	if err := a.db.First(&answer, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40404, "answer not found")
		return
	}
	if answer.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40304, "not enough permission: for update")
		return
	}

	answer.Body = body
	if err := a.db.Save(&answer).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to update answer")
		return
	}
	utils.Success(ctx, gin.H{"answer": answer})
}

// DeleteAnswer removes the author's own answer.
func (a *AnswerController) DeleteAnswer(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid answer id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var answer models.Answer
	if err := a.db.First(&answer, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40404, "answer not found")
		return
	}
	if answer.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40305, "not enough permission: for delete")
		return
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("answer_id = ?", id).Delete(&models.Link{}).Error; err != nil {
			return err
		}
		return tx.Delete(&answer).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to delete answer")
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}

// MarkBest promotes an answer to best and hands out the question's reward.
// The promotion commits first; a reward write failure is reported but does
// not undo it.
func (a *AnswerController) MarkBest(ctx *gin.Context) {
	answerID, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid answer id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var answer models.Answer
	if err := a.db.First(&answer, answerID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40404, "answer not found")
		return
	}

	promoted, err := a.ranking.Promote(userID, answer.QuestionID, answerID)
	if err != nil {
		serviceError(ctx, err, 50034, "failed to promote answer")
		return
	}

	if err := a.rewards.Apply(answer.QuestionID, promoted); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "answer accepted but reward assignment failed")
		return
	}

	utils.Success(ctx, gin.H{"answer": promoted})
}
