package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qnahub/qna/models"
	"github.com/qnahub/qna/utils"
)

// SubscriptionController lets users opt in and out of a question's
// new-answer notifications.
type SubscriptionController struct {
	db *gorm.DB
}

// NewSubscriptionController creates a SubscriptionController.
func NewSubscriptionController(db *gorm.DB) *SubscriptionController {
	return &SubscriptionController{db: db}
}

// Subscribe opts the caller in. Subscribing twice is a no-op.
func (s *SubscriptionController) Subscribe(ctx *gin.Context) {
	questionID, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid question id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "question not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load question")
		return
	}

	var existing models.Subscription
	err := s.db.Where("user_id = ? AND question_id = ?", userID, questionID).First(&existing).Error
	if err == nil {
		utils.Success(ctx, gin.H{"subscribed": true})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to check subscription")
		return
	}

	sub := models.Subscription{UserID: userID, QuestionID: questionID}
	if err := s.db.Create(&sub).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to subscribe")
		return
	}
	utils.Success(ctx, gin.H{"subscribed": true})
}

// Unsubscribe opts the caller out.
func (s *SubscriptionController) Unsubscribe(ctx *gin.Context) {
	questionID, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid question id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := s.db.Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(&models.Subscription{}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to unsubscribe")
		return
	}
	utils.Success(ctx, gin.H{"subscribed": false})
}
