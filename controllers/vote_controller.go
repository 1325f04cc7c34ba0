package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qnahub/qna/models"
	"github.com/qnahub/qna/utils"
)

// VoteController records up/down votes on questions and answers. One vote per
// user per votable; revoting replaces the value; authors cannot vote on their
// own content.
type VoteController struct {
	db *gorm.DB
}

// NewVoteController creates a VoteController.
func NewVoteController(db *gorm.DB) *VoteController {
	return &VoteController{db: db}
}

type voteRequest struct {
	Value int `json:"value" binding:"required,oneof=1 -1"`
}

// VoteQuestion votes on a question.
func (v *VoteController) VoteQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid question id")
		return
	}

	var question models.Question
	if err := v.db.First(&question, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40403, "question not found")
		return
	}

	v.castVote(ctx, question.UserID, &models.Vote{QuestionID: &question.ID}, "question_id = ?", question.ID)
}

// VoteAnswer votes on an answer.
func (v *VoteController) VoteAnswer(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid answer id")
		return
	}

	var answer models.Answer
	if err := v.db.First(&answer, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40404, "answer not found")
		return
	}

	v.castVote(ctx, answer.UserID, &models.Vote{AnswerID: &answer.ID}, "answer_id = ?", answer.ID)
}

func (v *VoteController) castVote(ctx *gin.Context, authorID uint, vote *models.Vote, cond string, votableID uint) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if userID == authorID {
		utils.Error(ctx, http.StatusForbidden, 40307, "cannot vote on your own content")
		return
	}

	var req voteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "vote value must be 1 or -1")
		return
	}

	var existing models.Vote
	err := v.db.Where("user_id = ?", userID).Where(cond, votableID).First(&existing).Error
	switch {
	case err == nil:
		if existing.Value != req.Value {
			existing.Value = req.Value
			if err := v.db.Save(&existing).Error; err != nil {
				utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to update vote")
				return
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		vote.UserID = userID
		vote.Value = req.Value
		if err := v.db.Create(vote).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to record vote")
			return
		}
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to check vote")
		return
	}

	var score int64
	row := v.db.Model(&models.Vote{}).Where(cond, votableID).Select("COALESCE(SUM(value), 0)").Row()
	if err := row.Scan(&score); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to compute score")
		return
	}
	utils.Success(ctx, gin.H{"score": score})
}
