package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qnahub/qna/models"
	"github.com/qnahub/qna/utils"
)

// LinkController removes links from questions and answers. Links are created
// through their parent resource, so only deletion lives here.
type LinkController struct {
	db *gorm.DB
}

// NewLinkController creates a LinkController.
func NewLinkController(db *gorm.DB) *LinkController {
	return &LinkController{db: db}
}

// DeleteLink removes one link; only the author of the owning question or
// answer may do it.
func (l *LinkController) DeleteLink(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid link id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var link models.Link
	if err := l.db.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "link not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load link")
		return
	}

	ownerID, err := l.ownerOf(link)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to resolve link owner")
		return
	}
	if ownerID != userID {
		utils.Error(ctx, http.StatusForbidden, 40306, "not enough permission: for delete")
		return
	}

	if err := l.db.Delete(&link).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to delete link")
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}

func (l *LinkController) ownerOf(link models.Link) (uint, error) {
	if link.QuestionID != nil {
		var question models.Question
		if err := l.db.First(&question, *link.QuestionID).Error; err != nil {
			return 0, err
		}
		return question.UserID, nil
	}
	if link.AnswerID != nil {
		var answer models.Answer
		if err := l.db.First(&answer, *link.AnswerID).Error; err != nil {
			return 0, err
		}
		return answer.UserID, nil
	}
	return 0, errors.New("orphan link")
}
