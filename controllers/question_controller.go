package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qnahub/qna/models"
	"github.com/qnahub/qna/services"
	"github.com/qnahub/qna/utils"
)

// QuestionController manages CRUD operations for questions, their links and
// the optional reward created alongside.
type QuestionController struct {
	db      *gorm.DB
	ranking *services.BestAnswer
}

// NewQuestionController creates a new QuestionController instance.
func NewQuestionController(db *gorm.DB) *QuestionController {
	return &QuestionController{db: db, ranking: services.NewBestAnswer(db)}
}

type linkRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required,url"`
}

// CreateQuestion creates a question, its optional reward and links, and
// subscribes the author to their own question.
func (q *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req struct {
		Title  string        `json:"title" binding:"required,min=1"`
		Body   string        `json:"body" binding:"required"`
		Reward string        `json:"reward"`
		Links  []linkRequest `json:"links"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}

	question := models.Question{
		UserID: userID,
		Title:  title,
		Body:   utils.Sanitize(req.Body),
	}
	for _, l := range req.Links {
		question.Links = append(question.Links, models.Link{Name: strings.TrimSpace(l.Name), URL: strings.TrimSpace(l.URL)})
	}
	if name := strings.TrimSpace(req.Reward); name != "" {
		question.Reward = &models.Reward{Name: name}
	}

	err := q.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		// The author follows their own question by default.
		return tx.Create(&models.Subscription{UserID: userID, QuestionID: question.ID}).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create question")
		return
	}

	utils.InvalidateByPrefix("cache:questions:list:")
	utils.Success(ctx, gin.H{"question": question})
}

// ListQuestions returns paginated questions including author information.
func (q *QuestionController) ListQuestions(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))

	// Cache list pages when there is no search term to avoid key explosion.
	var cacheKey string
	if search == "" {
		cacheKey = fmt.Sprintf("cache:questions:list:page=%d:size=%d", page, pageSize)
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	var questions []models.Question
	var total int64

	query := q.db.Preload("User").Preload("Reward").Order("created_at DESC")
	if search != "" {
		query = query.Where("title LIKE ? OR body LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := query.Model(&models.Question{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count questions")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&questions).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list questions")
		return
	}

	payload := gin.H{
		"items": questions,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if cacheKey != "" {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, 0)
	}
	utils.Success(ctx, payload)
}

// GetQuestion returns one question with its answers in display order.
func (q *QuestionController) GetQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid question id")
		return
	}

	var question models.Question
	err := q.db.Preload("User").Preload("Reward").Preload("Links").First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "question not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to get question")
		return
	}

	answers, err := q.ranking.OrderedAnswers(question.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load answers")
		return
	}
	question.Answers = answers

	utils.Success(ctx, gin.H{"question": question})
}

// UpdateQuestion lets the author edit title and body.
func (q *QuestionController) UpdateQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid question id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	var question models.Question
	if err := q.db.First(&question, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40403, "question not found")
		return
	}
	if question.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40302, "not enough permission: for update")
		return
	}

	if title := utils.Sanitize(strings.TrimSpace(req.Title)); title != "" {
		question.Title = title
	}
	if body := utils.Sanitize(req.Body); strings.TrimSpace(body) != "" {
		question.Body = body
	}
	if err := q.db.Save(&question).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to update question")
		return
	}

	utils.InvalidateByPrefix("cache:questions:list:")
	utils.Success(ctx, gin.H{"question": question})
}

// DeleteQuestion removes the question and its dependents (author only).
func (q *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid question id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var question models.Question
	if err := q.db.First(&question, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40403, "question not found")
		return
	}
	if question.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40303, "not enough permission: for delete")
		return
	}

	err := q.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.Link{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.Reward{}).Error; err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete question")
		return
	}

	utils.InvalidateByPrefix("cache:questions:list:")
	utils.Success(ctx, gin.H{"deleted": strconv.FormatUint(uint64(id), 10)})
}
