package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnahub/qna/models"
)

func TestCreateQuestionWithRewardLinksAndAutoSubscription(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")

	rec := env.request(t, http.MethodPost, "/api/v1/questions", env.tokenFor(t, author), map[string]interface{}{
		"title":  "How to test WebSocket handlers?",
		"body":   "Looking for an approach that works with httptest.",
		"reward": "gopher plush",
		"links": []map[string]string{
			{"name": "gorilla docs", "url": "https://pkg.go.dev/github.com/gorilla/websocket"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	var question models.Question
	require.NoError(t, json.Unmarshal(data["question"], &question))
	assert.Equal(t, author.ID, question.UserID)

	var reward models.Reward
	require.NoError(t, env.db.Where("question_id = ?", question.ID).First(&reward).Error)
	assert.Equal(t, "gopher plush", reward.Name)
	assert.Nil(t, reward.UserID)

	var links int64
	require.NoError(t, env.db.Model(&models.Link{}).Where("question_id = ?", question.ID).Count(&links).Error)
	assert.Equal(t, int64(1), links)

	var sub models.Subscription
	require.NoError(t, env.db.Where("question_id = ? AND user_id = ?", question.ID, author.ID).First(&sub).Error)
}

func TestCreateQuestionRejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")

	rec := env.request(t, http.MethodPost, "/api/v1/questions", env.tokenFor(t, author), map[string]string{
		"body": "missing title",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuestionReturnsAnswersBestFirst(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	responder := env.createUser(t, "responder", "responder@example.com")
	question := env.seedQuestion(t, author, "")

	var answers []models.Answer
	for i := 0; i < 3; i++ {
		answer := models.Answer{QuestionID: question.ID, UserID: responder.ID, Body: "A perfectly valid answer body."}
		require.NoError(t, env.db.Create(&answer).Error)
		answers = append(answers, answer)
	}
	require.NoError(t, env.db.Model(&models.Answer{}).Where("id = ?", answers[2].ID).Update("best", true).Error)

	rec := env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/questions/%d", question.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	var got struct {
		Answers []models.Answer `json:"answers"`
	}
	require.NoError(t, json.Unmarshal(data["question"], &got))
	require.Len(t, got.Answers, 3)
	assert.Equal(t, answers[2].ID, got.Answers[0].ID)
	assert.Equal(t, answers[0].ID, got.Answers[1].ID)
	assert.Equal(t, answers[1].ID, got.Answers[2].ID)
}

func TestGetQuestionNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/api/v1/questions/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateQuestionForbiddenForNonAuthor(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	stranger := env.createUser(t, "stranger", "stranger@example.com")
	question := env.seedQuestion(t, author, "")

	rec := env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/questions/%d", question.ID), env.tokenFor(t, stranger), map[string]string{
		"title": "hijacked",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteQuestionCascades(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	responder := env.createUser(t, "responder", "responder@example.com")
	question := env.seedQuestion(t, author, "sticker pack")

	answer := models.Answer{QuestionID: question.ID, UserID: responder.ID, Body: "A perfectly valid answer body."}
	require.NoError(t, env.db.Create(&answer).Error)

	rec := env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/questions/%d", question.ID), env.tokenFor(t, author), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, model := range []interface{}{&models.Question{}, &models.Answer{}, &models.Subscription{}, &models.Reward{}} {
		var count int64
		require.NoError(t, env.db.Model(model).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	watcher := env.createUser(t, "watcher", "watcher@example.com")
	question := env.seedQuestion(t, author, "")

	path := fmt.Sprintf("/api/v1/questions/%d/subscription", question.ID)
	rec := env.request(t, http.MethodPost, path, env.tokenFor(t, watcher), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Subscribing twice keeps a single row.
	rec = env.request(t, http.MethodPost, path, env.tokenFor(t, watcher), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Subscription{}).Where("question_id = ? AND user_id = ?", question.ID, watcher.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	rec = env.request(t, http.MethodDelete, path, env.tokenFor(t, watcher), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, env.db.Model(&models.Subscription{}).Where("question_id = ? AND user_id = ?", question.ID, watcher.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestVoteOnOwnQuestionRejected(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	voter := env.createUser(t, "voter", "voter@example.com")
	question := env.seedQuestion(t, author, "")

	path := fmt.Sprintf("/api/v1/questions/%d/vote", question.ID)
	rec := env.request(t, http.MethodPost, path, env.tokenFor(t, author), map[string]int{"value": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodPost, path, env.tokenFor(t, voter), map[string]int{"value": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	var score int64
	require.NoError(t, json.Unmarshal(data["score"], &score))
	assert.Equal(t, int64(1), score)
}
