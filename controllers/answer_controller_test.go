package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnahub/qna/models"
	"github.com/qnahub/qna/services"
)

func (e *testEnv) seedQuestion(t *testing.T, author *models.User, reward string) *models.Question {
	t.Helper()
	question := models.Question{
		UserID: author.ID,
		Title:  "How do I drain a channel?",
		Body:   "Looking for the idiomatic way to drain a buffered channel.",
	}
	if reward != "" {
		question.Reward = &models.Reward{Name: reward}
	}
	require.NoError(t, e.db.Create(&question).Error)
	require.NoError(t, e.db.Create(&models.Subscription{UserID: author.ID, QuestionID: question.ID}).Error)
	return &question
}

func TestCreateAnswerRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	question := env.seedQuestion(t, author, "")

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/questions/%d/answers", question.ID), "", map[string]string{
		"body": "A perfectly valid answer body.",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Answer{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateAnswerRejectsShortBody(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	responder := env.createUser(t, "responder", "responder@example.com")
	question := env.seedQuestion(t, author, "")

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/questions/%d/answers", question.ID), env.tokenFor(t, responder), map[string]string{
		"body": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.queue.all())
}

func TestCreateAnswerEnqueuesNotificationAndBroadcasts(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	responder := env.createUser(t, "responder", "responder@example.com")
	question := env.seedQuestion(t, author, "")

	stream, cancel := env.hub.Subscribe(services.AnswerChannel(question.ID))
	defer cancel()

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/questions/%d/answers", question.ID), env.tokenFor(t, responder), map[string]string{
		"body": "Use a for-range loop and close the channel on the sender side.",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	var answer models.Answer
	require.NoError(t, json.Unmarshal(data["answer"], &answer))
	assert.Equal(t, question.ID, answer.QuestionID)
	assert.Equal(t, responder.ID, answer.UserID)

	jobs := env.queue.all()
	require.Len(t, jobs, 1)
	assert.Equal(t, services.NotificationJob{QuestionID: question.ID, AnswerID: answer.ID}, jobs[0])

	var event map[string]string
	require.NoError(t, json.Unmarshal(<-stream, &event))
	assert.Equal(t, responder.Email, event["author"])
}

func TestCreateAnswerSkipsQueueWithoutSubscribers(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	responder := env.createUser(t, "responder", "responder@example.com")
	question := env.seedQuestion(t, author, "")
	require.NoError(t, env.db.Where("question_id = ?", question.ID).Delete(&models.Subscription{}).Error)

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/questions/%d/answers", question.ID), env.tokenFor(t, responder), map[string]string{
		"body": "A perfectly valid answer body.",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.queue.all())
}

func TestMarkBestPromotesAndAssignsReward(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	responder := env.createUser(t, "responder", "responder@example.com")
	question := env.seedQuestion(t, author, "conference ticket")

	answer := models.Answer{QuestionID: question.ID, UserID: responder.ID, Body: "A perfectly valid answer body."}
	require.NoError(t, env.db.Create(&answer).Error)

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/answers/%d/best", answer.ID), env.tokenFor(t, author), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reloaded models.Answer
	require.NoError(t, env.db.First(&reloaded, answer.ID).Error)
	assert.True(t, reloaded.Best)

	var reward models.Reward
	require.NoError(t, env.db.Where("question_id = ?", question.ID).First(&reward).Error)
	require.NotNil(t, reward.UserID)
	assert.Equal(t, responder.ID, *reward.UserID)
}

func TestMarkBestForbiddenForNonAuthor(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	responder := env.createUser(t, "responder", "responder@example.com")
	question := env.seedQuestion(t, author, "")

	answer := models.Answer{QuestionID: question.ID, UserID: responder.ID, Body: "A perfectly valid answer body."}
	require.NoError(t, env.db.Create(&answer).Error)

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/answers/%d/best", answer.ID), env.tokenFor(t, responder), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var reloaded models.Answer
	require.NoError(t, env.db.First(&reloaded, answer.ID).Error)
	assert.False(t, reloaded.Best)
}

func TestUpdateAnswerOnlyByAuthor(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	responder := env.createUser(t, "responder", "responder@example.com")
	question := env.seedQuestion(t, author, "")

	answer := models.Answer{QuestionID: question.ID, UserID: responder.ID, Body: "A perfectly valid answer body."}
	require.NoError(t, env.db.Create(&answer).Error)

	rec := env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/answers/%d", answer.ID), env.tokenFor(t, author), map[string]string{
		"body": "Trying to rewrite someone else's answer.",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/answers/%d", answer.ID), env.tokenFor(t, responder), map[string]string{
		"body": "An edited body that is long enough.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.Answer
	require.NoError(t, env.db.First(&reloaded, answer.ID).Error)
	assert.Equal(t, "An edited body that is long enough.", reloaded.Body)
}

func TestDeleteAnswerRemovesLinks(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "asker", "asker@example.com")
	responder := env.createUser(t, "responder", "responder@example.com")
	question := env.seedQuestion(t, author, "")

	answer := models.Answer{QuestionID: question.ID, UserID: responder.ID, Body: "A perfectly valid answer body."}
	require.NoError(t, env.db.Create(&answer).Error)
	require.NoError(t, env.db.Create(&models.Link{AnswerID: &answer.ID, Name: "docs", URL: "https://go.dev"}).Error)

	rec := env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/answers/%d", answer.ID), env.tokenFor(t, responder), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var answers, links int64
	require.NoError(t, env.db.Model(&models.Answer{}).Count(&answers).Error)
	require.NoError(t, env.db.Model(&models.Link{}).Count(&links).Error)
	assert.Equal(t, int64(0), answers)
	assert.Equal(t, int64(0), links)
}
