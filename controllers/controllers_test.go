package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/qnahub/qna/config"
	"github.com/qnahub/qna/middleware"
	"github.com/qnahub/qna/models"
	"github.com/qnahub/qna/realtime"
	"github.com/qnahub/qna/services"
	"github.com/qnahub/qna/utils"
)

var (
	testEnvOnce sync.Once
	testDBSeq   atomic.Int64
)

func setupTestEnv() {
	testEnvOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		config.SetForTesting(config.AppConfig{
			JWTSecret: "controller-test-secret",
			RedisHost: "127.0.0.1",
			RedisPort: 6379,
		})
		utils.InitTestLogger()
	})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:controllers_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Authorization{},
		&models.Question{},
		&models.Answer{},
		&models.Reward{},
		&models.Subscription{},
		&models.Link{},
		&models.Vote{},
	))
	return db
}

// fakeQueue records enqueued notification jobs.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []services.NotificationJob
}

func (q *fakeQueue) Enqueue(_ context.Context, job services.NotificationJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) all() []services.NotificationJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]services.NotificationJob(nil), q.jobs...)
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	queue  *fakeQueue
	hub    *realtime.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	setupTestEnv()

	db := newTestDB(t)
	queue := &fakeQueue{}
	hub := realtime.NewHub()
	notifier := services.NewAnswerNotifier(db, queue, hub, zap.NewNop().Sugar())

	questionCtrl := NewQuestionController(db)
	answerCtrl := NewAnswerController(db, notifier)
	subCtrl := NewSubscriptionController(db)
	voteCtrl := NewVoteController(db)

	router := gin.New()
	router.GET("/api/v1/questions/:id", questionCtrl.GetQuestion)

	authed := router.Group("/api/v1", middleware.AuthRequired())
	{
		authed.POST("/questions", questionCtrl.CreateQuestion)
		authed.PUT("/questions/:id", questionCtrl.UpdateQuestion)
		authed.DELETE("/questions/:id", questionCtrl.DeleteQuestion)
		authed.POST("/questions/:id/answers", answerCtrl.CreateAnswer)
		authed.POST("/questions/:id/subscription", subCtrl.Subscribe)
		authed.DELETE("/questions/:id/subscription", subCtrl.Unsubscribe)
		authed.POST("/questions/:id/vote", voteCtrl.VoteQuestion)
		authed.PUT("/answers/:id", answerCtrl.UpdateAnswer)
		authed.DELETE("/answers/:id", answerCtrl.DeleteAnswer)
		authed.POST("/answers/:id/best", answerCtrl.MarkBest)
		authed.POST("/answers/:id/vote", voteCtrl.VoteAnswer)
	}

	return &testEnv{db: db, router: router, queue: queue, hub: hub}
}

func (e *testEnv) createUser(t *testing.T, username, email string) *models.User {
	t.Helper()
	user := models.User{Username: username, Email: email, PasswordHash: "x"}
	require.NoError(t, e.db.Create(&user).Error)
	return &user
}

func (e *testEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope struct {
		Code    int                        `json:"code"`
		Message string                     `json:"message"`
		Data    map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, 0, envelope.Code, "body: %s", rec.Body.String())
	return envelope.Data
}
