package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qnahub/qna/models"
)

var testDBSeq atomic.Int64

// newTestDB opens a private in-memory SQLite database with the full schema.
// A single pooled connection keeps the in-memory database alive and
// serializes access, which SQLite needs anyway.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

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

func createUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()
	user := models.User{Username: username, Email: email}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createQuestion(t *testing.T, db *gorm.DB, author *models.User) *models.Question {
	t.Helper()
	question := models.Question{UserID: author.ID, Title: "How do channels work?", Body: "Looking for a clear explanation."}
	require.NoError(t, db.Create(&question).Error)
	return &question
}

func createAnswer(t *testing.T, db *gorm.DB, question *models.Question, author *models.User) *models.Answer {
	t.Helper()
	answer := models.Answer{QuestionID: question.ID, UserID: author.ID, Body: "An answer long enough to pass validation."}
	require.NoError(t, db.Create(&answer).Error)
	return &answer
}

func subscribe(t *testing.T, db *gorm.DB, user *models.User, question *models.Question) {
	t.Helper()
	require.NoError(t, db.Create(&models.Subscription{UserID: user.ID, QuestionID: question.ID}).Error)
}
