package main

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/qnahub/qna/config"
	"github.com/qnahub/qna/models"
	"github.com/qnahub/qna/queue"
	"github.com/qnahub/qna/realtime"
	"github.com/qnahub/qna/routes"
	"github.com/qnahub/qna/services"
	"github.com/qnahub/qna/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Authorization{},
		&models.Question{},
		&models.Answer{},
		&models.Reward{},
		&models.Subscription{},
		&models.Link{},
		&models.Vote{},
	)

	hub := realtime.NewHub()
	redisQueue := queue.NewRedis(utils.GetRedis())
	notifier := services.NewAnswerNotifier(db, redisQueue, hub, utils.Sugar)
	digest := services.NewDailyDigest(db, utils.SMTPMailer{}, utils.Sugar)

	// Background consumer for queued subscriber notifications.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	worker := queue.NewWorker(utils.GetRedis(), func(job services.NotificationJob) error {
		var question models.Question
		if err := db.First(&question, job.QuestionID).Error; err != nil {
			return err
		}
		var answer models.Answer
		if err := db.First(&answer, job.AnswerID).Error; err != nil {
			return err
		}
		return digest.SendNewAnswers(&question, &answer)
	}, utils.Sugar)
	go worker.Run(workerCtx)

	// Daily digest on a cron schedule.
	c := cron.New()
	if _, err := c.AddFunc(cfg.DigestSchedule, func() {
		if err := digest.SendDigest(); err != nil {
			utils.Sugar.Errorf("daily digest run failed: %v", err)
		}
	}); err != nil {
		utils.Sugar.Fatalf("invalid digest schedule %q: %v", cfg.DigestSchedule, err)
	}
	c.Start()
	defer c.Stop()

	r := routes.SetupRouter(db, notifier, hub)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
