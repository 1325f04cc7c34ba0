package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qnahub/qna/config"
	"github.com/qnahub/qna/controllers"
	"github.com/qnahub/qna/middleware"
	"github.com/qnahub/qna/realtime"
	"github.com/qnahub/qna/services"
	"github.com/qnahub/qna/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, notifier *services.AnswerNotifier, hub *realtime.Hub) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	questionController := controllers.NewQuestionController(db)
	answerController := controllers.NewAnswerController(db, notifier)
	subscriptionController := controllers.NewSubscriptionController(db)
	linkController := controllers.NewLinkController(db)
	voteController := controllers.NewVoteController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	questions := api.Group("/questions")
	questions.GET("", questionController.ListQuestions)
	questions.GET("/:id", questionController.GetQuestion)

	// Live answer stream per question; no auth, events are public content.
	r.GET("/ws/questions/:id/answers", realtime.AnswersStream(hub, utils.Sugar))

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/questions", questionController.CreateQuestion)
	protected.PUT("/questions/:id", questionController.UpdateQuestion)
	protected.DELETE("/questions/:id", questionController.DeleteQuestion)
	protected.POST("/questions/:id/answers", answerController.CreateAnswer)
	protected.POST("/questions/:id/subscription", subscriptionController.Subscribe)
	protected.DELETE("/questions/:id/subscription", subscriptionController.Unsubscribe)
	protected.POST("/questions/:id/vote", voteController.VoteQuestion)
	protected.PUT("/answers/:id", answerController.UpdateAnswer)
	protected.DELETE("/answers/:id", answerController.DeleteAnswer)
	protected.POST("/answers/:id/best", answerController.MarkBest)
	protected.POST("/answers/:id/vote", voteController.VoteAnswer)
	protected.DELETE("/links/:id", linkController.DeleteLink)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
