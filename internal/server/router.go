package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/hakwon-labs/studycoach-backend/internal/handlers"
	"github.com/hakwon-labs/studycoach-backend/internal/utils"
)

type RouterConfig struct {
	ChatHandler       *handlers.ChatHandler
	RescheduleHandler *handlers.RescheduleHandler
	StudentHandler    *handlers.StudentHandler
	PlanHandler       *handlers.PlanHandler
	QuestHandler      *handlers.QuestHandler
	ReviewHandler     *handlers.ReviewHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if strings.EqualFold(utils.GetEnv("GIN_MODE", "", nil), "release") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(otelgin.Middleware("studycoach-backend"))

	origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", nil), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/chat", cfg.ChatHandler.Handle)
		api.POST("/reschedule", cfg.RescheduleHandler.Handle)

		api.POST("/students", cfg.StudentHandler.Create)
		api.GET("/students/:id", cfg.StudentHandler.Get)
		api.PUT("/students/:id", cfg.StudentHandler.Update)
		api.GET("/students/:id/plans", cfg.PlanHandler.ListActive)
		api.GET("/students/:id/quests", cfg.QuestHandler.ListForStudent)
		api.GET("/students/:id/due", cfg.ReviewHandler.ListDue)

		api.POST("/plans", cfg.PlanHandler.Create)
		api.POST("/quests/generate", cfg.QuestHandler.Generate)
		api.POST("/quests/:id/toggle", cfg.QuestHandler.Toggle)
		api.POST("/reviews", cfg.ReviewHandler.Record)
	}
	return router
}
