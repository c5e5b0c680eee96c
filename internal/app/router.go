package app

import (
	"github.com/gin-gonic/gin"

	"github.com/hakwon-labs/studycoach-backend/internal/server"
)

func wireRouter(handlerset Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ChatHandler:       handlerset.Chat,
		RescheduleHandler: handlerset.Reschedule,
		StudentHandler:    handlerset.Student,
		PlanHandler:       handlerset.Plan,
		QuestHandler:      handlerset.Quest,
		ReviewHandler:     handlerset.Review,
	})
}
