package app

import (
	"github.com/hakwon-labs/studycoach-backend/internal/handlers"
	"github.com/hakwon-labs/studycoach-backend/internal/logger"
)

type Handlers struct {
	Chat       *handlers.ChatHandler
	Reschedule *handlers.RescheduleHandler
	Student    *handlers.StudentHandler
	Plan       *handlers.PlanHandler
	Quest      *handlers.QuestHandler
	Review     *handlers.ReviewHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Chat:       handlers.NewChatHandler(log, serviceset.Supervisor),
		Reschedule: handlers.NewRescheduleHandler(log, serviceset.Reschedule),
		Student:    handlers.NewStudentHandler(log, reposet.Student),
		Plan:       handlers.NewPlanHandler(log, reposet.Plan),
		Quest:      handlers.NewQuestHandler(log, serviceset.Quest),
		Review:     handlers.NewReviewHandler(log, serviceset.Mastery),
	}
}
