package app

import (
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/locks"
	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/services"
)

type Services struct {
	MemoryLane services.MemoryLaneService
	Mastery    services.MasteryService
	Burnout    services.BurnoutService
	Quest      services.QuestService
	Reschedule services.RescheduleService
	Supervisor services.SupervisorService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")

	studentLocks := locks.NewStudentLocks()

	memoryLane := services.NewMemoryLaneService(db, log, reposet.Memory, reposet.Mastery, clients.PatternCache, cfg.MemoryLane)
	mastery := services.NewMasteryService(db, log, reposet.Mastery, reposet.Plan, studentLocks)
	burnout := services.NewBurnoutService(db, log, reposet.Quest, reposet.Memory, cfg.Burnout)
	quest := services.NewQuestService(db, log, reposet.Quest, reposet.Plan, mastery, studentLocks)
	reschedule := services.NewRescheduleService(db, log, reposet.Quest, reposet.Plan, quest, studentLocks)
	supervisor := services.NewSupervisorService(
		log,
		reposet.Student,
		reposet.Plan,
		memoryLane,
		mastery,
		burnout,
		quest,
		reschedule,
		services.NewIntentRouter(),
		services.NewAgentTable(clients.LLM),
	)

	return Services{
		MemoryLane: memoryLane,
		Mastery:    mastery,
		Burnout:    burnout,
		Quest:      quest,
		Reschedule: reschedule,
		Supervisor: supervisor,
	}
}
