package app

import (
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/repos"
)

type Repos struct {
	Student repos.StudentRepo
	Memory  repos.MemoryRepo
	Mastery repos.MasteryRepo
	Plan    repos.PlanRepo
	Quest   repos.QuestRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Student: repos.NewStudentRepo(db, log),
		Memory:  repos.NewMemoryRepo(db, log),
		Mastery: repos.NewMasteryRepo(db, log),
		Plan:    repos.NewPlanRepo(db, log),
		Quest:   repos.NewQuestRepo(db, log),
	}
}
