package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
	"github.com/hakwon-labs/studycoach-backend/internal/utils"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the configured database. DB_DRIVER selects postgres (default)
// or sqlite for local development and tests.
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", log))
	switch driver {
	case "sqlite":
		return newSQLite(serviceLog)
	case "postgres", "":
		return newPostgres(serviceLog)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

func newPostgres(log *logger.Logger) (*Service, error) {
	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "studycoach", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp: %w", err)
	}
	return &Service{db: gdb, log: log}, nil
}

func newSQLite(log *logger.Logger) (*Service, error) {
	path := utils.GetEnv("SQLITE_PATH", "studycoach.db", log)
	log.Info("Opening sqlite database...", "path", path)
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Error("Failed to open sqlite database", "error", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Service{db: gdb, log: log}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.StudentProfile{},
		&types.LearningMemory{},
		&types.TopicMastery{},
		&types.StudyPlan{},
		&types.DailyQuest{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	// One active plan per (student, subject). Partial indexes work on both
	// postgres and sqlite.
	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_active_plan_per_subject
		ON study_plan (student_id, subject)
		WHERE status = 'active' AND deleted_at IS NULL
	`).Error; err != nil {
		s.log.Error("Failed to create active-plan index", "error", err)
		return err
	}
	return nil
}
