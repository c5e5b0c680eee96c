package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type QuestRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, quests []*types.DailyQuest) ([]*types.DailyQuest, error)
	GetByID(ctx context.Context, tx *gorm.DB, questID uuid.UUID) (*types.DailyQuest, error)
	ListByPlanAndDate(ctx context.Context, tx *gorm.DB, planID uuid.UUID, date time.Time) ([]*types.DailyQuest, error)
	ListByStudentAndDateRange(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, from, to time.Time) ([]*types.DailyQuest, error)
	SetCompleted(ctx context.Context, tx *gorm.DB, questID uuid.UUID, completed bool, completedAt *time.Time) error
	// UpdateDate is the only whole-quest write path for a date change; callers
	// must hold the student write lock and have run the reschedule contract.
	UpdateDate(ctx context.Context, tx *gorm.DB, questID uuid.UUID, newDate time.Time) error
	// Resize reassigns a quest's date, estimate, and type in one write. Used
	// when a load reduction splits the quest across days.
	Resize(ctx context.Context, tx *gorm.DB, questID uuid.UUID, newDate time.Time, estimatedMinutes int, questType types.QuestType) error
}

type questRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestRepo(db *gorm.DB, baseLog *logger.Logger) QuestRepo {
	return &questRepo{db: db, log: baseLog.With("repo", "QuestRepo")}
}

func (r *questRepo) CreateBatch(ctx context.Context, tx *gorm.DB, quests []*types.DailyQuest) ([]*types.DailyQuest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(quests) == 0 {
		return []*types.DailyQuest{}, nil
	}
	for _, q := range quests {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(ctx).Create(&quests).Error; err != nil {
		return nil, err
	}
	return quests, nil
}

func (r *questRepo) GetByID(ctx context.Context, tx *gorm.DB, questID uuid.UUID) (*types.DailyQuest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if questID == uuid.Nil {
		return nil, nil
	}
	var row types.DailyQuest
	err := transaction.WithContext(ctx).
		Where("id = ?", questID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *questRepo) ListByPlanAndDate(ctx context.Context, tx *gorm.DB, planID uuid.UUID, date time.Time) ([]*types.DailyQuest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if planID == uuid.Nil {
		return nil, nil
	}
	dayStart, dayEnd := dayBounds(date)
	var rows []*types.DailyQuest
	err := transaction.WithContext(ctx).
		Where("plan_id = ? AND date >= ? AND date < ?", planID, dayStart, dayEnd).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *questRepo) ListByStudentAndDateRange(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, from, to time.Time) ([]*types.DailyQuest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.DailyQuest
	err := transaction.WithContext(ctx).
		Where("student_id = ? AND date >= ? AND date < ?", studentID, from, to).
		Order("date ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *questRepo) SetCompleted(ctx context.Context, tx *gorm.DB, questID uuid.UUID, completed bool, completedAt *time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if questID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.DailyQuest{}).
		Where("id = ?", questID).
		Updates(map[string]interface{}{
			"completed":    completed,
			"completed_at": completedAt,
		}).Error
}

func (r *questRepo) UpdateDate(ctx context.Context, tx *gorm.DB, questID uuid.UUID, newDate time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if questID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.DailyQuest{}).
		Where("id = ? AND completed = ?", questID, false).
		UpdateColumn("date", newDate).Error
}

func (r *questRepo) Resize(ctx context.Context, tx *gorm.DB, questID uuid.UUID, newDate time.Time, estimatedMinutes int, questType types.QuestType) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if questID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.DailyQuest{}).
		Where("id = ? AND completed = ?", questID, false).
		Updates(map[string]interface{}{
			"date":              newDate,
			"estimated_minutes": estimatedMinutes,
			"type":              questType,
		}).Error
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}
