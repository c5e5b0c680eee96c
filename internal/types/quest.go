package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestType string

const (
	QuestTypeNewUnit   QuestType = "new_unit"
	QuestTypeReview    QuestType = "review"
	QuestTypeSpillover QuestType = "spillover"
	QuestTypeSplit     QuestType = "split"
)

// DailyQuest is one unit of assigned work for one date. Completed quests are
// immutable: reschedules must go through the reschedule contract, which
// rejects them.
type DailyQuest struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"plan_id"`
	StudentID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	Date             time.Time      `gorm:"column:date;not null;index" json:"date"`
	UnitID           string         `gorm:"column:unit_id;not null" json:"unit_id"`
	Title            string         `gorm:"column:title;not null" json:"title"`
	Type             QuestType      `gorm:"column:type;not null;default:new_unit" json:"type"`
	EstimatedMinutes int            `gorm:"column:estimated_minutes;not null" json:"estimated_minutes"`
	Completed        bool           `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt      *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DailyQuest) TableName() string { return "daily_quest" }
