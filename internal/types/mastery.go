package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TopicMastery is the per-(student, topic) spaced-repetition state.
// Mutated only by the mastery manager after a graded review.
type TopicMastery struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_student_topic,unique" json:"student_id"`
	TopicID      string         `gorm:"column:topic_id;not null;index:idx_student_topic,unique" json:"topic_id"`
	Subject      string         `gorm:"column:subject;index" json:"subject"`
	Mastery      float64        `gorm:"column:mastery;not null" json:"mastery"`
	Easiness     float64        `gorm:"column:easiness;not null" json:"easiness"`
	IntervalDays int            `gorm:"column:interval_days;not null" json:"interval_days"`
	Repetitions  int            `gorm:"column:repetitions;not null" json:"repetitions"`
	NextDue      time.Time      `gorm:"column:next_due;not null;index" json:"next_due"`
	LastReviewed *time.Time     `gorm:"column:last_reviewed" json:"last_reviewed,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TopicMastery) TableName() string { return "topic_mastery" }
