package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StudentProfile struct {
	ID            uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name          string                      `gorm:"column:name;not null" json:"name"`
	Grade         string                      `gorm:"column:grade" json:"grade"`
	Subjects      datatypes.JSONSlice[string] `gorm:"column:subjects" json:"subjects"`
	Goals         datatypes.JSONSlice[string] `gorm:"column:goals" json:"goals"`
	LearningStyle datatypes.JSONMap           `gorm:"column:learning_style" json:"learning_style"`
	// ActiveLevelTest marks an in-progress placement; while set, routing is
	// pinned to the admission role.
	ActiveLevelTest bool           `gorm:"column:active_level_test;not null;default:false" json:"active_level_test"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudentProfile) TableName() string { return "student_profile" }
