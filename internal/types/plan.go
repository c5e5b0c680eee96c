package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusAbandoned PlanStatus = "abandoned"
)

// PlanUnit is one unit of content inside a plan, consumed in order by the
// quest generator.
type PlanUnit struct {
	UnitID           string `json:"unit_id"`
	Title            string `json:"title"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Order            int    `json:"order"`
	Done             bool   `json:"done"`
}

type StudyPlan struct {
	ID              uuid.UUID                     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID       uuid.UUID                     `gorm:"type:uuid;not null;index" json:"student_id"`
	Subject         string                        `gorm:"column:subject;not null" json:"subject"`
	Title           string                        `gorm:"column:title;not null" json:"title"`
	TotalDays       int                           `gorm:"column:total_days;not null" json:"total_days"`
	StartDate       time.Time                     `gorm:"column:start_date;not null" json:"start_date"`
	EndDate         time.Time                     `gorm:"column:end_date;not null" json:"end_date"`
	DailyMinutes    int                           `gorm:"column:daily_minutes;not null" json:"daily_minutes"`
	ExcludeWeekends bool                          `gorm:"column:exclude_weekends;not null;default:false" json:"exclude_weekends"`
	Status          PlanStatus                    `gorm:"column:status;not null;default:active;index" json:"status"`
	Units           datatypes.JSONSlice[PlanUnit] `gorm:"column:units" json:"units"`
	CreatedAt       time.Time                     `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time                     `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt                `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudyPlan) TableName() string { return "study_plan" }

// RemainingUnits returns the not-yet-done units in plan order.
func (p *StudyPlan) RemainingUnits() []PlanUnit {
	out := make([]PlanUnit, 0, len(p.Units))
	for _, u := range p.Units {
		if !u.Done {
			out = append(out, u)
		}
	}
	return out
}

// IncludesDate reports whether the plan schedules work on the given date.
func (p *StudyPlan) IncludesDate(date time.Time) bool {
	if p.ExcludeWeekends {
		switch date.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}
	return !date.Before(truncateDay(p.StartDate)) && !date.After(truncateDay(p.EndDate))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
