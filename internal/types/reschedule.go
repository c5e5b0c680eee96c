package types

import (
	"time"
)

// RescheduleStrategy is one of the four named policies for relocating a
// missed or postponed quest.
type RescheduleStrategy string

const (
	StrategyWeekendSpillover RescheduleStrategy = "WEEKEND_SPILLOVER"
	StrategyStackNextDay     RescheduleStrategy = "STACK_NEXT_DAY"
	StrategyExtendDeadline   RescheduleStrategy = "EXTEND_DEADLINE"
	StrategyReduceLoad       RescheduleStrategy = "REDUCE_LOAD"
)

type Feasibility string

const (
	FeasibilityHigh   Feasibility = "HIGH"
	FeasibilityMedium Feasibility = "MEDIUM"
	FeasibilityLow    Feasibility = "LOW"
)

// RescheduleDecision is the ephemeral output of the reschedule procedure,
// produced per request and consumed by the apply step.
type RescheduleDecision struct {
	Strategy    RescheduleStrategy `json:"strategy"`
	NewDate     time.Time          `json:"new_date"`
	// SplitDates is set only for REDUCE_LOAD: the moved item is divided
	// across these two days instead of relocated whole.
	SplitDates  []time.Time `json:"split_dates,omitempty"`
	Feasibility Feasibility `json:"feasibility"`
	Confidence  float64     `json:"confidence"`
	Rationale   string      `json:"rationale"`
	// ExtendsPlan is set for EXTEND_DEADLINE: applying the decision also
	// shifts the plan's effective end date by one day.
	ExtendsPlan bool `json:"extends_plan,omitempty"`
}

// RescheduleTargetContext is the snapshot of scheduling conditions the
// evaluation runs against.
type RescheduleTargetContext struct {
	RemainingDays      int       `json:"remaining_days"`
	TotalDays          int       `json:"total_days"`
	NextDayQuestCount  int       `json:"next_day_quest_count"`
	NextDayLoadMinutes int       `json:"next_day_load_minutes"`
	WeekendQuestCount  int       `json:"weekend_quest_count"`
	CompletionRate7Day float64   `json:"completion_rate_7day"`
	ConsecutiveMissed  int       `json:"consecutive_missed"`
	AvgDailyMinutes    int       `json:"avg_daily_minutes"`
	ExcludeWeekends    bool      `json:"exclude_weekends"`
	PlanEndDate        time.Time `json:"plan_end_date"`
	// Today anchors relative-day math; zero means time.Now.
	Today time.Time `json:"today"`
}
