package types

import (
	"time"

	"github.com/google/uuid"
)

// AgentRole is the closed set of specialized reasoning behaviors the router
// can dispatch to.
type AgentRole string

const (
	RoleAdmission AgentRole = "admission"
	RolePlanner   AgentRole = "planner"
	RoleCoach     AgentRole = "coach"
	RoleAnalyst   AgentRole = "analyst"
)

// ChatRequest is the inbound shape consumed from the chat/API layer.
type ChatRequest struct {
	StudentID uuid.UUID              `json:"studentId"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	// QuestContext optionally carries a pre-computed snapshot of today's
	// quests, active plans and weekly stats so the engine can skip the
	// corresponding fetches.
	QuestContext *QuestContextSnapshot `json:"questContext,omitempty"`
}

type QuestContextSnapshot struct {
	TodayQuests []DailyQuest `json:"todayQuests"`
	ActivePlans []StudyPlan  `json:"activePlans"`
	WeeklyStats *WeeklyStats `json:"weeklyStats,omitempty"`
}

type WeeklyStats struct {
	CompletionRate    float64 `json:"completion_rate"`
	ConsecutiveMissed int     `json:"consecutive_missed"`
	CompletedCount    int     `json:"completed_count"`
	TotalCount        int     `json:"total_count"`
}

// AgentAction is a structured directive for the business layer; the engine
// emits them but never executes UI-level effects.
type AgentAction struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type ChatResponse struct {
	AgentRole         AgentRole            `json:"agent_role"`
	Message           string               `json:"message"`
	Actions           []AgentAction        `json:"actions"`
	MessageActions    []AgentAction        `json:"message_actions,omitempty"`
	RescheduleOptions []RescheduleDecision `json:"reschedule_options,omitempty"`
	SuggestedFollowUp []string             `json:"suggested_follow_up,omitempty"`
}

// RetrievedMemory is a ranked memory plus its combined score, as injected
// into the context bundle.
type RetrievedMemory struct {
	Memory LearningMemory `json:"memory"`
	Score  float64        `json:"score"`
}

// TopicDue is one overdue spaced-repetition item.
type TopicDue struct {
	TopicID     string    `json:"topic_id"`
	Subject     string    `json:"subject"`
	Mastery     float64   `json:"mastery"`
	NextDue     time.Time `json:"next_due"`
	OverdueDays int       `json:"overdue_days"`
}

// MasterySummary condenses per-topic state for the context bundle.
type MasterySummary struct {
	SubjectAverages map[string]float64 `json:"subject_averages"`
	WeakTopics      []string           `json:"weak_topics"`
	TopicCount      int                `json:"topic_count"`
}

// ContextBundle is the bounded-size assembly handed to the selected agent.
type ContextBundle struct {
	Profile          *StudentProfile   `json:"profile"`
	RelevantMemories []RetrievedMemory `json:"relevant_memories"`
	Mastery          *MasterySummary   `json:"mastery"`
	DueTopics        []TopicDue        `json:"due_topics"`
	TodayQuests      []DailyQuest      `json:"today_quests"`
	ActivePlans      []StudyPlan       `json:"active_plans"`
	Burnout          *BurnoutIndicator `json:"burnout"`
}
