package types

import (
	"time"

	"github.com/google/uuid"
)

// MemoryKind is the closed classification of a captured learning memory.
type MemoryKind string

const (
	MemoryKindCorrection      MemoryKind = "correction"
	MemoryKindDecision        MemoryKind = "decision"
	MemoryKindInsight         MemoryKind = "insight"
	MemoryKindBehaviorPattern MemoryKind = "behavior_pattern"
	MemoryKindKnowledgeGap    MemoryKind = "knowledge_gap"
	MemoryKindMasteryEvent    MemoryKind = "mastery_event"
	MemoryKindStruggle        MemoryKind = "struggle"
	MemoryKindWrongAnswer     MemoryKind = "wrong_answer"
	MemoryKindStrategy        MemoryKind = "strategy"
	MemoryKindPreference      MemoryKind = "preference"
	MemoryKindEmotionalSignal MemoryKind = "emotional_signal"
	MemoryKindPlanPerformance MemoryKind = "plan_performance"
	MemoryKindReviewPattern   MemoryKind = "review_pattern"
)

// AllMemoryKinds lists every valid kind, used for input validation.
var AllMemoryKinds = []MemoryKind{
	MemoryKindCorrection, MemoryKindDecision, MemoryKindInsight,
	MemoryKindBehaviorPattern, MemoryKindKnowledgeGap, MemoryKindMasteryEvent,
	MemoryKindStruggle, MemoryKindWrongAnswer, MemoryKindStrategy,
	MemoryKindPreference, MemoryKindEmotionalSignal, MemoryKindPlanPerformance,
	MemoryKindReviewPattern,
}

func (k MemoryKind) Valid() bool {
	for _, known := range AllMemoryKinds {
		if k == known {
			return true
		}
	}
	return false
}

// NegativeEmotion reports whether the kind carries negative emotional weight.
// These memories rank higher when burnout risk is elevated.
func (k MemoryKind) NegativeEmotion() bool {
	switch k {
	case MemoryKindStruggle, MemoryKindWrongAnswer, MemoryKindEmotionalSignal:
		return true
	default:
		return false
	}
}

// HighRetention reports whether the kind is kept outside the default recency
// window during candidate selection.
func (k MemoryKind) HighRetention() bool {
	switch k {
	case MemoryKindCorrection, MemoryKindDecision, MemoryKindKnowledgeGap,
		MemoryKindPreference, MemoryKindStrategy, MemoryKindReviewPattern:
		return true
	default:
		return false
	}
}

// LearningMemory is an immutable fact captured from an interaction.
// Rows are append-only; pruning is age-based and policy-driven.
type LearningMemory struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	Kind           MemoryKind `gorm:"column:kind;not null;index" json:"kind"`
	Title          string     `gorm:"column:title;not null" json:"title"`
	Content        string     `gorm:"column:content;not null" json:"content"`
	Subject        string     `gorm:"column:subject;not null;index" json:"subject"`
	Importance     float64    `gorm:"column:importance;not null" json:"importance"`
	RetrievalCount int        `gorm:"column:retrieval_count;not null;default:0" json:"retrieval_count"`
	CreatedAt      time.Time  `gorm:"not null;default:now();index" json:"created_at"`
}

func (LearningMemory) TableName() string { return "learning_memory" }
