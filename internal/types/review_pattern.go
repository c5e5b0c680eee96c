package types

import "time"

// ReviewPatternSummary is a derived, cacheable digest of a student's review
// behavior within one subject. It is rebuilt from memory rows on demand and
// cached with a TTL; memory writes invalidate it.
type ReviewPatternSummary struct {
	Subject          string    `json:"subject"`
	MemoryCount      int       `json:"memory_count"`
	StruggleCount    int       `json:"struggle_count"`
	WrongAnswerCount int       `json:"wrong_answer_count"`
	MasteryEvents    int       `json:"mastery_events"`
	AvgImportance    float64   `json:"avg_importance"`
	GeneratedAt      time.Time `json:"generated_at"`
}
