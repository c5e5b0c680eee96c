package services

import "errors"

// Hard domain errors indicate a caller-side contract breach and are returned
// as-is. Transient and conversational failures degrade instead (see the
// supervisor's retry-then-fallback path).
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrQuestNotFound   = errors.New("quest not found")
	// ErrQuestCompleted guards the reschedule invariant: a completed quest is
	// never a valid reschedule target.
	ErrQuestCompleted = errors.New("completed quest cannot be rescheduled")
	// ErrTopicNotInPlan rejects graded reviews for topics outside every
	// active plan.
	ErrTopicNotInPlan = errors.New("topic is not part of any active plan")
	ErrInvalidQuality = errors.New("review quality must be between 0 and 5")
	ErrInvalidMemory  = errors.New("invalid memory payload")
)
