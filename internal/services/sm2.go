package services

import (
	"math"
	"time"

	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

const (
	easinessInitial = 2.5
	easinessFloor   = 1.3
	masteryMax      = 10.0
	// masterySmoothing blends the prior mastery estimate with the graded
	// quality: M' = 0.7*M + 0.3*(q/5*10).
	masterySmoothing = 0.7
)

// sm2State is the portion of TopicMastery the review math operates on.
type sm2State struct {
	Easiness     float64
	IntervalDays int
	Repetitions  int
	Mastery      float64
}

func newSM2State() sm2State {
	return sm2State{
		Easiness:     easinessInitial,
		IntervalDays: 1,
		Repetitions:  0,
		Mastery:      0,
	}
}

// applySM2 runs one graded review through the SM-2 variant. quality is an
// integer grade in [0,5]. The returned nextDue is measured from now.
func applySM2(state sm2State, quality int, now time.Time) (sm2State, time.Time) {
	q := float64(quality)

	easiness := state.Easiness + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if easiness < easinessFloor {
		easiness = easinessFloor
	}

	repetitions := state.Repetitions
	interval := state.IntervalDays
	if quality < 3 {
		// Failure restarts the interval ladder.
		repetitions = 0
		interval = 1
	} else {
		repetitions++
		switch repetitions {
		case 1:
			interval = 1
		case 2:
			interval = 6
		default:
			interval = int(math.Round(float64(state.IntervalDays) * easiness))
		}
	}

	mastery := masterySmoothing*state.Mastery + (1-masterySmoothing)*(q/5*masteryMax)
	if mastery < 0 {
		mastery = 0
	}
	if mastery > masteryMax {
		mastery = masteryMax
	}

	next := sm2State{
		Easiness:     easiness,
		IntervalDays: interval,
		Repetitions:  repetitions,
		Mastery:      mastery,
	}
	return next, now.AddDate(0, 0, interval)
}

// masterySummary condenses per-topic rows for the context bundle.
func masterySummary(rows []*types.TopicMastery) *types.MasterySummary {
	summary := &types.MasterySummary{
		SubjectAverages: subjectAverages(rows),
		WeakTopics:      []string{},
		TopicCount:      len(rows),
	}
	for _, row := range rows {
		if row != nil && row.Mastery < masteryGapThreshold {
			summary.WeakTopics = append(summary.WeakTopics, row.TopicID)
		}
	}
	return summary
}
