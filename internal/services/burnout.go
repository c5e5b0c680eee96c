package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/repos"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

// BurnoutThresholds tune the risk scoring. Defaults match the coaching
// heuristics; all of them are env-tunable through app config.
type BurnoutThresholds struct {
	HighMissedDays      int
	MediumMissedDays    int
	LowCompletionRate   float64
	WeakCompletionRate  float64
	HighNegativeCount   int
	MediumNegativeCount int
}

func DefaultBurnoutThresholds() BurnoutThresholds {
	return BurnoutThresholds{
		HighMissedDays:      3,
		MediumMissedDays:    2,
		LowCompletionRate:   0.4,
		WeakCompletionRate:  0.6,
		HighNegativeCount:   5,
		MediumNegativeCount: 3,
	}
}

type BurnoutService interface {
	// Assess derives the indicator from recent quest completion and
	// negative-memory frequency. It is recomputed per request and never
	// persisted.
	Assess(ctx context.Context, studentID uuid.UUID, now time.Time) (*types.BurnoutIndicator, error)
}

type burnoutService struct {
	db         *gorm.DB
	log        *logger.Logger
	questRepo  repos.QuestRepo
	memoryRepo repos.MemoryRepo
	thresholds BurnoutThresholds
}

func NewBurnoutService(db *gorm.DB, log *logger.Logger, questRepo repos.QuestRepo, memoryRepo repos.MemoryRepo, thresholds BurnoutThresholds) BurnoutService {
	if thresholds == (BurnoutThresholds{}) {
		thresholds = DefaultBurnoutThresholds()
	}
	return &burnoutService{
		db:         db,
		log:        log.With("service", "BurnoutService"),
		questRepo:  questRepo,
		memoryRepo: memoryRepo,
		thresholds: thresholds,
	}
}

var negativeKinds = []types.MemoryKind{
	types.MemoryKindStruggle,
	types.MemoryKindWrongAnswer,
	types.MemoryKindEmotionalSignal,
}

func (s *burnoutService) Assess(ctx context.Context, studentID uuid.UUID, now time.Time) (*types.BurnoutIndicator, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	weekAgo := now.AddDate(0, 0, -7)

	quests, err := s.questRepo.ListByStudentAndDateRange(ctx, nil, studentID, weekAgo, now)
	if err != nil {
		return nil, err
	}
	negatives, err := s.memoryRepo.CountByKindsSince(ctx, nil, studentID, negativeKinds, weekAgo)
	if err != nil {
		return nil, err
	}

	stats := completionStats(quests, now)
	return assessBurnout(stats, int(negatives), s.thresholds), nil
}

// assessBurnout scores the signals. HIGH dominates, then MEDIUM; students
// with no history score LOW.
func assessBurnout(stats types.WeeklyStats, negativeCount int, th BurnoutThresholds) *types.BurnoutIndicator {
	indicator := &types.BurnoutIndicator{
		Risk:                types.BurnoutLow,
		ConsecutiveMissed:   stats.ConsecutiveMissed,
		CompletionRate7Day:  stats.CompletionRate,
		NegativeMemoryCount: negativeCount,
	}

	hasHistory := stats.TotalCount > 0
	switch {
	case stats.ConsecutiveMissed >= th.HighMissedDays,
		hasHistory && stats.CompletionRate < th.LowCompletionRate && stats.ConsecutiveMissed >= th.MediumMissedDays,
		negativeCount >= th.HighNegativeCount:
		indicator.Risk = types.BurnoutHigh
	case stats.ConsecutiveMissed >= th.MediumMissedDays,
		hasHistory && stats.CompletionRate < th.WeakCompletionRate,
		negativeCount >= th.MediumNegativeCount:
		indicator.Risk = types.BurnoutMedium
	}
	return indicator
}

// completionStats computes the rolling 7-day completion rate and the current
// consecutive-missed-day streak, counting only days that had assigned work.
func completionStats(quests []*types.DailyQuest, now time.Time) types.WeeklyStats {
	stats := types.WeeklyStats{}
	byDay := map[string][]*types.DailyQuest{}
	for _, q := range quests {
		if q == nil {
			continue
		}
		stats.TotalCount++
		if q.Completed {
			stats.CompletedCount++
		}
		key := q.Date.Format("2006-01-02")
		byDay[key] = append(byDay[key], q)
	}
	if stats.TotalCount > 0 {
		stats.CompletionRate = float64(stats.CompletedCount) / float64(stats.TotalCount)
	}

	// Walk backwards from yesterday; today is still in progress.
	for offset := 1; offset <= 7; offset++ {
		key := now.AddDate(0, 0, -offset).Format("2006-01-02")
		dayQuests, assigned := byDay[key]
		if !assigned {
			continue
		}
		anyDone := false
		for _, q := range dayQuests {
			if q.Completed {
				anyDone = true
				break
			}
		}
		if anyDone {
			break
		}
		stats.ConsecutiveMissed++
	}
	return stats
}
