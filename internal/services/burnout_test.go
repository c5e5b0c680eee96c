package services

import (
	"testing"
	"time"

	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

func questOn(date time.Time, completed bool) *types.DailyQuest {
	return &types.DailyQuest{Date: date, Completed: completed}
}

func TestCompletionStats(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.AddDate(0, 0, -offset) }

	quests := []*types.DailyQuest{
		questOn(day(1), false),
		questOn(day(1), false),
		questOn(day(2), false),
		questOn(day(3), true),
		questOn(day(4), true),
	}
	stats := completionStats(quests, now)

	if stats.TotalCount != 5 || stats.CompletedCount != 2 {
		t.Fatalf("counts=%d/%d, want 2/5", stats.CompletedCount, stats.TotalCount)
	}
	if stats.CompletionRate != 0.4 {
		t.Fatalf("rate=%v, want 0.4", stats.CompletionRate)
	}
	// Days 1 and 2 fully missed, day 3 had a completion.
	if stats.ConsecutiveMissed != 2 {
		t.Fatalf("consecutiveMissed=%d, want 2", stats.ConsecutiveMissed)
	}
}

func TestCompletionStatsSkipsUnassignedDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.AddDate(0, 0, -offset) }

	// Day 2 had nothing assigned; the miss streak bridges across it.
	quests := []*types.DailyQuest{
		questOn(day(1), false),
		questOn(day(3), false),
		questOn(day(4), true),
	}
	stats := completionStats(quests, now)
	if stats.ConsecutiveMissed != 2 {
		t.Fatalf("consecutiveMissed=%d, want 2 (unassigned days do not break the streak)", stats.ConsecutiveMissed)
	}
}

func TestAssessBurnoutLevels(t *testing.T) {
	th := DefaultBurnoutThresholds()
	cases := []struct {
		name      string
		stats     types.WeeklyStats
		negatives int
		want      types.BurnoutRisk
	}{
		{
			name:  "no_history_is_low",
			stats: types.WeeklyStats{},
			want:  types.BurnoutLow,
		},
		{
			name:  "healthy_is_low",
			stats: types.WeeklyStats{CompletionRate: 0.9, TotalCount: 10, CompletedCount: 9},
			want:  types.BurnoutLow,
		},
		{
			name:  "three_missed_days_is_high",
			stats: types.WeeklyStats{ConsecutiveMissed: 3, TotalCount: 6, CompletionRate: 0.5},
			want:  types.BurnoutHigh,
		},
		{
			name:  "low_rate_with_two_misses_is_high",
			stats: types.WeeklyStats{ConsecutiveMissed: 2, TotalCount: 10, CompletionRate: 0.3},
			want:  types.BurnoutHigh,
		},
		{
			name:      "many_negative_memories_is_high",
			stats:     types.WeeklyStats{TotalCount: 5, CompletionRate: 0.8},
			negatives: 5,
			want:      types.BurnoutHigh,
		},
		{
			name:  "two_missed_days_is_medium",
			stats: types.WeeklyStats{ConsecutiveMissed: 2, TotalCount: 6, CompletionRate: 0.7},
			want:  types.BurnoutMedium,
		},
		{
			name:  "weak_rate_is_medium",
			stats: types.WeeklyStats{TotalCount: 10, CompletionRate: 0.5},
			want:  types.BurnoutMedium,
		},
		{
			name:      "some_negative_memories_is_medium",
			stats:     types.WeeklyStats{TotalCount: 5, CompletionRate: 0.8},
			negatives: 3,
			want:      types.BurnoutMedium,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := assessBurnout(tc.stats, tc.negatives, th)
			if got.Risk != tc.want {
				t.Fatalf("risk=%s, want %s", got.Risk, tc.want)
			}
		})
	}
}
