package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

func memoryFixture(kind types.MemoryKind, subject, title, content string, importance float64, age time.Duration, now time.Time) *types.LearningMemory {
	return &types.LearningMemory{
		ID:         uuid.New(),
		StudentID:  uuid.New(),
		Kind:       kind,
		Title:      title,
		Content:    content,
		Subject:    subject,
		Importance: importance,
		CreatedAt:  now.Add(-age),
	}
}

func TestRankMemoriesDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	candidates := []*types.LearningMemory{
		memoryFixture(types.MemoryKindInsight, "math", "fractions insight", "struggles with fraction addition", 0.6, 48*time.Hour, now),
		memoryFixture(types.MemoryKindStruggle, "math", "quadratic struggle", "gave up on quadratic equations", 0.5, 24*time.Hour, now),
		memoryFixture(types.MemoryKindPreference, "math", "visual learner", "prefers diagrams over text", 0.7, 200*time.Hour, now),
	}

	first := rankMemories(candidates, "quadratic equations", nil, types.BurnoutLow, now, DefaultRankWeights(), 8)
	for i := 0; i < 5; i++ {
		again := rankMemories(candidates, "quadratic equations", nil, types.BurnoutLow, now, DefaultRankWeights(), 8)
		if len(again) != len(first) {
			t.Fatalf("run %d returned %d results, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j].Memory.ID != first[j].Memory.ID {
				t.Fatalf("run %d position %d: id %s, want %s", i, j, again[j].Memory.ID, first[j].Memory.ID)
			}
			if again[j].Score != first[j].Score {
				t.Fatalf("run %d position %d: score %v, want %v", i, j, again[j].Score, first[j].Score)
			}
		}
	}
}

func TestRankMemoriesRelevanceWins(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	relevant := memoryFixture(types.MemoryKindInsight, "math", "quadratic equations", "needs factoring drills for quadratic equations", 0.5, 24*time.Hour, now)
	unrelated := memoryFixture(types.MemoryKindInsight, "math", "geometry note", "confuses sine and cosine", 0.5, 24*time.Hour, now)

	ranked := rankMemories([]*types.LearningMemory{unrelated, relevant}, "help with quadratic equations", nil, types.BurnoutLow, now, DefaultRankWeights(), 8)
	if len(ranked) != 2 {
		t.Fatalf("got %d results, want 2", len(ranked))
	}
	if ranked[0].Memory.ID != relevant.ID {
		t.Fatalf("top result is %q, want the query-relevant memory", ranked[0].Memory.Title)
	}
}

func TestEmotionalSalienceBoostUnderBurnout(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	negative := memoryFixture(types.MemoryKindWrongAnswer, "math", "wrong answer", "missed every fraction problem", 0.5, 24*time.Hour, now)

	w := DefaultRankWeights()
	scoreLow := scoreMemory(negative, tokenize("fractions"), nil, types.BurnoutLow, now, w)
	scoreHigh := scoreMemory(negative, tokenize("fractions"), nil, types.BurnoutHigh, now, w)

	if scoreHigh <= scoreLow {
		t.Fatalf("negative memory score under HIGH burnout (%v) should exceed score under LOW (%v)", scoreHigh, scoreLow)
	}

	// A neutral memory is unaffected by the burnout condition.
	neutral := memoryFixture(types.MemoryKindInsight, "math", "insight", "missed every fraction problem", 0.5, 24*time.Hour, now)
	neutralLow := scoreMemory(neutral, tokenize("fractions"), nil, types.BurnoutLow, now, w)
	neutralHigh := scoreMemory(neutral, tokenize("fractions"), nil, types.BurnoutHigh, now, w)
	if neutralLow != neutralHigh {
		t.Fatalf("neutral memory score changed with burnout: %v vs %v", neutralLow, neutralHigh)
	}
}

func TestCandidateWindowExcludesStaleLowImportance(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		mem  *types.LearningMemory
		want bool
	}{
		{
			name: "fresh_low_importance_in",
			mem:  memoryFixture(types.MemoryKindInsight, "math", "t", "c", 0.3, 30*24*time.Hour, now),
			want: true,
		},
		{
			name: "stale_low_importance_out",
			mem:  memoryFixture(types.MemoryKindInsight, "math", "t", "c", 0.3, 120*24*time.Hour, now),
			want: false,
		},
		{
			name: "stale_high_retention_kind_in",
			mem:  memoryFixture(types.MemoryKindPreference, "math", "t", "c", 0.3, 400*24*time.Hour, now),
			want: true,
		},
		{
			name: "stale_high_importance_in",
			mem:  memoryFixture(types.MemoryKindInsight, "math", "t", "c", 0.9, 400*24*time.Hour, now),
			want: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := inCandidateWindow(tc.mem, now); got != tc.want {
				t.Fatalf("inCandidateWindow=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestRankMemoriesTieBreakMostRecentFirst(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	older := memoryFixture(types.MemoryKindDecision, "math", "same", "same content", 0.5, 48*time.Hour, now)
	newer := memoryFixture(types.MemoryKindDecision, "math", "same", "same content", 0.5, 24*time.Hour, now)

	// Zero recency weight makes the two memories score identically.
	w := RankWeights{Relevance: 0.5, Importance: 0.5}
	ranked := rankMemories([]*types.LearningMemory{older, newer}, "unrelated query", nil, types.BurnoutLow, now, w, 8)
	if len(ranked) != 2 {
		t.Fatalf("got %d results, want 2", len(ranked))
	}
	if ranked[0].Memory.ID != newer.ID {
		t.Fatal("tie should break toward the most recently created memory")
	}
}

func TestTruncateByBudget(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mems := []*types.LearningMemory{
		memoryFixture(types.MemoryKindInsight, "math", "aaaa", "bbbbbb", 0.9, time.Hour, now),
		memoryFixture(types.MemoryKindInsight, "math", "cccc", "dddddd", 0.8, 2*time.Hour, now),
		memoryFixture(types.MemoryKindInsight, "math", "eeee", "ffffff", 0.7, 3*time.Hour, now),
	}
	ranked := rankMemories(mems, "", nil, types.BurnoutLow, now, DefaultRankWeights(), 8)

	// Each entry is 10 chars; a 25-char budget keeps two.
	got := truncateByBudget(ranked, 25)
	if len(got) != 2 {
		t.Fatalf("got %d results after budget, want 2", len(got))
	}
	if all := truncateByBudget(ranked, 0); len(all) != 3 {
		t.Fatalf("zero budget should disable truncation, got %d", len(all))
	}
}

func TestFrequencyFactorDiminishingReturns(t *testing.T) {
	base := &types.LearningMemory{RetrievalCount: 0}
	once := &types.LearningMemory{RetrievalCount: 1}
	often := &types.LearningMemory{RetrievalCount: 10}
	saturated := &types.LearningMemory{RetrievalCount: 1000}

	if frequencyFactor(base) != 0 {
		t.Fatal("zero retrievals should score 0")
	}
	f1, f10, fSat := frequencyFactor(once), frequencyFactor(often), frequencyFactor(saturated)
	if !(f1 < f10 && f10 < 1.0001) {
		t.Fatalf("expected monotone growth: f1=%v f10=%v", f1, f10)
	}
	if fSat > 1 {
		t.Fatalf("frequency factor must stay in [0,1], got %v", fSat)
	}
	// Growth per retrieval shrinks.
	if (f10 - f1) > f1*9 {
		t.Fatalf("expected sub-linear growth, f1=%v f10=%v", f1, f10)
	}
}
