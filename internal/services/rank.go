package services

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

// RankWeights are the six re-ranking factor weights. Defaults sum to 1.0;
// the emotional weight doubles when burnout risk is elevated, which is the
// one context-conditional adjustment.
type RankWeights struct {
	Recency    float64 `yaml:"recency"`
	Relevance  float64 `yaml:"relevance"`
	Importance float64 `yaml:"importance"`
	Emotional  float64 `yaml:"emotional"`
	MasteryGap float64 `yaml:"mastery_gap"`
	Frequency  float64 `yaml:"frequency"`
}

func DefaultRankWeights() RankWeights {
	return RankWeights{
		Recency:    0.20,
		Relevance:  0.25,
		Importance: 0.20,
		Emotional:  0.10,
		MasteryGap: 0.15,
		Frequency:  0.10,
	}
}

const (
	// recencyHalfLife is the age at which the recency factor halves.
	recencyHalfLife = 14 * 24 * time.Hour
	// lowImportanceWindow bounds candidate selection for forgettable kinds.
	lowImportanceWindow = 90 * 24 * time.Hour
	// highImportanceFloor marks a memory as retained regardless of kind.
	highImportanceFloor = 0.8
	// frequencyCap is where log-scaled reinforcement saturates.
	frequencyCap = 20
	// masteryGapThreshold marks a subject as weak.
	masteryGapThreshold = 4.0
)

// inCandidateWindow applies the recency window of phase one. High-retention
// kinds and high-importance memories never age out of candidacy.
func inCandidateWindow(m *types.LearningMemory, now time.Time) bool {
	if m.Kind.HighRetention() || m.Importance >= highImportanceFloor {
		return true
	}
	return now.Sub(m.CreatedAt) <= lowImportanceWindow
}

func recencyFactor(m *types.LearningMemory, now time.Time) float64 {
	age := now.Sub(m.CreatedAt)
	if age <= 0 {
		return 1
	}
	return math.Pow(0.5, age.Hours()/recencyHalfLife.Hours())
}

// relevanceFactor is lexical token overlap between the query and the
// memory's title+content, normalized by query size.
func relevanceFactor(queryTokens map[string]struct{}, m *types.LearningMemory) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	memTokens := tokenize(m.Title + " " + m.Content)
	if len(memTokens) == 0 {
		return 0
	}
	hits := 0
	for tok := range queryTokens {
		if _, ok := memTokens[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

func emotionalFactor(m *types.LearningMemory) float64 {
	if m.Kind.NegativeEmotion() {
		return 1
	}
	return 0
}

func masteryGapFactor(m *types.LearningMemory, masteryBySubject map[string]float64) float64 {
	avg, ok := masteryBySubject[m.Subject]
	if !ok {
		return 0
	}
	if avg < masteryGapThreshold {
		return 1
	}
	return 0
}

func frequencyFactor(m *types.LearningMemory) float64 {
	count := m.RetrievalCount
	if count <= 0 {
		return 0
	}
	if count > frequencyCap {
		count = frequencyCap
	}
	return math.Log1p(float64(count)) / math.Log1p(float64(frequencyCap))
}

// scoreMemory combines the six factors. Burnout only conditions the
// emotional weight: MEDIUM/HIGH doubles it, so negative memories surface
// when the student is struggling.
func scoreMemory(m *types.LearningMemory, queryTokens map[string]struct{}, masteryBySubject map[string]float64, burnout types.BurnoutRisk, now time.Time, w RankWeights) float64 {
	emotionalWeight := w.Emotional
	if burnout.Elevated() {
		emotionalWeight *= 2
	}
	return w.Recency*recencyFactor(m, now) +
		w.Relevance*relevanceFactor(queryTokens, m) +
		w.Importance*clamp01(m.Importance) +
		emotionalWeight*emotionalFactor(m) +
		w.MasteryGap*masteryGapFactor(m, masteryBySubject) +
		w.Frequency*frequencyFactor(m)
}

// rankMemories runs phase two over the candidate set and returns the top
// ranked memories. Deterministic for fixed inputs and now; ties break by
// most recent creation, then by id.
func rankMemories(candidates []*types.LearningMemory, query string, masteryBySubject map[string]float64, burnout types.BurnoutRisk, now time.Time, w RankWeights, limit int) []types.RetrievedMemory {
	queryTokens := tokenize(query)

	scored := make([]types.RetrievedMemory, 0, len(candidates))
	for _, m := range candidates {
		if m == nil || !inCandidateWindow(m, now) {
			continue
		}
		scored = append(scored, types.RetrievedMemory{
			Memory: *m,
			Score:  scoreMemory(m, queryTokens, masteryBySubject, burnout, now, w),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].Memory.CreatedAt.Equal(scored[j].Memory.CreatedAt) {
			return scored[i].Memory.CreatedAt.After(scored[j].Memory.CreatedAt)
		}
		return scored[i].Memory.ID.String() < scored[j].Memory.ID.String()
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// truncateByBudget drops trailing memories once the cumulative content size
// exceeds the character budget, so injected context stays bounded no matter
// how large K is.
func truncateByBudget(ranked []types.RetrievedMemory, budget int) []types.RetrievedMemory {
	if budget <= 0 {
		return ranked
	}
	used := 0
	for i, rm := range ranked {
		used += len(rm.Memory.Title) + len(rm.Memory.Content)
		if used > budget {
			return ranked[:i]
		}
	}
	return ranked
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len([]rune(tok)) < 2 {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
