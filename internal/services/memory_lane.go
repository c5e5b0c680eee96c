package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/clients/redis"
	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/repos"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

// MemoryLaneConfig bounds retrieval output.
type MemoryLaneConfig struct {
	TopK       int
	CharBudget int
	Weights    RankWeights
}

func DefaultMemoryLaneConfig() MemoryLaneConfig {
	return MemoryLaneConfig{
		TopK:       8,
		CharBudget: 2000,
		Weights:    DefaultRankWeights(),
	}
}

type CaptureInput struct {
	Kind       types.MemoryKind
	Title      string
	Content    string
	Subject    string
	Importance float64
}

type RetrieveQuery struct {
	StudentID uuid.UUID
	Query     string
	Subject   string
	Burnout   types.BurnoutRisk
	Now       time.Time
	// Limit overrides the configured TopK when positive.
	Limit int
}

type MemoryLaneService interface {
	Capture(ctx context.Context, studentID uuid.UUID, in CaptureInput) (*types.LearningMemory, error)
	// Retrieve never errors on an empty store; it returns an empty slice.
	Retrieve(ctx context.Context, q RetrieveQuery) ([]types.RetrievedMemory, error)
	ReviewPatterns(ctx context.Context, studentID uuid.UUID, subject string) (*types.ReviewPatternSummary, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

type memoryLaneService struct {
	db           *gorm.DB
	log          *logger.Logger
	memoryRepo   repos.MemoryRepo
	masteryRepo  repos.MasteryRepo
	patternCache redis.PatternCache
	cfg          MemoryLaneConfig
}

func NewMemoryLaneService(db *gorm.DB, log *logger.Logger, memoryRepo repos.MemoryRepo, masteryRepo repos.MasteryRepo, patternCache redis.PatternCache, cfg MemoryLaneConfig) MemoryLaneService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultMemoryLaneConfig().TopK
	}
	if cfg.CharBudget <= 0 {
		cfg.CharBudget = DefaultMemoryLaneConfig().CharBudget
	}
	if cfg.Weights == (RankWeights{}) {
		cfg.Weights = DefaultRankWeights()
	}
	return &memoryLaneService{
		db:           db,
		log:          log.With("service", "MemoryLaneService"),
		memoryRepo:   memoryRepo,
		masteryRepo:  masteryRepo,
		patternCache: patternCache,
		cfg:          cfg,
	}
}

func (s *memoryLaneService) Capture(ctx context.Context, studentID uuid.UUID, in CaptureInput) (*types.LearningMemory, error) {
	if studentID == uuid.Nil || !in.Kind.Valid() || strings.TrimSpace(in.Content) == "" {
		return nil, ErrInvalidMemory
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = "general"
	}
	memory := &types.LearningMemory{
		StudentID:  studentID,
		Kind:       in.Kind,
		Title:      strings.TrimSpace(in.Title),
		Content:    strings.TrimSpace(in.Content),
		Subject:    subject,
		Importance: clamp01(in.Importance),
		CreatedAt:  time.Now().UTC(),
	}
	created, err := s.memoryRepo.Append(ctx, nil, memory)
	if err != nil {
		return nil, err
	}
	// New facts make the derived pattern stale.
	if err := s.patternCache.Invalidate(ctx, studentID, subject); err != nil {
		s.log.Warn("Review-pattern invalidation failed", "student_id", studentID, "subject", subject, "error", err)
	}
	return created, nil
}

func (s *memoryLaneService) Retrieve(ctx context.Context, q RetrieveQuery) ([]types.RetrievedMemory, error) {
	if q.StudentID == uuid.Nil {
		return []types.RetrievedMemory{}, nil
	}
	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.cfg.TopK
	}

	candidates, err := s.memoryRepo.ListByStudent(ctx, nil, q.StudentID, q.Subject)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []types.RetrievedMemory{}, nil
	}

	masteryBySubject, err := s.subjectAverages(ctx, q.StudentID)
	if err != nil {
		// Ranking degrades without the mastery-gap factor rather than failing
		// the whole retrieval.
		s.log.Warn("Mastery lookup failed during retrieval", "student_id", q.StudentID, "error", err)
		masteryBySubject = map[string]float64{}
	}

	ranked := rankMemories(candidates, q.Query, masteryBySubject, q.Burnout, now, s.cfg.Weights, limit)
	ranked = truncateByBudget(ranked, s.cfg.CharBudget)

	// Reinforcement bump is best effort; retrieval output does not depend
	// on it.
	if len(ranked) > 0 {
		ids := make([]uuid.UUID, 0, len(ranked))
		for _, rm := range ranked {
			ids = append(ids, rm.Memory.ID)
		}
		if err := s.memoryRepo.IncrementRetrievalCounts(ctx, nil, ids); err != nil {
			s.log.Warn("Retrieval count bump failed", "student_id", q.StudentID, "error", err)
		}
	}
	return ranked, nil
}

func (s *memoryLaneService) ReviewPatterns(ctx context.Context, studentID uuid.UUID, subject string) (*types.ReviewPatternSummary, error) {
	if studentID == uuid.Nil {
		return nil, ErrStudentNotFound
	}
	if subject == "" {
		subject = "general"
	}
	if cached, err := s.patternCache.Get(ctx, studentID, subject); err != nil {
		s.log.Warn("Review-pattern cache read failed", "student_id", studentID, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	rows, err := s.memoryRepo.ListByStudent(ctx, nil, studentID, subject)
	if err != nil {
		return nil, err
	}
	summary := buildReviewPattern(subject, rows, time.Now().UTC())
	if err := s.patternCache.Set(ctx, studentID, subject, summary); err != nil {
		s.log.Warn("Review-pattern cache write failed", "student_id", studentID, "error", err)
	}
	return summary, nil
}

func (s *memoryLaneService) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	keep := make([]types.MemoryKind, 0, len(types.AllMemoryKinds))
	for _, k := range types.AllMemoryKinds {
		if k.HighRetention() {
			keep = append(keep, k)
		}
	}
	return s.memoryRepo.PruneOlderThan(ctx, nil, cutoff, keep)
}

func (s *memoryLaneService) subjectAverages(ctx context.Context, studentID uuid.UUID) (map[string]float64, error) {
	rows, err := s.masteryRepo.ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, err
	}
	return subjectAverages(rows), nil
}

func subjectAverages(rows []*types.TopicMastery) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, row := range rows {
		if row == nil || row.Subject == "" {
			continue
		}
		sums[row.Subject] += row.Mastery
		counts[row.Subject]++
	}
	out := make(map[string]float64, len(sums))
	for subject, sum := range sums {
		out[subject] = sum / float64(counts[subject])
	}
	return out
}

func buildReviewPattern(subject string, rows []*types.LearningMemory, now time.Time) *types.ReviewPatternSummary {
	summary := &types.ReviewPatternSummary{Subject: subject, GeneratedAt: now}
	var importanceSum float64
	for _, m := range rows {
		if m == nil {
			continue
		}
		summary.MemoryCount++
		importanceSum += m.Importance
		switch m.Kind {
		case types.MemoryKindStruggle:
			summary.StruggleCount++
		case types.MemoryKindWrongAnswer:
			summary.WrongAnswerCount++
		case types.MemoryKindMasteryEvent:
			summary.MasteryEvents++
		}
	}
	if summary.MemoryCount > 0 {
		summary.AvgImportance = importanceSum / float64(summary.MemoryCount)
	}
	return summary
}
