package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/locks"
	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/repos"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type MasteryService interface {
	// RecordReview applies one graded review (quality in [0,5]) and returns
	// the updated state. Reviews are serialized per student; nextDue never
	// moves backwards for a topic.
	RecordReview(ctx context.Context, studentID uuid.UUID, topicID string, quality int) (*types.TopicMastery, error)
	DueTopics(ctx context.Context, studentID uuid.UUID, asOf time.Time) ([]types.TopicDue, error)
	Summary(ctx context.Context, studentID uuid.UUID) (*types.MasterySummary, error)
}

type masteryService struct {
	db          *gorm.DB
	log         *logger.Logger
	masteryRepo repos.MasteryRepo
	planRepo    repos.PlanRepo
	locks       *locks.StudentLocks
}

func NewMasteryService(db *gorm.DB, log *logger.Logger, masteryRepo repos.MasteryRepo, planRepo repos.PlanRepo, studentLocks *locks.StudentLocks) MasteryService {
	return &masteryService{
		db:          db,
		log:         log.With("service", "MasteryService"),
		masteryRepo: masteryRepo,
		planRepo:    planRepo,
		locks:       studentLocks,
	}
}

func (s *masteryService) RecordReview(ctx context.Context, studentID uuid.UUID, topicID string, quality int) (*types.TopicMastery, error) {
	if quality < 0 || quality > 5 {
		return nil, ErrInvalidQuality
	}
	if studentID == uuid.Nil || topicID == "" {
		return nil, ErrTopicNotInPlan
	}

	subject, ok, err := s.topicSubject(ctx, studentID, topicID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTopicNotInPlan
	}

	unlock := s.locks.Lock(studentID)
	defer unlock()

	now := time.Now().UTC()
	row, err := s.masteryRepo.Get(ctx, nil, studentID, topicID)
	if err != nil {
		return nil, err
	}

	state := newSM2State()
	if row == nil {
		row = &types.TopicMastery{
			StudentID: studentID,
			TopicID:   topicID,
			Subject:   subject,
			CreatedAt: now,
		}
	} else {
		state = sm2State{
			Easiness:     row.Easiness,
			IntervalDays: row.IntervalDays,
			Repetitions:  row.Repetitions,
			Mastery:      row.Mastery,
		}
	}

	next, nextDue := applySM2(state, quality, now)
	if !row.NextDue.IsZero() && nextDue.Before(row.NextDue) && quality >= 3 {
		// Passing reviews never pull the schedule earlier.
		nextDue = row.NextDue
	}

	row.Easiness = next.Easiness
	row.IntervalDays = next.IntervalDays
	row.Repetitions = next.Repetitions
	row.Mastery = next.Mastery
	row.NextDue = nextDue
	row.LastReviewed = &now
	if row.Subject == "" {
		row.Subject = subject
	}

	if err := s.masteryRepo.Upsert(ctx, nil, row); err != nil {
		return nil, err
	}
	s.log.Debug("Recorded review", "student_id", studentID, "topic", topicID, "quality", quality, "interval_days", row.IntervalDays)
	return row, nil
}

func (s *masteryService) DueTopics(ctx context.Context, studentID uuid.UUID, asOf time.Time) ([]types.TopicDue, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	rows, err := s.masteryRepo.ListDue(ctx, nil, studentID, asOf)
	if err != nil {
		return nil, err
	}
	out := make([]types.TopicDue, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.TopicDue{
			TopicID:     row.TopicID,
			Subject:     row.Subject,
			Mastery:     row.Mastery,
			NextDue:     row.NextDue,
			OverdueDays: int(asOf.Sub(row.NextDue).Hours() / 24),
		})
	}
	return out, nil
}

func (s *masteryService) Summary(ctx context.Context, studentID uuid.UUID) (*types.MasterySummary, error) {
	rows, err := s.masteryRepo.ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, err
	}
	return masterySummary(rows), nil
}

// topicSubject resolves plan membership: graded reviews are only valid for
// topics that appear as a unit in one of the student's active plans.
func (s *masteryService) topicSubject(ctx context.Context, studentID uuid.UUID, topicID string) (string, bool, error) {
	plans, err := s.planRepo.ListActive(ctx, nil, studentID)
	if err != nil {
		return "", false, err
	}
	for _, plan := range plans {
		for _, unit := range plan.Units {
			if unit.UnitID == topicID {
				return plan.Subject, true, nil
			}
		}
	}
	return "", false, nil
}
