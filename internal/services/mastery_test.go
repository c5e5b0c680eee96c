package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/locks"
	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type fakeMasteryRepo struct {
	rows    map[string]*types.TopicMastery
	upserts int
}

func newFakeMasteryRepo() *fakeMasteryRepo {
	return &fakeMasteryRepo{rows: make(map[string]*types.TopicMastery)}
}

func (f *fakeMasteryRepo) Get(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, topicID string) (*types.TopicMastery, error) {
	return f.rows[topicID], nil
}
func (f *fakeMasteryRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.TopicMastery) error {
	f.upserts++
	f.rows[row.TopicID] = row
	return nil
}
func (f *fakeMasteryRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.TopicMastery, error) {
	return nil, nil
}
func (f *fakeMasteryRepo) ListDue(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, asOf time.Time) ([]*types.TopicMastery, error) {
	return nil, nil
}

func newTestMastery(repo *fakeMasteryRepo, plans ...*types.StudyPlan) MasteryService {
	return NewMasteryService(nil, logger.NewNop(), repo, &fakePlanRepo{plans: plans}, locks.NewStudentLocks())
}

func masteryTestPlan(studentID uuid.UUID, topicIDs ...string) *types.StudyPlan {
	units := make([]types.PlanUnit, 0, len(topicIDs))
	for i, id := range topicIDs {
		units = append(units, types.PlanUnit{
			UnitID:           id,
			Title:            "Unit " + id,
			EstimatedMinutes: 30,
			Order:            i + 1,
		})
	}
	return &types.StudyPlan{
		ID:           uuid.New(),
		StudentID:    studentID,
		Subject:      "math",
		Status:       types.PlanStatusActive,
		DailyMinutes: 45,
		Units:        units,
	}
}

func TestRecordReviewRejectsTopicOutsidePlans(t *testing.T) {
	studentID := uuid.New()
	repo := newFakeMasteryRepo()
	svc := newTestMastery(repo, masteryTestPlan(studentID, "fractions-1"))

	_, err := svc.RecordReview(context.Background(), studentID, "vocab-9", 4)
	if !errors.Is(err, ErrTopicNotInPlan) {
		t.Fatalf("expected ErrTopicNotInPlan, got %v", err)
	}
	if repo.upserts != 0 {
		t.Fatalf("a rejected review wrote %d row(s)", repo.upserts)
	}
}

func TestRecordReviewRejectsOutOfRangeQuality(t *testing.T) {
	studentID := uuid.New()
	repo := newFakeMasteryRepo()
	svc := newTestMastery(repo, masteryTestPlan(studentID, "fractions-1"))

	for _, quality := range []int{-1, 6} {
		if _, err := svc.RecordReview(context.Background(), studentID, "fractions-1", quality); !errors.Is(err, ErrInvalidQuality) {
			t.Fatalf("quality %d: expected ErrInvalidQuality, got %v", quality, err)
		}
	}
	if repo.upserts != 0 {
		t.Fatalf("a rejected review wrote %d row(s)", repo.upserts)
	}
}

// A passing review whose computed interval lands before the stored due date
// keeps the stored one; the schedule never moves backwards on success.
func TestRecordReviewKeepsNextDueMonotonic(t *testing.T) {
	studentID := uuid.New()
	farDue := time.Now().UTC().AddDate(0, 0, 30)
	repo := newFakeMasteryRepo()
	repo.rows["fractions-1"] = &types.TopicMastery{
		StudentID:    studentID,
		TopicID:      "fractions-1",
		Subject:      "math",
		Easiness:     2.5,
		IntervalDays: 1,
		Repetitions:  0,
		NextDue:      farDue,
	}
	svc := newTestMastery(repo, masteryTestPlan(studentID, "fractions-1"))

	got, err := svc.RecordReview(context.Background(), studentID, "fractions-1", 4)
	if err != nil {
		t.Fatalf("RecordReview failed: %v", err)
	}
	if !got.NextDue.Equal(farDue) {
		t.Fatalf("passing review pulled next due from %v to %v", farDue, got.NextDue)
	}
	if got.Repetitions != 1 {
		t.Fatalf("expected repetition count 1, got %d", got.Repetitions)
	}
}

// A failing review is the one case allowed to pull the topic forward.
func TestRecordReviewFailurePullsScheduleEarlier(t *testing.T) {
	studentID := uuid.New()
	farDue := time.Now().UTC().AddDate(0, 0, 30)
	repo := newFakeMasteryRepo()
	repo.rows["fractions-1"] = &types.TopicMastery{
		StudentID:    studentID,
		TopicID:      "fractions-1",
		Subject:      "math",
		Easiness:     2.5,
		IntervalDays: 30,
		Repetitions:  4,
		NextDue:      farDue,
	}
	svc := newTestMastery(repo, masteryTestPlan(studentID, "fractions-1"))

	got, err := svc.RecordReview(context.Background(), studentID, "fractions-1", 1)
	if err != nil {
		t.Fatalf("RecordReview failed: %v", err)
	}
	if !got.NextDue.Before(farDue) {
		t.Fatalf("failing review should resurface the topic before %v, got %v", farDue, got.NextDue)
	}
	if got.Repetitions != 0 {
		t.Fatalf("failure should restart the interval ladder, got %d repetitions", got.Repetitions)
	}
}
