package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/locks"
	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/repos"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

// reviewQuestMinutes is the standing estimate for one spaced-repetition
// review slot.
const reviewQuestMinutes = 15

type QuestService interface {
	// GenerateDaily builds the day's quest set for every active plan that
	// schedules the date. Review quests outrank new units when both compete
	// for the daily-minutes budget. Idempotent per (plan, date).
	GenerateDaily(ctx context.Context, studentID uuid.UUID, date time.Time) ([]*types.DailyQuest, error)
	ToggleComplete(ctx context.Context, studentID, questID uuid.UUID) (*types.DailyQuest, error)
	TodayQuests(ctx context.Context, studentID uuid.UUID, date time.Time) ([]*types.DailyQuest, error)
	WeeklyStats(ctx context.Context, studentID uuid.UUID, now time.Time) (*types.WeeklyStats, error)
}

type questService struct {
	db        *gorm.DB
	log       *logger.Logger
	questRepo repos.QuestRepo
	planRepo  repos.PlanRepo
	mastery   MasteryService
	locks     *locks.StudentLocks
}

func NewQuestService(db *gorm.DB, log *logger.Logger, questRepo repos.QuestRepo, planRepo repos.PlanRepo, mastery MasteryService, studentLocks *locks.StudentLocks) QuestService {
	return &questService{
		db:        db,
		log:       log.With("service", "QuestService"),
		questRepo: questRepo,
		planRepo:  planRepo,
		mastery:   mastery,
		locks:     studentLocks,
	}
}

func (s *questService) GenerateDaily(ctx context.Context, studentID uuid.UUID, date time.Time) ([]*types.DailyQuest, error) {
	if studentID == uuid.Nil {
		return nil, ErrStudentNotFound
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	date = truncateToDay(date)

	plans, err := s.planRepo.ListActive(ctx, nil, studentID)
	if err != nil {
		return nil, err
	}
	due, err := s.mastery.DueTopics(ctx, studentID, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(studentID)
	defer unlock()

	var created []*types.DailyQuest
	for _, plan := range plans {
		if !plan.IncludesDate(date) {
			continue
		}
		existing, err := s.questRepo.ListByPlanAndDate(ctx, nil, plan.ID, date)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			created = append(created, existing...)
			continue
		}
		batch := buildQuestSet(plan, due, date)
		if len(batch) == 0 {
			continue
		}
		saved, err := s.questRepo.CreateBatch(ctx, nil, batch)
		if err != nil {
			return nil, err
		}
		created = append(created, saved...)
	}
	if created == nil {
		created = []*types.DailyQuest{}
	}
	return created, nil
}

// buildQuestSet fills one plan-day under the daily-minutes budget: due
// reviews for the plan's subject first, then remaining units in plan order.
// A day with remaining work always gets at least one quest even when the
// first item alone exceeds the budget.
func buildQuestSet(plan *types.StudyPlan, due []types.TopicDue, date time.Time) []*types.DailyQuest {
	budget := plan.DailyMinutes
	used := 0
	var out []*types.DailyQuest

	// Most-overdue first, matching DueTopics ordering.
	sort.SliceStable(due, func(i, j int) bool { return due[i].NextDue.Before(due[j].NextDue) })
	for _, topic := range due {
		if topic.Subject != plan.Subject {
			continue
		}
		if used+reviewQuestMinutes > budget && len(out) > 0 {
			break
		}
		out = append(out, &types.DailyQuest{
			PlanID:           plan.ID,
			StudentID:        plan.StudentID,
			Date:             date,
			UnitID:           topic.TopicID,
			Title:            "Review: " + topic.TopicID,
			Type:             types.QuestTypeReview,
			EstimatedMinutes: reviewQuestMinutes,
		})
		used += reviewQuestMinutes
	}

	for _, unit := range plan.RemainingUnits() {
		if used+unit.EstimatedMinutes > budget && len(out) > 0 {
			break
		}
		out = append(out, &types.DailyQuest{
			PlanID:           plan.ID,
			StudentID:        plan.StudentID,
			Date:             date,
			UnitID:           unit.UnitID,
			Title:            unit.Title,
			Type:             types.QuestTypeNewUnit,
			EstimatedMinutes: unit.EstimatedMinutes,
		})
		used += unit.EstimatedMinutes
	}
	return out
}

func (s *questService) ToggleComplete(ctx context.Context, studentID, questID uuid.UUID) (*types.DailyQuest, error) {
	unlock := s.locks.Lock(studentID)
	defer unlock()

	quest, err := s.questRepo.GetByID(ctx, nil, questID)
	if err != nil {
		return nil, err
	}
	if quest == nil || quest.StudentID != studentID {
		return nil, ErrQuestNotFound
	}

	completed := !quest.Completed
	var completedAt *time.Time
	if completed {
		now := time.Now().UTC()
		completedAt = &now
	}
	if err := s.questRepo.SetCompleted(ctx, nil, questID, completed, completedAt); err != nil {
		return nil, err
	}
	quest.Completed = completed
	quest.CompletedAt = completedAt
	return quest, nil
}

func (s *questService) TodayQuests(ctx context.Context, studentID uuid.UUID, date time.Time) ([]*types.DailyQuest, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	dayStart := truncateToDay(date)
	quests, err := s.questRepo.ListByStudentAndDateRange(ctx, nil, studentID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if quests == nil {
		quests = []*types.DailyQuest{}
	}
	return quests, nil
}

func (s *questService) WeeklyStats(ctx context.Context, studentID uuid.UUID, now time.Time) (*types.WeeklyStats, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	quests, err := s.questRepo.ListByStudentAndDateRange(ctx, nil, studentID, now.AddDate(0, 0, -7), now)
	if err != nil {
		return nil, err
	}
	stats := completionStats(quests, now)
	return &stats, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
