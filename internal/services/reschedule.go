package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hakwon-labs/studycoach-backend/internal/locks"
	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/repos"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

const (
	// reduceLoadRateFloor and reduceLoadMissFloor gate the sustainability
	// override: below this completion rate with this many consecutive
	// misses, load reduction wins over every other strategy.
	reduceLoadRateFloor = 0.5
	reduceLoadMissFloor = 2

	// stackLoadFactor caps next-day stacking at this multiple of the
	// plan's average daily minutes.
	stackLoadFactor = 1.5

	// spilloverSlackRatio is the fraction of remaining days that may be
	// free before weekend spillover stops being attractive.
	spilloverSlackRatio = 0.2

	forcedConfidence = 0.4
)

type EvaluateInput struct {
	StudentID uuid.UUID
	PlanID    uuid.UUID
	// QuestID selects the quest directly. When nil, QuestDay selects the
	// first incomplete quest on that day of the plan instead; that is the
	// shape the quest store sends.
	QuestID  uuid.UUID
	QuestDay time.Time
	Now      time.Time
	// Target overrides the computed scheduling snapshot when the caller
	// already holds one (the quest-store contract supplies its own).
	Target *types.RescheduleTargetContext
}

type RescheduleService interface {
	// Evaluate picks exactly one strategy for relocating the quest. It
	// never hard-fails on infeasibility: when nothing clears the floor it
	// returns a low-confidence load reduction instead.
	Evaluate(ctx context.Context, in EvaluateInput) (*types.RescheduleDecision, error)
	// Apply mutates quest dates according to an evaluated decision,
	// serialized per student.
	Apply(ctx context.Context, studentID, questID uuid.UUID, decision *types.RescheduleDecision) ([]*types.DailyQuest, error)
}

type rescheduleService struct {
	db        *gorm.DB
	log       *logger.Logger
	questRepo repos.QuestRepo
	planRepo  repos.PlanRepo
	quests    QuestService
	locks     *locks.StudentLocks
}

func NewRescheduleService(db *gorm.DB, log *logger.Logger, questRepo repos.QuestRepo, planRepo repos.PlanRepo, quests QuestService, studentLocks *locks.StudentLocks) RescheduleService {
	return &rescheduleService{
		db:        db,
		log:       log.With("service", "RescheduleService"),
		questRepo: questRepo,
		planRepo:  planRepo,
		quests:    quests,
		locks:     studentLocks,
	}
}

func (s *rescheduleService) Evaluate(ctx context.Context, in EvaluateInput) (*types.RescheduleDecision, error) {
	quest, err := s.resolveQuest(ctx, in)
	if err != nil {
		return nil, err
	}
	if quest == nil || quest.StudentID != in.StudentID {
		return nil, ErrQuestNotFound
	}
	if quest.Completed {
		return nil, ErrQuestCompleted
	}
	plan, err := s.planRepo.GetByID(ctx, nil, quest.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	target := in.Target
	if target == nil {
		built, err := s.buildTargetContext(ctx, quest, plan, in.Now)
		if err != nil {
			return nil, err
		}
		target = built
	}
	decision := evaluateReschedule(quest, plan, *target)
	s.log.Info("reschedule evaluated",
		"student_id", in.StudentID.String(),
		"quest_id", in.QuestID.String(),
		"strategy", string(decision.Strategy),
		"feasibility", string(decision.Feasibility),
		"confidence", decision.Confidence,
	)
	return &decision, nil
}

func (s *rescheduleService) resolveQuest(ctx context.Context, in EvaluateInput) (*types.DailyQuest, error) {
	if in.QuestID != uuid.Nil {
		return s.questRepo.GetByID(ctx, nil, in.QuestID)
	}
	if in.PlanID == uuid.Nil || in.QuestDay.IsZero() {
		return nil, ErrQuestNotFound
	}
	quests, err := s.questRepo.ListByPlanAndDate(ctx, nil, in.PlanID, in.QuestDay)
	if err != nil {
		return nil, err
	}
	for _, q := range quests {
		if !q.Completed {
			return q, nil
		}
	}
	// Only completed quests on that day: report the invariant breach, not
	// a missing quest.
	if len(quests) > 0 {
		return quests[0], nil
	}
	return nil, ErrQuestNotFound
}

// buildTargetContext assembles the scheduling snapshot from stored state
// when the caller did not supply one.
func (s *rescheduleService) buildTargetContext(ctx context.Context, quest *types.DailyQuest, plan *types.StudyPlan, now time.Time) (*types.RescheduleTargetContext, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	today := truncateToDay(now)
	anchor := slipAnchor(quest, today)

	stats, err := s.quests.WeeklyStats(ctx, quest.StudentID, now)
	if err != nil {
		return nil, err
	}

	nextDay := nextScheduledDay(anchor, plan.ExcludeWeekends)
	nextDayQuests, err := s.questRepo.ListByPlanAndDate(ctx, nil, plan.ID, nextDay)
	if err != nil {
		return nil, err
	}
	nextDayMinutes := 0
	for _, q := range nextDayQuests {
		nextDayMinutes += q.EstimatedMinutes
	}

	weekendDay := nextWeekendDay(anchor)
	weekendQuests, err := s.questRepo.ListByPlanAndDate(ctx, nil, plan.ID, weekendDay)
	if err != nil {
		return nil, err
	}

	planEnd := truncateToDay(plan.EndDate)
	remaining := int(planEnd.Sub(today).Hours()/24) + 1
	if remaining < 0 {
		remaining = 0
	}
	return &types.RescheduleTargetContext{
		RemainingDays:      remaining,
		TotalDays:          plan.TotalDays,
		NextDayQuestCount:  len(nextDayQuests),
		NextDayLoadMinutes: nextDayMinutes,
		WeekendQuestCount:  len(weekendQuests),
		CompletionRate7Day: stats.CompletionRate,
		ConsecutiveMissed:  stats.ConsecutiveMissed,
		AvgDailyMinutes:    plan.DailyMinutes,
		ExcludeWeekends:    plan.ExcludeWeekends,
		PlanEndDate:        planEnd,
		Today:              today,
	}, nil
}

// evaluateReschedule is the pure strategy selector. Priority: the
// sustainability override, then weekend spillover, then next-day stacking,
// then deadline extension, then a forced low-confidence load reduction.
func evaluateReschedule(quest *types.DailyQuest, plan *types.StudyPlan, tc types.RescheduleTargetContext) types.RescheduleDecision {
	today := tc.Today
	if today.IsZero() {
		today = truncateToDay(time.Now().UTC())
	}
	// Relocation anchors on the later of today and the quest's own day, so
	// every chosen date lands strictly after the quest's current date.
	anchor := slipAnchor(quest, today)

	// Struggling students get their load cut before any relocation math,
	// regardless of weekend or slack conditions.
	if tc.CompletionRate7Day < reduceLoadRateFloor && tc.ConsecutiveMissed >= reduceLoadMissFloor {
		d := reduceLoadDecision(anchor, tc.ExcludeWeekends)
		d.Feasibility = types.FeasibilityMedium
		d.Confidence = 0.9
		d.Rationale = fmt.Sprintf(
			"completion rate %.0f%% with %d consecutive missed days; splitting the work keeps the plan sustainable",
			tc.CompletionRate7Day*100, tc.ConsecutiveMissed)
		return d
	}

	slipDate := anchor.AddDate(0, 0, 1)
	if isWeekend(slipDate) && tc.ExcludeWeekends && slackRatio(plan, tc) <= spilloverSlackRatio {
		d := types.RescheduleDecision{
			Strategy: types.StrategyWeekendSpillover,
			NewDate:  slipDate,
		}
		switch {
		case tc.WeekendQuestCount == 0:
			d.Feasibility = types.FeasibilityHigh
			d.Confidence = 0.9
		case tc.WeekendQuestCount <= 2:
			d.Feasibility = types.FeasibilityMedium
			d.Confidence = 0.7
		default:
			d.Feasibility = types.FeasibilityLow
			d.Confidence = 0.5
		}
		d.Rationale = fmt.Sprintf(
			"the plan leaves weekends free and schedule slack is scarce; %s already carries %d quest(s)",
			slipDate.Weekday(), tc.WeekendQuestCount)
		return d
	}

	nextDay := nextScheduledDay(anchor, tc.ExcludeWeekends)
	if tc.NextDayLoadMinutes+quest.EstimatedMinutes < int(stackLoadFactor*float64(tc.AvgDailyMinutes)) {
		d := types.RescheduleDecision{
			Strategy: types.StrategyStackNextDay,
			NewDate:  nextDay,
		}
		switch {
		case tc.NextDayQuestCount == 0:
			d.Feasibility = types.FeasibilityHigh
		case tc.NextDayQuestCount <= 2:
			d.Feasibility = types.FeasibilityMedium
		default:
			d.Feasibility = types.FeasibilityLow
		}
		d.Confidence = clamp01(0.9 - 0.15*float64(tc.NextDayQuestCount))
		d.Rationale = fmt.Sprintf(
			"%s has %d minutes assigned; adding %d stays under the %.1fx daily load cap",
			nextDay.Weekday(), tc.NextDayLoadMinutes, quest.EstimatedMinutes, stackLoadFactor)
		return d
	}

	if slackDays(plan, tc) >= 1 {
		d := types.RescheduleDecision{
			Strategy:    types.StrategyExtendDeadline,
			NewDate:     tc.PlanEndDate.AddDate(0, 0, 1),
			Feasibility: types.FeasibilityMedium,
			Confidence:  0.6,
			ExtendsPlan: true,
			Rationale:   "the next day is already overloaded but the plan has unused slack; pushing the end date one day",
		}
		return d
	}

	d := reduceLoadDecision(anchor, tc.ExcludeWeekends)
	d.Feasibility = types.FeasibilityLow
	d.Confidence = forcedConfidence
	d.Rationale = "no strategy cleared the feasibility floor; splitting the work across two days as a fallback"
	return d
}

func reduceLoadDecision(today time.Time, excludeWeekends bool) types.RescheduleDecision {
	first := nextScheduledDay(today, excludeWeekends)
	second := nextScheduledDay(first, excludeWeekends)
	return types.RescheduleDecision{
		Strategy:   types.StrategyReduceLoad,
		NewDate:    first,
		SplitDates: []time.Time{first, second},
	}
}

// slackDays estimates how many remaining scheduled days carry no work,
// assuming remaining units fill days at the plan's daily-minutes pace.
func slackDays(plan *types.StudyPlan, tc types.RescheduleTargetContext) int {
	minutes := 0
	for _, u := range plan.RemainingUnits() {
		minutes += u.EstimatedMinutes
	}
	pace := tc.AvgDailyMinutes
	if pace <= 0 {
		pace = plan.DailyMinutes
	}
	if pace <= 0 {
		return 0
	}
	needed := (minutes + pace - 1) / pace
	slack := tc.RemainingDays - needed
	if slack < 0 {
		return 0
	}
	return slack
}

func slackRatio(plan *types.StudyPlan, tc types.RescheduleTargetContext) float64 {
	if tc.RemainingDays <= 0 {
		return 0
	}
	return float64(slackDays(plan, tc)) / float64(tc.RemainingDays)
}

// slipAnchor is the day all relocation dates are computed after. Using the
// quest's own day when it lies in the future keeps the new date strictly
// after the current one, so applying a decision is never a no-op.
func slipAnchor(quest *types.DailyQuest, today time.Time) time.Time {
	anchor := today
	if qd := truncateToDay(quest.Date); qd.After(anchor) {
		anchor = qd
	}
	return anchor
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// nextScheduledDay returns the first day after the given one that the
// schedule can use.
func nextScheduledDay(after time.Time, excludeWeekends bool) time.Time {
	d := after.AddDate(0, 0, 1)
	if excludeWeekends {
		for isWeekend(d) {
			d = d.AddDate(0, 0, 1)
		}
	}
	return d
}

// nextWeekendDay returns the next Saturday or Sunday strictly after the
// given day.
func nextWeekendDay(after time.Time) time.Time {
	d := after.AddDate(0, 0, 1)
	for !isWeekend(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func (s *rescheduleService) Apply(ctx context.Context, studentID, questID uuid.UUID, decision *types.RescheduleDecision) ([]*types.DailyQuest, error) {
	if decision == nil {
		return nil, fmt.Errorf("reschedule: nil decision")
	}
	unlock := s.locks.Lock(studentID)
	defer unlock()

	quest, err := s.questRepo.GetByID(ctx, nil, questID)
	if err != nil {
		return nil, err
	}
	if quest == nil || quest.StudentID != studentID {
		return nil, ErrQuestNotFound
	}
	if quest.Completed {
		return nil, ErrQuestCompleted
	}

	var out []*types.DailyQuest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch decision.Strategy {
		case types.StrategyReduceLoad:
			if len(decision.SplitDates) != 2 {
				return fmt.Errorf("reschedule: load reduction needs two split dates, got %d", len(decision.SplitDates))
			}
			half := quest.EstimatedMinutes / 2
			if half < 1 {
				half = 1
			}
			rest := quest.EstimatedMinutes - half
			if rest < 1 {
				rest = 1
			}
			if err := s.questRepo.Resize(ctx, tx, quest.ID, decision.SplitDates[0], half, types.QuestTypeSplit); err != nil {
				return err
			}
			second := &types.DailyQuest{
				PlanID:           quest.PlanID,
				StudentID:        quest.StudentID,
				Date:             decision.SplitDates[1],
				UnitID:           quest.UnitID,
				Title:            quest.Title,
				Type:             types.QuestTypeSplit,
				EstimatedMinutes: rest,
			}
			created, err := s.questRepo.CreateBatch(ctx, tx, []*types.DailyQuest{second})
			if err != nil {
				return err
			}
			quest.Date = decision.SplitDates[0]
			quest.EstimatedMinutes = half
			quest.Type = types.QuestTypeSplit
			out = append([]*types.DailyQuest{quest}, created...)
			return nil

		case types.StrategyWeekendSpillover:
			if err := s.questRepo.Resize(ctx, tx, quest.ID, decision.NewDate, quest.EstimatedMinutes, types.QuestTypeSpillover); err != nil {
				return err
			}
			quest.Date = decision.NewDate
			quest.Type = types.QuestTypeSpillover
			out = []*types.DailyQuest{quest}
			return nil

		case types.StrategyExtendDeadline:
			plan, err := s.planRepo.GetByID(ctx, tx, quest.PlanID)
			if err != nil {
				return err
			}
			if plan == nil {
				return ErrPlanNotFound
			}
			plan.EndDate = plan.EndDate.AddDate(0, 0, 1)
			if err := s.planRepo.Update(ctx, tx, plan); err != nil {
				return err
			}
			if err := s.questRepo.UpdateDate(ctx, tx, quest.ID, decision.NewDate); err != nil {
				return err
			}
			quest.Date = decision.NewDate
			out = []*types.DailyQuest{quest}
			return nil

		default:
			if err := s.questRepo.UpdateDate(ctx, tx, quest.ID, decision.NewDate); err != nil {
				return err
			}
			quest.Date = decision.NewDate
			out = []*types.DailyQuest{quest}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("reschedule applied",
		"student_id", studentID.String(),
		"quest_id", questID.String(),
		"strategy", string(decision.Strategy),
	)
	return out, nil
}
