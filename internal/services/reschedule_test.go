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

func reschedulePlan(dailyMinutes int, excludeWeekends bool, remainingMinutes int) *types.StudyPlan {
	var units []types.PlanUnit
	order := 1
	for left := remainingMinutes; left > 0; left -= dailyMinutes {
		chunk := dailyMinutes
		if left < chunk {
			chunk = left
		}
		units = append(units, types.PlanUnit{
			UnitID:           "u" + string(rune('a'+order)),
			Title:            "Unit",
			EstimatedMinutes: chunk,
			Order:            order,
		})
		order++
	}
	return &types.StudyPlan{
		ID:              uuid.New(),
		StudentID:       uuid.New(),
		Subject:         "math",
		Status:          types.PlanStatusActive,
		TotalDays:       30,
		DailyMinutes:    dailyMinutes,
		ExcludeWeekends: excludeWeekends,
		Units:           units,
	}
}

func missedQuest(plan *types.StudyPlan, date time.Time, minutes int) *types.DailyQuest {
	return &types.DailyQuest{
		ID:               uuid.New(),
		PlanID:           plan.ID,
		StudentID:        plan.StudentID,
		Date:             date,
		UnitID:           "u1",
		Title:            "Missed unit",
		Type:             types.QuestTypeNewUnit,
		EstimatedMinutes: minutes,
	}
}

// A missed quest on a Friday, weekend-free plan, scarce slack, and an
// overloaded Monday: the free weekend wins over next-day stacking.
func TestEvaluateWeekendSpilloverBeatsStacking(t *testing.T) {
	friday := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	plan := reschedulePlan(45, true, 20*45)
	quest := missedQuest(plan, friday, 45)

	tc := types.RescheduleTargetContext{
		RemainingDays:      20,
		TotalDays:          30,
		NextDayQuestCount:  3,
		NextDayLoadMinutes: 120,
		WeekendQuestCount:  3,
		CompletionRate7Day: 0.8,
		ConsecutiveMissed:  0,
		AvgDailyMinutes:    45,
		ExcludeWeekends:    true,
		PlanEndDate:        friday.AddDate(0, 0, 20),
		Today:              friday,
	}

	d := evaluateReschedule(quest, plan, tc)
	if d.Strategy != types.StrategyWeekendSpillover {
		t.Fatalf("expected WEEKEND_SPILLOVER, got %s", d.Strategy)
	}
	if d.NewDate.Weekday() != time.Saturday {
		t.Fatalf("spillover should land on Saturday, got %s", d.NewDate.Weekday())
	}
	if d.Feasibility == types.FeasibilityHigh {
		t.Fatalf("a weekend day already carrying %d quests must not be HIGH feasibility", tc.WeekendQuestCount)
	}
}

func TestEvaluateWeekendSpilloverHighOnEmptyWeekend(t *testing.T) {
	friday := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	plan := reschedulePlan(45, true, 20*45)
	quest := missedQuest(plan, friday, 45)

	tc := types.RescheduleTargetContext{
		RemainingDays:      20,
		TotalDays:          30,
		NextDayQuestCount:  3,
		NextDayLoadMinutes: 120,
		WeekendQuestCount:  0,
		CompletionRate7Day: 0.8,
		AvgDailyMinutes:    45,
		ExcludeWeekends:    true,
		PlanEndDate:        friday.AddDate(0, 0, 20),
		Today:              friday,
	}

	d := evaluateReschedule(quest, plan, tc)
	if d.Strategy != types.StrategyWeekendSpillover || d.Feasibility != types.FeasibilityHigh {
		t.Fatalf("empty weekend should be HIGH feasibility spillover, got %s/%s", d.Strategy, d.Feasibility)
	}
}

// Sustained struggle forces load reduction even when weekend spillover
// conditions also hold.
func TestEvaluateReduceLoadOverridesEverything(t *testing.T) {
	friday := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	plan := reschedulePlan(45, true, 20*45)
	quest := missedQuest(plan, friday, 45)

	tc := types.RescheduleTargetContext{
		RemainingDays:      20,
		TotalDays:          30,
		NextDayQuestCount:  0,
		NextDayLoadMinutes: 0,
		WeekendQuestCount:  0,
		CompletionRate7Day: 0.3,
		ConsecutiveMissed:  3,
		AvgDailyMinutes:    45,
		ExcludeWeekends:    true,
		PlanEndDate:        friday.AddDate(0, 0, 20),
		Today:              friday,
	}

	d := evaluateReschedule(quest, plan, tc)
	if d.Strategy != types.StrategyReduceLoad {
		t.Fatalf("expected REDUCE_LOAD override, got %s", d.Strategy)
	}
	if len(d.SplitDates) != 2 {
		t.Fatalf("load reduction must split across two days, got %d", len(d.SplitDates))
	}
	if !d.SplitDates[1].After(d.SplitDates[0]) {
		t.Fatalf("split dates out of order: %v", d.SplitDates)
	}
	for _, day := range d.SplitDates {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			t.Fatalf("weekend-free plan got a split date on %s", day.Weekday())
		}
	}
	if d.Confidence < 0.8 {
		t.Fatalf("override reduction should be decisive, confidence %.2f", d.Confidence)
	}
}

func TestEvaluateStacksNextDayUnderLoadCap(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	plan := reschedulePlan(45, false, 20*45)
	quest := missedQuest(plan, monday, 30)

	tc := types.RescheduleTargetContext{
		RemainingDays:      20,
		TotalDays:          30,
		NextDayQuestCount:  1,
		NextDayLoadMinutes: 30,
		CompletionRate7Day: 0.9,
		AvgDailyMinutes:    45,
		PlanEndDate:        monday.AddDate(0, 0, 20),
		Today:              monday,
	}

	d := evaluateReschedule(quest, plan, tc)
	if d.Strategy != types.StrategyStackNextDay {
		t.Fatalf("expected STACK_NEXT_DAY, got %s", d.Strategy)
	}
	want := monday.AddDate(0, 0, 1)
	if !d.NewDate.Equal(want) {
		t.Fatalf("expected %v, got %v", want, d.NewDate)
	}
	if d.NewDate.Equal(quest.Date) {
		t.Fatal("reschedule must move the quest to a different date")
	}
}

// A quest dated tomorrow evaluated today must still move forward; anchoring
// on today alone would hand it back its own date.
func TestEvaluateFutureQuestMovesStrictlyLater(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	plan := reschedulePlan(45, false, 20*45)
	quest := missedQuest(plan, tuesday, 30)

	tc := types.RescheduleTargetContext{
		RemainingDays:      20,
		TotalDays:          30,
		NextDayQuestCount:  1,
		NextDayLoadMinutes: 30,
		CompletionRate7Day: 0.9,
		AvgDailyMinutes:    45,
		PlanEndDate:        monday.AddDate(0, 0, 20),
		Today:              monday,
	}

	d := evaluateReschedule(quest, plan, tc)
	if d.Strategy != types.StrategyStackNextDay {
		t.Fatalf("expected STACK_NEXT_DAY, got %s", d.Strategy)
	}
	if !d.NewDate.After(quest.Date) {
		t.Fatalf("new date %v does not move past the quest's %v", d.NewDate, quest.Date)
	}
	want := tuesday.AddDate(0, 0, 1)
	if !d.NewDate.Equal(want) {
		t.Fatalf("expected %v, got %v", want, d.NewDate)
	}
}

// The forced fallback obeys the same rule: split dates land after the
// quest's day, not after today.
func TestEvaluateFutureQuestSplitsAfterItsOwnDay(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	wednesday := monday.AddDate(0, 0, 2)
	plan := reschedulePlan(45, false, 20*45)
	quest := missedQuest(plan, wednesday, 45)

	tc := types.RescheduleTargetContext{
		RemainingDays:      20,
		TotalDays:          30,
		NextDayQuestCount:  4,
		NextDayLoadMinutes: 120,
		CompletionRate7Day: 0.9,
		AvgDailyMinutes:    45,
		PlanEndDate:        monday.AddDate(0, 0, 20),
		Today:              monday,
	}

	d := evaluateReschedule(quest, plan, tc)
	if d.Strategy != types.StrategyReduceLoad {
		t.Fatalf("expected fallback REDUCE_LOAD, got %s", d.Strategy)
	}
	for _, day := range d.SplitDates {
		if !day.After(quest.Date) {
			t.Fatalf("split date %v not after the quest's %v", day, quest.Date)
		}
	}
}

func TestEvaluateExtendsDeadlineWhenNextDayOverloaded(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	// Only 5 days of work left across 20 remaining days: plenty of slack.
	plan := reschedulePlan(45, false, 5*45)
	quest := missedQuest(plan, monday, 45)

	tc := types.RescheduleTargetContext{
		RemainingDays:      20,
		TotalDays:          30,
		NextDayQuestCount:  4,
		NextDayLoadMinutes: 120,
		CompletionRate7Day: 0.9,
		AvgDailyMinutes:    45,
		PlanEndDate:        monday.AddDate(0, 0, 20),
		Today:              monday,
	}

	d := evaluateReschedule(quest, plan, tc)
	if d.Strategy != types.StrategyExtendDeadline {
		t.Fatalf("expected EXTEND_DEADLINE, got %s", d.Strategy)
	}
	if !d.ExtendsPlan {
		t.Fatal("deadline extension must flag the plan shift")
	}
	if !d.NewDate.After(tc.PlanEndDate) {
		t.Fatalf("extension date %v not past plan end %v", d.NewDate, tc.PlanEndDate)
	}
}

// Nothing feasible: overloaded next day, no weekend option, zero slack.
// The engine still answers, with a forced low-confidence reduction.
func TestEvaluateForcedReduceLoadFallback(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	plan := reschedulePlan(45, false, 20*45)
	quest := missedQuest(plan, monday, 45)

	tc := types.RescheduleTargetContext{
		RemainingDays:      20,
		TotalDays:          30,
		NextDayQuestCount:  4,
		NextDayLoadMinutes: 120,
		CompletionRate7Day: 0.9,
		AvgDailyMinutes:    45,
		PlanEndDate:        monday.AddDate(0, 0, 20),
		Today:              monday,
	}

	d := evaluateReschedule(quest, plan, tc)
	if d.Strategy != types.StrategyReduceLoad {
		t.Fatalf("expected fallback REDUCE_LOAD, got %s", d.Strategy)
	}
	if d.Feasibility != types.FeasibilityLow {
		t.Fatalf("forced fallback should be LOW feasibility, got %s", d.Feasibility)
	}
	if d.Confidence >= 0.5 {
		t.Fatalf("forced fallback should be low confidence, got %.2f", d.Confidence)
	}
}

func TestEvaluateConfidenceStaysInRange(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	plan := reschedulePlan(45, false, 20*45)
	quest := missedQuest(plan, monday, 45)

	for missed := 0; missed <= 5; missed++ {
		for count := 0; count <= 6; count++ {
			tc := types.RescheduleTargetContext{
				RemainingDays:      20,
				TotalDays:          30,
				NextDayQuestCount:  count,
				NextDayLoadMinutes: count * 20,
				CompletionRate7Day: 0.45,
				ConsecutiveMissed:  missed,
				AvgDailyMinutes:    45,
				PlanEndDate:        monday.AddDate(0, 0, 20),
				Today:              monday,
			}
			d := evaluateReschedule(quest, plan, tc)
			if d.Confidence < 0 || d.Confidence > 1 {
				t.Fatalf("confidence out of range: %.2f (missed=%d count=%d)", d.Confidence, missed, count)
			}
		}
	}
}

type fakeQuestRepo struct {
	quests map[uuid.UUID]*types.DailyQuest
	writes int
}

func newFakeQuestRepo(quests ...*types.DailyQuest) *fakeQuestRepo {
	f := &fakeQuestRepo{quests: make(map[uuid.UUID]*types.DailyQuest)}
	for _, q := range quests {
		f.quests[q.ID] = q
	}
	return f
}

func (f *fakeQuestRepo) CreateBatch(ctx context.Context, tx *gorm.DB, quests []*types.DailyQuest) ([]*types.DailyQuest, error) {
	f.writes++
	for _, q := range quests {
		q.ID = uuid.New()
		f.quests[q.ID] = q
	}
	return quests, nil
}
func (f *fakeQuestRepo) GetByID(ctx context.Context, tx *gorm.DB, questID uuid.UUID) (*types.DailyQuest, error) {
	return f.quests[questID], nil
}
func (f *fakeQuestRepo) ListByPlanAndDate(ctx context.Context, tx *gorm.DB, planID uuid.UUID, date time.Time) ([]*types.DailyQuest, error) {
	var out []*types.DailyQuest
	for _, q := range f.quests {
		if q.PlanID == planID && q.Date.Equal(date) {
			out = append(out, q)
		}
	}
	return out, nil
}
func (f *fakeQuestRepo) ListByStudentAndDateRange(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, from, to time.Time) ([]*types.DailyQuest, error) {
	return nil, nil
}
func (f *fakeQuestRepo) SetCompleted(ctx context.Context, tx *gorm.DB, questID uuid.UUID, completed bool, completedAt *time.Time) error {
	f.writes++
	return nil
}
func (f *fakeQuestRepo) UpdateDate(ctx context.Context, tx *gorm.DB, questID uuid.UUID, newDate time.Time) error {
	f.writes++
	return nil
}
func (f *fakeQuestRepo) Resize(ctx context.Context, tx *gorm.DB, questID uuid.UUID, newDate time.Time, estimatedMinutes int, questType types.QuestType) error {
	f.writes++
	return nil
}

func newTestReschedule(questRepo *fakeQuestRepo, plans ...*types.StudyPlan) *rescheduleService {
	return &rescheduleService{
		log:       logger.NewNop(),
		questRepo: questRepo,
		planRepo:  &fakePlanRepo{plans: plans},
		quests:    &fakeQuests{},
		locks:     locks.NewStudentLocks(),
	}
}

func TestEvaluateRejectsCompletedQuest(t *testing.T) {
	plan := reschedulePlan(45, false, 20*45)
	quest := missedQuest(plan, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), 45)
	doneAt := time.Now().UTC()
	quest.Completed = true
	quest.CompletedAt = &doneAt
	svc := newTestReschedule(newFakeQuestRepo(quest), plan)

	_, err := svc.Evaluate(context.Background(), EvaluateInput{
		StudentID: plan.StudentID,
		PlanID:    plan.ID,
		QuestID:   quest.ID,
	})
	if !errors.Is(err, ErrQuestCompleted) {
		t.Fatalf("expected ErrQuestCompleted, got %v", err)
	}
}

// Day-based resolution hits the same guard when every quest on that day is
// already finished.
func TestEvaluateRejectsFullyCompletedDay(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	plan := reschedulePlan(45, false, 20*45)
	quest := missedQuest(plan, day, 45)
	quest.Completed = true
	svc := newTestReschedule(newFakeQuestRepo(quest), plan)

	_, err := svc.Evaluate(context.Background(), EvaluateInput{
		StudentID: plan.StudentID,
		PlanID:    plan.ID,
		QuestDay:  day,
	})
	if !errors.Is(err, ErrQuestCompleted) {
		t.Fatalf("expected ErrQuestCompleted, got %v", err)
	}
}

func TestApplyRejectsCompletedQuestWithoutWrites(t *testing.T) {
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	plan := reschedulePlan(45, false, 20*45)
	quest := missedQuest(plan, day, 45)
	quest.Completed = true
	repo := newFakeQuestRepo(quest)
	svc := newTestReschedule(repo, plan)

	decision := &types.RescheduleDecision{
		Strategy: types.StrategyStackNextDay,
		NewDate:  day.AddDate(0, 0, 1),
	}
	_, err := svc.Apply(context.Background(), plan.StudentID, quest.ID, decision)
	if !errors.Is(err, ErrQuestCompleted) {
		t.Fatalf("expected ErrQuestCompleted, got %v", err)
	}
	if repo.writes != 0 {
		t.Fatalf("rejected apply performed %d write(s)", repo.writes)
	}
	if !quest.Date.Equal(day) {
		t.Fatalf("rejected apply moved the quest to %v", quest.Date)
	}
}

func TestNextScheduledDaySkipsWeekends(t *testing.T) {
	friday := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	got := nextScheduledDay(friday, true)
	if got.Weekday() != time.Monday {
		t.Fatalf("expected Monday after a weekend-free Friday, got %s", got.Weekday())
	}
	got = nextScheduledDay(friday, false)
	if got.Weekday() != time.Saturday {
		t.Fatalf("expected Saturday when weekends are allowed, got %s", got.Weekday())
	}
}
