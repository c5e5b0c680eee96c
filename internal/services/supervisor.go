package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/observability"
	"github.com/hakwon-labs/studycoach-backend/internal/repos"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

// dispatchOutcome records how the agent reply was produced. Failure is a
// recorded outcome, not exception flow: the conversational endpoint never
// surfaces agent trouble to the caller.
type dispatchOutcome string

const (
	dispatchSuccess  dispatchOutcome = "success"
	dispatchRetried  dispatchOutcome = "retried"
	dispatchFallback dispatchOutcome = "fallback"
)

type SupervisorService interface {
	Handle(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error)
}

type supervisorService struct {
	log         *logger.Logger
	studentRepo repos.StudentRepo
	planRepo    repos.PlanRepo
	memoryLane  MemoryLaneService
	mastery     MasteryService
	burnout     BurnoutService
	quests      QuestService
	reschedule  RescheduleService
	router      *IntentRouter
	agents      *AgentTable
}

func NewSupervisorService(
	log *logger.Logger,
	studentRepo repos.StudentRepo,
	planRepo repos.PlanRepo,
	memoryLane MemoryLaneService,
	mastery MasteryService,
	burnout BurnoutService,
	quests QuestService,
	reschedule RescheduleService,
	router *IntentRouter,
	agents *AgentTable,
) SupervisorService {
	return &supervisorService{
		log:         log.With("service", "SupervisorService"),
		studentRepo: studentRepo,
		planRepo:    planRepo,
		memoryLane:  memoryLane,
		mastery:     mastery,
		burnout:     burnout,
		quests:      quests,
		reschedule:  reschedule,
		router:      router,
		agents:      agents,
	}
}

func (s *supervisorService) Handle(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	ctx, span := observability.Tracer().Start(ctx, "supervisor.handle")
	defer span.End()

	now := time.Now().UTC()

	profile, err := s.studentRepo.GetByID(ctx, nil, req.StudentID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrStudentNotFound
	}

	bundle := &types.ContextBundle{Profile: profile}

	// A caller-supplied snapshot short-circuits the plan and quest fetches.
	var plans []*types.StudyPlan
	if req.QuestContext != nil {
		for i := range req.QuestContext.ActivePlans {
			plans = append(plans, &req.QuestContext.ActivePlans[i])
		}
		bundle.TodayQuests = req.QuestContext.TodayQuests
	} else {
		plans, err = s.planRepo.ListActive(ctx, nil, req.StudentID)
		if err != nil {
			return nil, err
		}
	}
	for _, p := range plans {
		bundle.ActivePlans = append(bundle.ActivePlans, *p)
	}

	// Context assembly fans out; the memory retrieval waits for the burnout
	// signal since it skews the emotional ranking weight.
	indicator, err := s.burnout.Assess(ctx, req.StudentID, now)
	if err != nil {
		return nil, err
	}
	bundle.Burnout = indicator

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		memories, err := s.memoryLane.Retrieve(gctx, RetrieveQuery{
			StudentID: req.StudentID,
			Query:     req.Message,
			Burnout:   indicator.Risk,
			Now:       now,
		})
		if err != nil {
			return err
		}
		bundle.RelevantMemories = memories
		return nil
	})
	g.Go(func() error {
		due, err := s.mastery.DueTopics(gctx, req.StudentID, now)
		if err != nil {
			return err
		}
		bundle.DueTopics = due
		summary, err := s.mastery.Summary(gctx, req.StudentID)
		if err != nil {
			return err
		}
		bundle.Mastery = summary
		return nil
	})
	if req.QuestContext == nil {
		g.Go(func() error {
			quests, err := s.quests.GenerateDaily(gctx, req.StudentID, now)
			if err != nil {
				return err
			}
			for _, q := range quests {
				bundle.TodayQuests = append(bundle.TodayQuests, *q)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	role := s.router.Classify(req.Message, nil, indicator.Risk, profile.ActiveLevelTest)

	// Schedule intents resolve straight from engine state; no agent call.
	if IsScheduleMutation(req.Message) {
		resp := s.handleScheduleMutation(ctx, req, bundle)
		s.captureExchange(ctx, req, resp)
		return resp, nil
	}
	if IsScheduleQuery(req.Message) {
		resp := s.handleScheduleQuery(req, bundle)
		s.captureExchange(ctx, req, resp)
		return resp, nil
	}

	result, outcome := s.dispatch(ctx, role, req, bundle)
	s.log.Info("agent dispatched",
		"student_id", req.StudentID.String(),
		"role", string(role),
		"outcome", string(outcome),
		"burnout", string(indicator.Risk),
	)

	resp := &types.ChatResponse{
		AgentRole:         role,
		Message:           result.Message,
		Actions:           result.Actions,
		SuggestedFollowUp: result.SuggestedFollowUp,
	}
	if resp.Actions == nil {
		resp.Actions = []types.AgentAction{}
	}
	s.captureExchange(ctx, req, resp)
	return resp, nil
}

// dispatch runs the routed agent with one retry, then the deterministic
// fallback. The fallback agent cannot fail.
func (s *supervisorService) dispatch(ctx context.Context, role types.AgentRole, req types.ChatRequest, bundle *types.ContextBundle) (*AgentResult, dispatchOutcome) {
	agentReq := AgentRequest{
		StudentID: req.StudentID.String(),
		Message:   req.Message,
		Metadata:  req.Metadata,
	}
	agent := s.agents.Lookup(role)

	result, err := agent.Process(ctx, agentReq, bundle)
	if err == nil {
		return result, dispatchSuccess
	}
	s.log.Warn("agent failed, retrying once", "role", string(role), "error", err)

	result, err = agent.Process(ctx, agentReq, bundle)
	if err == nil {
		return result, dispatchRetried
	}
	s.log.Error("agent failed twice, using template fallback", "role", string(role), "error", err)

	result, _ = s.agents.Fallback().Process(ctx, agentReq, bundle)
	return result, dispatchFallback
}

// handleScheduleQuery answers "what do I study today" from the assembled
// quest set.
func (s *supervisorService) handleScheduleQuery(req types.ChatRequest, bundle *types.ContextBundle) *types.ChatResponse {
	resp := &types.ChatResponse{
		AgentRole: types.RoleCoach,
		Actions:   []types.AgentAction{},
	}
	if len(bundle.TodayQuests) == 0 {
		resp.Message = "오늘은 예정된 퀘스트가 없어요. 새 계획을 세워볼까요?"
		resp.SuggestedFollowUp = []string{"새 학습 계획 세워줘"}
		return resp
	}
	total := 0
	msg := fmt.Sprintf("오늘의 퀘스트 %d개예요:", len(bundle.TodayQuests))
	for _, q := range bundle.TodayQuests {
		msg += fmt.Sprintf("\n- %s (%d분)", q.Title, q.EstimatedMinutes)
		total += q.EstimatedMinutes
	}
	msg += fmt.Sprintf("\n예상 시간은 총 %d분이에요.", total)
	resp.Message = msg
	resp.Actions = append(resp.Actions, types.AgentAction{
		Type: "SHOW_TODAY_QUESTS",
		Payload: map[string]interface{}{
			"quest_count":   len(bundle.TodayQuests),
			"total_minutes": total,
		},
	})
	return resp
}

// handleScheduleMutation evaluates a reschedule for the first incomplete
// quest today and returns the decision as an option, leaving the apply step
// to an explicit confirmation.
func (s *supervisorService) handleScheduleMutation(ctx context.Context, req types.ChatRequest, bundle *types.ContextBundle) *types.ChatResponse {
	resp := &types.ChatResponse{
		AgentRole: types.RoleCoach,
		Actions:   []types.AgentAction{},
	}
	var target *types.DailyQuest
	for i := range bundle.TodayQuests {
		if !bundle.TodayQuests[i].Completed {
			target = &bundle.TodayQuests[i]
			break
		}
	}
	if target == nil {
		resp.Message = "옮길 수 있는 미완료 퀘스트가 없어요."
		return resp
	}
	decision, err := s.reschedule.Evaluate(ctx, EvaluateInput{
		StudentID: req.StudentID,
		PlanID:    target.PlanID,
		QuestID:   target.ID,
	})
	if err != nil {
		s.log.Warn("reschedule evaluation failed in chat flow", "error", err)
		resp.Message = "지금은 일정을 조정할 수 없어요. 잠시 후 다시 시도해 주세요."
		return resp
	}
	resp.RescheduleOptions = []types.RescheduleDecision{*decision}
	resp.Message = fmt.Sprintf("'%s' 퀘스트를 %s(으)로 옮기는 걸 추천해요. 적용할까요?",
		target.Title, decision.NewDate.Format("1월 2일 Monday"))
	resp.Actions = append(resp.Actions, types.AgentAction{
		Type: "PROPOSE_RESCHEDULE",
		Payload: map[string]interface{}{
			"quest_id": target.ID.String(),
			"strategy": string(decision.Strategy),
		},
	})
	return resp
}

// captureExchange persists a memory of the turn. Best effort: capture
// failure is logged and swallowed, never surfaced.
func (s *supervisorService) captureExchange(ctx context.Context, req types.ChatRequest, resp *types.ChatResponse) {
	kind := types.MemoryKindBehaviorPattern
	if IsScheduleMutation(req.Message) {
		kind = types.MemoryKindPlanPerformance
	}
	_, err := s.memoryLane.Capture(ctx, req.StudentID, CaptureInput{
		Kind:       kind,
		Title:      fmt.Sprintf("chat: %s", resp.AgentRole),
		Content:    req.Message,
		Importance: 0.3,
	})
	if err != nil {
		s.log.Warn("memory capture failed", "student_id", req.StudentID.String(), "error", err)
	}
}
