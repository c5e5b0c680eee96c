package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/services"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type RescheduleHandler struct {
	log        *logger.Logger
	reschedule services.RescheduleService
}

func NewRescheduleHandler(log *logger.Logger, reschedule services.RescheduleService) *RescheduleHandler {
	return &RescheduleHandler{
		log:        log.With("handler", "RescheduleHandler"),
		reschedule: reschedule,
	}
}

// rescheduleRequest is the shape the quest store sends when it calls out to
// the scheduling core.
type rescheduleRequest struct {
	StudentID uuid.UUID `json:"studentId" binding:"required"`
	PlanID    uuid.UUID `json:"planId" binding:"required"`
	// QuestDay picks the first incomplete quest of that plan-day; questId
	// overrides it when the caller knows the exact quest.
	QuestDay      time.Time                      `json:"questDay"`
	QuestID       uuid.UUID                      `json:"questId"`
	TargetContext *types.RescheduleTargetContext `json:"targetContext"`
	// Apply commits the decision in the same call instead of only
	// recommending it.
	Apply bool `json:"apply"`
}

type rescheduleResponse struct {
	Decision *types.RescheduleDecision `json:"decision"`
	Message  string                    `json:"message"`
	Applied  bool                      `json:"applied"`
	Quests   []*types.DailyQuest       `json:"quests,omitempty"`
}

// Handle evaluates (and optionally applies) one reschedule. The response is
// always exactly one decision plus a coach-voiced message.
func (h *RescheduleHandler) Handle(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	decision, err := h.reschedule.Evaluate(c.Request.Context(), services.EvaluateInput{
		StudentID: req.StudentID,
		PlanID:    req.PlanID,
		QuestID:   req.QuestID,
		QuestDay:  req.QuestDay,
		Target:    req.TargetContext,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuestCompleted):
			RespondError(c, http.StatusConflict, "quest_completed", err)
		case errors.Is(err, services.ErrQuestNotFound):
			RespondError(c, http.StatusNotFound, "quest_not_found", err)
		case errors.Is(err, services.ErrPlanNotFound):
			RespondError(c, http.StatusNotFound, "plan_not_found", err)
		default:
			h.log.Error("Reschedule evaluation failed", "error", err, "student_id", req.StudentID)
			RespondError(c, http.StatusInternalServerError, "reschedule_failed", err)
		}
		return
	}

	resp := rescheduleResponse{
		Decision: decision,
		Message:  coachMessage(decision),
	}
	if req.Apply {
		if req.QuestID == uuid.Nil {
			RespondError(c, http.StatusBadRequest, "quest_id_required", errors.New("applying a decision requires questId"))
			return
		}
		quests, err := h.reschedule.Apply(c.Request.Context(), req.StudentID, req.QuestID, decision)
		if err != nil {
			h.log.Error("Reschedule apply failed", "error", err, "student_id", req.StudentID)
			RespondError(c, http.StatusInternalServerError, "reschedule_apply_failed", err)
			return
		}
		resp.Applied = true
		resp.Quests = quests
	}
	RespondOK(c, resp)
}

func coachMessage(d *types.RescheduleDecision) string {
	switch d.Strategy {
	case types.StrategyWeekendSpillover:
		return fmt.Sprintf("주말(%s)이 비어 있어요. 놓친 퀘스트를 거기로 옮길게요.", d.NewDate.Format("1월 2일"))
	case types.StrategyStackNextDay:
		return fmt.Sprintf("%s에 여유가 있어서 거기에 이어서 할 수 있어요.", d.NewDate.Format("1월 2일"))
	case types.StrategyExtendDeadline:
		return fmt.Sprintf("계획을 하루 늘려서 %s까지로 조정할게요.", d.NewDate.Format("1월 2일"))
	case types.StrategyReduceLoad:
		return "요즘 많이 힘들었죠? 이 퀘스트를 이틀에 나눠서 부담을 줄여볼게요."
	default:
		return "일정을 조정했어요."
	}
}
