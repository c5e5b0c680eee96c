package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/repos"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type PlanHandler struct {
	log      *logger.Logger
	planRepo repos.PlanRepo
}

func NewPlanHandler(log *logger.Logger, planRepo repos.PlanRepo) *PlanHandler {
	return &PlanHandler{
		log:      log.With("handler", "PlanHandler"),
		planRepo: planRepo,
	}
}

type createPlanRequest struct {
	StudentID       uuid.UUID        `json:"student_id" binding:"required"`
	Subject         string           `json:"subject" binding:"required"`
	Title           string           `json:"title" binding:"required"`
	StartDate       time.Time        `json:"start_date" binding:"required"`
	EndDate         time.Time        `json:"end_date" binding:"required"`
	DailyMinutes    int              `json:"daily_minutes" binding:"required,gt=0"`
	ExcludeWeekends bool             `json:"exclude_weekends"`
	Units           []types.PlanUnit `json:"units" binding:"required,min=1"`
}

func (h *PlanHandler) Create(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.EndDate.Before(req.StartDate) {
		RespondError(c, http.StatusBadRequest, "invalid_date_range", errors.New("end date before start date"))
		return
	}
	plan := &types.StudyPlan{
		StudentID:       req.StudentID,
		Subject:         req.Subject,
		Title:           req.Title,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		TotalDays:       int(req.EndDate.Sub(req.StartDate).Hours()/24) + 1,
		DailyMinutes:    req.DailyMinutes,
		ExcludeWeekends: req.ExcludeWeekends,
		Status:          types.PlanStatusActive,
		Units:           req.Units,
	}
	created, err := h.planRepo.Create(c.Request.Context(), nil, plan)
	if err != nil {
		if errors.Is(err, repos.ErrActivePlanExists) {
			RespondError(c, http.StatusConflict, "active_plan_exists", err)
			return
		}
		h.log.Error("Create plan failed", "error", err, "student_id", req.StudentID)
		RespondError(c, http.StatusInternalServerError, "create_plan_failed", err)
		return
	}
	RespondCreated(c, gin.H{"plan": created})
}

func (h *PlanHandler) ListActive(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	plans, err := h.planRepo.ListActive(c.Request.Context(), nil, studentID)
	if err != nil {
		h.log.Error("List plans failed", "error", err, "student_id", studentID)
		RespondError(c, http.StatusInternalServerError, "load_plans_failed", err)
		return
	}
	RespondOK(c, gin.H{"plans": plans})
}
