package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/services"
)

type QuestHandler struct {
	log    *logger.Logger
	quests services.QuestService
}

func NewQuestHandler(log *logger.Logger, quests services.QuestService) *QuestHandler {
	return &QuestHandler{
		log:    log.With("handler", "QuestHandler"),
		quests: quests,
	}
}

type generateQuestsRequest struct {
	StudentID uuid.UUID `json:"student_id" binding:"required"`
	Date      time.Time `json:"date"`
}

func (h *QuestHandler) Generate(c *gin.Context) {
	var req generateQuestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	quests, err := h.quests.GenerateDaily(c.Request.Context(), req.StudentID, req.Date)
	if err != nil {
		h.log.Error("Generate quests failed", "error", err, "student_id", req.StudentID)
		RespondError(c, http.StatusInternalServerError, "generate_quests_failed", err)
		return
	}
	RespondOK(c, gin.H{"quests": quests})
}

type toggleQuestRequest struct {
	StudentID uuid.UUID `json:"student_id" binding:"required"`
}

func (h *QuestHandler) Toggle(c *gin.Context) {
	questID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_quest_id", err)
		return
	}
	var req toggleQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	quest, err := h.quests.ToggleComplete(c.Request.Context(), req.StudentID, questID)
	if err != nil {
		if errors.Is(err, services.ErrQuestNotFound) {
			RespondError(c, http.StatusNotFound, "quest_not_found", err)
			return
		}
		h.log.Error("Toggle quest failed", "error", err, "quest_id", questID)
		RespondError(c, http.StatusInternalServerError, "toggle_quest_failed", err)
		return
	}
	RespondOK(c, gin.H{"quest": quest})
}

func (h *QuestHandler) ListForStudent(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		date = parsed
	}
	quests, err := h.quests.TodayQuests(c.Request.Context(), studentID, date)
	if err != nil {
		h.log.Error("List quests failed", "error", err, "student_id", studentID)
		RespondError(c, http.StatusInternalServerError, "load_quests_failed", err)
		return
	}
	RespondOK(c, gin.H{"quests": quests})
}
