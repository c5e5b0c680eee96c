package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/services"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type ChatHandler struct {
	log        *logger.Logger
	supervisor services.SupervisorService
}

func NewChatHandler(log *logger.Logger, supervisor services.SupervisorService) *ChatHandler {
	return &ChatHandler{
		log:        log.With("handler", "ChatHandler"),
		supervisor: supervisor,
	}
}

// Handle is the conversational endpoint. Agent-level trouble never reaches
// here; only missing students and persistence failures surface as errors.
func (h *ChatHandler) Handle(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.StudentID == uuid.Nil || req.Message == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("studentId and message are required"))
		return
	}
	resp, err := h.supervisor.Handle(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrStudentNotFound) {
			RespondError(c, http.StatusNotFound, "student_not_found", err)
			return
		}
		h.log.Error("Chat handling failed", "error", err, "student_id", req.StudentID)
		RespondError(c, http.StatusInternalServerError, "chat_failed", err)
		return
	}
	RespondOK(c, resp)
}
