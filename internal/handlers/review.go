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

type ReviewHandler struct {
	log     *logger.Logger
	mastery services.MasteryService
}

func NewReviewHandler(log *logger.Logger, mastery services.MasteryService) *ReviewHandler {
	return &ReviewHandler{
		log:     log.With("handler", "ReviewHandler"),
		mastery: mastery,
	}
}

type recordReviewRequest struct {
	StudentID uuid.UUID `json:"student_id" binding:"required"`
	TopicID   string    `json:"topic_id" binding:"required"`
	Quality   *int      `json:"quality" binding:"required"`
}

func (h *ReviewHandler) Record(c *gin.Context) {
	var req recordReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	mastery, err := h.mastery.RecordReview(c.Request.Context(), req.StudentID, req.TopicID, *req.Quality)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidQuality):
			RespondError(c, http.StatusBadRequest, "invalid_quality", err)
		case errors.Is(err, services.ErrTopicNotInPlan):
			RespondError(c, http.StatusUnprocessableEntity, "topic_not_in_plan", err)
		default:
			h.log.Error("Record review failed", "error", err, "student_id", req.StudentID)
			RespondError(c, http.StatusInternalServerError, "record_review_failed", err)
		}
		return
	}
	RespondOK(c, gin.H{"mastery": mastery})
}

func (h *ReviewHandler) ListDue(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	due, err := h.mastery.DueTopics(c.Request.Context(), studentID, time.Now().UTC())
	if err != nil {
		h.log.Error("List due topics failed", "error", err, "student_id", studentID)
		RespondError(c, http.StatusInternalServerError, "load_due_topics_failed", err)
		return
	}
	RespondOK(c, gin.H{"due_topics": due})
}
