package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/repos"
	"github.com/hakwon-labs/studycoach-backend/internal/types"
)

type StudentHandler struct {
	log         *logger.Logger
	studentRepo repos.StudentRepo
}

func NewStudentHandler(log *logger.Logger, studentRepo repos.StudentRepo) *StudentHandler {
	return &StudentHandler{
		log:         log.With("handler", "StudentHandler"),
		studentRepo: studentRepo,
	}
}

type createStudentRequest struct {
	Name          string                 `json:"name" binding:"required"`
	Grade         string                 `json:"grade"`
	Subjects      []string               `json:"subjects"`
	Goals         []string               `json:"goals"`
	LearningStyle map[string]interface{} `json:"learning_style"`
}

func (h *StudentHandler) Create(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	student := &types.StudentProfile{
		Name:          req.Name,
		Grade:         req.Grade,
		Subjects:      req.Subjects,
		Goals:         req.Goals,
		LearningStyle: req.LearningStyle,
	}
	created, err := h.studentRepo.Create(c.Request.Context(), nil, student)
	if err != nil {
		h.log.Error("Create student failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "create_student_failed", err)
		return
	}
	RespondCreated(c, gin.H{"student": created})
}

func (h *StudentHandler) Get(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	student, err := h.studentRepo.GetByID(c.Request.Context(), nil, studentID)
	if err != nil {
		h.log.Error("Get student failed", "error", err, "student_id", studentID)
		RespondError(c, http.StatusInternalServerError, "load_student_failed", err)
		return
	}
	if student == nil {
		RespondError(c, http.StatusNotFound, "student_not_found", nil)
		return
	}
	RespondOK(c, gin.H{"student": student})
}

type updateStudentRequest struct {
	Name            *string                `json:"name"`
	Grade           *string                `json:"grade"`
	Subjects        []string               `json:"subjects"`
	Goals           []string               `json:"goals"`
	LearningStyle   map[string]interface{} `json:"learning_style"`
	ActiveLevelTest *bool                  `json:"active_level_test"`
}

// Update mutates the profile only through this explicit endpoint; the chat
// flow never writes profile fields.
func (h *StudentHandler) Update(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_student_id", err)
		return
	}
	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	student, err := h.studentRepo.GetByID(c.Request.Context(), nil, studentID)
	if err != nil {
		h.log.Error("Load student for update failed", "error", err, "student_id", studentID)
		RespondError(c, http.StatusInternalServerError, "load_student_failed", err)
		return
	}
	if student == nil {
		RespondError(c, http.StatusNotFound, "student_not_found", nil)
		return
	}
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.Grade != nil {
		student.Grade = *req.Grade
	}
	if req.Subjects != nil {
		student.Subjects = req.Subjects
	}
	if req.Goals != nil {
		student.Goals = req.Goals
	}
	if req.LearningStyle != nil {
		student.LearningStyle = req.LearningStyle
	}
	if req.ActiveLevelTest != nil {
		student.ActiveLevelTest = *req.ActiveLevelTest
	}
	if err := h.studentRepo.Update(c.Request.Context(), nil, student); err != nil {
		h.log.Error("Update student failed", "error", err, "student_id", studentID)
		RespondError(c, http.StatusInternalServerError, "update_student_failed", err)
		return
	}
	RespondOK(c, gin.H{"student": student})
}
