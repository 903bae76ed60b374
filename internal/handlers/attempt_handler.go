package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xdarkflarex/exam-web/internal/services"
	"github.com/xdarkflarex/exam-web/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt opens a new attempt, or resumes the student's in-progress one.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), &req, StudentID(c))
	if err != nil {
		h.LogError(c, err, "Failed to start attempt", "exam_id", req.ExamID)
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// GetAttempt resumes an attempt session, seeding it from persisted answers.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attemptService.Resume(c.Request.Context(), attemptID, StudentID(c))
	if err != nil {
		h.LogError(c, err, "Failed to resume attempt", "attempt_id", attemptID)
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SaveAnswer applies one answer change to the attempt session.
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	attemptID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	if err := h.attemptService.SaveAnswer(c.Request.Context(), attemptID, &req, StudentID(c)); err != nil {
		h.LogError(c, err, "Failed to save answer",
			"attempt_id", attemptID,
			"question_id", req.QuestionID)
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer saved"})
}

// SubmitAttempt runs the final submit transaction. Losing the submit race is
// reported as success with already_submitted set.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, StudentID(c))
	if err != nil {
		h.LogError(c, err, "Failed to submit attempt", "attempt_id", attemptID)
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CloseAttempt is the practice runner's save-and-exit.
func (h *AttemptHandler) CloseAttempt(c *gin.Context) {
	attemptID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.attemptService.CloseAttempt(c.Request.Context(), attemptID, StudentID(c)); err != nil {
		h.LogError(c, err, "Failed to close attempt", "attempt_id", attemptID)
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Attempt session closed"})
}

// GetProgress returns the navigation sidebar view: per-part question grid
// with answered flags and the remaining time for timed attempts.
func (h *AttemptHandler) GetProgress(c *gin.Context) {
	attemptID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	progress, err := h.attemptService.Progress(c.Request.Context(), attemptID, StudentID(c))
	if err != nil {
		h.LogError(c, err, "Failed to get progress", "attempt_id", attemptID)
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *AttemptHandler) GetTimeRemaining(c *gin.Context) {
	attemptID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	remaining, err := h.attemptService.GetTimeRemaining(c.Request.Context(), attemptID, StudentID(c))
	if err != nil {
		h.LogError(c, err, "Failed to get time remaining", "attempt_id", attemptID)
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"time_remaining": remaining})
}

// GetResult serves the results view for a submitted attempt.
func (h *AttemptHandler) GetResult(c *gin.Context) {
	attemptID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	result, err := h.attemptService.Result(c.Request.Context(), attemptID, StudentID(c))
	if err != nil {
		h.LogError(c, err, "Failed to get result", "attempt_id", attemptID)
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
