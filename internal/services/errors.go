package services

import (
	"errors"
	"fmt"

	apperrors "github.com/xdarkflarex/exam-web/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Exam specific errors
	ErrExamNotFound      = errors.New("exam not found")
	ErrExamHasNoBank     = errors.New("exam has no questions")
	ErrQuestionNotInExam = errors.New("question not in exam")

	// Attempt specific errors
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAccessDenied     = errors.New("access denied to attempt")
	ErrAttemptNotActive        = errors.New("attempt is not active")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")

	// Submit transaction errors, distinguished so handlers can surface the
	// fixed user-facing message for the step that failed
	ErrSaveAnswersFailed   = errors.New("failed to save answers")
	ErrUpdateAttemptFailed = errors.New("failed to update attempt")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	StudentID  string `json:"student_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: student %s cannot %s %s %d - %s",
		pe.StudentID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(studentID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		StudentID:  studentID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}
