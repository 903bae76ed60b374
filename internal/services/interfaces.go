package services

import (
	"context"
	"time"

	"github.com/xdarkflarex/exam-web/internal/exam"
	"github.com/xdarkflarex/exam-web/internal/models"
)

// ===== REQUEST TYPES =====

type StartAttemptRequest struct {
	ExamID uint               `json:"exam_id" validate:"required"`
	Mode   models.AttemptMode `json:"mode" validate:"required,attempt_mode"`
}

// SaveAnswerRequest carries one answer change. Exactly one of the
// type-specific field groups is consulted, selected by QuestionType.
type SaveAnswerRequest struct {
	QuestionID   uint                `json:"question_id" validate:"required"`
	QuestionType models.QuestionType `json:"question_type" validate:"required,question_type"`

	// multiple_choice
	SelectedAnswer *uint `json:"selected_answer,omitempty"`

	// true_false
	StatementIndex *int  `json:"statement_index,omitempty" validate:"omitempty,min=0,max=3"`
	StatementValue *bool `json:"statement_value,omitempty"`

	// short_answer
	Text *string `json:"text,omitempty"`
}

// ===== RESPONSE TYPES =====

type AttemptResponse struct {
	ID             uint                 `json:"id"`
	ExamID         uint                 `json:"exam_id"`
	StudentID      string               `json:"student_id"`
	Mode           models.AttemptMode   `json:"mode"`
	Status         models.AttemptStatus `json:"status"`
	StartTime      time.Time            `json:"start_time"`
	SubmitTime     *time.Time           `json:"submit_time,omitempty"`
	Duration       int                  `json:"duration"`
	TotalQuestions int                  `json:"total_questions"`
	CorrectAnswers int                  `json:"correct_answers"`
	Score          float64              `json:"score"`
	TimeRemaining  *int                 `json:"time_remaining,omitempty"` // seconds
	Resumed        bool                 `json:"resumed,omitempty"`
}

// SubmitResult reports the terminal state of a submit call. AlreadySubmitted
// marks the benign outcome of losing the submit race: the attempt is in the
// expected terminal state, just not via this call.
type SubmitResult struct {
	Attempt          *AttemptResponse `json:"attempt"`
	AlreadySubmitted bool             `json:"already_submitted"`
}

// AttemptResult is the read-only view consumed by the results route after a
// successful submit.
type AttemptResult struct {
	Attempt *AttemptResponse           `json:"attempt"`
	Answers []*models.StudentAnswerRow `json:"answers"`
}

// QuestionBankResponse groups the exam's questions by the three-part
// structure.
type QuestionBankResponse struct {
	Exam  *models.Exam       `json:"exam"`
	Part1 []*models.Question `json:"part1"`
	Part2 []*models.Question `json:"part2"`
	Part3 []*models.Question `json:"part3"`
}

// ===== SERVICE INTERFACES =====

type AttemptService interface {
	// Start creates a new attempt and opens its session; when the student
	// already has an in-progress attempt on the exam it resumes that one
	// instead of creating a duplicate.
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error)

	// Resume reopens an in-progress attempt, seeding the session from
	// previously persisted rows.
	Resume(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error)

	// SaveAnswer applies one answer change to the session; in practice mode
	// it is persisted per the incremental cadence.
	SaveAnswer(ctx context.Context, attemptID uint, req *SaveAnswerRequest, studentID string) error

	// Submit runs the two-phase submit transaction: bulk upsert of all rows,
	// then the status-guarded attempt update. A lost guard race is returned
	// as a benign already-submitted result, not an error.
	Submit(ctx context.Context, attemptID uint, studentID string) (*SubmitResult, error)

	// CloseAttempt is the practice runner's save-and-exit: everything is
	// already persisted, so it only tears the session down.
	CloseAttempt(ctx context.Context, attemptID uint, studentID string) error

	Progress(ctx context.Context, attemptID uint, studentID string) (*exam.Progress, error)
	GetTimeRemaining(ctx context.Context, attemptID uint, studentID string) (int, error)
	Result(ctx context.Context, attemptID uint, studentID string) (*AttemptResult, error)
}

type QuestionBankService interface {
	GetBank(ctx context.Context, examID uint) (*QuestionBankResponse, error)
}
