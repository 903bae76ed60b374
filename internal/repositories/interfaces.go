package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/xdarkflarex/exam-web/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository reads the question bank. The bank is immutable from the
// runner's perspective; admin tooling owns writes.
type QuestionRepository interface {
	GetExam(ctx context.Context, examID uint) (*models.Exam, error)
	// GetBank returns all questions of an exam ordered by part then order in
	// part, with options preloaded in display order.
	GetBank(ctx context.Context, examID uint) ([]*models.Question, error)
}

// SubmitPatch is the mutation applied to an attempt by the status-guarded
// submit update.
type SubmitPatch struct {
	SubmitTime     time.Time
	TotalQuestions int
	CorrectAnswers int
	Score          float64
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error)
	// GetActiveAttempt returns the student's in-progress attempt for the
	// exam, or nil when there is none.
	GetActiveAttempt(ctx context.Context, examID uint, studentID string) (*models.ExamAttempt, error)
	// SubmitIfInProgress applies the patch and flips status to submitted,
	// guarded by status = in_progress. It reports whether the guard held:
	// false with a nil error means another submit already won.
	SubmitIfInProgress(ctx context.Context, id uint, patch SubmitPatch) (bool, error)
}

type AnswerRepository interface {
	// Upsert inserts or updates one row on the (attempt_id, question_id)
	// composite key. Idempotent under repetition.
	Upsert(ctx context.Context, row *models.StudentAnswerRow) error
	BulkUpsert(ctx context.Context, rows []*models.StudentAnswerRow) error
	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.StudentAnswerRow, error)
}

type Repository interface {
	Question() QuestionRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
