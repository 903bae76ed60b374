package postgres

import (
	"context"
	"errors"

	"github.com/xdarkflarex/exam-web/internal/models"
	"github.com/xdarkflarex/exam-web/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, examID uint, studentID string) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := a.db.WithContext(ctx).
		Where("exam_id = ? AND student_id = ? AND status = ?", examID, studentID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

// SubmitIfInProgress is the compare-and-swap that makes the in_progress ->
// submitted transition happen at most once. The WHERE clause carries the
// guard; RowsAffected distinguishes a lost race from a transient failure.
func (a AttemptPostgreSQL) SubmitIfInProgress(ctx context.Context, id uint, patch repositories.SubmitPatch) (bool, error) {
	res := a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("id = ? AND status = ?", id, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":          models.AttemptSubmitted,
			"submit_time":     patch.SubmitTime,
			"total_questions": patch.TotalQuestions,
			"correct_answers": patch.CorrectAnswers,
			"score":           patch.Score,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
