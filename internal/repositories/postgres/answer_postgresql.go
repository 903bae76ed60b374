package postgres

import (
	"context"

	"github.com/xdarkflarex/exam-web/internal/models"
	"github.com/xdarkflarex/exam-web/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

var answerConflict = clause.OnConflict{
	Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
	DoUpdates: clause.AssignmentColumns([]string{
		"question_type", "payload", "is_correct", "score", "updated_at",
	}),
}

func (r AnswerPostgreSQL) Upsert(ctx context.Context, row *models.StudentAnswerRow) error {
	return r.db.WithContext(ctx).Clauses(answerConflict).Create(row).Error
}

func (r AnswerPostgreSQL) BulkUpsert(ctx context.Context, rows []*models.StudentAnswerRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(answerConflict).Create(&rows).Error
}

func (r AnswerPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.StudentAnswerRow, error) {
	var rows []*models.StudentAnswerRow
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
