package postgres

import (
	"context"

	"github.com/xdarkflarex/exam-web/internal/models"
	"github.com/xdarkflarex/exam-web/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) GetExam(ctx context.Context, examID uint) (*models.Exam, error) {
	var exam models.Exam
	if err := q.db.WithContext(ctx).First(&exam, examID).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (q QuestionPostgreSQL) GetBank(ctx context.Context, examID uint) ([]*models.Question, error) {
	var questions []*models.Question
	if err := q.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("part_number, order_in_part").
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index")
		}).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}
