package postgres

import (
	"github.com/xdarkflarex/exam-web/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	question repositories.QuestionRepository
	attempt  repositories.AttemptRepository
	answer   repositories.AnswerRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		question: NewQuestionPostgreSQL(db),
		attempt:  NewAttemptPostgreSQL(db),
		answer:   NewAnswerPostgreSQL(db),
	}
}

func (r *repository) Question() repositories.QuestionRepository { return r.question }
func (r *repository) Attempt() repositories.AttemptRepository   { return r.attempt }
func (r *repository) Answer() repositories.AnswerRepository     { return r.answer }
