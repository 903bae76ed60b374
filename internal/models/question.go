package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// TrueFalseStatementCount is the number of independent sub-statements a
// true/false question carries. Statement indices run 0..3.
const TrueFalseStatementCount = 4

// Exam parts. Each part is conventionally mapped to one question type:
// part 1 multiple choice, part 2 true/false, part 3 short answer.
const (
	PartMultipleChoice = 1
	PartTrueFalse      = 2
	PartShortAnswer    = 3
)

type Exam struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Duration    int     `json:"duration" gorm:"not null"` // Minutes; 0 means no time limit (practice)

	CreatedBy string         `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions" gorm:"foreignKey:ExamID"`
}

func (Exam) TableName() string {
	return "exams"
}

// Question is a single assessable item. Immutable from the runner's
// perspective; admin tooling owns creation and editing.
type Question struct {
	ID      uint         `json:"id" gorm:"primaryKey"`
	ExamID  uint         `json:"exam_id" gorm:"not null;index"`
	Content string       `json:"content" gorm:"type:text;not null" validate:"required"`
	Type    QuestionType `json:"question_type" gorm:"not null;index" validate:"required,oneof=multiple_choice true_false short_answer"`

	// Placement within the three-part exam structure.
	PartNumber  int `json:"part_number" gorm:"not null" validate:"min=1,max=3"`
	OrderInPart int `json:"order_in_part" gorm:"not null"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Options is only meaningful for multiple choice. Order is significant:
	// display labels A, B, C... are derived from OrderIndex.
	Options []AnswerOption `json:"answers" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectOption returns the option flagged as ground truth. Exactly one
// option is expected to be flagged; when zero are flagged ok is false, and
// when several are flagged the first in display order wins.
func (q *Question) CorrectOption() (*AnswerOption, bool) {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i], true
		}
	}
	return nil, false
}

type AnswerOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Content    string `json:"content" gorm:"type:text"`
	IsCorrect  bool   `json:"is_correct"`
	OrderIndex int    `json:"order_index" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AnswerOption) TableName() string {
	return "question_answers"
}

// Label returns the display label (A, B, C...) derived from display order.
func (o AnswerOption) Label() string {
	if o.OrderIndex < 0 || o.OrderIndex >= 26 {
		return ""
	}
	return string(rune('A' + o.OrderIndex))
}
