package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

type AttemptMode string

const (
	// AttemptModeExam is the timed runner: answers are held in memory until a
	// single final submission, forced by the countdown on expiry.
	AttemptModeExam AttemptMode = "exam"
	// AttemptModePractice is the untimed runner: every answer change is
	// persisted as it happens so the session is resumable.
	AttemptModePractice AttemptMode = "practice"
)

// ExamAttempt is one student's instance of taking a specific exam. Its status
// moves one way, in_progress -> submitted, and the transition is performed
// exactly once via a status-guarded update.
type ExamAttempt struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	ExamID    uint          `json:"exam_id" gorm:"not null;index"`
	StudentID string        `json:"student_id" gorm:"not null;index;size:255"`
	Mode      AttemptMode   `json:"mode" gorm:"not null;default:exam"`
	Status    AttemptStatus `json:"status" gorm:"not null;default:in_progress;index"`

	StartTime  time.Time  `json:"start_time"`
	SubmitTime *time.Time `json:"submit_time"`
	Duration   int        `json:"duration"` // Minutes; 0 means no time limit

	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	Score          float64 `json:"score"` // 0-10 scale, two decimals

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Exam    Exam               `json:"-" gorm:"foreignKey:ExamID"`
	Answers []StudentAnswerRow `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// StudentAnswerRow is the persisted answer for one question of one attempt,
// upserted on the (attempt_id, question_id) composite key. Practice mode
// upserts rows incrementally during the session; exam mode writes all rows
// once at submission.
type StudentAnswerRow struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`

	QuestionType QuestionType   `json:"question_type" gorm:"not null"`
	Payload      datatypes.JSON `json:"payload" gorm:"type:jsonb"`

	// Per-question grading. Always false/0 for true_false and short_answer:
	// only multiple choice is auto-scored.
	IsCorrect bool    `json:"is_correct"`
	Score     float64 `json:"score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Attempt  ExamAttempt `json:"-" gorm:"foreignKey:AttemptID"`
	Question Question    `json:"-" gorm:"foreignKey:QuestionID"`
}

func (StudentAnswerRow) TableName() string {
	return "student_answers"
}
