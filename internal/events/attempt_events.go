package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/xdarkflarex/exam-web/internal/models"
)

// EventType represents the attempt lifecycle events published to the
// platform's notification and reporting consumers.
type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
)

// AttemptEvent is the envelope for all attempt lifecycle events.
type AttemptEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data"`
}

type AttemptStartedEvent struct {
	AttemptID uint               `json:"attempt_id"`
	ExamID    uint               `json:"exam_id"`
	StudentID string             `json:"student_id"`
	Mode      models.AttemptMode `json:"mode"`
	StartTime time.Time          `json:"start_time"`
	Duration  int                `json:"duration"` // minutes, 0 = untimed
}

type AttemptSubmittedEvent struct {
	AttemptID      uint               `json:"attempt_id"`
	ExamID         uint               `json:"exam_id"`
	StudentID      string             `json:"student_id"`
	Mode           models.AttemptMode `json:"mode"`
	SubmittedAt    time.Time          `json:"submitted_at"`
	TotalQuestions int                `json:"total_questions"`
	CorrectAnswers int                `json:"correct_answers"`
	Score          float64            `json:"score"`
}

func NewAttemptStartedEvent(attempt *models.ExamAttempt) *AttemptEvent {
	return &AttemptEvent{
		ID:        watermill.NewUUID(),
		Type:      EventAttemptStarted,
		Timestamp: time.Now(),
		Source:    "exam-web",
		Version:   "1.0",
		Data: AttemptStartedEvent{
			AttemptID: attempt.ID,
			ExamID:    attempt.ExamID,
			StudentID: attempt.StudentID,
			Mode:      attempt.Mode,
			StartTime: attempt.StartTime,
			Duration:  attempt.Duration,
		},
	}
}

func NewAttemptSubmittedEvent(attempt *models.ExamAttempt, submittedAt time.Time) *AttemptEvent {
	return &AttemptEvent{
		ID:        watermill.NewUUID(),
		Type:      EventAttemptSubmitted,
		Timestamp: time.Now(),
		Source:    "exam-web",
		Version:   "1.0",
		Data: AttemptSubmittedEvent{
			AttemptID:      attempt.ID,
			ExamID:         attempt.ExamID,
			StudentID:      attempt.StudentID,
			Mode:           attempt.Mode,
			SubmittedAt:    submittedAt,
			TotalQuestions: attempt.TotalQuestions,
			CorrectAnswers: attempt.CorrectAnswers,
			Score:          attempt.Score,
		},
	}
}
