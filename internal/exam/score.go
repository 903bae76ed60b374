package exam

import (
	"math"
	"time"

	"github.com/xdarkflarex/exam-web/internal/models"
)

// ScoreResult is the outcome of scoring one attempt.
type ScoreResult struct {
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
	Score          float64 `json:"score"` // 0-10 scale, two decimals
}

// Score grades an answer map against a question set. Only multiple choice is
// auto-scored: a question is correct iff the selected option is the one
// flagged as ground truth. True/false and short answer contribute zero
// unconditionally; their grading is deferred.
//
// Score is a pure function of its inputs.
func Score(questions []*models.Question, answers AnswerMap) ScoreResult {
	result := ScoreResult{TotalQuestions: len(questions)}
	for _, q := range questions {
		if questionCorrect(q, answers[q.ID]) {
			result.CorrectAnswers++
		}
	}

	if result.TotalQuestions == 0 {
		return result
	}
	result.Score = round2(float64(result.CorrectAnswers) / float64(result.TotalQuestions) * 10)
	return result
}

func questionCorrect(q *models.Question, ans StudentAnswer) bool {
	if q.Type != models.MultipleChoice {
		return false
	}
	mc, ok := ans.(MultipleChoiceAnswer)
	if !ok || mc.SelectedAnswer == nil {
		return false
	}
	correct, ok := q.CorrectOption()
	if !ok {
		return false
	}
	return *mc.SelectedAnswer == correct.ID
}

// BuildRow converts one in-memory answer into its persisted row, including
// per-question correctness and score.
func BuildRow(attemptID uint, q *models.Question, ans StudentAnswer) (*models.StudentAnswerRow, error) {
	if ans == nil {
		ans = emptyAnswer(q.Type)
	}

	payload, err := MarshalPayload(ans)
	if err != nil {
		return nil, err
	}

	row := &models.StudentAnswerRow{
		AttemptID:    attemptID,
		QuestionID:   q.ID,
		QuestionType: q.Type,
		Payload:      payload,
	}
	if questionCorrect(q, ans) {
		row.IsCorrect = true
		row.Score = 1
	}
	return row, nil
}

// BuildRows builds one persisted row per question from the current answer
// map, unanswered questions included.
func BuildRows(attemptID uint, questions []*models.Question, answers AnswerMap) ([]*models.StudentAnswerRow, error) {
	rows := make([]*models.StudentAnswerRow, 0, len(questions))
	for _, q := range questions {
		row, err := BuildRow(attemptID, q, answers[q.ID])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SubmitPatch is the attempt mutation applied by the status-guarded update.
type SubmitPatch struct {
	SubmitTime     time.Time
	TotalQuestions int
	CorrectAnswers int
	Score          float64
}

func (r ScoreResult) Patch(submitTime time.Time) SubmitPatch {
	return SubmitPatch{
		SubmitTime:     submitTime,
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
		Score:          r.Score,
	}
}

func emptyAnswer(t models.QuestionType) StudentAnswer {
	switch t {
	case models.TrueFalse:
		return TrueFalseAnswer{Selections: map[int]bool{}}
	case models.ShortAnswer:
		return ShortAnswerText{}
	default:
		return MultipleChoiceAnswer{}
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
