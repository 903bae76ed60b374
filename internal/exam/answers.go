package exam

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xdarkflarex/exam-web/internal/models"
	"gorm.io/datatypes"
)

var (
	ErrQuestionNotInExam    = errors.New("question not in exam")
	ErrQuestionTypeMismatch = errors.New("answer shape does not match question type")
	ErrStatementIndexRange  = errors.New("statement index out of range")
)

// StudentAnswer is the per-question answer state, a closed variant set over
// the three question types. Invalid combinations (a text answer on a multiple
// choice question, say) are unrepresentable.
type StudentAnswer interface {
	QuestionType() models.QuestionType

	// Answered reports whether the question counts as answered for progress
	// indication. This is deliberately looser than "complete": one judged
	// statement answers a true/false question, and any non-whitespace text
	// answers a short answer question.
	Answered() bool

	studentAnswer()
}

type MultipleChoiceAnswer struct {
	SelectedAnswer *uint
}

func (MultipleChoiceAnswer) QuestionType() models.QuestionType { return models.MultipleChoice }
func (MultipleChoiceAnswer) studentAnswer()                    {}

func (a MultipleChoiceAnswer) Answered() bool {
	return a.SelectedAnswer != nil
}

type TrueFalseAnswer struct {
	Selections map[int]bool
}

func (TrueFalseAnswer) QuestionType() models.QuestionType { return models.TrueFalse }
func (TrueFalseAnswer) studentAnswer()                    {}

func (a TrueFalseAnswer) Answered() bool {
	return len(a.Selections) > 0
}

type ShortAnswerText struct {
	Text string
}

func (ShortAnswerText) QuestionType() models.QuestionType { return models.ShortAnswer }
func (ShortAnswerText) studentAnswer()                    {}

func (a ShortAnswerText) Answered() bool {
	return strings.TrimSpace(a.Text) != ""
}

// AnswerMap holds the canonical answer state of one attempt, keyed by
// question id.
type AnswerMap map[uint]StudentAnswer

// SetMultipleChoice replaces any prior answer for the question with a single
// selection.
func (m AnswerMap) SetMultipleChoice(questionID, answerID uint) {
	id := answerID
	m[questionID] = MultipleChoiceAnswer{SelectedAnswer: &id}
}

// SetTrueFalse merges one statement judgment into the existing per-statement
// map without clearing the other statements.
func (m AnswerMap) SetTrueFalse(questionID uint, statementIndex int, value bool) error {
	if statementIndex < 0 || statementIndex >= models.TrueFalseStatementCount {
		return fmt.Errorf("%w: %d", ErrStatementIndexRange, statementIndex)
	}

	prev, ok := m[questionID].(TrueFalseAnswer)
	if !ok {
		prev = TrueFalseAnswer{Selections: make(map[int]bool, models.TrueFalseStatementCount)}
	}
	prev.Selections[statementIndex] = value
	m[questionID] = prev
	return nil
}

// SetShortAnswer replaces the text verbatim. Trimming applies only to the
// answered predicate, never to storage.
func (m AnswerMap) SetShortAnswer(questionID uint, text string) {
	m[questionID] = ShortAnswerText{Text: text}
}

// AnsweredSet derives the set of answered question ids from the current map.
func (m AnswerMap) AnsweredSet() map[uint]bool {
	set := make(map[uint]bool, len(m))
	for id, ans := range m {
		if ans.Answered() {
			set[id] = true
		}
	}
	return set
}

func (m AnswerMap) AnsweredCount() int {
	n := 0
	for _, ans := range m {
		if ans.Answered() {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the map. True/false selection maps are
// copied too, so the clone is safe to read after further mutation.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for id, ans := range m {
		if tf, ok := ans.(TrueFalseAnswer); ok {
			sel := make(map[int]bool, len(tf.Selections))
			for k, v := range tf.Selections {
				sel[k] = v
			}
			out[id] = TrueFalseAnswer{Selections: sel}
			continue
		}
		out[id] = ans
	}
	return out
}

// MarshalPayload serializes an answer into the JSON shape persisted in
// StudentAnswerRow.Payload.
func MarshalPayload(ans StudentAnswer) (datatypes.JSON, error) {
	var payload any
	switch a := ans.(type) {
	case MultipleChoiceAnswer:
		payload = models.MultipleChoicePayload{SelectedAnswer: a.SelectedAnswer}
	case TrueFalseAnswer:
		payload = models.TrueFalsePayload{Selections: a.Selections}
	case ShortAnswerText:
		payload = models.ShortAnswerPayload{Text: a.Text}
	default:
		return nil, fmt.Errorf("unknown answer variant %T", ans)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answer payload: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// UnmarshalPayload decodes a persisted row payload back into the in-memory
// variant, used to seed a resumed session.
func UnmarshalPayload(questionType models.QuestionType, raw datatypes.JSON) (StudentAnswer, error) {
	switch questionType {
	case models.MultipleChoice:
		var p models.MultipleChoicePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal multiple choice payload: %w", err)
		}
		return MultipleChoiceAnswer{SelectedAnswer: p.SelectedAnswer}, nil
	case models.TrueFalse:
		var p models.TrueFalsePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal true/false payload: %w", err)
		}
		if p.Selections == nil {
			p.Selections = make(map[int]bool)
		}
		return TrueFalseAnswer{Selections: p.Selections}, nil
	case models.ShortAnswer:
		var p models.ShortAnswerPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal short answer payload: %w", err)
		}
		return ShortAnswerText{Text: p.Text}, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", questionType)
	}
}
