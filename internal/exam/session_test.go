package exam

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdarkflarex/exam-web/internal/models"
)

// recordingSink captures answer rows in arrival order.
type recordingSink struct {
	mu   sync.Mutex
	rows []*models.StudentAnswerRow
}

func (s *recordingSink) SaveAnswer(_ context.Context, row *models.StudentAnswerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

func (s *recordingSink) saved() []*models.StudentAnswerRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.StudentAnswerRow, len(s.rows))
	copy(out, s.rows)
	return out
}

func sessionQuestions() []*models.Question {
	return []*models.Question{
		mcQuestion(1, 11, 12, 13),
		mcQuestion(2, 21, 22, 23),
		tfQuestion(3),
		saQuestion(4),
	}
}

func newPracticeSession(t *testing.T, sink AnswerSink, debounce time.Duration) *Session {
	t.Helper()
	sess, err := NewSession(SessionConfig{
		AttemptID:     42,
		Mode:          models.AttemptModePractice,
		Questions:     sessionQuestions(),
		Sink:          sink,
		DebounceDelay: debounce,
	})
	require.NoError(t, err)
	return sess
}

func TestNewSession_PracticeRequiresSink(t *testing.T) {
	_, err := NewSession(SessionConfig{
		AttemptID: 1,
		Mode:      models.AttemptModePractice,
		Questions: sessionQuestions(),
	})
	assert.Error(t, err)
}

func TestSession_ExamModeHoldsAnswersInMemory(t *testing.T) {
	sess, err := NewSession(SessionConfig{
		AttemptID: 42,
		Mode:      models.AttemptModeExam,
		Questions: sessionQuestions(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sess.SetMultipleChoice(ctx, 1, 11))
	require.NoError(t, sess.SetTrueFalse(ctx, 3, 0, true))
	require.NoError(t, sess.SetShortAnswer(ctx, 4, "12"))

	assert.Equal(t, 3, sess.AnsweredCount())

	rows, err := sess.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestSession_PracticeModePersistsImmediately(t *testing.T) {
	sink := &recordingSink{}
	sess := newPracticeSession(t, sink, time.Millisecond)

	ctx := context.Background()
	require.NoError(t, sess.SetMultipleChoice(ctx, 1, 13))
	require.NoError(t, sess.SetTrueFalse(ctx, 3, 1, false))

	rows := sink.saved()
	require.Len(t, rows, 2, "each selection change reaches the sink without waiting for submit")
	assert.Equal(t, uint(1), rows[0].QuestionID)
	assert.Equal(t, uint(3), rows[1].QuestionID)
	assert.Equal(t, uint(42), rows[0].AttemptID)
}

func TestSession_ShortAnswerDebounced(t *testing.T) {
	sink := &recordingSink{}
	sess := newPracticeSession(t, sink, 20*time.Millisecond)

	ctx := context.Background()
	for _, text := range []string{"3", "3.", "3.1", "3.14"} {
		require.NoError(t, sess.SetShortAnswer(ctx, 4, text))
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return len(sink.saved()) == 1
	}, time.Second, 5*time.Millisecond, "keystrokes within the quiet period collapse into one save")

	row := sink.saved()[0]
	ans, err := UnmarshalPayload(models.ShortAnswer, row.Payload)
	require.NoError(t, err)
	assert.Equal(t, ShortAnswerText{Text: "3.14"}, ans, "the surviving save carries the final text")
}

func TestSession_CloseStopsPendingDebounce(t *testing.T) {
	sink := &recordingSink{}
	sess := newPracticeSession(t, sink, 30*time.Millisecond)

	require.NoError(t, sess.SetShortAnswer(context.Background(), 4, "half-typed"))
	sess.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, sink.saved(), "closing the session cancels the pending save")
}

func TestSession_Seed(t *testing.T) {
	sink := &recordingSink{}
	first := newPracticeSession(t, sink, time.Millisecond)

	ctx := context.Background()
	require.NoError(t, first.SetMultipleChoice(ctx, 1, 11))
	require.NoError(t, first.SetTrueFalse(ctx, 3, 2, true))

	// Simulate a reload: a fresh session seeded from the persisted rows.
	second := newPracticeSession(t, sink, time.Millisecond)
	require.NoError(t, second.Seed(sink.saved()))

	answers := second.Answers()
	assert.Equal(t, map[uint]bool{1: true, 3: true}, answers.AnsweredSet())

	tf, ok := answers[3].(TrueFalseAnswer)
	require.True(t, ok)
	assert.Equal(t, map[int]bool{2: true}, tf.Selections)
}

func TestSession_SeedSkipsUnknownQuestions(t *testing.T) {
	sess, err := NewSession(SessionConfig{
		AttemptID: 1,
		Mode:      models.AttemptModeExam,
		Questions: sessionQuestions(),
	})
	require.NoError(t, err)

	payload, err := MarshalPayload(MultipleChoiceAnswer{SelectedAnswer: uintPtr(99)})
	require.NoError(t, err)

	require.NoError(t, sess.Seed([]*models.StudentAnswerRow{{
		AttemptID:    1,
		QuestionID:   999, // not part of this exam
		QuestionType: models.MultipleChoice,
		Payload:      payload,
	}}))
	assert.Equal(t, 0, sess.AnsweredCount())
}

func TestSession_RejectsForeignAndMismatchedQuestions(t *testing.T) {
	sess, err := NewSession(SessionConfig{
		AttemptID: 1,
		Mode:      models.AttemptModeExam,
		Questions: sessionQuestions(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, sess.SetMultipleChoice(ctx, 999, 1), ErrQuestionNotInExam)
	assert.ErrorIs(t, sess.SetMultipleChoice(ctx, 3, 1), ErrQuestionTypeMismatch)
	assert.ErrorIs(t, sess.SetTrueFalse(ctx, 1, 0, true), ErrQuestionTypeMismatch)
	assert.ErrorIs(t, sess.SetShortAnswer(ctx, 1, "x"), ErrQuestionTypeMismatch)
	assert.ErrorIs(t, sess.SetCurrent(999), ErrQuestionNotInExam)
}

func TestSession_Progress(t *testing.T) {
	sess, err := NewSession(SessionConfig{
		AttemptID: 1,
		Mode:      models.AttemptModeExam,
		Questions: []*models.Question{
			// Declared out of order to exercise part and order sorting.
			{ID: 4, Type: models.ShortAnswer, PartNumber: 3, OrderInPart: 1},
			{ID: 2, Type: models.MultipleChoice, PartNumber: 1, OrderInPart: 2},
			{ID: 1, Type: models.MultipleChoice, PartNumber: 1, OrderInPart: 1},
			{ID: 3, Type: models.TrueFalse, PartNumber: 2, OrderInPart: 1},
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sess.SetMultipleChoice(ctx, 2, 21))
	require.NoError(t, sess.SetCurrent(3))

	p := sess.Progress()
	assert.Equal(t, 4, p.TotalQuestions)
	assert.Equal(t, 1, p.AnsweredCount)
	assert.Equal(t, uint(3), p.CurrentID)
	assert.Nil(t, p.TimeRemaining, "untimed sessions report no remaining time")

	require.Len(t, p.Parts, 3)
	assert.Equal(t, 1, p.Parts[0].PartNumber)
	require.Len(t, p.Parts[0].Questions, 2)

	q1 := p.Parts[0].Questions[0]
	assert.Equal(t, uint(1), q1.QuestionID)
	assert.Equal(t, 1, q1.NumberInPart)
	assert.Equal(t, 1, q1.GlobalNumber)
	assert.False(t, q1.Answered)

	q2 := p.Parts[0].Questions[1]
	assert.Equal(t, uint(2), q2.QuestionID)
	assert.Equal(t, 2, q2.GlobalNumber)
	assert.True(t, q2.Answered)

	q3 := p.Parts[1].Questions[0]
	assert.Equal(t, uint(3), q3.QuestionID)
	assert.Equal(t, 1, q3.NumberInPart)
	assert.Equal(t, 3, q3.GlobalNumber)
	assert.True(t, q3.Current)

	q4 := p.Parts[2].Questions[0]
	assert.Equal(t, 4, q4.GlobalNumber)
}

func TestSession_TimeRemaining(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)

	sess, err := NewSession(SessionConfig{
		AttemptID: 1,
		Mode:      models.AttemptModeExam,
		Questions: sessionQuestions(),
		Countdown: NewCountdown(clock, start, 45*time.Minute),
	})
	require.NoError(t, err)

	rem := sess.TimeRemaining()
	require.NotNil(t, rem)
	assert.Equal(t, 45*60, *rem)

	clock.Advance(time.Hour)
	rem = sess.TimeRemaining()
	require.NotNil(t, rem)
	assert.Equal(t, 0, *rem)
}

func TestSaveQueue_SerializesPerKey(t *testing.T) {
	var q saveQueue

	firstRunning := make(chan struct{})
	release := make(chan struct{})
	secondDone := make(chan struct{})
	var order []int
	var mu sync.Mutex

	go func() {
		_ = q.run(1, func() error {
			close(firstRunning)
			<-release
			mu.Lock()
			order = append(order, 1)
			mu.Unlock()
			return nil
		})
	}()
	<-firstRunning

	go func() {
		defer close(secondDone)
		_ = q.run(1, func() error {
			mu.Lock()
			order = append(order, 2)
			mu.Unlock()
			return nil
		})
	}()

	select {
	case <-secondDone:
		t.Fatal("second save on the same key ran before the first finished")
	case <-time.After(30 * time.Millisecond):
	}

	// A different question key is not held up by the blocked one.
	otherDone := make(chan struct{})
	go func() {
		defer close(otherDone)
		_ = q.run(2, func() error { return nil })
	}()
	select {
	case <-otherDone:
	case <-time.After(time.Second):
		t.Fatal("save on a distinct key should not wait")
	}

	close(release)
	select {
	case <-secondDone:
	case <-time.After(time.Second):
		t.Fatal("queued save never ran after the first finished")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, order, "writes to one question key land in submission order")
}
