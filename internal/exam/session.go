package exam

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/xdarkflarex/exam-web/internal/models"
)

// AnswerSink receives incremental answer writes in practice mode. Upserts are
// idempotent on the (attempt_id, question_id) key.
type AnswerSink interface {
	SaveAnswer(ctx context.Context, row *models.StudentAnswerRow) error
}

// Session is the shared answer-state engine: one instance per in-progress
// attempt, owning the canonical answer map and the persistence cadence.
//
// Two policies differentiate the sibling runners:
//   - exam mode holds answers in memory until final submission and carries a
//     countdown whose expiry forces that submission;
//   - practice mode pushes every change to the sink as it happens, short
//     answers debounced per question, so the session survives a reload.
type Session struct {
	attemptID uint
	mode      models.AttemptMode
	questions []*models.Question
	byID      map[uint]*models.Question

	sink          AnswerSink
	debounceDelay time.Duration
	countdown     *Countdown
	logger        *slog.Logger

	mu         sync.Mutex
	answers    AnswerMap
	current    uint // last question navigated to, 0 when unset
	debouncers map[uint]*Debouncer
	saves      saveQueue
	closed     bool
}

type SessionConfig struct {
	AttemptID uint
	Mode      models.AttemptMode
	Questions []*models.Question

	// Sink is required in practice mode and ignored in exam mode.
	Sink AnswerSink

	// Countdown is set for timed attempts only.
	Countdown *Countdown

	// DebounceDelay defaults to DefaultDebounceDelay when zero.
	DebounceDelay time.Duration

	Logger *slog.Logger
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Mode == models.AttemptModePractice && cfg.Sink == nil {
		return nil, fmt.Errorf("practice session requires an answer sink")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}

	byID := make(map[uint]*models.Question, len(cfg.Questions))
	for _, q := range cfg.Questions {
		byID[q.ID] = q
	}

	return &Session{
		attemptID:     cfg.AttemptID,
		mode:          cfg.Mode,
		questions:     cfg.Questions,
		byID:          byID,
		sink:          cfg.Sink,
		debounceDelay: cfg.DebounceDelay,
		countdown:     cfg.Countdown,
		logger:        cfg.Logger,
		answers:       make(AnswerMap, len(cfg.Questions)),
		debouncers:    make(map[uint]*Debouncer),
	}, nil
}

func (s *Session) AttemptID() uint { return s.attemptID }

func (s *Session) Mode() models.AttemptMode { return s.mode }

func (s *Session) Countdown() *Countdown { return s.countdown }

// Seed loads previously persisted rows into the answer map, making a practice
// session resumable after a crash or reload.
func (s *Session) Seed(rows []*models.StudentAnswerRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		if _, ok := s.byID[row.QuestionID]; !ok {
			continue
		}
		ans, err := UnmarshalPayload(row.QuestionType, row.Payload)
		if err != nil {
			return fmt.Errorf("failed to seed answer for question %d: %w", row.QuestionID, err)
		}
		s.answers[row.QuestionID] = ans
	}
	return nil
}

// SetMultipleChoice records a single selection for the question, replacing
// any prior one. In practice mode the change is persisted immediately.
func (s *Session) SetMultipleChoice(ctx context.Context, questionID, answerID uint) error {
	q, err := s.question(questionID, models.MultipleChoice)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.answers.SetMultipleChoice(questionID, answerID)
	ans := s.answers[questionID]
	s.mu.Unlock()

	return s.persistNow(ctx, q, ans)
}

// SetTrueFalse merges one statement judgment (index 0..3) into the question's
// selections. In practice mode the change is persisted immediately.
func (s *Session) SetTrueFalse(ctx context.Context, questionID uint, statementIndex int, value bool) error {
	q, err := s.question(questionID, models.TrueFalse)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.answers.SetTrueFalse(questionID, statementIndex, value); err != nil {
		s.mu.Unlock()
		return err
	}
	ans := s.answers[questionID].(TrueFalseAnswer)
	snapshot := TrueFalseAnswer{Selections: make(map[int]bool, len(ans.Selections))}
	for k, v := range ans.Selections {
		snapshot.Selections[k] = v
	}
	s.mu.Unlock()

	return s.persistNow(ctx, q, snapshot)
}

// SetShortAnswer replaces the text verbatim. In practice mode persistence is
// debounced: the save fires only after the configured quiet period, carrying
// whatever text is current at that point.
func (s *Session) SetShortAnswer(ctx context.Context, questionID uint, text string) error {
	q, err := s.question(questionID, models.ShortAnswer)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.answers.SetShortAnswer(questionID, text)
	if s.mode != models.AttemptModePractice || s.closed {
		s.mu.Unlock()
		return nil
	}
	deb, ok := s.debouncers[questionID]
	if !ok {
		deb = NewDebouncer(s.debounceDelay)
		s.debouncers[questionID] = deb
	}
	s.mu.Unlock()

	deb.Trigger(func() {
		s.mu.Lock()
		ans, ok := s.answers[questionID]
		closed := s.closed
		s.mu.Unlock()
		if !ok || closed {
			return
		}
		if err := s.persist(context.Background(), q, ans); err != nil {
			s.logger.Error("Failed to save short answer",
				"attempt_id", s.attemptID,
				"question_id", questionID,
				"error", err)
		}
	})
	return nil
}

// SetCurrent records the question the student last navigated to.
func (s *Session) SetCurrent(questionID uint) error {
	if _, ok := s.byID[questionID]; !ok {
		return fmt.Errorf("%w: %d", ErrQuestionNotInExam, questionID)
	}
	s.mu.Lock()
	s.current = questionID
	s.mu.Unlock()
	return nil
}

// Answers returns an independent copy of the current answer map.
func (s *Session) Answers() AnswerMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.AnsweredCount()
}

// Score grades the current answer map.
func (s *Session) Score() ScoreResult {
	return Score(s.questions, s.Answers())
}

// Rows builds the full per-question row set from the current answer map, the
// payload of the final bulk upsert at submission.
func (s *Session) Rows() ([]*models.StudentAnswerRow, error) {
	return BuildRows(s.attemptID, s.questions, s.Answers())
}

// TimeRemaining returns the whole seconds left, or nil for untimed sessions.
func (s *Session) TimeRemaining() *int {
	if s.countdown == nil {
		return nil
	}
	rem := int(s.countdown.Remaining().Seconds())
	return &rem
}

// Close stops pending debounce timers so no new save is scheduled after
// teardown. An already in-flight save is not cancelled.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	debouncers := make([]*Debouncer, 0, len(s.debouncers))
	for _, d := range s.debouncers {
		debouncers = append(debouncers, d)
	}
	s.mu.Unlock()

	for _, d := range debouncers {
		d.Stop()
	}
}

func (s *Session) question(questionID uint, want models.QuestionType) (*models.Question, error) {
	q, ok := s.byID[questionID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrQuestionNotInExam, questionID)
	}
	if q.Type != want {
		return nil, fmt.Errorf("%w: question %d is %s, not %s", ErrQuestionTypeMismatch, questionID, q.Type, want)
	}
	return q, nil
}

// persistNow writes a change through the sink when the session's cadence is
// incremental, and is a no-op otherwise.
func (s *Session) persistNow(ctx context.Context, q *models.Question, ans StudentAnswer) error {
	if s.mode != models.AttemptModePractice {
		return nil
	}
	return s.persist(ctx, q, ans)
}

func (s *Session) persist(ctx context.Context, q *models.Question, ans StudentAnswer) error {
	row, err := BuildRow(s.attemptID, q, ans)
	if err != nil {
		return err
	}
	// Saves are serialized per question key so two rapid edits to the same
	// question cannot land out of order; writes to distinct questions still
	// run concurrently.
	return s.saves.run(q.ID, func() error {
		return s.sink.SaveAnswer(ctx, row)
	})
}

// Progress is the derived view behind the navigation sidebar: questions
// grouped by part with part-relative and global sequence numbers, answered
// flags, the current question, and the remaining seconds for timed sessions.
type Progress struct {
	Parts          []PartProgress `json:"parts"`
	AnsweredCount  int            `json:"answered_count"`
	TotalQuestions int            `json:"total_questions"`
	CurrentID      uint           `json:"current_question_id,omitempty"`
	TimeRemaining  *int           `json:"time_remaining,omitempty"` // seconds
}

type PartProgress struct {
	PartNumber int                `json:"part_number"`
	Questions  []QuestionProgress `json:"questions"`
}

type QuestionProgress struct {
	QuestionID   uint `json:"question_id"`
	NumberInPart int  `json:"number_in_part"`
	GlobalNumber int  `json:"global_number"`
	Answered     bool `json:"answered"`
	Current      bool `json:"current"`
}

// Progress derives the sidebar view from the current answer map.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	answered := s.answers.AnsweredSet()
	current := s.current
	s.mu.Unlock()

	byPart := make(map[int][]*models.Question)
	for _, q := range s.questions {
		byPart[q.PartNumber] = append(byPart[q.PartNumber], q)
	}
	partNumbers := make([]int, 0, len(byPart))
	for p := range byPart {
		partNumbers = append(partNumbers, p)
	}
	sort.Ints(partNumbers)

	out := Progress{
		TotalQuestions: len(s.questions),
		AnsweredCount:  len(answered),
		CurrentID:      current,
		TimeRemaining:  s.TimeRemaining(),
	}

	global := 0
	for _, p := range partNumbers {
		qs := byPart[p]
		sort.Slice(qs, func(i, j int) bool { return qs[i].OrderInPart < qs[j].OrderInPart })

		part := PartProgress{PartNumber: p, Questions: make([]QuestionProgress, 0, len(qs))}
		for i, q := range qs {
			global++
			part.Questions = append(part.Questions, QuestionProgress{
				QuestionID:   q.ID,
				NumberInPart: i + 1,
				GlobalNumber: global,
				Answered:     answered[q.ID],
				Current:      q.ID == current,
			})
		}
		out.Parts = append(out.Parts, part)
	}
	return out
}

// saveQueue chains saves per question key: each caller waits for the previous
// save on the same key to finish, preserving submission order.
type saveQueue struct {
	mu    sync.Mutex
	tails map[uint]chan struct{}
}

func (q *saveQueue) run(key uint, fn func() error) error {
	q.mu.Lock()
	if q.tails == nil {
		q.tails = make(map[uint]chan struct{})
	}
	prev := q.tails[key]
	done := make(chan struct{})
	q.tails[key] = done
	q.mu.Unlock()

	if prev != nil {
		<-prev
	}
	defer func() {
		close(done)
		q.mu.Lock()
		if q.tails[key] == done {
			delete(q.tails, key)
		}
		q.mu.Unlock()
	}()

	return fn()
}
