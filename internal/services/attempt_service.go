package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xdarkflarex/exam-web/internal/events"
	"github.com/xdarkflarex/exam-web/internal/exam"
	"github.com/xdarkflarex/exam-web/internal/models"
	"github.com/xdarkflarex/exam-web/internal/repositories"
	"github.com/xdarkflarex/exam-web/internal/utils"
)

type attemptService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator

	clock         exam.Clock
	debounceDelay time.Duration
	watchInterval time.Duration

	mu       sync.Mutex
	sessions map[uint]*exam.Session
	watchers map[uint]context.CancelFunc
}

// Option tweaks timing behavior, used by tests to avoid real waits.
type Option func(*attemptService)

func WithClock(clock exam.Clock) Option {
	return func(s *attemptService) { s.clock = clock }
}

func WithDebounceDelay(d time.Duration) Option {
	return func(s *attemptService) { s.debounceDelay = d }
}

func WithWatchInterval(d time.Duration) Option {
	return func(s *attemptService) { s.watchInterval = d }
}

func NewAttemptService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator, opts ...Option) AttemptService {
	s := &attemptService{
		repo:          repo,
		publisher:     publisher,
		logger:        logger,
		validator:     validator,
		clock:         exam.SystemClock,
		debounceDelay: exam.DefaultDebounceDelay,
		watchInterval: time.Second,
		sessions:      make(map[uint]*exam.Session),
		watchers:      make(map[uint]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting exam attempt",
		"exam_id", req.ExamID,
		"mode", req.Mode,
		"student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	examMeta, err := s.repo.Question().GetExam(ctx, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	// Resume an existing in-progress attempt instead of creating a duplicate.
	current, err := s.repo.Attempt().GetActiveAttempt(ctx, req.ExamID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}
	if current != nil {
		s.logger.Info("Resuming existing attempt", "attempt_id", current.ID)
		return s.Resume(ctx, current.ID, studentID)
	}

	duration := 0
	if req.Mode == models.AttemptModeExam {
		duration = examMeta.Duration
	}

	attempt := &models.ExamAttempt{
		ExamID:    req.ExamID,
		StudentID: studentID,
		Mode:      req.Mode,
		Status:    models.AttemptInProgress,
		StartTime: s.clock.Now(),
		Duration:  duration,
	}
	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	sess, err := s.openSession(ctx, attempt)
	if err != nil {
		return nil, err
	}

	// Best effort: lifecycle events never block or fail the attempt.
	go func() {
		if err := s.publisher.PublishAttemptEvent(context.Background(), events.NewAttemptStartedEvent(attempt)); err != nil {
			s.logger.Error("Failed to publish attempt started event", "attempt_id", attempt.ID, "error", err)
		}
	}()

	s.logger.Info("Exam attempt started successfully",
		"attempt_id", attempt.ID,
		"exam_id", req.ExamID,
		"student_id", studentID)

	return s.buildAttemptResponse(attempt, sess, false), nil
}

func (s *attemptService) Resume(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "resume")
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptNotActive
	}

	sess, err := s.ensureSession(ctx, attempt)
	if err != nil {
		return nil, err
	}

	// A timed attempt found expired on resume is force-submitted with
	// whatever was recorded, same path as the countdown firing.
	if cd := sess.Countdown(); cd != nil && cd.Expired() {
		s.handleTimeout(attemptID)
		return nil, ErrAttemptNotActive
	}

	s.logger.Info("Exam attempt resumed", "attempt_id", attemptID, "student_id", studentID)

	resp := s.buildAttemptResponse(attempt, sess, true)
	return resp, nil
}

func (s *attemptService) SaveAnswer(ctx context.Context, attemptID uint, req *SaveAnswerRequest, studentID string) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "save_answer")
	if err != nil {
		return err
	}
	if attempt.Status != models.AttemptInProgress {
		return ErrAttemptNotActive
	}

	sess, err := s.ensureSession(ctx, attempt)
	if err != nil {
		return err
	}
	if cd := sess.Countdown(); cd != nil && cd.Expired() {
		return ErrAttemptNotActive
	}

	switch req.QuestionType {
	case models.MultipleChoice:
		if req.SelectedAnswer == nil {
			return NewValidationError("selected_answer", "is required for multiple choice", nil)
		}
		return sess.SetMultipleChoice(ctx, req.QuestionID, *req.SelectedAnswer)
	case models.TrueFalse:
		if req.StatementIndex == nil || req.StatementValue == nil {
			return NewValidationError("statement_index", "statement index and value are required for true/false", nil)
		}
		return sess.SetTrueFalse(ctx, req.QuestionID, *req.StatementIndex, *req.StatementValue)
	case models.ShortAnswer:
		if req.Text == nil {
			return NewValidationError("text", "is required for short answer", nil)
		}
		return sess.SetShortAnswer(ctx, req.QuestionID, *req.Text)
	default:
		return NewValidationError("question_type", "unknown question type", req.QuestionType)
	}
}

// Submit runs the two-phase submit transaction. The phases are not atomic
// across each other: a failure between them leaves answers persisted and the
// attempt still in progress, and a retry re-runs both phases relying on
// upsert idempotency.
func (s *attemptService) Submit(ctx context.Context, attemptID uint, studentID string) (*SubmitResult, error) {
	s.logger.Info("Submitting exam attempt",
		"attempt_id", attemptID,
		"student_id", studentID)

	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "submit")
	if err != nil {
		return nil, err
	}
	if attempt.Status == models.AttemptSubmitted {
		return &SubmitResult{Attempt: s.buildAttemptResponse(attempt, nil, false), AlreadySubmitted: true}, nil
	}

	sess, err := s.ensureSession(ctx, attempt)
	if err != nil {
		return nil, err
	}

	rows, err := sess.Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to build answer rows: %w", err)
	}
	score := sess.Score()

	// Phase 1: persist every answer row. Idempotent on the composite key, so
	// a retry after a later failure re-applies cleanly.
	if err := s.repo.Answer().BulkUpsert(ctx, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveAnswersFailed, err)
	}

	// Phase 2: status-guarded attempt update.
	submitTime := s.clock.Now()
	ok, err := s.repo.Attempt().SubmitIfInProgress(ctx, attemptID, repositories.SubmitPatch{
		SubmitTime:     submitTime,
		TotalQuestions: score.TotalQuestions,
		CorrectAnswers: score.CorrectAnswers,
		Score:          score.Score,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpdateAttemptFailed, err)
	}
	if !ok {
		// The guard did not hold: another submit won the race. Re-read and
		// treat a submitted attempt as the expected terminal state.
		fresh, rerr := s.repo.Attempt().GetByID(ctx, attemptID)
		if rerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpdateAttemptFailed, rerr)
		}
		if fresh.Status == models.AttemptSubmitted {
			s.logger.Info("Attempt already submitted by a racing request", "attempt_id", attemptID)
			s.teardownSession(attemptID)
			return &SubmitResult{Attempt: s.buildAttemptResponse(fresh, nil, false), AlreadySubmitted: true}, nil
		}
		return nil, ErrAttemptNotActive
	}

	attempt.Status = models.AttemptSubmitted
	attempt.SubmitTime = &submitTime
	attempt.TotalQuestions = score.TotalQuestions
	attempt.CorrectAnswers = score.CorrectAnswers
	attempt.Score = score.Score

	s.teardownSession(attemptID)

	go func() {
		if err := s.publisher.PublishAttemptEvent(context.Background(), events.NewAttemptSubmittedEvent(attempt, submitTime)); err != nil {
			s.logger.Error("Failed to publish attempt submitted event", "attempt_id", attemptID, "error", err)
		}
	}()

	s.logger.Info("Exam attempt submitted successfully",
		"attempt_id", attemptID,
		"score", score.Score,
		"correct_answers", score.CorrectAnswers,
		"total_questions", score.TotalQuestions)

	return &SubmitResult{Attempt: s.buildAttemptResponse(attempt, nil, false)}, nil
}

// CloseAttempt tears down the session without submitting. In practice mode
// every change is already persisted, so this is the save-and-exit path.
func (s *attemptService) CloseAttempt(ctx context.Context, attemptID uint, studentID string) error {
	if _, err := s.getOwnedAttempt(ctx, attemptID, studentID, "close"); err != nil {
		return err
	}
	s.teardownSession(attemptID)
	s.logger.Info("Exam attempt session closed", "attempt_id", attemptID, "student_id", studentID)
	return nil
}

// ===== READ OPERATIONS =====

func (s *attemptService) Progress(ctx context.Context, attemptID uint, studentID string) (*exam.Progress, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "progress")
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptNotActive
	}

	sess, err := s.ensureSession(ctx, attempt)
	if err != nil {
		return nil, err
	}
	p := sess.Progress()
	return &p, nil
}

func (s *attemptService) GetTimeRemaining(ctx context.Context, attemptID uint, studentID string) (int, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "get_time_remaining")
	if err != nil {
		return 0, err
	}
	if attempt.Status != models.AttemptInProgress {
		return 0, ErrAttemptNotActive
	}
	if attempt.Mode != models.AttemptModeExam || attempt.Duration == 0 {
		return 0, nil // No time limit
	}

	sess, err := s.ensureSession(ctx, attempt)
	if err != nil {
		return 0, err
	}
	if rem := sess.TimeRemaining(); rem != nil {
		return *rem, nil
	}
	return 0, nil
}

// Result is the read-only view behind the results route: it re-reads the
// submitted attempt and its persisted rows.
func (s *attemptService) Result(ctx context.Context, attemptID uint, studentID string) (*AttemptResult, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "result")
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptSubmitted {
		return nil, ErrAttemptNotActive
	}

	rows, err := s.repo.Answer().GetByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt answers: %w", err)
	}

	return &AttemptResult{
		Attempt: s.buildAttemptResponse(attempt, nil, false),
		Answers: rows,
	}, nil
}

// ===== SESSION MANAGEMENT =====

func (s *attemptService) openSession(ctx context.Context, attempt *models.ExamAttempt) (*exam.Session, error) {
	return s.ensureSession(ctx, attempt)
}

func (s *attemptService) ensureSession(ctx context.Context, attempt *models.ExamAttempt) (*exam.Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[attempt.ID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	questions, err := s.repo.Question().GetBank(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question bank: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrExamHasNoBank
	}

	var countdown *exam.Countdown
	if attempt.Mode == models.AttemptModeExam && attempt.Duration > 0 {
		countdown = exam.NewCountdown(s.clock, attempt.StartTime, time.Duration(attempt.Duration)*time.Minute)
	}

	cfg := exam.SessionConfig{
		AttemptID:     attempt.ID,
		Mode:          attempt.Mode,
		Questions:     questions,
		Countdown:     countdown,
		DebounceDelay: s.debounceDelay,
		Logger:        s.logger,
	}
	if attempt.Mode == models.AttemptModePractice {
		cfg.Sink = answerSink{answers: s.repo.Answer()}
	}

	sess, err := exam.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	// Seed from any persisted rows: practice resumes, and an exam attempt
	// caught in the window between a successful bulk upsert and a failed
	// status update recovers its answers too.
	rows, err := s.repo.Answer().GetByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted answers: %w", err)
	}
	if err := sess.Seed(rows); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.sessions[attempt.ID]; ok {
		s.mu.Unlock()
		sess.Close()
		return existing, nil
	}
	s.sessions[attempt.ID] = sess
	var watchCtx context.Context
	if countdown != nil {
		var cancel context.CancelFunc
		watchCtx, cancel = context.WithCancel(context.Background())
		s.watchers[attempt.ID] = cancel
	}
	s.mu.Unlock()

	if countdown != nil {
		attemptID := attempt.ID
		go countdown.Watch(watchCtx, s.watchInterval, func() {
			s.handleTimeout(attemptID)
		})
	}

	return sess, nil
}

func (s *attemptService) teardownSession(attemptID uint) {
	s.mu.Lock()
	sess := s.sessions[attemptID]
	cancel := s.watchers[attemptID]
	delete(s.sessions, attemptID)
	delete(s.watchers, attemptID)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sess != nil {
		sess.Close()
	}
}

// handleTimeout is the countdown expiry path. It reuses the manual submit
// transaction with whatever answer map exists at expiry.
func (s *attemptService) handleTimeout(attemptID uint) {
	s.logger.Info("Handling attempt timeout", "attempt_id", attemptID)

	ctx := context.Background()
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		s.logger.Error("Failed to load attempt for timeout", "attempt_id", attemptID, "error", err)
		return
	}
	if attempt.Status != models.AttemptInProgress {
		return // Already handled
	}

	if _, err := s.Submit(ctx, attemptID, attempt.StudentID); err != nil {
		s.logger.Error("Failed to auto-submit timed out attempt", "attempt_id", attemptID, "error", err)
	}
}

// ===== HELPERS =====

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID uint, studentID, action string) (*models.ExamAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", action, "not owned by student")
	}
	return attempt, nil
}

func (s *attemptService) buildAttemptResponse(attempt *models.ExamAttempt, sess *exam.Session, resumed bool) *AttemptResponse {
	resp := &AttemptResponse{
		ID:             attempt.ID,
		ExamID:         attempt.ExamID,
		StudentID:      attempt.StudentID,
		Mode:           attempt.Mode,
		Status:         attempt.Status,
		StartTime:      attempt.StartTime,
		SubmitTime:     attempt.SubmitTime,
		Duration:       attempt.Duration,
		TotalQuestions: attempt.TotalQuestions,
		CorrectAnswers: attempt.CorrectAnswers,
		Score:          attempt.Score,
		Resumed:        resumed,
	}
	if sess != nil {
		resp.TimeRemaining = sess.TimeRemaining()
	}
	return resp
}

type answerSink struct {
	answers repositories.AnswerRepository
}

func (s answerSink) SaveAnswer(ctx context.Context, row *models.StudentAnswerRow) error {
	return s.answers.Upsert(ctx, row)
}
