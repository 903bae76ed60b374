package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xdarkflarex/exam-web/internal/cache"
	"github.com/xdarkflarex/exam-web/internal/models"
	"github.com/xdarkflarex/exam-web/internal/repositories"
)

type questionBankService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	ttl    time.Duration
	logger *slog.Logger
}

// NewQuestionBankService returns the read side of the question bank. The
// cache is optional; with nil every read goes to the store.
func NewQuestionBankService(repo repositories.Repository, cacheService cache.CacheService, ttl time.Duration, logger *slog.Logger) QuestionBankService {
	return &questionBankService{
		repo:   repo,
		cache:  cacheService,
		ttl:    ttl,
		logger: logger,
	}
}

func bankCacheKey(examID uint) string {
	return fmt.Sprintf("exam:%d:bank", examID)
}

func (s *questionBankService) GetBank(ctx context.Context, examID uint) (*QuestionBankResponse, error) {
	if s.cache != nil {
		var cached QuestionBankResponse
		err := s.cache.Get(ctx, bankCacheKey(examID), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			// Cache trouble degrades to a store read, never to a failure.
			s.logger.Warn("Question bank cache read failed", "exam_id", examID, "error", err)
		}
	}

	examMeta, err := s.repo.Question().GetExam(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	questions, err := s.repo.Question().GetBank(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question bank: %w", err)
	}

	resp := &QuestionBankResponse{Exam: examMeta}
	for _, q := range questions {
		switch q.PartNumber {
		case models.PartMultipleChoice:
			resp.Part1 = append(resp.Part1, q)
		case models.PartTrueFalse:
			resp.Part2 = append(resp.Part2, q)
		case models.PartShortAnswer:
			resp.Part3 = append(resp.Part3, q)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, bankCacheKey(examID), resp, s.ttl); err != nil {
			s.logger.Warn("Question bank cache write failed", "exam_id", examID, "error", err)
		}
	}

	return resp, nil
}
