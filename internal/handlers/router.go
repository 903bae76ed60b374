package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/xdarkflarex/exam-web/internal/services"
	"github.com/xdarkflarex/exam-web/internal/utils"
)

type HandlerManager struct {
	attemptHandler  *AttemptHandler
	questionHandler *QuestionHandler
}

func NewHandlerManager(
	attemptService services.AttemptService,
	bankService services.QuestionBankService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler:  NewAttemptHandler(attemptService, logger),
		questionHandler: NewQuestionHandler(bankService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(StudentIDMiddleware())
	{
		attempts := v1.Group("/attempts")
		{
			attempts.POST("", hm.attemptHandler.StartAttempt)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.PUT("/:id/answers", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.POST("/:id/close", hm.attemptHandler.CloseAttempt)
			attempts.GET("/:id/progress", hm.attemptHandler.GetProgress)
			attempts.GET("/:id/time-remaining", hm.attemptHandler.GetTimeRemaining)
			attempts.GET("/:id/result", hm.attemptHandler.GetResult)
		}

		exams := v1.Group("/exams")
		{
			exams.GET("/:id/questions", hm.questionHandler.GetQuestionBank)
		}
	}
}
