package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/xdarkflarex/exam-web/internal/cache"
	"github.com/xdarkflarex/exam-web/internal/config"
	"github.com/xdarkflarex/exam-web/internal/events"
	"github.com/xdarkflarex/exam-web/internal/handlers"
	"github.com/xdarkflarex/exam-web/internal/models"
	"github.com/xdarkflarex/exam-web/internal/repositories/postgres"
	"github.com/xdarkflarex/exam-web/internal/services"
	"github.com/xdarkflarex/exam-web/internal/utils"
	"github.com/xdarkflarex/exam-web/pkg"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&models.Exam{},
		&models.Question{},
		&models.AnswerOption{},
		&models.ExamAttempt{},
		&models.StudentAnswerRow{},
	); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	var bankCache cache.CacheService
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, question bank cache disabled", "error", err)
	} else {
		zapLogger, _ := zap.NewProduction()
		bankCache = cache.NewRedisCache(redisClient, zapLogger)
	}

	var publisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.KafkaBrokers,
			TopicName:    cfg.KafkaTopic,
			Logger:       slogger,
		})
		if err != nil {
			logger.Error("Failed to create Kafka publisher", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("No Kafka brokers configured, attempt events stay in process")
		publisher = events.NewMockEventPublisher(slogger)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	validator := utils.NewValidator()

	attemptService := services.NewAttemptService(repo, publisher, slogger, validator,
		services.WithDebounceDelay(cfg.AnswerDebounce))
	bankService := services.NewQuestionBankService(repo, bankCache, cfg.BankCacheTTL, slogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlers.NewHandlerManager(attemptService, bankService, logger).SetupRoutes(router)

	logger.Info("Starting exam-web server", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
