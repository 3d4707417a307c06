package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/hireloop/hireloop-api/internal/config"
	"github.com/hireloop/hireloop-api/internal/database"
	"github.com/hireloop/hireloop-api/internal/handler"
	"github.com/hireloop/hireloop-api/internal/middleware"
	"github.com/hireloop/hireloop-api/internal/models"
	"github.com/hireloop/hireloop-api/internal/repository"
	"github.com/hireloop/hireloop-api/internal/router"
	"github.com/hireloop/hireloop-api/internal/service"
	"github.com/hireloop/hireloop-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.InterviewSession{},
		&models.InterviewQuestion{},
		&models.InterviewTurn{},
		&models.InterviewEvaluation{},
		&models.AgentCallLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// A missing redis falls back to the in-process guard: single-instance
	// deployments still reject concurrent turns.
	guard := service.NewMemorySessionGuard()
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		guard = service.NewRedisSessionGuard(redisClient, cfg.TurnGuardTTL, logger)
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	sessionRepo := repository.NewSessionRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	turnRepo := repository.NewTurnRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	callLogRepo := repository.NewCallLogRepository(db)

	audit := service.NewAuditRecorder(callLogRepo, logger)

	invoker, err := ai.NewOpenAIInvoker(ai.InvokerConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.Model,
		MaxTokens:      cfg.MaxTokens,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	}, audit)
	if err != nil {
		log.Fatalf("failed to create model invoker: %v", err)
	}

	generatorCfg := service.DefaultQuestionGeneratorConfig()
	generatorCfg.MinCount = cfg.MinQuestionCount
	generatorCfg.MaxCount = cfg.MaxQuestionCount
	generatorCfg.DefaultCount = cfg.DefaultQuestionCount

	processorCfg := service.DefaultTurnProcessorConfig()
	processorCfg.MaxFollowUpDepth = cfg.MaxFollowUpDepth
	processorCfg.HistoryWindow = cfg.HistoryWindow

	generator := service.NewQuestionGenerator(invoker, logger, generatorCfg)
	processor := service.NewTurnProcessor(sessionRepo, questionRepo, turnRepo, invoker, guard, logger, processorCfg)
	aggregator := service.NewEvaluationAggregator(sessionRepo, turnRepo, evaluationRepo, invoker, natsConn, logger, service.DefaultEvaluationAggregatorConfig())

	interviewService := service.NewInterviewService(sessionRepo, questionRepo, evaluationRepo, generator, processor, aggregator, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		InterviewHandler: handler.NewInterviewHandler(interviewService, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
