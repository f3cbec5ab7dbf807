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

	"github.com/adhyayan-oer/adhyayan-go-api/internal/config"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/database"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/handler"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/middleware"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/repository"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/router"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/scoring"
	"github.com/adhyayan-oer/adhyayan-go-api/internal/service"
	"github.com/adhyayan-oer/adhyayan-go-api/pkg/ai"
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

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	var judge ai.Judge
	if cfg.OpenAIAPIKey != "" {
		openAIJudge, err := ai.NewOpenAIJudge(ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.AIModel,
			MaxTokens:   cfg.AIMaxTokens,
			Temperature: float32(cfg.AITemperature),
			Timeout:     cfg.AITimeout,
			Logger:      logger,
		})
		if err != nil {
			log.Fatalf("failed to create ai judge: %v", err)
		}
		judge = openAIJudge
	} else {
		logger.Warn().Msg("no openai api key configured, agents fall back to neutral judgments")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	extractionRepo := repository.NewExtractionRepository(db)
	decisionRepo := repository.NewDecisionRepository(db)
	releaseRepo := repository.NewReleaseRepository(db)

	agents := []scoring.Agent{
		scoring.NewClarityAgent(judge, logger),
		scoring.NewCoherenceAgent(judge, logger),
		scoring.NewCompletenessAgent(judge, logger),
		scoring.NewAccuracyAgent(judge, logger),
		scoring.NewEngagementAgent(judge, logger),
	}

	bus := service.NewNATSEventBus(natsConn, cfg.NATSSubject, logger)

	evaluationService := service.NewEvaluationService(
		submissionRepo, extractionRepo, scoreRepo, chapterRepo, courseRepo,
		agents, bus,
		service.EvaluationConfig{
			PollInterval: cfg.ExtractionPollInterval,
			PollTimeout:  cfg.ExtractionPollTimeout,
		},
		logger,
	)

	weights := make(map[scoring.Dimension]float64, len(cfg.DecisionWeights))
	for name, weight := range cfg.DecisionWeights {
		weights[scoring.Dimension(name)] = weight
	}
	decisionService := service.NewDecisionService(
		chapterRepo, submissionRepo, scoreRepo, decisionRepo, bus,
		service.DecisionConfig{
			Strategy:            cfg.DecisionStrategy,
			Weights:             weights,
			MissingPolicy:       cfg.DecisionMissingPolicy,
			TopK:                cfg.DecisionTopK,
			AutoReleaseOnDecide: cfg.AutoReleaseOnDecide,
		},
		logger,
	)

	releaseService := service.NewReleaseService(courseRepo, scoreRepo, submissionRepo, releaseRepo, redisClient, logger)
	scoreService := service.NewScoreService(chapterRepo, submissionRepo, scoreRepo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := service.NewPipelineConsumer(natsConn, cfg.NATSSubject, decisionService, releaseService, logger)
	consumer.Start(ctx)

	sweeper := service.NewSweeper(decisionService, redisClient, service.SweepConfig{
		Interval:    cfg.SweepInterval,
		Throttle:    cfg.SweepThrottle,
		MaxChapters: cfg.SweepMaxChapters,
	}, logger)
	go sweeper.Start(ctx)

	scoreHandler := handler.NewScoreHandler(scoreService, evaluationService, logger)
	decisionHandler := handler.NewDecisionHandler(decisionService, validate, logger)
	releaseHandler := handler.NewReleaseHandler(releaseService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ScoreHandler:    scoreHandler,
		DecisionHandler: decisionHandler,
		ReleaseHandler:  releaseHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancel)
}

func waitForShutdown(app *fiber.App, cancel context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancel()

	ctx, timeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeout()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
