package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/eduforge/learning-platform/content-analysis-service/internal/config"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/delivery/httpd"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/models"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/repository"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/scheduler"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/coordinator"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/engine"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/freshness"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/service/integration"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/worker"
	"github.com/eduforge/learning-platform/content-analysis-service/internal/worker/queue"
)

type App struct {
	server         *http.Server
	logger         zerolog.Logger
	config         *config.Config
	postgres       *repository.PostgresRepository
	analysisWorker worker.AnalysisWorker
	scheduler      *scheduler.Scheduler
	rabbitMQRepo   repository.RabbitMQRepository
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	rabbitMQRepo, err := repository.NewRabbitMQRepository(cfg.RabbitMQ.URL, log)
	if err != nil {
		return nil, err
	}

	if err := rabbitMQRepo.SetupTopology(cfg.RabbitMQ.Exchange); err != nil {
		return nil, err
	}

	publisher := queue.NewRabbitMQPublisher(rabbitMQRepo.Channel(), log)

	consumers := make(map[string]queue.RabbitMQConsumer, len(repository.AllQueues()))
	for _, queueName := range repository.AllQueues() {
		consumers[queueName] = queue.NewRabbitMQConsumer(
			rabbitMQRepo.Channel(),
			queueName,
			cfg.RabbitMQ.ConsumerTag+"-"+queueName,
			cfg.RabbitMQ.PrefetchCount,
			log,
		)
	}

	postgres := repository.NewPostgresRepository(db, log)
	tagRepo := repository.NewTagRepository(db, log)
	similarityRepo := repository.NewSimilarityRepository(db, log)
	qualityRepo := repository.NewQualityRepository(db, log)
	quizRepo := repository.NewQuizRepository(db, log)
	plagiarismRepo := repository.NewPlagiarismRepository(db, log)

	contentClient := integration.NewContentClient(
		cfg.Services.Content.URL,
		cfg.Services.Content.Timeout,
		cfg.Services.Content.RetryCount,
		cfg.Services.Content.RetryDelay,
		log,
	)

	aiClient := integration.NewAIClient(
		cfg.Services.AI.APIKey,
		cfg.Services.AI.BaseURL,
		cfg.Services.AI.Model,
		cfg.Services.AI.Timeout,
		log,
	)

	gate := freshness.NewGate(cfg.Analysis.FreshnessWindow)

	taggingEngine := engine.NewTaggingEngine(tagRepo, contentClient, aiClient, gate, log)
	qualityEngine := engine.NewQualityEngine(qualityRepo, contentClient, aiClient, gate, log)
	plagiarismEngine := engine.NewPlagiarismEngine(plagiarismRepo, contentClient, aiClient, gate, log)
	quizEngine := engine.NewQuizEngine(quizRepo, contentClient, aiClient, gate, log)
	similarityEngine := engine.NewSimilarityEngine(similarityRepo, contentClient, aiClient, gate, cfg.Analysis.MaxCandidates, log)

	coord := coordinator.NewCoordinator(
		taggingEngine,
		qualityEngine,
		plagiarismEngine,
		quizEngine,
		similarityEngine,
		cfg.Analysis.MaxBulkSize,
		log,
	)

	resultsService := service.NewResultsService(
		tagRepo,
		similarityRepo,
		qualityRepo,
		quizRepo,
		plagiarismRepo,
		log,
	)

	workerPool := worker.NewWorkerPool(cfg.Analysis.MaxWorkers, log)

	analysisWorker := worker.NewAnalysisWorker(
		workerPool,
		consumers,
		publisher,
		coord,
		queuePolicies(cfg.Queues),
		cfg.RabbitMQ.Exchange,
		log,
	)

	retryScheduler, err := scheduler.NewScheduler(
		publisher,
		plagiarismRepo,
		qualityRepo,
		similarityRepo,
		cfg.RabbitMQ.Exchange,
		cfg.Scheduler.RetryCronSpec,
		cfg.Scheduler.RetryLimit,
		cfg.Analysis.FreshnessWindow,
		log,
	)
	if err != nil {
		return nil, err
	}

	enqueuer := httpd.NewJobEnqueuer(publisher, cfg.RabbitMQ.Exchange)

	handler := httpd.NewHandler(
		taggingEngine,
		qualityEngine,
		plagiarismEngine,
		quizEngine,
		similarityEngine,
		coord,
		resultsService,
		enqueuer,
		analysisWorker,
		postgres,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:         server,
		logger:         log,
		config:         cfg,
		postgres:       postgres,
		analysisWorker: analysisWorker,
		scheduler:      retryScheduler,
		rabbitMQRepo:   rabbitMQRepo,
	}, nil
}

// queuePolicies maps queue names to their configured retry budgets.
func queuePolicies(cfg config.QueuesConfig) map[string]queue.Policy {
	return map[string]queue.Policy{
		repository.QueueForEngine(models.EngineTags):         {MaxAttempts: cfg.Tags.MaxAttempts, BackoffBase: cfg.Tags.BackoffBase},
		repository.QueueForEngine(models.EngineSimilarity):   {MaxAttempts: cfg.Similarity.MaxAttempts, BackoffBase: cfg.Similarity.BackoffBase},
		repository.QueueForEngine(models.EngineQuality):      {MaxAttempts: cfg.Quality.MaxAttempts, BackoffBase: cfg.Quality.BackoffBase},
		repository.QueueForEngine(models.EngineQuiz):         {MaxAttempts: cfg.Quiz.MaxAttempts, BackoffBase: cfg.Quiz.BackoffBase},
		repository.QueueForEngine(models.EnginePlagiarism):   {MaxAttempts: cfg.Plagiarism.MaxAttempts, BackoffBase: cfg.Plagiarism.BackoffBase},
		repository.QueueForEngine(repository.QueueComprehensive): {MaxAttempts: cfg.Comprehensive.MaxAttempts, BackoffBase: cfg.Comprehensive.BackoffBase},
	}
}

func (a *App) Run() error {
	ctx := context.Background()
	if err := a.analysisWorker.Start(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to start analysis worker")
		return err
	}

	if a.config.Scheduler.Enabled {
		a.scheduler.Start()
	}

	a.logger.Info().Msgf("Starting content analysis service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down content analysis service...")

	if a.config.Scheduler.Enabled {
		a.scheduler.Stop()
	}

	if err := a.analysisWorker.Stop(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to stop analysis worker")
	}

	if a.rabbitMQRepo != nil {
		if err := a.rabbitMQRepo.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
		return err
	}

	a.logger.Info().Msg("Service stopped")
	return nil
}
