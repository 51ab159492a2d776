// Package bootstrap wires configuration, infrastructure and use cases into
// runnable api and worker applications.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/chartsense/rule-engine/internal/config"
	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/core/ports"
	"github.com/chartsense/rule-engine/internal/core/usecase"
	"github.com/chartsense/rule-engine/internal/infrastructure/catalog"
	"github.com/chartsense/rule-engine/internal/infrastructure/embedding/hashing"
	"github.com/chartsense/rule-engine/internal/infrastructure/embedding/ollama"
	indexbuilder "github.com/chartsense/rule-engine/internal/infrastructure/index"
	natsqueue "github.com/chartsense/rule-engine/internal/infrastructure/queue/nats"
	"github.com/chartsense/rule-engine/internal/infrastructure/repository/postgres"
	"github.com/chartsense/rule-engine/internal/infrastructure/resilience"
	"github.com/chartsense/rule-engine/internal/infrastructure/vocabulary"
)

// API holds everything the api process serves: the search path, the
// calibration path and the training orchestrator.
type API struct {
	Config config.Config

	Retriever    *usecase.HybridRetriever
	Calibration  *usecase.CalibrationService
	Feedback     *usecase.FeedbackSubmitService
	FeedbackRepo ports.FeedbackStore
	Training     *usecase.TrainingOrchestrator

	closeFn func()
}

func NewAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	db, err := openDatabase(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	feedbackRepo := postgres.NewFeedbackRepository(db)
	calibrationRepo := postgres.NewCalibrationRepository(db)

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init feedback queue: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	vocabStore := vocabulary.NewStore()
	if err := vocabStore.Load(cfg.VocabularyPath); err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	expander := usecase.NewQueryExpander(vocabStore, usecase.ExpansionConfig{
		MaxTerms:           cfg.ExpansionMaxTerms,
		SynonymWeight:      cfg.ExpansionSynonymWeight,
		AbbreviationWeight: cfg.ExpansionAbbrevWeight,
		SpecialtyWeight:    cfg.ExpansionSpecialty,
		ContextWeight:      cfg.ExpansionContextWeight,
		DocumentTypeWeight: cfg.ExpansionDocTypeWeight,
	})

	retriever := usecase.NewHybridRetriever(
		expander,
		embedder,
		catalog.NewFileCatalog(cfg.CatalogPath),
		indexbuilder.NewBuilder(embedder),
		usecase.RetrievalConfig{
			TopK:          cfg.RetrievalTopK,
			Candidates:    cfg.RetrievalCandidates,
			RRFK:          cfg.FusionRRFK,
			LexicalWeight: cfg.FusionLexicalWeight,
			DenseWeight:   cfg.FusionDenseWeight,
			RerankEnabled: cfg.RerankEnabled,
			RerankTopN:    cfg.RerankTopN,
		},
	)
	if err := retriever.RebuildIndexes(ctx); err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("build initial indexes: %w", err)
	}

	calibration, err := restoreCalibration(ctx, calibrationRepo, logger)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	training := usecase.NewTrainingOrchestrator(
		calibration,
		feedbackRepo,
		calibrationRepo,
		calibrationRepo,
		usecase.TrainingConfig{
			Fit: usecase.FitConfig{
				MinSamples:         cfg.CalibrationMinSamples,
				ValidationFraction: usecase.DefaultFitConfig().ValidationFraction,
				Bins:               cfg.CalibrationBins,
				SplitSeed:          usecase.DefaultFitConfig().SplitSeed,
			},
			Interval:             time.Duration(cfg.TrainingIntervalDays) * 24 * time.Hour,
			FeedbackDelta:        cfg.TrainingFeedbackDelta,
			ImprovementThreshold: cfg.TrainingImprovement,
		},
		logger,
	)

	return &API{
		Config: cfg,

		Retriever:    retriever,
		Calibration:  calibration,
		Feedback:     usecase.NewFeedbackSubmitService(queue),
		FeedbackRepo: feedbackRepo,
		Training:     training,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *API) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker holds the feedback consumption side: one queue subscription feeding
// the append-only store.
type Worker struct {
	Config config.Config

	Queue  *natsqueue.Queue
	Ingest *usecase.FeedbackIngestService

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	db, err := openDatabase(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	queue, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init feedback queue: %w", err)
	}

	return &Worker{
		Config: cfg,

		Queue:  queue,
		Ingest: usecase.NewFeedbackIngestService(postgres.NewFeedbackRepository(db)),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := postgres.OpenDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func newEmbedder(cfg config.Config) (ports.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		return ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, resilience.NewExecutor(resilience.DefaultConfig())), nil
	case "hashing":
		return hashing.New(cfg.EmbeddingDim), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// restoreCalibration resumes the last deployed model so a restart does not
// silently fall back to uncalibrated scores. With no persisted model the
// service starts on the identity model.
func restoreCalibration(ctx context.Context, repo *postgres.CalibrationRepository, logger *slog.Logger) (*usecase.CalibrationService, error) {
	model, err := repo.LatestDeployedModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("load deployed calibration model: %w", err)
	}
	if model == nil {
		logger.Info("no deployed calibration model found, starting with identity")
		return usecase.NewCalibrationService(domain.IdentityModel()), nil
	}
	logger.Info("restored calibration model",
		"method", model.Method,
		"trained_at", model.TrainedAt,
		"ece", model.ECE,
	)
	return usecase.NewCalibrationService(*model), nil
}
