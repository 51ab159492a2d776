package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	httpadapter "github.com/chartsense/rule-engine/internal/adapters/http"
	"github.com/chartsense/rule-engine/internal/bootstrap"
	"github.com/chartsense/rule-engine/internal/config"
	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/observability/logging"
	"github.com/chartsense/rule-engine/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewAPI(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(
		app.Retriever,
		app.Calibration,
		app.Feedback,
		app.FeedbackRepo,
		app.Training,
		app.Retriever,
		httpMetrics,
		logger,
		cfg.FeedbackRateLimit,
		cfg.FeedbackRateBurst,
	)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.TrainingCronSpec, func() {
		trainCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		job, err := app.Training.MaybeTrain(trainCtx, false)
		if err != nil && !domain.IsKind(err, domain.ErrTrainingBusy) {
			logger.Error("scheduled training failed", "error", err)
			return
		}
		logger.Info("scheduled training finished",
			"job_id", job.ID,
			"status", job.Status,
			"deployed", job.Deployed,
			"reason", job.Reason,
		)
	})
	if err != nil {
		log.Fatalf("invalid training cron spec %q: %v", cfg.TrainingCronSpec, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
