package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chartsense/rule-engine/internal/bootstrap"
	"github.com/chartsense/rule-engine/internal/config"
	"github.com/chartsense/rule-engine/internal/core/domain"
	"github.com/chartsense/rule-engine/internal/observability/logging"
	"github.com/chartsense/rule-engine/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeFeedback(ctx, func(handlerCtx context.Context, sample domain.FeedbackSample) error {
		workerMetrics.StartIngest()
		start := time.Now()

		ingestCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()
		ingestErr := app.Ingest.Ingest(ingestCtx, sample)

		workerMetrics.FinishIngest("worker", time.Since(start), ingestErr)
		if !sample.CreatedAt.IsZero() {
			workerMetrics.ObserveQueueLag("worker", time.Since(sample.CreatedAt))
		}
		if ingestErr != nil {
			logger.Error("feedback ingest failed",
				"finding_id", sample.FindingID,
				"error", ingestErr,
			)
		}
		return ingestErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
