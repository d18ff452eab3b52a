package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/doc-responder/internal/bootstrap"
	"github.com/kirillkom/doc-responder/internal/config"
	"github.com/kirillkom/doc-responder/internal/observability/logging"
	"github.com/kirillkom/doc-responder/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux(workerMetrics),
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeScanRequested(ctx, func(handlerCtx context.Context, runID string) error {
		scanCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		workerMetrics.StartScan()
		start := time.Now()
		report, err := app.ScanUC.Run(scanCtx, runID)
		workerMetrics.FinishScan("worker", report, time.Since(start), err)

		if err != nil {
			return err
		}
		logger.Info("scan run finished",
			"run_id", report.RunID,
			"messages_analyzed", report.MessagesAnalyzed,
			"responses_required", report.ResponsesRequired,
			"replies_sent", report.RepliesSent,
			"skipped", report.Skipped,
			"errors", len(report.Errors),
		)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func metricsMux(m *metrics.WorkerMetrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
