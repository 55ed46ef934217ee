package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docvault/internal/bootstrap"
	"docvault/internal/config"
	"docvault/internal/workerpool"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go serveMetrics(app, cfg.WorkerMetricsPort)

	pool := workerpool.New(ctx, cfg.PipelineWorkers)
	app.Logger.Info("worker_started",
		"subject", cfg.NATSSubject, "workers", cfg.PipelineWorkers, "metrics_port", cfg.WorkerMetricsPort)

	err = app.Queue.SubscribeStaged(ctx, func(_ context.Context, hash string) error {
		pool.Submit("process_"+hash, func(taskCtx context.Context) error {
			// once started, an item runs to a terminal state
			processCtx, cancel := context.WithTimeout(context.WithoutCancel(taskCtx), 5*time.Minute)
			defer cancel()
			return app.Pipeline.ProcessByHash(processCtx, hash)
		})
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker subscribe error: %v", err)
	}

	pool.Wait()
	app.Logger.Info("worker_stopped")
}

func serveMetrics(app *bootstrap.App, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.Logger.Error("metrics_server_failed", "error", err)
	}
}
