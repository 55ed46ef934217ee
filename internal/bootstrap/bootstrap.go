// Package bootstrap wires configuration into the running object graph.
// Every collaborator is passed explicitly; nothing reaches for a
// process-wide singleton.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docvault/internal/config"
	"docvault/internal/core/ports"
	"docvault/internal/core/usecase"
	"docvault/internal/identifier"
	"docvault/internal/infrastructure/candidates"
	"docvault/internal/infrastructure/classify"
	"docvault/internal/infrastructure/classify/ollama"
	"docvault/internal/infrastructure/extractor"
	"docvault/internal/infrastructure/filetype"
	"docvault/internal/infrastructure/notify"
	"docvault/internal/infrastructure/queue/nats"
	"docvault/internal/infrastructure/repository/postgres"
	"docvault/internal/infrastructure/staging"
	"docvault/internal/infrastructure/store/crypto"
	"docvault/internal/infrastructure/store/localfs"
	"docvault/internal/observability/logging"
	"docvault/internal/observability/metrics"
	"docvault/internal/resilience"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    *nats.Queue
	Staging  ports.StagingArea
	Store    *localfs.Store
	Index    ports.CommittedIndex
	Pipeline ports.PipelineProcessor
	Commit   ports.DocumentCommitter
	Events   *notify.Fanout
	Metrics  *metrics.PipelineMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("docvault", cfg.LogLevel)
	pipelineMetrics := metrics.NewPipelineMetrics("docvault")

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	index := postgres.NewCommittedIndex(db)
	if err := index.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	secret, err := deriveStoreSecret(cfg)
	if err != nil {
		return nil, err
	}
	store, err := localfs.New(cfg.StorePath, cfg.TrashPath, secret, logging.ForComponent(logger, "store"))
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}

	publishPolicy := resilience.DefaultPolicy()
	publishPolicy.Retryable = nats.RetryablePublish
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(publishPolicy),
		Logger:             logging.ForComponent(logger, "queue"),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	stagingArea, err := staging.New(cfg.StagingPath, queue, logging.ForComponent(logger, "staging"))
	if err != nil {
		return nil, fmt.Errorf("init staging area: %w", err)
	}

	chainCfg, err := config.LoadChainConfig(cfg.ChainConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load chain config: %w", err)
	}

	extractChain := extractor.NewChain(
		logging.ForComponent(logger, "extractor"),
		extractor.NewPlaintext(cfg.ExtractTextMaxSize),
		extractor.NewPDF(),
		extractor.NewXLSX(),
	)

	modelPolicy := resilience.DefaultPolicy()
	modelPolicy.Retryable = ollama.Retryable
	aiProvider := ollama.NewProvider(
		ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel),
		chainCfg.AIConcurrency,
		resilience.NewExecutor(modelPolicy),
		pipelineMetrics,
	)
	predictor := classify.NewPredictor(
		chainCfg,
		logging.ForComponent(logger, "classify"),
		classify.NewHeuristic(),
		aiProvider,
	)

	events := notify.NewFanout(logging.ForComponent(logger, "notify"))
	events.Subscribe(notify.LogSink(logging.ForComponent(logger, "events")))

	pipeline := usecase.NewPipelineUseCase(
		stagingArea,
		filetype.NewDetector(),
		extractChain,
		predictor,
		candidates.NewFileSource(cfg.CandidatesPath),
		index,
		events,
		usecase.PipelineOptions{
			PollInterval: time.Duration(cfg.AwaitPollInterval) * time.Millisecond,
			Metrics:      pipelineMetrics,
			Logger:       logging.ForComponent(logger, "pipeline"),
		},
	)

	commit := usecase.NewCommitUseCase(
		stagingArea,
		pipeline,
		store,
		index,
		identifier.NewGenerator(),
		notify.NewLogIndexer(logging.ForComponent(logger, "indexer")),
		logging.ForComponent(logger, "commit"),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Queue:    queue,
		Staging:  stagingArea,
		Store:    store,
		Index:    index,
		Pipeline: pipeline,
		Commit:   commit,
		Events:   events,
		Metrics:  pipelineMetrics,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
			if secret != nil {
				secret.Destroy()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func deriveStoreSecret(cfg config.Config) (*crypto.Secret, error) {
	if !cfg.StoreEncryption {
		return nil, nil
	}
	if cfg.StorePassword == "" || cfg.StoreSalt == "" {
		return nil, errors.New("store encryption enabled but STORE_PASSWORD or STORE_SALT is empty")
	}
	return crypto.DeriveSecret([]byte(cfg.StorePassword), []byte(cfg.StoreSalt)), nil
}
