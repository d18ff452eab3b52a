package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/doc-responder/internal/config"
	"github.com/kirillkom/doc-responder/internal/core/classify"
	"github.com/kirillkom/doc-responder/internal/core/match"
	"github.com/kirillkom/doc-responder/internal/core/ports"
	"github.com/kirillkom/doc-responder/internal/core/usecase"
	"github.com/kirillkom/doc-responder/internal/infrastructure/artifacts/drive"
	"github.com/kirillkom/doc-responder/internal/infrastructure/extractor"
	"github.com/kirillkom/doc-responder/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/doc-responder/internal/infrastructure/mailbox/gmail"
	"github.com/kirillkom/doc-responder/internal/infrastructure/queue/nats"
	"github.com/kirillkom/doc-responder/internal/infrastructure/render"
	"github.com/kirillkom/doc-responder/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/doc-responder/internal/infrastructure/resilience"
	"github.com/kirillkom/doc-responder/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue   ports.MessageQueue
	Journal ports.ReplyJournal
	ScanUC  *usecase.ScanUseCase

	Classifier ports.MessageClassifier
	Matcher    ports.ArtifactMatcher

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	journal := postgres.NewReplyJournal(db)
	if err := journal.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	staging, err := localfs.New(cfg.AttachmentsPath)
	if err != nil {
		return nil, fmt.Errorf("init attachment storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	tables := classify.DefaultTables()
	if cfg.PatternsPath != "" {
		loaded, err := classify.LoadTables(cfg.PatternsPath)
		if err != nil {
			return nil, fmt.Errorf("load pattern tables: %w", err)
		}
		tables = loaded
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, ollama.Options{
		RequestsPerSecond:  cfg.OllamaRPS,
		ResilienceExecutor: executor,
	})
	judge := ollama.NewJudge(ollamaClient)
	writer := ollama.NewWriterWithOptions(ollamaClient, ollama.WriterOptions{
		SummaryChunkSize:    cfg.SummaryChunkSize,
		SummaryChunkOverlap: cfg.SummaryChunkOverlap,
	})

	classifier := classify.New(tables,
		classify.WithJudgment(judge, 0),
		classify.WithLogger(logger),
	)
	matcher := match.New(cfg.CompletionMarker, match.DefaultWeights())

	mailbox := gmail.New(gmail.StaticToken(cfg.GmailToken), gmail.Options{
		BaseURL:           cfg.GmailBaseURL,
		RequestsPerSecond: cfg.GmailRPS,
		Logger:            logger,
	})
	library := drive.New(drive.StaticToken(cfg.DriveToken), extractor.New(), drive.Options{
		BaseURL:           cfg.DriveBaseURL,
		RequestsPerSecond: cfg.DriveRPS,
		CompletionMarker:  cfg.CompletionMarker,
		PageSize:          cfg.DrivePageSize,
	})
	renderer := render.NewPDF(staging, cfg.CompletionMarker)

	processUC := usecase.NewProcessMessageUseCase(
		classifier, matcher, library, writer, writer, renderer, mailbox, journal, logger,
	)
	scanUC := usecase.NewScanUseCase(mailbox, library, processUC, usecase.ScanConfig{
		Window:      cfg.ScanWindow,
		MaxMessages: cfg.ScanMaxMessages,
		Concurrency: cfg.ScanConcurrency,
	}, logger)

	return &App{
		Config: cfg,

		Queue:   queue,
		Journal: journal,
		ScanUC:  scanUC,

		Classifier: classifier,
		Matcher:    matcher,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
