package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/doc-responder/internal/core/domain"
	"github.com/kirillkom/doc-responder/internal/core/ports"
)

// ScanConfig bounds one mailbox scan.
type ScanConfig struct {
	Window      time.Duration
	MaxMessages int
	Concurrency int
}

func (c ScanConfig) normalize() ScanConfig {
	out := c
	if out.Window <= 0 {
		out.Window = 7 * 24 * time.Hour
	}
	if out.MaxMessages <= 0 {
		out.MaxMessages = 100
	}
	if out.Concurrency <= 0 {
		out.Concurrency = 4
	}
	return out
}

// ScanUseCase drives one full run: list recent messages, list
// completed artifacts once, then process every message. Message
// pipelines are independent and side-effect-free with respect to each
// other, so they run concurrently; per-message errors are collected
// in the report instead of aborting the run.
type ScanUseCase struct {
	mailbox ports.Mailbox
	library ports.ArtifactLibrary
	process *ProcessMessageUseCase
	cfg     ScanConfig
	logger  *slog.Logger
}

func NewScanUseCase(
	mailbox ports.Mailbox,
	library ports.ArtifactLibrary,
	process *ProcessMessageUseCase,
	cfg ScanConfig,
	logger *slog.Logger,
) *ScanUseCase {
	return &ScanUseCase{
		mailbox: mailbox,
		library: library,
		process: process,
		cfg:     cfg.normalize(),
		logger:  logger,
	}
}

func (uc *ScanUseCase) Run(ctx context.Context, runID string) (domain.RunReport, error) {
	report := domain.RunReport{RunID: runID, StartedAt: time.Now().UTC()}

	since := report.StartedAt.Add(-uc.cfg.Window)
	messages, err := uc.mailbox.ListRecent(ctx, since, uc.cfg.MaxMessages)
	if err != nil {
		return report, fmt.Errorf("list recent messages: %w", err)
	}
	report.MessagesAnalyzed = len(messages)
	if len(messages) == 0 {
		return report, nil
	}

	artifacts, err := uc.library.ListCompleted(ctx)
	if err != nil {
		return report, fmt.Errorf("list completed artifacts: %w", err)
	}
	uc.logger.Info("scan started",
		"run_id", runID, "messages", len(messages), "artifacts", len(artifacts))

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uc.cfg.Concurrency)

	for _, msg := range messages {
		group.Go(func() error {
			outcome, err := uc.process.ProcessMessage(groupCtx, msg, artifacts)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Errors = append(report.Errors,
					fmt.Sprintf("message %s: %v", msg.ID, err))
			case outcome.Replied:
				report.ResponsesRequired++
				report.DocumentsProcessed++
				report.RepliesSent++
			default:
				if outcome.Verdict.RequiresResponse {
					report.ResponsesRequired++
				}
				report.Skipped++
			}
			return nil
		})
	}
	_ = group.Wait()

	uc.logger.Info("scan finished",
		"run_id", runID,
		"responses_required", report.ResponsesRequired,
		"replies_sent", report.RepliesSent,
		"skipped", report.Skipped,
		"errors", len(report.Errors))
	return report, nil
}
