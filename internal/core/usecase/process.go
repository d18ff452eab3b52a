package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/doc-responder/internal/core/domain"
	"github.com/kirillkom/doc-responder/internal/core/ports"
)

// Outcome describes what processing one message did.
type Outcome struct {
	Replied    bool
	SkipReason string
	Verdict    domain.ClassificationVerdict
	BestMatch  *domain.MatchResult
}

// ProcessMessageUseCase runs the per-message pipeline: classify,
// match against completed artifacts, then summarize, render, compose,
// send, and journal the reply for the best match.
type ProcessMessageUseCase struct {
	classifier ports.MessageClassifier
	matcher    ports.ArtifactMatcher
	library    ports.ArtifactLibrary
	summarizer ports.Summarizer
	composer   ports.ReplyComposer
	renderer   ports.AttachmentRenderer
	mailbox    ports.Mailbox
	journal    ports.ReplyJournal
	logger     *slog.Logger
}

func NewProcessMessageUseCase(
	classifier ports.MessageClassifier,
	matcher ports.ArtifactMatcher,
	library ports.ArtifactLibrary,
	summarizer ports.Summarizer,
	composer ports.ReplyComposer,
	renderer ports.AttachmentRenderer,
	mailbox ports.Mailbox,
	journal ports.ReplyJournal,
	logger *slog.Logger,
) *ProcessMessageUseCase {
	return &ProcessMessageUseCase{
		classifier: classifier,
		matcher:    matcher,
		library:    library,
		summarizer: summarizer,
		composer:   composer,
		renderer:   renderer,
		mailbox:    mailbox,
		journal:    journal,
		logger:     logger,
	}
}

// ProcessMessage handles one inbound message end to end. Collaborator
// failures after a committed decision degrade where the workflow can
// still deliver (summary, attachment) and fail the message otherwise.
func (uc *ProcessMessageUseCase) ProcessMessage(ctx context.Context, msg domain.Message, artifacts []domain.Artifact) (Outcome, error) {
	replied, err := uc.journal.AlreadyReplied(ctx, msg.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("journal lookup: %w", err)
	}
	if replied {
		return Outcome{SkipReason: "already replied"}, nil
	}

	verdict := uc.classifier.Classify(ctx, msg)
	if !verdict.RequiresResponse {
		return Outcome{SkipReason: "no response required", Verdict: verdict}, nil
	}

	matches := uc.matcher.Match(artifacts, msg, verdict)
	if len(matches) == 0 {
		return Outcome{SkipReason: "no matching artifact", Verdict: verdict}, nil
	}
	best := matches[0]

	content, err := uc.library.FetchContent(ctx, best.ArtifactID)
	if err != nil {
		return Outcome{Verdict: verdict, BestMatch: &best}, fmt.Errorf("fetch artifact content: %w", err)
	}

	summary := uc.summarize(ctx, content)
	attachmentPath := uc.render(ctx, content)

	reply, err := uc.composer.ComposeReply(ctx, msg, content, summary)
	if err != nil {
		return Outcome{Verdict: verdict, BestMatch: &best}, fmt.Errorf("compose reply: %w", err)
	}
	reply.ThreadID = msg.ThreadID
	reply.AttachmentPath = attachmentPath

	if err := uc.mailbox.SendReply(ctx, reply); err != nil {
		return Outcome{Verdict: verdict, BestMatch: &best}, fmt.Errorf("send reply: %w", err)
	}

	if attachmentPath != "" {
		if err := uc.renderer.Discard(ctx, attachmentPath); err != nil {
			uc.logger.Warn("staged attachment cleanup failed",
				"path", attachmentPath, "error", err)
		}
	}

	if err := uc.journal.Record(ctx, domain.ReplyRecord{
		ID:             uuid.NewString(),
		MessageID:      msg.ID,
		ArtifactID:     best.ArtifactID,
		Recipient:      reply.To,
		Subject:        reply.Subject,
		RelevanceScore: best.RelevanceScore,
		SentAt:         time.Now().UTC(),
	}); err != nil {
		// The reply is already out; a journal failure must not fail
		// the message, only risk a duplicate on the next scan.
		uc.logger.Error("journal record failed after send",
			"message_id", msg.ID, "error", err)
	}

	return Outcome{Replied: true, Verdict: verdict, BestMatch: &best}, nil
}

func (uc *ProcessMessageUseCase) summarize(ctx context.Context, content domain.ArtifactContent) string {
	summary, err := uc.summarizer.Summarize(ctx, content)
	if err != nil {
		uc.logger.Warn("summarization degraded to placeholder",
			"artifact_id", content.ID, "error", err)
		return fmt.Sprintf("Summary unavailable for document: %s", content.Title)
	}
	return summary
}

func (uc *ProcessMessageUseCase) render(ctx context.Context, content domain.ArtifactContent) string {
	path, err := uc.renderer.Render(ctx, content)
	if err != nil {
		uc.logger.Warn("attachment rendering failed, replying without attachment",
			"artifact_id", content.ID, "error", err)
		return ""
	}
	return path
}
