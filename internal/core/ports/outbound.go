package ports

import (
	"context"
	"time"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

// Mailbox reads inbound messages and delivers replies. Bodies arrive
// already decoded and reduced to plain text.
type Mailbox interface {
	ListRecent(ctx context.Context, since time.Time, max int) ([]domain.Message, error)
	SendReply(ctx context.Context, reply domain.OutgoingReply) error
}

// ArtifactLibrary lists completion-marked artifacts and fetches their
// content. The completion-marker filter lives here, outside the
// matcher's scoring.
type ArtifactLibrary interface {
	ListCompleted(ctx context.Context) ([]domain.Artifact, error)
	FetchContent(ctx context.Context, artifactID string) (domain.ArtifactContent, error)
}

// JudgmentService is the optional external natural-language judge the
// classifier may delegate to.
type JudgmentService interface {
	Judge(ctx context.Context, msg domain.Message) (domain.JudgmentVerdict, error)
}

// Summarizer produces a professional summary of artifact content.
type Summarizer interface {
	Summarize(ctx context.Context, content domain.ArtifactContent) (string, error)
}

// ReplyComposer writes the response body for a matched artifact.
// Implementations must degrade to a deterministic template when
// generation fails.
type ReplyComposer interface {
	ComposeReply(ctx context.Context, original domain.Message, content domain.ArtifactContent, summary string) (domain.OutgoingReply, error)
}

// AttachmentRenderer renders artifact content into an attachment file
// and returns its local path. Discard removes a staged attachment once
// the reply carrying it has been sent.
type AttachmentRenderer interface {
	Render(ctx context.Context, content domain.ArtifactContent) (string, error)
	Discard(ctx context.Context, path string) error
}

// ReplyJournal records sent replies and answers dedupe lookups so a
// message is never answered twice across overlapping scan windows.
type ReplyJournal interface {
	AlreadyReplied(ctx context.Context, messageID string) (bool, error)
	Record(ctx context.Context, record domain.ReplyRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.ReplyRecord, error)
}

// MessageQueue carries scan triggers between the API and the worker.
type MessageQueue interface {
	PublishScanRequested(ctx context.Context, runID string) error
	SubscribeScanRequested(ctx context.Context, handler func(context.Context, string) error) error
}
