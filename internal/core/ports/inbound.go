package ports

import (
	"context"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

// WorkflowRunner is the inbound contract for one full mailbox scan:
// classify, match, and answer every response-required message.
type WorkflowRunner interface {
	Run(ctx context.Context, runID string) (domain.RunReport, error)
}

// MessageClassifier yields a verdict for one message. It never fails:
// external-judgment errors degrade to the deterministic path.
type MessageClassifier interface {
	Classify(ctx context.Context, msg domain.Message) domain.ClassificationVerdict
}

// ArtifactMatcher ranks completed artifacts against one classified
// message, strictly-positive scores only, descending and stable.
type ArtifactMatcher interface {
	Match(artifacts []domain.Artifact, msg domain.Message, verdict domain.ClassificationVerdict) []domain.MatchResult
}
