// Package classify decides whether an inbound message is asking for a
// completed document, and extracts the document names it refers to.
// The pattern-based path is a pure function of the message text and
// the scoring tables; the optional judgment service only ever adds a
// richer verdict, never removes the deterministic fallback.
package classify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

// JudgmentService is the optional external natural-language judge. A
// failed call (timeout, transport error, malformed verdict) must be
// returned as an error so the classifier can degrade to patterns.
type JudgmentService interface {
	Judge(ctx context.Context, msg domain.Message) (domain.JudgmentVerdict, error)
}

type Classifier struct {
	tables  Tables
	judge   JudgmentService
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Classifier)

// WithJudgment enables delegation to an external judgment service,
// bounded by timeout per call. A non-positive timeout keeps the
// default.
func WithJudgment(judge JudgmentService, timeout time.Duration) Option {
	return func(c *Classifier) {
		c.judge = judge
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

func New(tables Tables, opts ...Option) *Classifier {
	c := &Classifier{
		tables:  tables,
		timeout: 30 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify produces the verdict for one message. It never returns an
// error: judgment-service failures degrade to the pattern path, and
// missing fields are treated as empty text.
func (c *Classifier) Classify(ctx context.Context, msg domain.Message) domain.ClassificationVerdict {
	if c.judge != nil {
		verdict, err := c.classifyExternal(ctx, msg)
		if err == nil {
			return verdict
		}
		c.logger.Warn("judgment service unavailable, using pattern fallback",
			"message_id", msg.ID, "error", err)
	}
	return Evaluate(c.tables, msg)
}

func (c *Classifier) classifyExternal(ctx context.Context, msg domain.Message) (domain.ClassificationVerdict, error) {
	judgeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.judge.Judge(judgeCtx, msg)
	if err != nil {
		return domain.ClassificationVerdict{}, err
	}
	return coerceJudgment(raw), nil
}

// coerceJudgment maps the external verdict shape onto the domain
// verdict, enforcing the same invariants the pattern path guarantees.
func coerceJudgment(raw domain.JudgmentVerdict) domain.ClassificationVerdict {
	signals := make([]string, 0, 1)
	if t := strings.TrimSpace(raw.DocumentTypeMentioned); t != "" {
		signals = append(signals, strings.ToLower(t))
	}
	return domain.ClassificationVerdict{
		RequiresResponse:   raw.RequiresDocumentResponse,
		Confidence:         clamp01(raw.ConfidenceScore),
		MatchedSignals:     signals,
		DocumentReferences: sanitizeReferences(raw.DocumentReferences),
		Method:             domain.MethodExternalJudgment,
	}
}

// Evaluate is the deterministic pattern path: a monotone additive
// score over fixed tables, clamped to [0, 1].
func Evaluate(tables Tables, msg domain.Message) domain.ClassificationVerdict {
	fullText := strings.ToLower(msg.Subject) + " " + strings.ToLower(msg.Body)
	sender := strings.ToLower(msg.Sender)

	var confidence float64
	var signals []string
	patternHit := false

	for _, pattern := range tables.RequestPatterns {
		matches := pattern.FindAllStringSubmatch(fullText, -1)
		if len(matches) == 0 {
			continue
		}
		patternHit = true
		confidence += tables.Weights.RequestPattern
		for _, m := range matches {
			signals = append(signals, firstGroup(m))
		}
	}

	for _, phrase := range tables.LiteralPhrases {
		if strings.Contains(fullText, phrase) {
			confidence += tables.Weights.LiteralPhrase
			signals = append(signals, phrase)
		}
	}

	for _, marker := range tables.QuestionMarkers {
		if strings.Contains(fullText, marker) {
			confidence += tables.Weights.QuestionBoost
			break
		}
	}

	for _, marker := range tables.AutomationMarkers {
		if strings.Contains(sender, marker) {
			confidence -= tables.Weights.AutomationPenalty
			break
		}
	}

	signals = dedupeOrdered(signals)
	confidence = clamp01(confidence)

	method := domain.MethodPatternBased
	if !patternHit {
		method = domain.MethodFallbackKeyword
	}

	return domain.ClassificationVerdict{
		RequiresResponse:   confidence > tables.Weights.ResponseThreshold && len(signals) > 0,
		Confidence:         confidence,
		MatchedSignals:     signals,
		DocumentReferences: extractReferences(tables, msg.Subject, msg.Body),
		Method:             method,
	}
}

func firstGroup(match []string) string {
	if len(match) > 1 && match[1] != "" {
		return match[1]
	}
	return match[0]
}

func dedupeOrdered(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
