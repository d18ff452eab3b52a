package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/doc-responder/internal/core/domain"
	"github.com/kirillkom/doc-responder/internal/infrastructure/chunking"
	"github.com/kirillkom/doc-responder/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	// RequestsPerSecond throttles outbound generation calls; zero
	// disables the limiter.
	RequestsPerSecond  float64
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string) *Client {
	return NewWithOptions(baseURL, model, Options{})
}

func NewWithOptions(baseURL, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		executor:   options.ResilienceExecutor,
	}
}

// Judge asks the model whether a message requests a completed
// document. Any transport or parse failure is returned so the
// classifier can degrade to its deterministic path.
type Judge struct {
	client *Client
}

func NewJudge(client *Client) *Judge {
	return &Judge{client: client}
}

func (j *Judge) Judge(ctx context.Context, msg domain.Message) (domain.JudgmentVerdict, error) {
	respText, err := j.client.generateJSON(ctx, buildJudgmentPrompt(msg), "judge")
	if err != nil {
		return domain.JudgmentVerdict{}, err
	}

	var verdict domain.JudgmentVerdict
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &verdict); err != nil {
		return domain.JudgmentVerdict{}, fmt.Errorf("parse judgment json: %w", err)
	}
	if verdict.DocumentReferences == nil {
		verdict.DocumentReferences = []string{}
	}
	return verdict, nil
}

// Writer generates document summaries and reply bodies. Reply
// composition degrades to a fixed template when generation fails;
// summarization surfaces the error so the caller can substitute its
// own placeholder.
type Writer struct {
	client   *Client
	splitter *chunking.Splitter
}

type WriterOptions struct {
	// SummaryChunkSize bounds how much document text reaches the
	// summary prompt; zero keeps the default.
	SummaryChunkSize    int
	SummaryChunkOverlap int
}

func NewWriter(client *Client) *Writer {
	return NewWriterWithOptions(client, WriterOptions{})
}

func NewWriterWithOptions(client *Client, options WriterOptions) *Writer {
	chunkSize := options.SummaryChunkSize
	if chunkSize <= 0 {
		chunkSize = maxSummarySnippet
	}
	return &Writer{
		client:   client,
		splitter: chunking.NewSplitter(chunkSize, options.SummaryChunkOverlap),
	}
}

func (w *Writer) Summarize(ctx context.Context, content domain.ArtifactContent) (string, error) {
	snippet := w.splitter.Head(content.Content)
	return w.client.generateText(ctx, buildSummaryPrompt(content.Title, snippet), "summarize")
}

func (w *Writer) ComposeReply(ctx context.Context, original domain.Message, content domain.ArtifactContent, summary string) (domain.OutgoingReply, error) {
	reply := domain.OutgoingReply{
		To:                original.ReplyAddress(),
		Subject:           replySubject(original.Subject),
		OriginalMessageID: original.ID,
	}

	body, err := w.client.generateText(ctx, buildReplyPrompt(original, content, summary), "compose")
	if err != nil || strings.TrimSpace(body) == "" {
		reply.Body = fallbackReplyBody(content.Title, summary)
		return reply, nil
	}
	reply.Body = body
	return reply, nil
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

func (c *Client) generateJSON(ctx context.Context, prompt, operation string) (string, error) {
	return c.generate(ctx, map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}, operation)
}

func (c *Client) generateText(ctx context.Context, prompt, operation string) (string, error) {
	return c.generate(ctx, map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}, operation)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any, operation string) (string, error) {
	var response struct {
		Response string `json:"response"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
