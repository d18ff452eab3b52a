// Package gmail is the mailbox collaborator: it reads recent inbox
// messages through the Gmail REST API, reduces their bodies to plain
// text, and delivers composed replies. No classification logic lives
// here.
package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// TokenSource yields a fresh OAuth bearer token per request. The
// refresh flow itself is owned by whoever constructs the client.
type TokenSource func(ctx context.Context) (string, error)

type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *slog.Logger
}

func New(tokens TokenSource, options Options) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

// StaticToken adapts a fixed token string into a TokenSource.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

// ListRecent fetches full inbox messages received after since, up to
// max. A message that fails to fetch is skipped so it cannot abort the
// whole listing; only context cancellation is fatal.
func (c *Client) ListRecent(ctx context.Context, since time.Time, max int) ([]domain.Message, error) {
	query := fmt.Sprintf("in:inbox after:%s", since.Format("2006/01/02"))

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	path := fmt.Sprintf("/users/me/messages?q=%s&maxResults=%d", url.QueryEscape(query), max)
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]domain.Message, 0, len(list.Messages))
	for _, item := range list.Messages {
		var raw gmailMessage
		if err := c.getJSON(ctx, "/users/me/messages/"+item.ID+"?format=full", &raw); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fetch message %s: %w", item.ID, err)
			}
			c.logger.Warn("skipping message that failed to fetch",
				"message_id", item.ID, "error", err)
			continue
		}
		messages = append(messages, parseMessage(raw))
	}
	return messages, nil
}

// SendReply delivers a composed reply, attaching the rendered PDF
// when one is present, threaded onto the original conversation.
func (c *Client) SendReply(ctx context.Context, reply domain.OutgoingReply) error {
	raw, err := buildRawMessage(reply)
	if err != nil {
		return fmt.Errorf("build raw reply: %w", err)
	}

	payload := map[string]string{"raw": raw}
	if reply.ThreadID != "" {
		payload["threadId"] = reply.ThreadID
	}
	if err := c.postJSON(ctx, "/users/me/messages/send", payload, nil); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	token, err := c.tokens(ctx)
	if err != nil {
		return domain.WrapError(domain.ErrUnauthorized, "mailbox token", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gmail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gmail status %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gmail response: %w", err)
	}
	return nil
}
