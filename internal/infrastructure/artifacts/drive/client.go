// Package drive is the artifact library collaborator: it lists Google
// Docs carrying the completion marker and exports their text content
// through the Drive REST API.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

const (
	defaultBaseURL = "https://www.googleapis.com/drive/v3"
	docMimeType    = "application/vnd.google-apps.document"
	pdfMimeType    = "application/pdf"
	sheetMimeType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TokenSource yields a fresh OAuth bearer token per request.
type TokenSource func(ctx context.Context) (string, error)

// TextExtractor reduces downloaded binary files to plain text. Google
// Docs bypass it because the export endpoint already returns text.
type TextExtractor interface {
	Extract(filename string, data []byte) (string, error)
}

type Client struct {
	baseURL    string
	tokens     TokenSource
	extract    TextExtractor
	httpClient *http.Client
	limiter    *rate.Limiter
	marker     string
	pageSize   int
}

type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	CompletionMarker  string
	PageSize          int
}

func New(tokens TokenSource, extract TextExtractor, options Options) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	marker := options.CompletionMarker
	if marker == "" {
		marker = "Done"
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		extract:    extract,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		marker:     marker,
		pageSize:   pageSize,
	}
}

type driveFile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	ModifiedTime time.Time `json:"modifiedTime"`
	CreatedTime  time.Time `json:"createdTime"`
}

// ListCompleted returns documents whose title carries the completion
// marker as a suffix. The comparison is case-insensitive so "done" and
// "DONE" both qualify.
func (c *Client) ListCompleted(ctx context.Context) ([]domain.Artifact, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("(mimeType='%s' or mimeType='%s' or mimeType='%s') and trashed=false",
		docMimeType, pdfMimeType, sheetMimeType))
	query.Set("fields", "files(id,name,mimeType,modifiedTime,createdTime)")
	query.Set("orderBy", "modifiedTime desc")
	query.Set("pageSize", fmt.Sprintf("%d", c.pageSize))

	var list struct {
		Files []driveFile `json:"files"`
	}
	if err := c.getJSON(ctx, "/files?"+query.Encode(), &list); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	suffix := strings.ToLower(c.marker)
	artifacts := make([]domain.Artifact, 0, len(list.Files))
	for _, file := range list.Files {
		if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(file.Name)), suffix) {
			continue
		}
		artifacts = append(artifacts, domain.Artifact{
			ID:           file.ID,
			Title:        file.Name,
			ModifiedTime: file.ModifiedTime,
			CreatedTime:  file.CreatedTime,
		})
	}
	return artifacts, nil
}

// FetchContent reads the artifact as plain text. Google Docs go
// through the export endpoint; uploaded PDFs and spreadsheets are
// downloaded raw and run through the extractor. A missing document
// maps to the not-found error kind so callers can tell it apart from
// transport failures.
func (c *Client) FetchContent(ctx context.Context, artifactID string) (domain.ArtifactContent, error) {
	var meta driveFile
	if err := c.getJSON(ctx, "/files/"+artifactID+"?fields=id,name,mimeType,modifiedTime", &meta); err != nil {
		return domain.ArtifactContent{}, fmt.Errorf("fetch metadata %s: %w", artifactID, err)
	}

	var text string
	if meta.MimeType == docMimeType || meta.MimeType == "" {
		exported, err := c.getText(ctx, "/files/"+artifactID+"/export?mimeType=text%2Fplain")
		if err != nil {
			return domain.ArtifactContent{}, fmt.Errorf("export document %s: %w", artifactID, err)
		}
		text = exported
	} else {
		raw, err := c.do(ctx, "/files/"+artifactID+"?alt=media")
		if err != nil {
			return domain.ArtifactContent{}, fmt.Errorf("download file %s: %w", artifactID, err)
		}
		extracted, err := c.extract.Extract(filenameForMime(meta.Name, meta.MimeType), raw)
		if err != nil {
			return domain.ArtifactContent{}, fmt.Errorf("extract file %s: %w", artifactID, err)
		}
		text = extracted
	}

	return domain.ArtifactContent{
		ID:           meta.ID,
		Title:        meta.Name,
		Content:      text,
		ModifiedTime: meta.ModifiedTime,
		Size:         len(text),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode drive response: %w", err)
	}
	return nil
}

func (c *Client) getText(ctx context.Context, path string) (string, error) {
	body, err := c.do(ctx, path)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	token, err := c.tokens(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnauthorized, "library token", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.WrapError(domain.ErrArtifactNotFound, "drive fetch", fmt.Errorf("status %s", resp.Status))
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("drive status %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	return io.ReadAll(resp.Body)
}

// filenameForMime guarantees the extractor sees an extension even when
// the Drive title carries none.
func filenameForMime(name, mimeType string) string {
	switch mimeType {
	case pdfMimeType:
		if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			return name + ".pdf"
		}
	case sheetMimeType:
		if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
			return name + ".xlsx"
		}
	}
	return name
}

// StaticToken adapts a fixed token string into a TokenSource.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}
