package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

type extractorFake struct {
	lastFilename string
}

func (f *extractorFake) Extract(filename string, data []byte) (string, error) {
	f.lastFilename = filename
	return "extracted: " + string(data), nil
}

func TestListCompletedFiltersByMarker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); !strings.Contains(q, "application/vnd.google-apps.document") {
			t.Errorf("list query missing mime filter: %q", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{
				{"id": "doc-1", "name": "Q3 Report Done", "modifiedTime": "2024-03-01T10:00:00Z", "createdTime": "2024-02-01T10:00:00Z"},
				{"id": "doc-2", "name": "Budget Plan draft", "modifiedTime": "2024-03-02T10:00:00Z", "createdTime": "2024-02-02T10:00:00Z"},
				{"id": "doc-3", "name": "Roadmap DONE", "modifiedTime": "2024-03-03T10:00:00Z", "createdTime": "2024-02-03T10:00:00Z"},
			},
		})
	}))
	defer server.Close()

	client := New(StaticToken("token-1"), &extractorFake{}, Options{BaseURL: server.URL, CompletionMarker: "Done"})
	artifacts, err := client.ListCompleted(context.Background())
	if err != nil {
		t.Fatalf("ListCompleted: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(artifacts))
	}
	if artifacts[0].ID != "doc-1" || artifacts[1].ID != "doc-3" {
		t.Errorf("ids = %q, %q", artifacts[0].ID, artifacts[1].ID)
	}
	if artifacts[0].Title != "Q3 Report Done" {
		t.Errorf("title = %q, marker must stay in the title", artifacts[0].Title)
	}
}

func TestFetchContentExportsPlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/files/doc-1/export"):
			if mime := r.URL.Query().Get("mimeType"); mime != "text/plain" {
				t.Errorf("export mimeType = %q", mime)
			}
			w.Write([]byte("Q3 revenue grew 14% quarter over quarter."))
		case strings.HasSuffix(r.URL.Path, "/files/doc-1"):
			json.NewEncoder(w).Encode(map[string]string{
				"id": "doc-1", "name": "Q3 Report Done", "modifiedTime": "2024-03-01T10:00:00Z",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := New(StaticToken("token-1"), &extractorFake{}, Options{BaseURL: server.URL})
	content, err := client.FetchContent(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}
	if content.Title != "Q3 Report Done" {
		t.Errorf("title = %q", content.Title)
	}
	if !strings.Contains(content.Content, "revenue grew") {
		t.Errorf("content = %q", content.Content)
	}
	if content.Size != len(content.Content) {
		t.Errorf("size = %d, want %d", content.Size, len(content.Content))
	}
}

func TestFetchContentDownloadsUploadedFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") == "media" {
			w.Write([]byte("raw pdf bytes"))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id": "doc-9", "name": "Vendor Contract Done", "mimeType": "application/pdf",
			"modifiedTime": "2024-03-01T10:00:00Z",
		})
	}))
	defer server.Close()

	fake := &extractorFake{}
	client := New(StaticToken("token-1"), fake, Options{BaseURL: server.URL})
	content, err := client.FetchContent(context.Background(), "doc-9")
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}
	if fake.lastFilename != "Vendor Contract Done.pdf" {
		t.Errorf("extractor filename = %q", fake.lastFilename)
	}
	if content.Content != "extracted: raw pdf bytes" {
		t.Errorf("content = %q", content.Content)
	}
}

func TestFetchContentMapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(StaticToken("token-1"), &extractorFake{}, Options{BaseURL: server.URL})
	_, err := client.FetchContent(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrArtifactNotFound) {
		t.Errorf("error kind = %v, want artifact not found", err)
	}
}

func TestListCompletedSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := New(StaticToken("token-1"), &extractorFake{}, Options{BaseURL: server.URL})
	_, err := client.ListCompleted(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error missing API body: %v", err)
	}
}
