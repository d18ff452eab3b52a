package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

func encodePart(text string) string {
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(text))
}

func TestListRecentParsesMessages(t *testing.T) {
	var listQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/users/me/messages"):
			listQuery = r.URL.Query().Get("q")
			json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]string{{"id": "msg-1"}},
			})
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/msg-1"):
			json.NewEncoder(w).Encode(map[string]any{
				"id":           "msg-1",
				"threadId":     "thread-1",
				"internalDate": "1700000000000",
				"payload": map[string]any{
					"mimeType": "multipart/alternative",
					"headers": []map[string]string{
						{"name": "Subject", "value": "Need the Q3 Report"},
						{"name": "From", "value": "Alex <alex@example.com>"},
					},
					"parts": []map[string]any{
						{
							"mimeType": "text/html",
							"body":     map[string]string{"data": encodePart("<p>ignore me</p>")},
						},
						{
							"mimeType": "text/plain",
							"body":     map[string]string{"data": encodePart("Please send the report.")},
						},
					},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := New(StaticToken("token-1"), Options{BaseURL: server.URL})
	since := time.Date(2023, 11, 10, 0, 0, 0, 0, time.UTC)
	messages, err := client.ListRecent(context.Background(), since, 25)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if !strings.Contains(listQuery, "after:2023/11/10") {
		t.Errorf("list query missing date filter: %q", listQuery)
	}
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	msg := messages[0]
	if msg.ID != "msg-1" || msg.ThreadID != "thread-1" {
		t.Errorf("identity = %q/%q", msg.ID, msg.ThreadID)
	}
	if msg.Subject != "Need the Q3 Report" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.Sender != "Alex <alex@example.com>" {
		t.Errorf("sender = %q", msg.Sender)
	}
	if msg.Body != "Please send the report." {
		t.Errorf("body = %q, want plain part preferred", msg.Body)
	}
	if msg.Timestamp.Unix() != 1700000000 {
		t.Errorf("timestamp = %v", msg.Timestamp)
	}
}

func TestExtractBodyFallsBackToStrippedHTML(t *testing.T) {
	payload := gmailPayload{
		MimeType: "text/html",
		Body:     gmailBody{Data: encodePart("<html><style>p{color:red}</style><body><p>Hello</p> <b>world</b></body></html>")},
	}
	if got := extractBody(payload); got != "Hello world" {
		t.Errorf("extractBody = %q, want %q", got, "Hello world")
	}
}

func TestSendReplyEncodesRawMessage(t *testing.T) {
	var sent struct {
		Raw      string `json:"raw"`
		ThreadID string `json:"threadId"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/users/me/messages/send") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			t.Errorf("decode send payload: %v", err)
		}
		w.Write([]byte(`{"id":"sent-1"}`))
	}))
	defer server.Close()

	client := New(StaticToken("token-1"), Options{BaseURL: server.URL})
	err := client.SendReply(context.Background(), domain.OutgoingReply{
		To:       "alex@example.com",
		Subject:  "Re: Need the Q3 Report",
		Body:     "Attached is the document.",
		ThreadID: "thread-1",
	})
	if err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	if sent.ThreadID != "thread-1" {
		t.Errorf("threadId = %q", sent.ThreadID)
	}
	raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(sent.Raw)
	if err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	message := string(raw)
	for _, want := range []string{"To: alex@example.com", "Subject: Re: Need the Q3 Report", "Attached is the document."} {
		if !strings.Contains(message, want) {
			t.Errorf("raw message missing %q:\n%s", want, message)
		}
	}
}

func TestSendReplyAttachesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Q3_Report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	var rawField string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		rawField = payload["raw"]
		w.Write([]byte(`{"id":"sent-1"}`))
	}))
	defer server.Close()

	client := New(StaticToken("token-1"), Options{BaseURL: server.URL})
	err := client.SendReply(context.Background(), domain.OutgoingReply{
		To:             "alex@example.com",
		Subject:        "Re: Need the Q3 Report",
		Body:           "Attached.",
		AttachmentPath: path,
	})
	if err != nil {
		t.Fatalf("SendReply: %v", err)
	}
	raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(rawField)
	if err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	message := string(raw)
	if !strings.Contains(message, "multipart/mixed") {
		t.Errorf("raw message is not multipart:\n%s", message)
	}
	if !strings.Contains(message, `filename="Q3_Report.pdf"`) {
		t.Errorf("raw message missing attachment filename:\n%s", message)
	}
	encoded := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake"))
	if !strings.Contains(message, encoded) {
		t.Errorf("raw message missing attachment bytes:\n%s", message)
	}
}

func TestListRecentSkipsMessagesThatFailToFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/users/me/messages"):
			json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]string{{"id": "msg-bad"}, {"id": "msg-ok"}},
			})
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/msg-bad"):
			http.Error(w, `{"error":{"message":"backend error"}}`, http.StatusInternalServerError)
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/msg-ok"):
			json.NewEncoder(w).Encode(map[string]any{
				"id":           "msg-ok",
				"internalDate": "1700000000000",
				"payload": map[string]any{
					"mimeType": "text/plain",
					"headers": []map[string]string{
						{"name": "Subject", "value": "Still here"},
					},
					"body": map[string]string{"data": encodePart("survived")},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := New(StaticToken("token-1"), Options{BaseURL: server.URL})
	messages, err := client.ListRecent(context.Background(), time.Now(), 10)
	if err != nil {
		t.Fatalf("one bad message must not abort the listing: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != "msg-ok" {
		t.Fatalf("messages = %+v, want only msg-ok", messages)
	}
}

func TestListRecentStopsOnCancelledContext(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/users/me/messages") {
			json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]string{{"id": "msg-1"}, {"id": "msg-2"}},
			})
			return
		}
		fetches++
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := New(func(context.Context) (string, error) {
		if fetches > 0 {
			cancel()
		}
		return "token-1", nil
	}, Options{BaseURL: server.URL})

	if _, err := client.ListRecent(ctx, time.Now(), 10); err == nil {
		t.Fatal("expected cancellation to surface")
	}
	if fetches > 1 {
		t.Fatalf("fetches = %d, want the loop to stop after cancellation", fetches)
	}
}

func TestListRecentSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limit exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(StaticToken("token-1"), Options{BaseURL: server.URL})
	_, err := client.ListRecent(context.Background(), time.Now(), 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error missing API body: %v", err)
	}
}

func TestTokenFailureIsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the API without a token")
	}))
	defer server.Close()

	failing := func(context.Context) (string, error) {
		return "", domain.ErrUnauthorized
	}
	client := New(failing, Options{BaseURL: server.URL})
	_, err := client.ListRecent(context.Background(), time.Now(), 10)
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Errorf("error kind = %v, want unauthorized", err)
	}
}
