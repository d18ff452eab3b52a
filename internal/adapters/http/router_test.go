package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

type queueFake struct {
	published []string
	err       error
}

func (q *queueFake) PublishScanRequested(_ context.Context, runID string) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, runID)
	return nil
}

func (q *queueFake) SubscribeScanRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

type journalFake struct {
	records []domain.ReplyRecord
	err     error
	limit   int
}

func (j *journalFake) AlreadyReplied(context.Context, string) (bool, error) { return false, nil }

func (j *journalFake) Record(context.Context, domain.ReplyRecord) error { return nil }

func (j *journalFake) ListRecent(_ context.Context, limit int) ([]domain.ReplyRecord, error) {
	j.limit = limit
	return j.records, j.err
}

func TestHealthz(t *testing.T) {
	router := NewRouter(&queueFake{}, &journalFake{})
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTriggerScanPublishesRun(t *testing.T) {
	queue := &queueFake{}
	router := NewRouter(queue, &journalFake{})
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scans", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["run_id"] == "" {
		t.Error("run_id missing from response")
	}
	if len(queue.published) != 1 || queue.published[0] != resp["run_id"] {
		t.Errorf("published = %v, want [%s]", queue.published, resp["run_id"])
	}
}

func TestTriggerScanFiresHookOncePerAcceptedRun(t *testing.T) {
	triggered := 0
	router := NewRouter(&queueFake{}, &journalFake{}, WithScanTriggerHook(func() { triggered++ }))
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scans", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if triggered != 1 {
		t.Errorf("hook fired %d times, want 1", triggered)
	}
}

func TestTriggerScanSkipsHookOnPublishError(t *testing.T) {
	triggered := 0
	queue := &queueFake{err: domain.WrapError(domain.ErrTemporary, "nats publish", errors.New("no servers"))}
	router := NewRouter(queue, &journalFake{}, WithScanTriggerHook(func() { triggered++ }))
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scans", nil))

	if triggered != 0 {
		t.Errorf("hook fired %d times, want 0", triggered)
	}
}

func TestTriggerScanRejectsGet(t *testing.T) {
	router := NewRouter(&queueFake{}, &journalFake{})
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scans", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTriggerScanMapsTemporaryErrors(t *testing.T) {
	queue := &queueFake{err: domain.WrapError(domain.ErrTemporary, "nats publish", errors.New("no servers"))}
	router := NewRouter(queue, &journalFake{})
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scans", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListRepliesReturnsRecords(t *testing.T) {
	journal := &journalFake{records: []domain.ReplyRecord{{
		ID:        "rec-1",
		MessageID: "msg-1",
		Recipient: "alex@example.com",
		SentAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}}}
	router := NewRouter(&queueFake{}, journal)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/replies?limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if journal.limit != 10 {
		t.Errorf("limit = %d, want 10", journal.limit)
	}
	var resp struct {
		Replies []domain.ReplyRecord `json:"replies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Replies) != 1 || resp.Replies[0].MessageID != "msg-1" {
		t.Errorf("replies = %+v", resp.Replies)
	}
}

func TestListRepliesRejectsBadLimit(t *testing.T) {
	router := NewRouter(&queueFake{}, &journalFake{})
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/replies?limit=-3", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListRepliesCapsLimit(t *testing.T) {
	journal := &journalFake{}
	router := NewRouter(&queueFake{}, journal)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/replies?limit=10000", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if journal.limit != maxRepliesPageSize {
		t.Errorf("limit = %d, want %d", journal.limit, maxRepliesPageSize)
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	router := NewRouter(&queueFake{}, &journalFake{})
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("request id header missing")
	}
}

func TestRequestIDHeaderIsPropagated(t *testing.T) {
	router := NewRouter(&queueFake{}, &journalFake{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	router.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "req-42" {
		t.Errorf("request id = %q, want req-42", got)
	}
}
