package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/doc-responder/internal/core/ports"
)

const maxRepliesPageSize = 200

type Router struct {
	queue   ports.MessageQueue
	journal ports.ReplyJournal

	onScanTriggered func()
}

type Option func(*Router)

// WithScanTriggerHook registers a callback fired once per accepted
// scan trigger, after the run is published to the queue.
func WithScanTriggerHook(fn func()) Option {
	return func(rt *Router) {
		rt.onScanTriggered = fn
	}
}

func NewRouter(queue ports.MessageQueue, journal ports.ReplyJournal, options ...Option) *Router {
	rt := &Router{
		queue:   queue,
		journal: journal,
	}
	for _, option := range options {
		option(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/scans", rt.triggerScan)
	mux.HandleFunc("/v1/replies", rt.listReplies)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// triggerScan enqueues one scan run and returns its identifier. The
// worker picks the run up from the queue; the API never scans inline.
func (rt *Router) triggerScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	runID := uuid.NewString()
	if err := rt.queue.PublishScanRequested(r.Context(), runID); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.onScanTriggered != nil {
		rt.onScanTriggered()
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (rt *Router) listReplies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	if limit > maxRepliesPageSize {
		limit = maxRepliesPageSize
	}

	records, err := rt.journal.ListRecent(r.Context(), limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"replies": records})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
