// Package server exposes the thought pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/pipeline"
	"github.com/shubh-37/minddump/internal/store"
	"github.com/shubh-37/minddump/internal/webhooks"
)

const maxBodyBytes = 1 << 20

type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Envelope, error)
}

type WebhookHistory interface {
	Recent() []webhooks.Delivery
}

type Options struct {
	Pipeline Processor
	Store    store.ThoughtStore
	Webhooks WebhookHistory
	// Slack, when set, serves POST /slack/events.
	Slack http.Handler
	// Linear, when set, serves POST /linear/webhook.
	Linear http.Handler
	// Components reports which integrations are configured, for /health.
	Components map[string]bool
	// Ping checks a backing dependency such as the database.
	Ping   func(ctx context.Context) error
	Logger *zap.Logger
}

type Server struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func New(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = store.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{opts: opts, logger: opts.Logger.Named("http"), now: time.Now}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /thoughts", s.handleCreateThought)
	mux.HandleFunc("GET /thoughts", s.handleListThoughts)
	mux.HandleFunc("GET /categories", s.handleCategories)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /integrations/webhooks", s.handleWebhookHistory)
	if s.opts.Slack != nil {
		mux.Handle("POST /slack/events", s.opts.Slack)
	}
	if s.opts.Linear != nil {
		mux.Handle("POST /linear/webhook", s.opts.Linear)
	}

	return chainMiddlewares(mux,
		withRequestID(s.logger),
		withLogging(s.logger),
		withRecover(s.logger),
		withCORS,
		withSecurityHeaders,
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success   bool        `json:"success"`
	Error     errorDetail `json:"error"`
	Timestamp time.Time   `json:"timestamp"`
}

func errorBody(code, msg string) errorResponse {
	return errorResponse{
		Error:     errorDetail{Code: code, Message: msg},
		Timestamp: time.Now().UTC(),
	}
}
