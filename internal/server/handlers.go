package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/apperr"
	"github.com/shubh-37/minddump/internal/logging"
	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/pipeline"
	"github.com/shubh-37/minddump/internal/taxonomy"
	"github.com/shubh-37/minddump/internal/webhooks"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

type createThoughtRequest struct {
	Text     *string         `json:"text"`
	Category string          `json:"category,omitempty"`
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

func (s *Server) handleCreateThought(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body createThoughtRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, apperr.Validation("request body too large"))
			return
		}
		s.writeError(w, r, apperr.InvalidJSON(err))
		return
	}
	if body.Text == nil {
		s.writeError(w, r, apperr.Validation("text is required"))
		return
	}

	req := pipeline.Request{
		Text:     *body.Text,
		Category: body.Category,
		Source:   "web",
	}

	if a := bytes.TrimSpace(body.Analysis); len(a) > 0 && !bytes.Equal(a, []byte("null")) {
		var supplied models.Analysis
		if err := json.Unmarshal(a, &supplied); err != nil {
			s.writeError(w, r, apperr.InvalidAnalysis("analysis must be an object"))
			return
		}
		req.Analysis = &supplied
	}

	env, err := s.opts.Pipeline.Process(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, env)
}

type pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

type listThoughtsResponse struct {
	Success    bool              `json:"success"`
	Thoughts   []*models.Thought `json:"thoughts"`
	Pagination pagination        `json:"pagination"`
	Timestamp  time.Time         `json:"timestamp"`
}

func (s *Server) handleListThoughts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := clamp(parseInt(q.Get("limit"), defaultLimit), 1, maxLimit)
	offset := max(parseInt(q.Get("offset"), 0), 0)

	thoughts, total, err := s.opts.Store.List(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if thoughts == nil {
		thoughts = []*models.Thought{}
	}

	writeJSON(w, http.StatusOK, listThoughtsResponse{
		Success:  true,
		Thoughts: thoughts,
		Pagination: pagination{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasMore: offset+len(thoughts) < total,
		},
		Timestamp: s.now().UTC(),
	})
}

type categoryResponse struct {
	taxonomy.Category
	LegacyType taxonomy.LegacyType `json:"legacyType"`
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	all := taxonomy.All()
	out := make([]categoryResponse, 0, len(all))
	for _, c := range all {
		out = append(out, categoryResponse{Category: c, LegacyType: taxonomy.LegacyTypeFor(c.ID)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": out,
		"timestamp":  s.now().UTC(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	resp := map[string]any{
		"components": s.opts.Components,
	}
	if s.opts.Ping != nil {
		if err := s.opts.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context(), s.logger).Warn("health check failed", zap.Error(err))
			status, code = "degraded", http.StatusServiceUnavailable
			resp["error"] = "storage unavailable"
		}
	}
	resp["status"] = status
	resp["timestamp"] = s.now().UTC()
	writeJSON(w, code, resp)
}

func (s *Server) handleWebhookHistory(w http.ResponseWriter, _ *http.Request) {
	deliveries := []webhooks.Delivery{}
	if s.opts.Webhooks != nil {
		deliveries = s.opts.Webhooks.Recent()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"deliveries": deliveries,
		"timestamp":  s.now().UTC(),
	})
}

// writeError renders err as the standard error body. Causes are logged,
// never returned to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	log := logging.FromContext(r.Context(), s.logger)
	if e.Status() >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("code", string(e.Code)), zap.Error(err))
	} else {
		log.Info("request rejected", zap.String("code", string(e.Code)), zap.String("reason", e.Message))
	}
	writeJSON(w, e.Status(), errorBody(string(e.Code), e.Message))
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
