// Package linear captures completed Linear issues as thoughts.
package linear

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/async"
	"github.com/shubh-37/minddump/internal/pipeline"
)

const (
	signatureHeader = "Linear-Signature"
	processTimeout  = 2 * time.Minute
	maxProcessed    = 1000
)

type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Envelope, error)
}

type WebhookHandler struct {
	pipeline Processor
	secret   string
	logger   *zap.Logger
	wg       sync.WaitGroup

	mu              sync.Mutex
	processedIssues map[string]bool
	order           []string
}

type WebhookPayload struct {
	Action string          `json:"action"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
}

type WebhookIssueData struct {
	ID          string `json:"id"`
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Description string `json:"description"`
	State       struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"state"`
	Team struct {
		Name string `json:"name"`
	} `json:"team"`
}

func NewWebhookHandler(p Processor, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		pipeline:        p,
		secret:          secret,
		logger:          logger.Named("linear"),
		processedIssues: make(map[string]bool),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !h.validSignature(r.Header.Get(signatureHeader), body) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("failed to parse webhook payload", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if payload.Type != "Issue" || payload.Action != "update" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var issue WebhookIssueData
	if err := json.Unmarshal(payload.Data, &issue); err != nil {
		h.logger.Warn("failed to parse issue data", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if issue.State.Type != "completed" || !h.markProcessed(issue.ID) {
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Info("issue completed", zap.String("issue", issue.Identifier), zap.String("title", issue.Title))

	async.Detach(r.Context(), h.logger, "linear:"+issue.ID, processTimeout, &h.wg, func(ctx context.Context) error {
		_, err := h.pipeline.Process(ctx, pipeline.Request{
			Text:   thoughtText(&issue),
			Source: "linear",
		})
		return err
	})

	w.WriteHeader(http.StatusOK)
}

// Wait blocks until captured issues are processed.
func (h *WebhookHandler) Wait() {
	h.wg.Wait()
}

func (h *WebhookHandler) validSignature(sig string, body []byte) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(want))
}

// markProcessed reports false if the issue was already captured.
func (h *WebhookHandler) markProcessed(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.processedIssues[id] {
		h.logger.Debug("skipping duplicate issue", zap.String("issue", id))
		return false
	}
	h.processedIssues[id] = true
	h.order = append(h.order, id)
	if len(h.order) > maxProcessed {
		delete(h.processedIssues, h.order[0])
		h.order = h.order[1:]
	}
	return true
}

func thoughtText(issue *WebhookIssueData) string {
	text := fmt.Sprintf("Completed: %s", issue.Title)
	if issue.Team.Name != "" {
		text += fmt.Sprintf(" (%s)", issue.Team.Name)
	}
	if issue.Description != "" {
		text += fmt.Sprintf("\n\nDetails: %s", issue.Description)
	}
	return text
}
