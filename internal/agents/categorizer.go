package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/models"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// ErrRateLimited is returned when the provider answers 429.
var ErrRateLimited = eris.New("analysis provider rate limited")

// CategorizerAgent analyzes thoughts with the Anthropic Messages API.
type CategorizerAgent struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewCategorizerAgent returns an analyzer for the given key and model.
func NewCategorizerAgent(apiKey, model string, logger *zap.Logger) *CategorizerAgent {
	return &CategorizerAgent{
		apiKey:   apiKey,
		model:    model,
		endpoint: anthropicURL,
		// the gateway enforces the real deadline; this only stops leaks
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.Named("anthropic"),
	}
}

// WithEndpoint points the agent at another base URL, used by tests.
func (a *CategorizerAgent) WithEndpoint(url string) *CategorizerAgent {
	a.endpoint = url
	return a
}

func (a *CategorizerAgent) Analyze(ctx context.Context, text string) (*models.Analysis, error) {
	if a.apiKey == "" {
		return nil, eris.New("ANTHROPIC_API_KEY is not configured")
	}

	reqBody := anthropicRequest{
		Model:     a.model,
		MaxTokens: 2000,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: buildUserPrompt(text),
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, eris.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "failed to call Anthropic API")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "failed to read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Warn("anthropic api error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncateForLog(string(body))))
		return nil, eris.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, eris.Wrap(err, "failed to parse response")
	}

	if apiResp.Error != nil {
		return nil, eris.Errorf("API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	var responseText strings.Builder
	for _, c := range apiResp.Content {
		if c.Type == "text" {
			responseText.WriteString(c.Text)
		}
	}
	if responseText.Len() == 0 {
		return nil, eris.New("unexpected response format")
	}

	analysis, err := parseAnalysis(responseText.String())
	if err != nil {
		return nil, err
	}

	a.logger.Debug("thought analyzed",
		zap.String("category", string(analysis.Category)),
		zap.Duration("elapsed", time.Since(start)))

	return analysis, nil
}

func truncateForLog(s string) string {
	if len(s) > 512 {
		return s[:512] + "..."
	}
	return s
}
