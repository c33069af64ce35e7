package agents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shubh-37/minddump/internal/apperr"
	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

type stubAnalyzer struct {
	result *models.Analysis
	err    error
	delay  time.Duration
	calls  int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, _ string) (*models.Analysis, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func TestGatewayResolvesDisplayName(t *testing.T) {
	stub := &stubAnalyzer{result: &models.Analysis{Category: "Project Idea", Title: "Password Manager Extension"}}
	g := NewGateway(stub, time.Second, zaptest.NewLogger(t))

	a, err := g.Analyze(context.Background(), "Build a Chrome extension for password management", nil, "")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.ProjectIdea, a.Category)
	assert.Equal(t, taxonomy.TypeProject, a.LegacyType)
	assert.Equal(t, "Password Manager Extension", a.Title)
}

func TestGatewayOverrideRecomputesLegacyType(t *testing.T) {
	stub := &stubAnalyzer{result: &models.Analysis{Category: taxonomy.Idea, LegacyType: taxonomy.TypeIdea}}
	g := NewGateway(stub, time.Second, zaptest.NewLogger(t))

	a, err := g.Analyze(context.Background(), "run every morning", nil, taxonomy.Goal)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Goal, a.Category)
	assert.Equal(t, taxonomy.TypeTask, a.LegacyType)
}

func TestGatewayDerivesLegacyTypeFromCategory(t *testing.T) {
	stub := &stubAnalyzer{result: &models.Analysis{Category: taxonomy.Task, LegacyType: taxonomy.TypeProject}}
	g := NewGateway(stub, time.Second, zaptest.NewLogger(t))

	a, err := g.Analyze(context.Background(), "buy milk", nil, "")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Task, a.Category)
	assert.Equal(t, taxonomy.TypeTask, a.LegacyType)
}

func TestGatewayUnknownCategoryUsesLegacyType(t *testing.T) {
	stub := &stubAnalyzer{result: &models.Analysis{Category: "Shopping", LegacyType: taxonomy.TypeIdea}}
	g := NewGateway(stub, time.Second, zaptest.NewLogger(t))

	a, err := g.Analyze(context.Background(), "x", nil, "")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Idea, a.Category)
	assert.Equal(t, taxonomy.TypeIdea, a.LegacyType)
}

func TestGatewayUnknownCategoryFallsBack(t *testing.T) {
	stub := &stubAnalyzer{result: &models.Analysis{Category: "Shopping"}}
	g := NewGateway(stub, time.Second, zaptest.NewLogger(t))

	a, err := g.Analyze(context.Background(), "x", nil, "")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Uncategorized, a.Category)
	assert.Equal(t, taxonomy.TypeReflection, a.LegacyType)
}

func TestGatewayBypassSkipsProvider(t *testing.T) {
	stub := &stubAnalyzer{}
	g := NewGateway(stub, time.Second, zaptest.NewLogger(t))

	a, err := g.Analyze(context.Background(), "x", &models.Analysis{LegacyType: "vent"}, "")
	require.NoError(t, err)
	assert.Zero(t, stub.calls)
	assert.Equal(t, taxonomy.Sensitive, a.Category)
	assert.Equal(t, taxonomy.TypeVent, a.LegacyType)
}

func TestGatewayBypassWithoutProvider(t *testing.T) {
	g := NewGateway(nil, time.Second, zaptest.NewLogger(t))

	a, err := g.Analyze(context.Background(), "x", &models.Analysis{Category: taxonomy.Task}, "")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.TypeTask, a.LegacyType)
}

func TestGatewayRejectsUnclassifiedAnalysis(t *testing.T) {
	g := NewGateway(&stubAnalyzer{}, time.Second, zaptest.NewLogger(t))

	_, err := g.Analyze(context.Background(), "x", &models.Analysis{Title: "no category"}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidAnalysis))
	assert.Equal(t, http.StatusBadRequest, apperr.As(err).Status())
}

func TestGatewayProviderFailure(t *testing.T) {
	stub := &stubAnalyzer{err: errors.New("rate limited")}
	g := NewGateway(stub, time.Second, zaptest.NewLogger(t))

	a, err := g.Analyze(context.Background(), "x", nil, "")
	assert.Nil(t, a)
	assert.True(t, apperr.IsCode(err, apperr.CodeAnalysisFailed))
	assert.Equal(t, http.StatusServiceUnavailable, apperr.As(err).Status())
}

func TestGatewayTimeout(t *testing.T) {
	stub := &stubAnalyzer{result: &models.Analysis{Category: taxonomy.Task}, delay: time.Second}
	g := NewGateway(stub, 30*time.Millisecond, zaptest.NewLogger(t))

	start := time.Now()
	_, err := g.Analyze(context.Background(), "x", nil, "")
	assert.True(t, apperr.IsCode(err, apperr.CodeAnalysisFailed))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGatewayUnconfigured(t *testing.T) {
	g := NewGateway(nil, time.Second, zaptest.NewLogger(t))
	assert.False(t, g.Configured())

	_, err := g.Analyze(context.Background(), "x", nil, "")
	assert.True(t, apperr.IsCode(err, apperr.CodeServiceUnavailable))
}

func TestParseAnalysisToleratesFences(t *testing.T) {
	reply := "Here you go:\n```json\n{\"category\": \"Task\", \"title\": \"Buy milk\", \"actions\": [\"go to store\"]}\n```"
	a, err := parseAnalysis(reply)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Task, a.Category)
	assert.Equal(t, []string{"go to store"}, a.Actions)

	_, err = parseAnalysis("no json here")
	assert.Error(t, err)

	_, err = parseAnalysis(`{"title": "missing category"}`)
	assert.Error(t, err)
}

func TestCategorizerAgentCallsMessagesAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.NotEmpty(t, req.System)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "learn rust")

		_ = json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicContent{
			{Type: "text", Text: "```json\n{\"category\":\"Learning\",\"title\":\"Learn Rust\"}\n```"},
		}})
	}))
	defer srv.Close()

	agent := NewCategorizerAgent("test-key", "claude-test", zaptest.NewLogger(t)).WithEndpoint(srv.URL)
	a, err := agent.Analyze(context.Background(), "learn rust")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Learning, a.Category)
	assert.Equal(t, "Learn Rust", a.Title)
}

func TestCategorizerAgentRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	agent := NewCategorizerAgent("k", "m", zaptest.NewLogger(t)).WithEndpoint(srv.URL)
	_, err := agent.Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestCategorizerAgentRequiresKey(t *testing.T) {
	agent := NewCategorizerAgent("", "m", zaptest.NewLogger(t))
	_, err := agent.Analyze(context.Background(), "x")
	assert.Error(t, err)
}

func TestMockAnalyzer(t *testing.T) {
	a, err := MockAnalyzer{}.Analyze(context.Background(), "Build a Chrome extension for password management")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.ProjectIdea, a.Category)
	assert.NotEmpty(t, a.Title)

	a, err = MockAnalyzer{}.Analyze(context.Background(), "the sky was nice")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Note, a.Category)
}
