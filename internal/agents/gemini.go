package agents

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/shubh-37/minddump/internal/models"
)

// GeminiAgent analyzes thoughts with the Gemini API.
type GeminiAgent struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

func NewGeminiAgent(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiAgent, error) {
	if apiKey == "" {
		return nil, eris.New("GEMINI_API_KEY is not configured")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating Gemini client")
	}

	return &GeminiAgent{
		client:    client,
		modelName: modelName,
		logger:    logger.Named("gemini"),
	}, nil
}

func (g *GeminiAgent) Analyze(ctx context.Context, text string) (*models.Analysis, error) {
	temp := float32(0.3)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   4096,
		ResponseMIMEType:  "application/json",
	}

	contents := []*genai.Content{genai.NewContentFromText(buildUserPrompt(text), genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "gemini generate content")
	}

	reply := res.Text()
	if reply == "" {
		return nil, eris.New("gemini returned empty text")
	}

	analysis, err := parseAnalysis(reply)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("thought analyzed", zap.String("category", string(analysis.Category)))
	return analysis, nil
}
