// Package agents turns raw thoughts into structured analyses through an
// external language model.
package agents

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/apperr"
	"github.com/shubh-37/minddump/internal/async"
	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

// DefaultAnalysisTimeout bounds a single provider call.
const DefaultAnalysisTimeout = 30 * time.Second

// Analyzer is an external analysis provider.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*models.Analysis, error)
}

// Gateway wraps an Analyzer with the timeout, bypass and override rules.
// A nil analyzer means no provider credential is configured.
type Gateway struct {
	analyzer Analyzer
	timeout  time.Duration
	logger   *zap.Logger
}

func NewGateway(analyzer Analyzer, timeout time.Duration, logger *zap.Logger) *Gateway {
	if timeout <= 0 {
		timeout = DefaultAnalysisTimeout
	}
	return &Gateway{
		analyzer: analyzer,
		timeout:  timeout,
		logger:   logger.Named("gateway"),
	}
}

// Configured reports whether a provider is available.
func (g *Gateway) Configured() bool {
	return g.analyzer != nil
}

// Analyze returns a resolved analysis for text. A non-nil supplied analysis
// skips the provider entirely. A non-empty override replaces whatever
// category the analysis carries.
func (g *Gateway) Analyze(ctx context.Context, text string, supplied *models.Analysis, override taxonomy.ID) (*models.Analysis, error) {
	var result models.Analysis

	if supplied != nil {
		if !supplied.HasClassification() {
			return nil, apperr.InvalidAnalysis("analysis must include a category or type")
		}
		result = *supplied
	} else {
		if g.analyzer == nil {
			return nil, apperr.ServiceUnavailable("analysis provider is not configured")
		}
		start := time.Now()
		a, err := async.Race(ctx, g.timeout, func(ctx context.Context) (*models.Analysis, error) {
			return g.analyzer.Analyze(ctx, text)
		})
		if err != nil {
			g.logger.Warn("analysis failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return nil, apperr.AnalysisFailed(err)
		}
		if a == nil {
			return nil, apperr.AnalysisFailed(nil)
		}
		result = *a
	}

	resolve(&result)

	if override != "" {
		result.Category = override
		result.LegacyType = taxonomy.LegacyTypeFor(override)
	}

	return &result, nil
}

// resolve normalizes the category to a canonical id. The legacy type is
// derived from a known category; the supplied type is only used when the
// category is missing or unknown.
func resolve(a *models.Analysis) {
	legacy, legacyOK := taxonomy.ParseLegacyType(string(a.LegacyType))
	cat, catOK := taxonomy.Lookup(string(a.Category))

	switch {
	case catOK:
		a.Category = cat.ID
		a.LegacyType = taxonomy.LegacyTypeFor(cat.ID)
	case legacyOK:
		a.Category = taxonomy.FromLegacyType(legacy)
		a.LegacyType = legacy
	default:
		a.Category = taxonomy.Uncategorized
		a.LegacyType = taxonomy.LegacyTypeFor(taxonomy.Uncategorized)
	}
}
