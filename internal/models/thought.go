package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shubh-37/minddump/internal/taxonomy"
)

// MaxRawTextLength is the ceiling on submitted text, in characters.
const MaxRawTextLength = 50000

// Priority of a thought as judged by the analyzer.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Thought represents one submitted unit of user input after analysis.
type Thought struct {
	ID           string              `json:"id"`
	RawText      string              `json:"rawText"`
	Category     taxonomy.ID         `json:"category"`
	LegacyType   taxonomy.LegacyType `json:"type"`
	Subcategory  string              `json:"subcategory,omitempty"`
	Priority     Priority            `json:"priority"`
	Title        string              `json:"title,omitempty"`
	Summary      string              `json:"summary,omitempty"`
	ExpandedText string              `json:"expandedText,omitempty"`
	Actions      []string            `json:"actions"`
	Urgency      string              `json:"urgency,omitempty"`
	Sentiment    string              `json:"sentiment,omitempty"`
	Source       string              `json:"source"` // "web", "cli" or "slack"
	CreatedAt    time.Time           `json:"createdAt"`
}

// NewThought builds a thought from raw text and an analysis, applying every
// field cap. The analysis must already have its category resolved.
func NewThought(rawText, source string, a *Analysis, now time.Time) *Thought {
	return &Thought{
		ID:           uuid.New().String(),
		RawText:      rawText,
		Category:     a.Category,
		LegacyType:   a.LegacyType,
		Subcategory:  Truncate(a.Subcategory, MaxSubcategoryLength),
		Priority:     ParsePriority(a.Priority),
		Title:        Truncate(a.Title, MaxTitleLength),
		Summary:      Truncate(a.Summary, MaxSummaryLength),
		ExpandedText: Truncate(a.ExpandedThought, MaxExpandedLength),
		Actions:      CapList(a.Actions, MaxActions, MaxActionLength),
		Urgency:      Truncate(a.Urgency, MaxShortFieldLength),
		Sentiment:    Truncate(a.Sentiment, MaxShortFieldLength),
		Source:       source,
		CreatedAt:    now,
	}
}

// ParsePriority defaults anything unrecognised to medium.
func ParsePriority(s string) Priority {
	switch Priority(normalizeWord(s)) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	}
	return PriorityMedium
}
