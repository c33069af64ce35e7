package models

import "github.com/shubh-37/minddump/internal/taxonomy"

// Analysis is the structured result of analyzing a thought. It comes from an
// external model or from the caller and is untrusted until capped.
type Analysis struct {
	Category        taxonomy.ID         `json:"category,omitempty"`
	LegacyType      taxonomy.LegacyType `json:"type,omitempty"`
	Subcategory     string              `json:"subcategory,omitempty"`
	Priority        string              `json:"priority,omitempty"`
	Title           string              `json:"title,omitempty"`
	Summary         string              `json:"summary,omitempty"`
	ExpandedThought string              `json:"expandedThought,omitempty"`
	Actions         []string            `json:"actions,omitempty"`
	Urgency         string              `json:"urgency,omitempty"`
	Sentiment       string              `json:"sentiment,omitempty"`
	TechStack       []string            `json:"techStack,omitempty"`
	Features        []string            `json:"features,omitempty"`
	Overview        string              `json:"overview,omitempty"`
	Markdown        string              `json:"markdown,omitempty"`
	Confidence      *float64            `json:"confidence,omitempty"`
}

// HasClassification reports whether the analysis names a category or a
// legacy type.
func (a *Analysis) HasClassification() bool {
	return a != nil && (a.Category != "" || a.LegacyType != "")
}

// Capped returns a copy with every field length-limited, for echoing back to
// the client.
func (a *Analysis) Capped() *Analysis {
	if a == nil {
		return nil
	}
	out := *a
	out.Subcategory = Truncate(a.Subcategory, MaxSubcategoryLength)
	out.Priority = string(ParsePriority(a.Priority))
	out.Title = Truncate(a.Title, MaxTitleLength)
	out.Summary = Truncate(a.Summary, MaxSummaryLength)
	out.ExpandedThought = Truncate(a.ExpandedThought, MaxExpandedLength)
	out.Actions = CapList(a.Actions, MaxActions, MaxActionLength)
	out.Urgency = Truncate(a.Urgency, MaxShortFieldLength)
	out.Sentiment = Truncate(a.Sentiment, MaxShortFieldLength)
	out.TechStack = CapList(a.TechStack, MaxTechStack, MaxTechStackLength)
	out.Features = CapList(a.Features, MaxFeatures, MaxFeatureLength)
	out.Overview = Truncate(a.Overview, MaxOverviewLength)
	out.Markdown = Truncate(a.Markdown, MaxReadmeLength)
	return &out
}
