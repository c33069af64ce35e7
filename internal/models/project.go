package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shubh-37/minddump/internal/taxonomy"
)

// Project is derived from a project-idea thought. It lives for one request.
type Project struct {
	ID        string    `json:"id"`
	ThoughtID string    `json:"thoughtId"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Readme    string    `json:"readme,omitempty"`
	Overview  string    `json:"overview,omitempty"`
	SheetsURL *string   `json:"sheetsUrl"`
	TechStack []string  `json:"techStack"`
	Features  []string  `json:"features"`
	Actions   []string  `json:"actions"`
	CreatedAt time.Time `json:"createdAt"`
}

// QualifiesForProject reports whether a thought should produce a project.
func QualifiesForProject(t *Thought) bool {
	if t == nil || t.Title == "" {
		return false
	}
	return t.Category == taxonomy.ProjectIdea || t.LegacyType == taxonomy.TypeProject
}

// NewProject derives a project from a qualifying thought and its analysis.
func NewProject(t *Thought, a *Analysis) *Project {
	overview := a.Overview
	if overview == "" {
		overview = t.ExpandedText
	}
	readme := a.Markdown
	if readme == "" {
		readme = "# " + t.Title + "\n\n" + t.Summary
	}
	return &Project{
		ID:        uuid.New().String(),
		ThoughtID: t.ID,
		Title:     t.Title,
		Summary:   t.Summary,
		Readme:    Truncate(readme, MaxReadmeLength),
		Overview:  Truncate(overview, MaxOverviewLength),
		TechStack: CapList(a.TechStack, MaxTechStack, MaxTechStackLength),
		Features:  CapList(a.Features, MaxFeatures, MaxFeatureLength),
		Actions:   t.Actions,
		CreatedAt: t.CreatedAt,
	}
}
