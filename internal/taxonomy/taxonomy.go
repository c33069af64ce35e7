// Package taxonomy holds the static category table used to classify
// thoughts and its mapping onto the older five-value type enum.
package taxonomy

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ID is a canonical category identifier.
type ID string

const (
	Goal          ID = "Goal"
	Habit         ID = "Habit"
	ProjectIdea   ID = "ProjectIdea"
	Task          ID = "Task"
	Reminder      ID = "Reminder"
	Note          ID = "Note"
	Insight       ID = "Insight"
	Learning      ID = "Learning"
	Career        ID = "Career"
	Metric        ID = "Metric"
	Idea          ID = "Idea"
	System        ID = "System"
	Automation    ID = "Automation"
	Person        ID = "Person"
	Sensitive     ID = "Sensitive"
	Uncategorized ID = "Uncategorized"
)

// AutoDetect is the request value that leaves categorization to the analyzer.
const AutoDetect = "auto-detect"

// LegacyType is the older type enum kept for backward-compatible consumers.
type LegacyType string

const (
	TypeIdea       LegacyType = "idea"
	TypeTask       LegacyType = "task"
	TypeProject    LegacyType = "project"
	TypeVent       LegacyType = "vent"
	TypeReflection LegacyType = "reflection"
)

// Category is one taxonomy entry.
type Category struct {
	ID          ID     `json:"id" yaml:"id"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Color       string `json:"color" yaml:"color"`
	Description string `json:"description" yaml:"description"`
}

var categories = []Category{
	{Goal, "Goal", "#10B981", "Outcomes you want to reach"},
	{Habit, "Habit", "#14B8A6", "Recurring behaviours to build or break"},
	{ProjectIdea, "Project Idea", "#8B5CF6", "Things worth building"},
	{Task, "Task", "#3B82F6", "Concrete things to do"},
	{Reminder, "Reminder", "#F59E0B", "Time-bound nudges"},
	{Note, "Note", "#6B7280", "Information worth keeping"},
	{Insight, "Insight", "#EC4899", "Realisations and lessons"},
	{Learning, "Learning", "#0EA5E9", "Things to study or that were learned"},
	{Career, "Career", "#6366F1", "Work and professional growth"},
	{Metric, "Metric", "#84CC16", "Numbers worth tracking"},
	{Idea, "Idea", "#EAB308", "Loose ideas"},
	{System, "System", "#64748B", "Processes and personal systems"},
	{Automation, "Automation", "#F97316", "Things a machine should do"},
	{Person, "Person", "#D946EF", "Notes about people"},
	{Sensitive, "Sensitive", "#EF4444", "Private or emotional content"},
	{Uncategorized, "Uncategorized", "#9CA3AF", "Could not be classified"},
}

// legacyTypes is intentionally many-to-one. Categories missing here fall
// back to TypeReflection.
var legacyTypes = map[ID]LegacyType{
	Goal:        TypeTask,
	Habit:       TypeTask,
	ProjectIdea: TypeProject,
	Task:        TypeTask,
	Reminder:    TypeTask,
	Idea:        TypeIdea,
	Insight:     TypeIdea,
	Career:      TypeIdea,
	System:      TypeIdea,
	Automation:  TypeProject,
	Note:        TypeReflection,
	Learning:    TypeReflection,
	Sensitive:   TypeVent,
}

var index = buildIndex()

func buildIndex() map[string]Category {
	idx := make(map[string]Category, len(categories)*2)
	for _, c := range categories {
		idx[normalize(string(c.ID))] = c
		idx[normalize(c.DisplayName)] = c
	}
	return idx
}

// normalize folds case and drops separators so that "Project Idea",
// "project-idea" and "ProjectIdea" compare equal.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

// All returns the taxonomy in display order.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Lookup finds a category by id or display name, case-insensitively.
func Lookup(s string) (Category, bool) {
	c, ok := index[normalize(s)]
	return c, ok
}

// Resolve is Lookup with the Uncategorized fallback.
func Resolve(s string) Category {
	if c, ok := Lookup(s); ok {
		return c
	}
	return Get(Uncategorized)
}

// Get returns the entry for a known id.
func Get(id ID) Category {
	c, _ := Lookup(string(id))
	return c
}

// Parse validates a caller-supplied category. It returns "" for auto-detect
// and an error for anything outside the closed set.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AutoDetect) {
		return "", nil
	}
	c, ok := Lookup(s)
	if !ok {
		return "", eris.Errorf("unknown category %q", s)
	}
	return c.ID, nil
}

// LegacyTypeFor maps a category onto the legacy type enum.
func LegacyTypeFor(id ID) LegacyType {
	if t, ok := legacyTypes[id]; ok {
		return t
	}
	return TypeReflection
}

// ParseLegacyType accepts one of the five legacy values, case-insensitively.
func ParseLegacyType(s string) (LegacyType, bool) {
	switch t := LegacyType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeIdea, TypeTask, TypeProject, TypeVent, TypeReflection:
		return t, true
	}
	return "", false
}

// FromLegacyType picks the category used when an analysis only carries the
// legacy type.
func FromLegacyType(t LegacyType) ID {
	switch t {
	case TypeIdea:
		return Idea
	case TypeTask:
		return Task
	case TypeProject:
		return ProjectIdea
	case TypeVent:
		return Sensitive
	case TypeReflection:
		return Note
	}
	return Uncategorized
}
