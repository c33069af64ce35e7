package models

import (
	"strings"
	"time"
)

// MasterSheetEntry is the row appended to the central log for every thought.
type MasterSheetEntry struct {
	RawInput     string    `json:"rawInput"`
	Category     string    `json:"category"`
	Subcategory  string    `json:"subcategory"`
	Priority     string    `json:"priority"` // Low, Medium or High
	ExpandedText string    `json:"expandedText"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewMasterSheetEntry flattens a thought into a log row.
func NewMasterSheetEntry(t *Thought, categoryName string) MasterSheetEntry {
	return MasterSheetEntry{
		RawInput:     t.RawText,
		Category:     categoryName,
		Subcategory:  t.Subcategory,
		Priority:     capitalize(string(t.Priority)),
		ExpandedText: t.ExpandedText,
		Timestamp:    t.CreatedAt,
	}
}

// Row returns the cell values in column order.
func (e MasterSheetEntry) Row() []any {
	return []any{
		e.RawInput,
		e.Category,
		e.Subcategory,
		e.Priority,
		e.ExpandedText,
		e.Timestamp.UTC().Format(time.RFC3339),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
