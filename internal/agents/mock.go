package agents

import (
	"context"
	"strings"

	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

// MockAnalyzer classifies with keyword rules. It needs no credentials and is
// meant for local development.
type MockAnalyzer struct{}

var mockRules = []struct {
	keywords []string
	category taxonomy.ID
}{
	{[]string{"build", "app", "extension", "tool", "startup"}, taxonomy.ProjectIdea},
	{[]string{"automate", "script", "cron"}, taxonomy.Automation},
	{[]string{"remind", "don't forget", "tomorrow"}, taxonomy.Reminder},
	{[]string{"every day", "daily", "habit"}, taxonomy.Habit},
	{[]string{"goal", "by the end of"}, taxonomy.Goal},
	{[]string{"learned", "today i learned"}, taxonomy.Learning},
	{[]string{"career", "promotion", "interview"}, taxonomy.Career},
	{[]string{"password", "ssn", "bank account"}, taxonomy.Sensitive},
	{[]string{"todo", "need to", "should"}, taxonomy.Task},
}

func (MockAnalyzer) Analyze(_ context.Context, text string) (*models.Analysis, error) {
	lower := strings.ToLower(text)
	category := taxonomy.Note
	for _, rule := range mockRules {
		if containsAny(lower, rule.keywords) {
			category = rule.category
			break
		}
	}

	title := firstWords(text, 8)
	a := &models.Analysis{
		Category:        category,
		Priority:        string(models.PriorityMedium),
		Title:           title,
		Summary:         firstWords(text, 30),
		ExpandedThought: text,
		Actions:         []string{},
	}
	if category == taxonomy.ProjectIdea {
		a.Overview = text
		a.Features = []string{title}
	}
	return a, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
