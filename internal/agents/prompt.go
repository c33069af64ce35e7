package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

var systemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are an assistant that organizes a person's brain dump.

Classify the thought into exactly ONE of these categories:
`)
	for _, c := range taxonomy.All() {
		if c.ID == taxonomy.Uncategorized {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.DisplayName, c.Description)
	}
	b.WriteString(`
Respond with a single JSON object and nothing else:
{
  "category": "<one category name from the list>",
  "subcategory": "<short free-form subcategory>",
  "priority": "low | medium | high",
  "title": "<short title, max 10 words>",
  "summary": "<one or two sentences>",
  "expandedThought": "<the thought elaborated into a clear paragraph>",
  "actions": ["<concrete next step>", "..."],
  "urgency": "<none | soon | today | overdue>",
  "sentiment": "<positive | neutral | negative | mixed>",
  "techStack": ["<only for project ideas>"],
  "features": ["<only for project ideas>"],
  "overview": "<only for project ideas: what it is and who it is for>",
  "markdown": "<only for project ideas: a README in markdown>",
  "confidence": <0..1>
}`)
	return b.String()
}

func buildUserPrompt(text string) string {
	return fmt.Sprintf("Thought:\n\"\"\"\n%s\n\"\"\"", text)
}

// parseAnalysis pulls the first JSON object out of a model reply, tolerating
// code fences and surrounding prose.
func parseAnalysis(reply string) (*models.Analysis, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return nil, eris.New("malformed analysis response: no JSON object")
	}

	var a models.Analysis
	if err := json.Unmarshal([]byte(reply[start:end+1]), &a); err != nil {
		return nil, eris.Wrap(err, "malformed analysis response")
	}
	if !a.HasClassification() {
		return nil, eris.New("malformed analysis response: missing category")
	}
	return &a, nil
}
