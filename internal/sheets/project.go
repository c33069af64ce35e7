package sheets

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/async"
	"github.com/shubh-37/minddump/internal/models"
)

const DefaultProjectTimeout = 15 * time.Second

// ProjectSheets creates one spreadsheet per project.
type ProjectSheets struct {
	api     API
	timeout time.Duration
	logger  *zap.Logger
}

func NewProjectSheets(api API, timeout time.Duration, logger *zap.Logger) *ProjectSheets {
	if timeout <= 0 {
		timeout = DefaultProjectTimeout
	}
	return &ProjectSheets{api: api, timeout: timeout, logger: logger.Named("project_sheets")}
}

func (p *ProjectSheets) Configured() bool {
	return p.api != nil
}

// Create builds the project's spreadsheet and returns its URL. Any failure,
// including the timeout, yields a nil URL and a failed status.
func (p *ProjectSheets) Create(ctx context.Context, project *models.Project) (*string, models.IntegrationStatus) {
	if !p.Configured() {
		return nil, models.Failed(models.StatusNotConfigured, nil)
	}

	title := "MindDump Project: " + project.Title
	tabs := projectTabs(project)

	url, err := async.Race(ctx, p.timeout, func(ctx context.Context) (string, error) {
		return p.api.CreateSpreadsheet(ctx, title, tabs)
	})
	if err != nil {
		status := models.StatusFailed
		if errors.Is(err, async.ErrTimeout) {
			status = models.StatusTimedOut
		}
		p.logger.Warn("project sheet creation failed",
			zap.String("project", project.ID), zap.String("status", status), zap.Error(err))
		return nil, models.Failed(status, err)
	}
	if url == "" {
		return nil, models.Failed(models.StatusFailed, errors.New("spreadsheet created without a url"))
	}

	return &url, models.Succeeded(models.StatusCreated)
}

func projectTabs(p *models.Project) []Tab {
	overview := [][]any{
		{"Title", sanitizeCell(p.Title)},
		{"Summary", sanitizeCell(p.Summary)},
		{"Overview", sanitizeCell(p.Overview)},
		{"Created", p.CreatedAt.UTC().Format(time.RFC3339)},
	}

	features := [][]any{{"Feature"}}
	for _, f := range p.Features {
		features = append(features, []any{sanitizeCell(f)})
	}

	stack := [][]any{{"Technology"}}
	for _, s := range p.TechStack {
		stack = append(stack, []any{sanitizeCell(s)})
	}

	actions := [][]any{{"#", "Action", "Done"}}
	for i, a := range p.Actions {
		actions = append(actions, []any{i + 1, sanitizeCell(a), false})
	}

	var readme [][]any
	for _, line := range strings.Split(p.Readme, "\n") {
		readme = append(readme, []any{sanitizeCell(line)})
	}

	return []Tab{
		{Name: "Overview", Rows: overview},
		{Name: "Features", Rows: features},
		{Name: "Tech Stack", Rows: stack},
		{Name: "Actions", Rows: actions},
		{Name: "README", Rows: readme},
	}
}
