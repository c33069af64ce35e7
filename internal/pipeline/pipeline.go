// Package pipeline sequences analysis, the master log, project sheets and
// webhooks for one submitted thought.
package pipeline

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/apperr"
	"github.com/shubh-37/minddump/internal/logging"
	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/store"
	"github.com/shubh-37/minddump/internal/taxonomy"
	"github.com/shubh-37/minddump/internal/webhooks"
)

// Where the final category came from.
const (
	SourceAnalysis = "analysis"
	SourceSupplied = "supplied"
	SourceOverride = "override"
)

type Gateway interface {
	Configured() bool
	Analyze(ctx context.Context, text string, supplied *models.Analysis, override taxonomy.ID) (*models.Analysis, error)
}

type MasterLogger interface {
	Log(ctx context.Context, entry models.MasterSheetEntry) models.IntegrationStatus
}

type ProjectSheetCreator interface {
	Configured() bool
	Create(ctx context.Context, p *models.Project) (*string, models.IntegrationStatus)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, p webhooks.Payload) models.IntegrationStatus
}

// Deps are the collaborators of an Orchestrator. Gateway and Master are
// required; the rest may be nil.
type Deps struct {
	Gateway  Gateway
	Master   MasterLogger
	Projects ProjectSheetCreator
	Webhooks Dispatcher
	Store    store.ThoughtStore
	Logger   *zap.Logger
	Now      func() time.Time
}

// Request is one submission.
type Request struct {
	Text     string
	Category string
	Analysis *models.Analysis
	Source   string
}

type Integrations struct {
	MasterSheet  models.IntegrationStatus  `json:"masterSheet"`
	Webhook      models.IntegrationStatus  `json:"webhook"`
	ProjectSheet *models.IntegrationStatus `json:"projectSheet"`
}

type Categorization struct {
	Category    taxonomy.ID         `json:"category"`
	DisplayName string              `json:"displayName"`
	LegacyType  taxonomy.LegacyType `json:"legacyType"`
	Source      string              `json:"source"`
}

// Envelope is the response for a processed thought.
type Envelope struct {
	Success        bool             `json:"success"`
	Thought        *models.Thought  `json:"thought"`
	Project        *models.Project  `json:"project"`
	Analysis       *models.Analysis `json:"analysis"`
	Integrations   Integrations     `json:"integrations"`
	SheetsURL      *string          `json:"sheetsUrl"`
	ActionsCreated int              `json:"actionsCreated"`
	Timestamp      time.Time        `json:"timestamp"`
	Categorization Categorization   `json:"categorization"`
}

type Orchestrator struct {
	deps   Deps
	logger *zap.Logger
}

func New(deps Deps) (*Orchestrator, error) {
	if deps.Gateway == nil {
		return nil, eris.New("pipeline: gateway is required")
	}
	if deps.Master == nil {
		return nil, eris.New("pipeline: master log is required")
	}
	if deps.Store == nil {
		deps.Store = store.Noop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps, logger: deps.Logger.Named("pipeline")}, nil
}

// Validate checks a request without running it.
func Validate(req Request) (taxonomy.ID, error) {
	if req.Text == "" {
		return "", apperr.Validation("text is required")
	}
	if n := utf8.RuneCountInString(req.Text); n > models.MaxRawTextLength {
		return "", apperr.Validation("text must be at most 50000 characters")
	}
	override, err := taxonomy.Parse(req.Category)
	if err != nil {
		return "", apperr.Validation(err.Error())
	}
	return override, nil
}

// Process runs the pipeline. Only validation, a missing analysis provider
// and analysis failure return an error; every later leg reports through the
// envelope.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*Envelope, error) {
	log := logging.FromContext(ctx, o.logger)

	override, err := Validate(req)
	if err != nil {
		return nil, err
	}

	if req.Analysis == nil && !o.deps.Gateway.Configured() {
		return nil, apperr.ServiceUnavailable("analysis provider is not configured")
	}

	analysis, err := o.deps.Gateway.Analyze(ctx, req.Text, req.Analysis, override)
	if err != nil {
		return nil, err
	}

	source := req.Source
	if source == "" {
		source = "web"
	}
	now := o.deps.Now()
	thought := models.NewThought(req.Text, source, analysis, now)
	category := taxonomy.Get(thought.Category)

	log = log.With(zap.String("thought_id", thought.ID), zap.String("category", string(thought.Category)))

	env := &Envelope{
		Success:        true,
		Thought:        thought,
		Analysis:       analysis.Capped(),
		ActionsCreated: len(thought.Actions),
		Timestamp:      now,
		Categorization: Categorization{
			Category:    category.ID,
			DisplayName: category.DisplayName,
			LegacyType:  thought.LegacyType,
			Source:      categorizationSource(req, override),
		},
	}

	env.Integrations.MasterSheet = o.deps.Master.Log(ctx, models.NewMasterSheetEntry(thought, category.DisplayName))

	if models.QualifiesForProject(thought) {
		project := models.NewProject(thought, analysis)
		if o.deps.Projects != nil && o.deps.Projects.Configured() {
			url, st := o.deps.Projects.Create(ctx, project)
			project.SheetsURL = url
			env.SheetsURL = url
			env.Integrations.ProjectSheet = &st
		}
		env.Project = project
	}

	if o.deps.Webhooks != nil {
		env.Integrations.Webhook = o.deps.Webhooks.Dispatch(ctx, webhooks.Payload{
			Category:  thought.Category,
			Type:      thought.LegacyType,
			RawText:   thought.RawText,
			Analysis:  env.Analysis,
			Timestamp: now,
		})
	} else {
		env.Integrations.Webhook = models.Succeeded(models.StatusDisabled)
	}

	if err := o.deps.Store.Save(ctx, thought); err != nil {
		log.Warn("failed to save thought", zap.Error(err))
	}

	log.Info("thought processed",
		zap.Bool("master_sheet", env.Integrations.MasterSheet.Success),
		zap.Bool("project", env.Project != nil),
		zap.String("webhook", env.Integrations.Webhook.Status))

	return env, nil
}

func categorizationSource(req Request, override taxonomy.ID) string {
	switch {
	case override != "":
		return SourceOverride
	case req.Analysis != nil:
		return SourceSupplied
	}
	return SourceAnalysis
}
