package slack

import (
	"context"
	"fmt"
	"sync"

	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/pipeline"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

const maxRemembered = 500

var reactionCategories = map[string]taxonomy.ID{
	"dart":                     taxonomy.Goal,
	"repeat":                   taxonomy.Habit,
	"rocket":                   taxonomy.ProjectIdea,
	"white_check_mark":         taxonomy.Task,
	"alarm_clock":              taxonomy.Reminder,
	"memo":                     taxonomy.Note,
	"bulb":                     taxonomy.Idea,
	"books":                    taxonomy.Learning,
	"briefcase":                taxonomy.Career,
	"chart_with_upwards_trend": taxonomy.Metric,
	"gear":                     taxonomy.System,
	"robot_face":               taxonomy.Automation,
	"bust_in_silhouette":       taxonomy.Person,
	"lock":                     taxonomy.Sensitive,
	"sparkles":                 taxonomy.Insight,
}

func emojiFor(id taxonomy.ID) (string, bool) {
	for emoji, cat := range reactionCategories {
		if cat == id {
			return emoji, true
		}
	}
	return "", false
}

// ReactionHandler reprocesses a captured thought with the category picked
// by reacting to the bot's confirmation.
type ReactionHandler struct {
	messenger Messenger
	pipeline  Processor
	logger    *zap.Logger

	mu    sync.Mutex
	texts map[string]string // confirmation ts -> original text
	order []string
}

func NewReactionHandler(messenger Messenger, p Processor, logger *zap.Logger) *ReactionHandler {
	return &ReactionHandler{
		messenger: messenger,
		pipeline:  p,
		logger:    logger.Named("slack_reactions"),
		texts:     make(map[string]string),
	}
}

// Remember links a confirmation message to the text it confirmed.
func (h *ReactionHandler) Remember(ts, text string) {
	if ts == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.texts[ts]; !ok {
		h.order = append(h.order, ts)
	}
	h.texts[ts] = text
	for len(h.order) > maxRemembered {
		delete(h.texts, h.order[0])
		h.order = h.order[1:]
	}
}

func (h *ReactionHandler) lookup(ts string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	text, ok := h.texts[ts]
	return text, ok
}

func (h *ReactionHandler) HandleReaction(ctx context.Context, event *slackevents.ReactionAddedEvent) error {
	category, ok := reactionCategories[event.Reaction]
	if !ok {
		return nil
	}
	text, ok := h.lookup(event.Item.Timestamp)
	if !ok {
		h.logger.Debug("reaction on unknown message", zap.String("ts", event.Item.Timestamp))
		return nil
	}

	env, err := h.pipeline.Process(ctx, pipeline.Request{
		Text:     text,
		Category: string(category),
		Source:   "slack",
	})
	if err != nil {
		h.logger.Warn("recategorize failed", zap.Error(err))
		return err
	}

	msg := fmt.Sprintf("Recategorized as *%s* (%s)", env.Categorization.DisplayName, env.Categorization.LegacyType)
	if env.SheetsURL != nil {
		msg += "\nProject sheet: " + *env.SheetsURL
	}
	_, err = h.messenger.PostMessage(ctx, event.Item.Channel, msg)
	return err
}
