package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/apperr"
	"github.com/shubh-37/minddump/internal/pipeline"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Envelope, error)
}

// MessageHandler captures channel messages and mentions as thoughts.
type MessageHandler struct {
	messenger Messenger
	botID     string
	pipeline  Processor
	commands  *CommandHandler
	reactions *ReactionHandler
	logger    *zap.Logger
}

func NewMessageHandler(
	messenger Messenger,
	botID string,
	pipeline Processor,
	commands *CommandHandler,
	reactions *ReactionHandler,
	logger *zap.Logger,
) *MessageHandler {
	return &MessageHandler{
		messenger: messenger,
		botID:     botID,
		pipeline:  pipeline,
		commands:  commands,
		reactions: reactions,
		logger:    logger.Named("slack"),
	}
}

func (h *MessageHandler) HandleMessage(ctx context.Context, event *slackevents.MessageEvent) error {
	if event.BotID != "" || event.User == h.botID || event.SubType != "" {
		return nil
	}

	if strings.TrimSpace(event.Text) == "" {
		return nil
	}

	// replies in threads are conversation, not new thoughts
	if event.ThreadTimeStamp != "" && event.ThreadTimeStamp != event.TimeStamp {
		return nil
	}

	// mentions arrive again as app_mention events
	if strings.HasPrefix(strings.TrimSpace(event.Text), "<@") {
		return nil
	}

	if handled, err := h.commands.Handle(ctx, event.Channel, event.Text); handled {
		return err
	}

	return h.capture(ctx, event.Channel, event.Text)
}

func (h *MessageHandler) HandleAppMention(ctx context.Context, event *slackevents.AppMentionEvent) error {
	text := strings.TrimSpace(strings.Replace(event.Text, "<@"+h.botID+">", "", 1))
	if text == "" {
		return nil
	}

	if handled, err := h.commands.Handle(ctx, event.Channel, text); handled {
		return err
	}

	return h.capture(ctx, event.Channel, text)
}

func (h *MessageHandler) capture(ctx context.Context, channelID, text string) error {
	env, err := h.pipeline.Process(ctx, pipeline.Request{Text: text, Source: "slack"})
	if err != nil {
		e := apperr.As(err)
		h.logger.Warn("failed to process slack thought", zap.String("code", string(e.Code)), zap.Error(err))
		_, postErr := h.messenger.PostMessage(ctx, channelID, fmt.Sprintf("Couldn't capture that: %s", e.Message))
		return postErr
	}

	ts, err := h.messenger.PostMessage(ctx, channelID, confirmation(env))
	if err != nil {
		return err
	}
	if h.reactions != nil {
		h.reactions.Remember(ts, text)
	}
	return nil
}

func confirmation(env *pipeline.Envelope) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Captured! *%s* (%s)", env.Categorization.DisplayName, env.Categorization.LegacyType)
	if env.Thought.Title != "" {
		fmt.Fprintf(&b, "\n>%s", env.Thought.Title)
	}
	if env.ActionsCreated > 0 {
		fmt.Fprintf(&b, "\n%d action(s):", env.ActionsCreated)
		for _, a := range env.Thought.Actions {
			fmt.Fprintf(&b, "\n• %s", a)
		}
	}
	if env.SheetsURL != nil {
		fmt.Fprintf(&b, "\nProject sheet: %s", *env.SheetsURL)
	}
	if !env.Integrations.MasterSheet.Success {
		b.WriteString("\n_Master log write failed._")
	}
	if env.Categorization.Category != taxonomy.ProjectIdea {
		b.WriteString("\n_React with a category emoji to recategorize._")
	}
	return b.String()
}
