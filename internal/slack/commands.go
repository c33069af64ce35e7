package slack

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/store"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

const statsWindow = 100

// CommandHandler answers the few words the bot treats as commands rather
// than thoughts.
type CommandHandler struct {
	messenger Messenger
	store     store.ThoughtStore
	logger    *zap.Logger
}

func NewCommandHandler(messenger Messenger, st store.ThoughtStore, logger *zap.Logger) *CommandHandler {
	if st == nil {
		st = store.Noop{}
	}
	return &CommandHandler{messenger: messenger, store: st, logger: logger.Named("slack_commands")}
}

// Handle runs text as a command. handled is false when text is not one.
func (h *CommandHandler) Handle(ctx context.Context, channelID, text string) (handled bool, err error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "help":
		return true, h.HandleHelp(ctx, channelID)
	case "stats":
		return true, h.HandleStats(ctx, channelID)
	case "categories":
		return true, h.HandleCategories(ctx, channelID)
	}
	return false, nil
}

func (h *CommandHandler) HandleHelp(ctx context.Context, channelID string) error {
	helpText := `*MindDump*

Drop any thought here and I'll categorize it, log it and route it.

*Commands:*
- help - Show this help
- stats - Counts by category for recent thoughts
- categories - List categories and their reaction emoji

React to one of my confirmations with a category emoji to recategorize it.`

	_, err := h.messenger.PostMessage(ctx, channelID, helpText)
	return err
}

func (h *CommandHandler) HandleStats(ctx context.Context, channelID string) error {
	thoughts, total, err := h.store.List(ctx, statsWindow, 0)
	if err != nil {
		h.logger.Warn("failed to list thoughts", zap.Error(err))
		_, err = h.messenger.PostMessage(ctx, channelID, "Failed to fetch stats")
		return err
	}

	counts := make(map[taxonomy.ID]int)
	for _, t := range thoughts {
		counts[t.Category]++
	}
	ids := make([]taxonomy.ID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})

	var b strings.Builder
	b.WriteString("*Thought Statistics*\n\n")
	fmt.Fprintf(&b, "Total captured: *%d*\n", total)
	if len(ids) > 0 {
		fmt.Fprintf(&b, "\n*By category (last %d):*\n", len(thoughts))
		for _, id := range ids {
			fmt.Fprintf(&b, "• %s: %d\n", taxonomy.Get(id).DisplayName, counts[id])
		}
	}

	_, err = h.messenger.PostMessage(ctx, channelID, b.String())
	return err
}

func (h *CommandHandler) HandleCategories(ctx context.Context, channelID string) error {
	var b strings.Builder
	b.WriteString("*Categories*\n")
	for _, c := range taxonomy.All() {
		if c.ID == taxonomy.Uncategorized {
			continue
		}
		emoji := ""
		if e, ok := emojiFor(c.ID); ok {
			emoji = " :" + e + ":"
		}
		fmt.Fprintf(&b, "• %s%s - %s\n", c.DisplayName, emoji, c.Description)
	}
	_, err := h.messenger.PostMessage(ctx, channelID, b.String())
	return err
}
