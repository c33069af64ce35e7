package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/async"
)

// eventTimeout bounds the work done for one event after it is acknowledged.
const eventTimeout = 2 * time.Minute

// Server serves the Slack Events API endpoint. Events are acknowledged at
// once and processed in the background, since Slack retries anything that
// takes longer than three seconds.
type Server struct {
	messageHandler  *MessageHandler
	reactionHandler *ReactionHandler
	signingSecret   string
	logger          *zap.Logger
	wg              sync.WaitGroup
}

func NewServer(messageHandler *MessageHandler, reactionHandler *ReactionHandler, signingSecret string, logger *zap.Logger) *Server {
	return &Server{
		messageHandler:  messageHandler,
		reactionHandler: reactionHandler,
		signingSecret:   signingSecret,
		logger:          logger.Named("slack_events"),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.logger.Warn("error reading body", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sv, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
	if err != nil {
		s.logger.Warn("error creating secrets verifier", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if _, err := sv.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := sv.Ensure(); err != nil {
		s.logger.Warn("invalid slack signature", zap.Error(err))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		s.logger.Warn("error parsing event", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if eventsAPIEvent.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))
		return
	}

	// Slack redelivers unacknowledged events; a retry means we already
	// accepted the original.
	if r.Header.Get("X-Slack-Retry-Num") != "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if eventsAPIEvent.Type == slackevents.CallbackEvent {
		s.dispatch(r.Context(), eventsAPIEvent.InnerEvent)
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) dispatch(ctx context.Context, inner slackevents.EventsAPIInnerEvent) {
	var fn func(ctx context.Context) error

	switch ev := inner.Data.(type) {
	case *slackevents.MessageEvent:
		fn = func(ctx context.Context) error { return s.messageHandler.HandleMessage(ctx, ev) }
	case *slackevents.AppMentionEvent:
		fn = func(ctx context.Context) error { return s.messageHandler.HandleAppMention(ctx, ev) }
	case *slackevents.ReactionAddedEvent:
		if s.reactionHandler == nil {
			return
		}
		fn = func(ctx context.Context) error { return s.reactionHandler.HandleReaction(ctx, ev) }
	default:
		s.logger.Debug("unsupported event type", zap.String("type", inner.Type))
		return
	}

	async.Detach(ctx, s.logger, "slack:"+inner.Type, eventTimeout, &s.wg, fn)
}

// Wait blocks until in-flight events are handled.
func (s *Server) Wait() {
	s.wg.Wait()
}
