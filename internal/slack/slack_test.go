package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/shubh-37/minddump/internal/agents"
	"github.com/shubh-37/minddump/internal/pipeline"
	"github.com/shubh-37/minddump/internal/sheets"
	"github.com/shubh-37/minddump/internal/store"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

type post struct {
	channel string
	text    string
}

type fakeMessenger struct {
	mu    sync.Mutex
	posts []post
}

func (f *fakeMessenger) PostMessage(_ context.Context, channelID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, post{channel: channelID, text: text})
	return fmt.Sprintf("1700000000.%06d", len(f.posts)), nil
}

func (f *fakeMessenger) all() []post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]post(nil), f.posts...)
}

type fixture struct {
	messenger *fakeMessenger
	store     *store.Memory
	reactions *ReactionHandler
	server    *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	mem := store.NewMemory()
	orch, err := pipeline.New(pipeline.Deps{
		Gateway: agents.NewGateway(agents.MockAnalyzer{}, time.Second, logger),
		Master:  sheets.NewMasterLog(nil, sheets.MasterConfig{}, logger),
		Store:   mem,
		Logger:  logger,
	})
	require.NoError(t, err)

	m := &fakeMessenger{}
	reactions := NewReactionHandler(m, orch, logger)
	handler := NewMessageHandler(m, "UBOT", orch, NewCommandHandler(m, mem, logger), reactions, logger)

	return &fixture{
		messenger: m,
		store:     mem,
		reactions: reactions,
		server:    NewServer(handler, reactions, testSecret, logger),
	}
}

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSecret))
	_, _ = mac.Write([]byte("v0:" + ts + ":" + body))

	r := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	r.Header.Set("X-Slack-Request-Timestamp", ts)
	r.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func messageEvent(text string) string {
	return fmt.Sprintf(`{"type":"event_callback","event":{"type":"message","channel":"C1","user":"U1","text":%q,"ts":"1700000000.000001"}}`, text)
}

func TestURLVerification(t *testing.T) {
	f := newFixture(t)
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, signedRequest(t, `{"type":"url_verification","token":"t","challenge":"abc123"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc123", w.Body.String())
}

func TestRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	r := signedRequest(t, messageEvent("hello"))
	r.Header.Set("X-Slack-Signature", "v0=deadbeef")

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.messenger.all())
}

func TestMessageIsCapturedAndConfirmed(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, signedRequest(t, messageEvent("Build a Chrome extension for password management")))
	require.Equal(t, http.StatusOK, w.Code)
	f.server.Wait()

	posts := f.messenger.all()
	require.Len(t, posts, 1)
	assert.Equal(t, "C1", posts[0].channel)
	assert.Contains(t, posts[0].text, "*Project Idea* (project)")

	thoughts, total, err := f.store.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "slack", thoughts[0].Source)
}

func TestIgnoresBotsAndThreads(t *testing.T) {
	f := newFixture(t)
	bodies := []string{
		`{"type":"event_callback","event":{"type":"message","channel":"C1","bot_id":"B1","text":"hi","ts":"1.1"}}`,
		`{"type":"event_callback","event":{"type":"message","channel":"C1","user":"UBOT","text":"hi","ts":"1.1"}}`,
		`{"type":"event_callback","event":{"type":"message","channel":"C1","user":"U1","text":"reply","ts":"1.2","thread_ts":"1.1"}}`,
		`{"type":"event_callback","event":{"type":"message","channel":"C1","user":"U1","text":"<@UBOT> hi","ts":"1.1"}}`,
	}
	for _, body := range bodies {
		w := httptest.NewRecorder()
		f.server.ServeHTTP(w, signedRequest(t, body))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	f.server.Wait()
	assert.Empty(t, f.messenger.all())
}

func TestMentionCommand(t *testing.T) {
	f := newFixture(t)
	body := `{"type":"event_callback","event":{"type":"app_mention","channel":"C2","user":"U1","text":"<@UBOT> help","ts":"1.1"}}`

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, signedRequest(t, body))
	f.server.Wait()

	posts := f.messenger.all()
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0].text, "*Commands:*")
	_, total, _ := f.store.List(context.Background(), 10, 0)
	assert.Zero(t, total)
}

func TestStatsCommand(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"remind me to call mom", "the sky was nice"} {
		f.server.ServeHTTP(httptest.NewRecorder(), signedRequest(t, messageEvent(text)))
	}
	f.server.Wait()

	f.server.ServeHTTP(httptest.NewRecorder(), signedRequest(t, messageEvent("stats")))
	f.server.Wait()

	posts := f.messenger.all()
	require.Len(t, posts, 3)
	assert.Contains(t, posts[2].text, "Total captured: *2*")
	assert.Contains(t, posts[2].text, "Reminder: 1")
}

func TestReactionRecategorizes(t *testing.T) {
	f := newFixture(t)
	f.reactions.Remember("111.222", "run a marathon")

	body := `{"type":"event_callback","event":{"type":"reaction_added","user":"U1","reaction":"dart","item_user":"UBOT","item":{"type":"message","channel":"C1","ts":"111.222"},"event_ts":"111.333"}}`
	f.server.ServeHTTP(httptest.NewRecorder(), signedRequest(t, body))
	f.server.Wait()

	posts := f.messenger.all()
	require.Len(t, posts, 1)
	assert.Equal(t, "Recategorized as *Goal* (task)", posts[0].text)
}

func TestReactionOnUnknownMessageIsIgnored(t *testing.T) {
	f := newFixture(t)
	body := `{"type":"event_callback","event":{"type":"reaction_added","user":"U1","reaction":"dart","item":{"type":"message","channel":"C1","ts":"999.999"},"event_ts":"1.1"}}`
	f.server.ServeHTTP(httptest.NewRecorder(), signedRequest(t, body))
	f.server.Wait()
	assert.Empty(t, f.messenger.all())
}

func TestRememberIsBounded(t *testing.T) {
	h := NewReactionHandler(&fakeMessenger{}, nil, zaptest.NewLogger(t))
	for i := 0; i < maxRemembered+5; i++ {
		h.Remember(strconv.Itoa(i), "x")
	}
	_, ok := h.lookup("0")
	assert.False(t, ok)
	_, ok = h.lookup(strconv.Itoa(maxRemembered + 4))
	assert.True(t, ok)
	assert.Len(t, h.texts, maxRemembered)
}
