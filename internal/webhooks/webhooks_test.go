package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

type fakeSender struct {
	mu    sync.Mutex
	delay time.Duration
	err   error
	sent  []string
}

func (f *fakeSender) Send(ctx context.Context, endpoint string, _ Payload) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, endpoint)
	return f.err
}

func taskPayload() Payload {
	return Payload{
		Category:  taxonomy.Task,
		Type:      taxonomy.TypeTask,
		RawText:   "buy milk",
		Analysis:  &models.Analysis{Category: taxonomy.Task, Title: "Buy milk"},
		Timestamp: time.Now(),
	}
}

func TestDispatchDisabled(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(NewStaticConfig(false, map[string]string{"Task": "https://example.com/hook"}), sender, time.Second, zaptest.NewLogger(t))

	st := d.Dispatch(context.Background(), taskPayload())
	d.Wait()
	assert.Equal(t, models.StatusDisabled, st.Status)
	assert.Empty(t, sender.sent)
}

func TestDispatchNoEndpoint(t *testing.T) {
	d := NewDispatcher(NewStaticConfig(true, map[string]string{"Goal": "https://example.com/hook"}), &fakeSender{}, time.Second, zaptest.NewLogger(t))

	st := d.Dispatch(context.Background(), taskPayload())
	assert.True(t, st.Success)
	assert.Equal(t, models.StatusNoEndpoint, st.Status)
	assert.Empty(t, d.Recent())
}

func TestDispatchDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &fakeSender{delay: 300 * time.Millisecond}
	d := NewDispatcher(NewStaticConfig(true, map[string]string{"task": "https://example.com/task"}), sender, time.Second, zaptest.NewLogger(t))

	start := time.Now()
	st := d.Dispatch(context.Background(), taskPayload())
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, models.StatusDispatched, st.Status)

	recent := d.Recent()
	require.Len(t, recent, 1)
	assert.True(t, recent[0].Pending)
	assert.Equal(t, "example.com", recent[0].Host)

	d.Wait()
	recent = d.Recent()
	assert.False(t, recent[0].Pending)
	assert.True(t, recent[0].Success)
	assert.Equal(t, []string{"https://example.com/task"}, sender.sent)
}

func TestDispatchSurvivesCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &fakeSender{delay: 50 * time.Millisecond}
	d := NewDispatcher(NewStaticConfig(true, map[string]string{"Task": "https://example.com/task"}), sender, time.Second, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, taskPayload())
	cancel()

	d.Wait()
	assert.True(t, d.Recent()[0].Success)
}

func TestDispatchRecordsFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &fakeSender{err: errors.New("endpoint gone")}
	d := NewDispatcher(NewStaticConfig(true, map[string]string{"Task": "https://example.com/task"}), sender, time.Second, zaptest.NewLogger(t))

	st := d.Dispatch(context.Background(), taskPayload())
	assert.True(t, st.Success)

	d.Wait()
	rec := d.Recent()[0]
	assert.False(t, rec.Success)
	assert.Equal(t, "endpoint gone", rec.Error)
}

func TestRecentIsBoundedAndNewestFirst(t *testing.T) {
	d := NewDispatcher(NewStaticConfig(true, map[string]string{"Task": "https://example.com/task"}), &fakeSender{}, time.Second, zaptest.NewLogger(t))

	for i := 0; i < historySize+10; i++ {
		d.Dispatch(context.Background(), taskPayload())
	}
	d.Wait()

	recent := d.Recent()
	assert.Len(t, recent, historySize)
	assert.False(t, recent[0].StartedAt.Before(recent[len(recent)-1].StartedAt))
}

func TestStaticConfigDropsUnknownCategories(t *testing.T) {
	c := NewStaticConfig(true, map[string]string{"Project Idea": "https://a", "Shopping": "https://b"})
	u, ok := c.URLFor(taxonomy.ProjectIdea)
	assert.True(t, ok)
	assert.Equal(t, "https://a", u)
	assert.Len(t, c.urls, 1)
}

func TestHTTPSenderPostsJSON(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := NewHTTPSender(srv.Client()).Send(context.Background(), srv.URL, taskPayload())
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Task, got.Category)
	assert.Equal(t, taxonomy.TypeTask, got.Type)
	assert.Equal(t, "buy milk", got.RawText)
}

func TestHTTPSenderRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewHTTPSender(srv.Client()).Send(context.Background(), srv.URL, taskPayload())
	assert.Error(t, err)
}

func TestRoutingSender(t *testing.T) {
	slackFake, httpFake := &fakeSender{}, &fakeSender{}
	r := &RoutingSender{Slack: slackFake, HTTP: httpFake}

	require.NoError(t, r.Send(context.Background(), "https://hooks.slack.com/services/T/B/X", taskPayload()))
	require.NoError(t, r.Send(context.Background(), "https://example.com/hook", taskPayload()))

	assert.Len(t, slackFake.sent, 1)
	assert.Len(t, httpFake.sent, 1)
}
