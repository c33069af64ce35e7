package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/slack-go/slack"

	"github.com/shubh-37/minddump/internal/taxonomy"
)

// Sender delivers one payload to one endpoint.
type Sender interface {
	Send(ctx context.Context, endpoint string, p Payload) error
}

// HTTPSender posts the payload as JSON.
type HTTPSender struct {
	client *http.Client
}

func NewHTTPSender(client *http.Client) *HTTPSender {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPSender{client: client}
}

func (s *HTTPSender) Send(ctx context.Context, endpoint string, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "minddump-webhooks")

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "post webhook")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// SlackSender formats the payload as a Slack incoming-webhook message.
type SlackSender struct{}

func (SlackSender) Send(ctx context.Context, endpoint string, p Payload) error {
	cat := taxonomy.Get(p.Category)

	title := cat.DisplayName
	var fields []slack.AttachmentField
	if p.Analysis != nil {
		if p.Analysis.Title != "" {
			title = fmt.Sprintf("%s: %s", cat.DisplayName, p.Analysis.Title)
		}
		if p.Analysis.Priority != "" {
			fields = append(fields, slack.AttachmentField{Title: "Priority", Value: p.Analysis.Priority, Short: true})
		}
		if len(p.Analysis.Actions) > 0 {
			fields = append(fields, slack.AttachmentField{Title: "Actions", Value: "• " + strings.Join(p.Analysis.Actions, "\n• ")})
		}
	}
	fields = append(fields, slack.AttachmentField{Title: "Type", Value: string(p.Type), Short: true})

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("New %s captured", strings.ToLower(cat.DisplayName)),
		Attachments: []slack.Attachment{{
			Color:  cat.Color,
			Title:  title,
			Text:   p.RawText,
			Fields: fields,
		}},
	}

	if err := slack.PostWebhookContext(ctx, endpoint, msg); err != nil {
		return eris.Wrap(err, "post slack webhook")
	}
	return nil
}

// RoutingSender sends Slack incoming-webhook URLs through SlackSender and
// everything else through HTTPSender.
type RoutingSender struct {
	Slack Sender
	HTTP  Sender
}

func NewRoutingSender() *RoutingSender {
	return &RoutingSender{Slack: SlackSender{}, HTTP: NewHTTPSender(nil)}
}

func (r *RoutingSender) Send(ctx context.Context, endpoint string, p Payload) error {
	if isSlackWebhook(endpoint) {
		return r.Slack.Send(ctx, endpoint, p)
	}
	return r.HTTP.Send(ctx, endpoint, p)
}

func isSlackWebhook(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), "hooks.slack.com")
}
