package slack

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/slack-go/slack"
)

// Messenger posts text to a channel and returns the message timestamp.
type Messenger interface {
	PostMessage(ctx context.Context, channelID, text string) (string, error)
}

type Client struct {
	api   *slack.Client
	botID string
}

// NewClient authenticates the bot token and remembers the bot's user id.
func NewClient(ctx context.Context, token string) (*Client, error) {
	api := slack.New(token)

	authTest, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "failed to authenticate with Slack")
	}

	return &Client{
		api:   api,
		botID: authTest.UserID,
	}, nil
}

func (c *Client) BotID() string {
	return c.botID
}

func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return "", eris.Wrapf(err, "post message to %s", channelID)
	}
	return ts, nil
}
