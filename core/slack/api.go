// Package slack runs the dialogue over a Slack Socket Mode connection.
package slack

import (
	"context"
	"errors"

	slacklib "github.com/slack-go/slack"

	"github.com/m3rciful/directorbot/core/dialogue"
)

// API abstracts the subset of the Slack web client the adapter uses.
type API interface {
	OpenConversationContext(ctx context.Context, params *slacklib.OpenConversationParameters) (*slacklib.Channel, bool, bool, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slacklib.MsgOption) (string, string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slacklib.MsgOption) (string, error)
	DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error)
}

var _ API = (*slacklib.Client)(nil)

func deliveryError(op string, err error) error {
	return dialogue.NewDeliveryError(op, statusOf(err), err)
}

func statusOf(err error) int {
	var sc slacklib.StatusCodeError
	if errors.As(err, &sc) {
		return sc.Code
	}
	var rl *slacklib.RateLimitedError
	if errors.As(err, &rl) {
		return 429
	}
	return 0
}

// errorCode returns the "error" field of a failed Web API response.
func errorCode(err error) string {
	var se slacklib.SlackErrorResponse
	if errors.As(err, &se) {
		return se.Err
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func isMessageGone(err error) bool {
	switch errorCode(err) {
	case "message_not_found", "channel_not_found":
		return true
	}
	return false
}
