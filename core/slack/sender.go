package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	slacklib "github.com/slack-go/slack"

	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/logger"
)

// Sender implements dialogue.Sender with Slack Web API calls.
type Sender struct {
	api API
}

// NewSender wraps api.
func NewSender(api API) *Sender {
	return &Sender{api: api}
}

var _ dialogue.Sender = (*Sender)(nil)

// SendDirect opens the IM channel with the user and posts p there.
func (s *Sender) SendDirect(ctx context.Context, to dialogue.UserID, p dialogue.Prompt) (dialogue.MessageRef, error) {
	var ref dialogue.MessageRef
	err := s.call(ctx, "send_direct", func() error {
		ch, _, _, err := s.api.OpenConversationContext(ctx, &slacklib.OpenConversationParameters{Users: []string{string(to)}})
		if err != nil {
			return fmt.Errorf("slack: open conversation: %w", err)
		}
		channel, ts, err := s.api.PostMessageContext(ctx, ch.ID, messageOptions(p)...)
		if err != nil {
			return err
		}
		ref = dialogue.MessageRef{ChannelID: channel, MessageID: ts}
		return nil
	})
	return ref, err
}

// Edit replaces the text and blocks of ref.
func (s *Sender) Edit(ctx context.Context, ref dialogue.MessageRef, p dialogue.Prompt) error {
	return s.call(ctx, "edit", func() error {
		_, _, _, err := s.api.UpdateMessageContext(ctx, ref.ChannelID, ref.MessageID, messageOptions(p)...)
		return err
	})
}

// Reply posts text in the thread of ref.
func (s *Sender) Reply(ctx context.Context, ref dialogue.MessageRef, text string) error {
	return s.call(ctx, "reply", func() error {
		_, _, err := s.api.PostMessageContext(ctx, ref.ChannelID,
			slacklib.MsgOptionText(Mrkdwn(text), false),
			slacklib.MsgOptionTS(ref.MessageID),
		)
		return err
	})
}

// Respond answers a block action. Updates rewrite the message the action came
// from; ephemeral replies are visible to the acting user only.
func (s *Sender) Respond(ctx context.Context, in dialogue.Interaction, r dialogue.Response) error {
	if in.Message.IsZero() || in.Actor == "" {
		return dialogue.NewDeliveryError("respond", 0, errors.New("slack: interaction has no message or actor"))
	}
	switch r.Kind {
	case dialogue.ResponseUpdateOrigin:
		// Block actions are acked on the socket, so an update is a plain edit.
		return s.Edit(ctx, in.Message, r.Prompt)
	case dialogue.ResponseNewReply:
		if r.Ephemeral {
			return s.call(ctx, "respond", func() error {
				_, err := s.api.PostEphemeralContext(ctx, in.Message.ChannelID, string(in.Actor), messageOptions(r.Prompt)...)
				return err
			})
		}
		return s.call(ctx, "respond", func() error {
			_, _, err := s.api.PostMessageContext(ctx, in.Message.ChannelID, messageOptions(r.Prompt)...)
			return err
		})
	default:
		return dialogue.NewDeliveryError("respond", 0, fmt.Errorf("slack: unknown response kind %d", r.Kind))
	}
}

// Delete removes ref. A message that is already gone counts as deleted.
func (s *Sender) Delete(ctx context.Context, ref dialogue.MessageRef) error {
	return s.call(ctx, "delete", func() error {
		_, _, err := s.api.DeleteMessageContext(ctx, ref.ChannelID, ref.MessageID)
		if err != nil && isMessageGone(err) {
			return nil
		}
		return err
	})
}

func (s *Sender) call(ctx context.Context, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return dialogue.NewDeliveryError(op, 0, err)
	}
	start := time.Now()
	err := fn()
	logger.Debug(ctx, logger.ComponentGateway, "slack.call",
		slog.String("op", op),
		slog.String("status", logger.Status(err)),
		slog.Duration("took", logger.Took(start)),
	)
	if err != nil {
		return deliveryError(op, err)
	}
	return nil
}

// messageOptions carries the text both as blocks and as the notification fallback.
func messageOptions(p dialogue.Prompt) []slacklib.MsgOption {
	return []slacklib.MsgOption{
		slacklib.MsgOptionText(Mrkdwn(p.Text), false),
		slacklib.MsgOptionBlocks(BuildBlocks(p)...),
	}
}
