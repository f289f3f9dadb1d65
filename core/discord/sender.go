package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/logger"
)

// Sender implements dialogue.Sender with Discord REST calls.
type Sender struct {
	api API
}

// NewSender wraps api.
func NewSender(api API) *Sender {
	return &Sender{api: api}
}

var _ dialogue.Sender = (*Sender)(nil)

// SendDirect opens the DM channel with the user and posts p.
func (s *Sender) SendDirect(ctx context.Context, to dialogue.UserID, p dialogue.Prompt) (dialogue.MessageRef, error) {
	var ref dialogue.MessageRef
	err := s.call(ctx, "send_direct", func(opt discordgo.RequestOption) error {
		ch, err := s.api.UserChannelCreate(string(to), opt)
		if err != nil {
			return err
		}
		msg, err := s.api.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
			Content:    p.Text,
			Components: Components(p),
		}, opt)
		if err != nil {
			if apiCode(err) == discordgo.ErrCodeCannotSendMessagesToThisUser {
				return fmt.Errorf("discord: user %s does not accept direct messages: %w", to, err)
			}
			return err
		}
		ref = dialogue.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}
		return nil
	})
	return ref, err
}

// Edit replaces the content and components of ref.
func (s *Sender) Edit(ctx context.Context, ref dialogue.MessageRef, p dialogue.Prompt) error {
	return s.call(ctx, "edit", func(opt discordgo.RequestOption) error {
		content := p.Text
		components := Components(p)
		_, err := s.api.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:         ref.MessageID,
			Channel:    ref.ChannelID,
			Content:    &content,
			Components: &components,
		}, opt)
		return err
	})
}

// Reply posts text as a reply to ref in the same channel.
func (s *Sender) Reply(ctx context.Context, ref dialogue.MessageRef, text string) error {
	return s.call(ctx, "reply", func(opt discordgo.RequestOption) error {
		_, err := s.api.ChannelMessageSendComplex(ref.ChannelID, &discordgo.MessageSend{
			Content: text,
			Reference: &discordgo.MessageReference{
				MessageID: ref.MessageID,
				ChannelID: ref.ChannelID,
			},
		}, opt)
		return err
	})
}

// Respond answers a component interaction, either by updating the message it
// came from or with a new message, ephemeral when asked.
func (s *Sender) Respond(ctx context.Context, in dialogue.Interaction, r dialogue.Response) error {
	it, ok := in.Handle.(*discordgo.Interaction)
	if !ok || it == nil {
		return dialogue.NewDeliveryError("respond", 0, errors.New("discord: interaction carries no handle"))
	}

	resp := &discordgo.InteractionResponse{
		Data: &discordgo.InteractionResponseData{
			Content:    r.Prompt.Text,
			Components: Components(r.Prompt),
		},
	}
	op := "respond"
	switch r.Kind {
	case dialogue.ResponseUpdateOrigin:
		op = "update_origin"
		resp.Type = discordgo.InteractionResponseUpdateMessage
	case dialogue.ResponseNewReply:
		resp.Type = discordgo.InteractionResponseChannelMessageWithSource
		if r.Ephemeral {
			resp.Data.Flags = discordgo.MessageFlagsEphemeral
		}
	default:
		return dialogue.NewDeliveryError(op, 0, fmt.Errorf("discord: unknown response kind %d", r.Kind))
	}

	return s.call(ctx, op, func(opt discordgo.RequestOption) error {
		return s.api.InteractionRespond(it, resp, opt)
	})
}

// Delete removes ref. An unknown message counts as deleted.
func (s *Sender) Delete(ctx context.Context, ref dialogue.MessageRef) error {
	return s.call(ctx, "delete", func(opt discordgo.RequestOption) error {
		err := s.api.ChannelMessageDelete(ref.ChannelID, ref.MessageID, opt)
		if err != nil && isUnknownMessage(err) {
			return nil
		}
		return err
	})
}

func (s *Sender) call(ctx context.Context, op string, fn func(discordgo.RequestOption) error) error {
	if err := ctx.Err(); err != nil {
		return dialogue.NewDeliveryError(op, 0, err)
	}
	start := time.Now()
	err := fn(discordgo.WithContext(ctx))
	logger.Debug(ctx, logger.ComponentGateway, "discord.call",
		slog.String("op", op),
		slog.String("status", logger.Status(err)),
		slog.Duration("took", logger.Took(start)),
	)
	if err != nil {
		return deliveryError(op, err)
	}
	return nil
}
