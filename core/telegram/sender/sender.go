// Package sender performs the outbound Bot API calls of a dialogue session.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/logger"
	"github.com/m3rciful/directorbot/core/telegram/callbacks"
	"github.com/m3rciful/directorbot/core/telegram/format"
	"github.com/m3rciful/directorbot/core/telegram/keyboard"
)

// MaxAlertLength is the Bot API limit for callback answer texts.
const MaxAlertLength = 200

// API is the subset of *tele.Bot the sender uses.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Sender implements dialogue.Sender on top of the Telegram Bot API.
type Sender struct {
	api API
}

// New wraps api.
func New(api API) *Sender {
	return &Sender{api: api}
}

var _ dialogue.Sender = (*Sender)(nil)

// SendDirect opens the private chat with the user and posts p there.
// Bots can only write to users who started them; the 403 surfaces as a delivery error.
func (s *Sender) SendDirect(ctx context.Context, to dialogue.UserID, p dialogue.Prompt) (dialogue.MessageRef, error) {
	userID, err := strconv.ParseInt(string(to), 10, 64)
	if err != nil {
		return dialogue.MessageRef{}, dialogue.NewDeliveryError("send_direct", 0, fmt.Errorf("telegram: user id %q: %w", to, err))
	}
	opts, err := sendOptions(p)
	if err != nil {
		return dialogue.MessageRef{}, dialogue.NewDeliveryError("send_direct", 0, err)
	}
	var msg *tele.Message
	err = s.call(ctx, "send_direct", func() error {
		var serr error
		msg, serr = s.api.Send(&tele.User{ID: userID}, format.HTML(p.Text), opts)
		return serr
	})
	if err != nil {
		return dialogue.MessageRef{}, err
	}
	return callbacks.MessageRef(msg), nil
}

// Edit replaces the body and keyboard of ref. A prompt without controls clears the keyboard.
func (s *Sender) Edit(ctx context.Context, ref dialogue.MessageRef, p dialogue.Prompt) error {
	stored, err := storedMessage(ref)
	if err != nil {
		return dialogue.NewDeliveryError("edit", 0, err)
	}
	return s.edit(ctx, "edit", stored, p)
}

// Reply posts text in the chat of ref as a reply to it.
func (s *Sender) Reply(ctx context.Context, ref dialogue.MessageRef, text string) error {
	stored, err := storedMessage(ref)
	if err != nil {
		return dialogue.NewDeliveryError("reply", 0, err)
	}
	msgID, _ := strconv.Atoi(stored.MessageID)
	opts := &tele.SendOptions{
		ParseMode: tele.ModeHTML,
		ReplyTo:   &tele.Message{ID: msgID},
	}
	return s.call(ctx, "reply", func() error {
		_, err := s.api.Send(tele.ChatID(stored.ChatID), format.HTML(text), opts)
		return err
	})
}

// Respond answers a callback. Updates edit the keyboard message; ephemeral
// replies become an alert only the presser sees.
func (s *Sender) Respond(ctx context.Context, in dialogue.Interaction, r dialogue.Response) error {
	cb, ok := in.Handle.(*tele.Callback)
	if !ok || cb == nil {
		return dialogue.NewDeliveryError("respond", 0, errors.New("telegram: interaction carries no callback"))
	}

	switch r.Kind {
	case dialogue.ResponseUpdateOrigin:
		if cb.Message == nil {
			return dialogue.NewDeliveryError("update_origin", 0, errors.New("telegram: callback has no message"))
		}
		if err := s.edit(ctx, "update_origin", cb.Message, r.Prompt); err != nil {
			return err
		}
		return s.call(ctx, "answer", func() error { return s.api.Respond(cb) })
	case dialogue.ResponseNewReply:
		if r.Ephemeral {
			alert := &tele.CallbackResponse{
				Text:      format.Truncate(format.Plain(r.Prompt.Text), MaxAlertLength),
				ShowAlert: true,
			}
			return s.call(ctx, "respond", func() error { return s.api.Respond(cb, alert) })
		}
		if cb.Message == nil || cb.Message.Chat == nil {
			return dialogue.NewDeliveryError("respond", 0, errors.New("telegram: callback has no chat"))
		}
		opts, err := sendOptions(r.Prompt)
		if err != nil {
			return dialogue.NewDeliveryError("respond", 0, err)
		}
		if err := s.call(ctx, "respond", func() error {
			_, serr := s.api.Send(cb.Message.Chat, format.HTML(r.Prompt.Text), opts)
			return serr
		}); err != nil {
			return err
		}
		return s.call(ctx, "answer", func() error { return s.api.Respond(cb) })
	default:
		return dialogue.NewDeliveryError("respond", 0, fmt.Errorf("telegram: unknown response kind %d", r.Kind))
	}
}

// Delete removes ref. A message that is already gone counts as deleted.
func (s *Sender) Delete(ctx context.Context, ref dialogue.MessageRef) error {
	stored, err := storedMessage(ref)
	if err != nil {
		return dialogue.NewDeliveryError("delete", 0, err)
	}
	return s.call(ctx, "delete", func() error {
		if err := s.api.Delete(stored); err != nil && !isNotFound(err) {
			return err
		}
		return nil
	})
}

func (s *Sender) edit(ctx context.Context, op string, msg tele.Editable, p dialogue.Prompt) error {
	markup, err := keyboard.Render(p)
	if err != nil {
		return dialogue.NewDeliveryError(op, 0, err)
	}
	if markup == nil {
		markup = keyboard.RemoveInline()
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}
	return s.call(ctx, op, func() error {
		_, err := s.api.Edit(msg, format.HTML(p.Text), opts)
		return err
	})
}

// call runs fn unless ctx is already done and converts failures into delivery errors.
func (s *Sender) call(ctx context.Context, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return dialogue.NewDeliveryError(op, 0, err)
	}
	start := time.Now()
	err := fn()
	logger.Debug(ctx, logger.ComponentGateway, "tg.call",
		slog.String("op", op),
		slog.String("status", logger.Status(err)),
		slog.Duration("took", logger.Took(start)),
	)
	if err != nil {
		return dialogue.NewDeliveryError(op, httpStatusFromError(err), err)
	}
	return nil
}

func sendOptions(p dialogue.Prompt) (*tele.SendOptions, error) {
	markup, err := keyboard.Render(p)
	if err != nil {
		return nil, err
	}
	return &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}, nil
}

func storedMessage(ref dialogue.MessageRef) (tele.StoredMessage, error) {
	chatID, err := strconv.ParseInt(ref.ChannelID, 10, 64)
	if err != nil {
		return tele.StoredMessage{}, fmt.Errorf("telegram: chat id %q: %w", ref.ChannelID, err)
	}
	if _, err := strconv.Atoi(ref.MessageID); err != nil {
		return tele.StoredMessage{}, fmt.Errorf("telegram: message id %q: %w", ref.MessageID, err)
	}
	return tele.StoredMessage{ChatID: chatID, MessageID: ref.MessageID}, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, tele.ErrNotFoundToDelete) {
		return true
	}
	var apiErr *tele.Error
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message to delete not found")
}

func httpStatusFromError(err error) int {
	if err == nil {
		return 0
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return http.StatusTooManyRequests
	}

	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return http.StatusBadRequest
	}
	return 0
}
