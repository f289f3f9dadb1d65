package router

import (
	"context"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/dialogue"
	tg "github.com/m3rciful/directorbot/core/telegram"
	tghelpers "github.com/m3rciful/directorbot/core/telegram/helpers"
	"github.com/m3rciful/directorbot/core/telegram/middleware"
)

// Dispatcher starts dialogue sessions for trigger messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg dialogue.NewMessage) bool
}

// TextRoutes feeds every text message to the dialogue router. Messages from
// bots and updates without a sender are skipped.
func TextRoutes(d Dispatcher) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		msg := c.Message()
		if d == nil || msg == nil || msg.Sender == nil || msg.Sender.IsBot {
			logHandlerSummary(c, "text", start, "skip", "ok", nil)
			return nil
		}

		chatID, userID := tghelpers.IDs(c)
		in := dialogue.NewMessage{
			ID:        strconv.Itoa(msg.ID),
			Author:    dialogue.UserID(userID),
			ChannelID: chatID,
			Body:      msg.Text,
			Platform:  config.PlatformTelegram,
		}
		if !d.Dispatch(tghelpers.BuildContext(c), in) {
			logHandlerSummary(c, "text", start, "skip", "ok", nil)
			return nil
		}
		logHandlerSummary(c, normalizeHandlerName(msg.Text), start, "", "", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}
