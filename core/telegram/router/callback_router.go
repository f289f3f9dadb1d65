package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/directorbot/core/dialogue"
	tg "github.com/m3rciful/directorbot/core/telegram"
	"github.com/m3rciful/directorbot/core/telegram/callbacks"
	"github.com/m3rciful/directorbot/core/telegram/middleware"
)

// Collector receives component interactions for waiting sessions.
type Collector interface {
	Dispatch(in dialogue.Interaction) bool
}

// CallbackRoute hands dialogue callbacks to the collector. Callbacks nobody
// waits for are answered silently so the client stops its spinner.
func CallbackRoute(col Collector) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		key, _ := callbacks.ParseCallbackData(cb)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		in, ok := callbacks.Interaction(cb)
		if !ok || col == nil || !col.Dispatch(in) {
			return handleWithSummary(c, name, start, "skip", "ok", func() error {
				return c.Respond()
			}, append(extras, slog.String("reason", "unclaimed"))...)
		}
		extras = append(extras, slog.String("kind", in.Kind.String()))
		logHandlerSummary(c, name, start, "", "", nil, extras...)
		return nil
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
