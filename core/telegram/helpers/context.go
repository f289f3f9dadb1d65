package helpers

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/logger"
)

const contextKey = "logger_ctx"

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom telegram context if previously stored by middleware.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	if v := c.Get(contextKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx, true
		}
	}
	return nil, false
}

// IDs returns the chat and sender of an update as strings, empty when absent.
func IDs(c tele.Context) (chatID, userID string) {
	if chat := c.Chat(); chat != nil {
		chatID = strconv.FormatInt(chat.ID, 10)
	}
	if user := c.Sender(); user != nil {
		userID = strconv.FormatInt(user.ID, 10)
	}
	return chatID, userID
}

// BuildContext constructs a context.Context from tele.Context,
// enriching it with RID and platform/user/chat metadata for consistent logging.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	chatID, userID := IDs(c)
	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(config.PlatformTelegram, chatID, strconv.Itoa(c.Update().ID))
	}

	ctx := context.Background()
	ctx = logger.WithRID(ctx, rid)
	ctx = logger.WithActor(ctx, config.PlatformTelegram, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.GW)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
