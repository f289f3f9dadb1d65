package logger

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type contextKey string

const (
	ctxRID       contextKey = "rid"
	ctxSessionID contextKey = "session_id"
	ctxPlatform  contextKey = "platform"
	ctxUserID    contextKey = "user_id"
	ctxChannelID contextKey = "channel_id"
	ctxLogger    contextKey = "logger"
	ctxHandler   contextKey = "handler"
)

// WithLogger stores the provided slog.Logger in context for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger, log)
}

// FromContext extracts slog.Logger from context or returns the global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxLogger).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return L
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

// WithRID attaches a request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withString(ctx, ctxRID, rid)
}

// RIDFrom extracts rid from context if present.
func RIDFrom(ctx context.Context) string { return stringFrom(ctx, ctxRID) }

// WithSession tags every downstream record with the dialogue session id.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return withString(ctx, ctxSessionID, sessionID)
}

// SessionIDFrom returns the dialogue session id stored in ctx.
func SessionIDFrom(ctx context.Context) string { return stringFrom(ctx, ctxSessionID) }

// WithActor attaches the platform and the ids of the user and channel an event came from.
func WithActor(ctx context.Context, platform, userID, channelID string) context.Context {
	ctx = withString(ctx, ctxPlatform, platform)
	ctx = withString(ctx, ctxUserID, userID)
	return withString(ctx, ctxChannelID, channelID)
}

// PlatformFrom returns the chat platform stored in ctx.
func PlatformFrom(ctx context.Context) string { return stringFrom(ctx, ctxPlatform) }

// UserIDFrom returns the platform user id stored in ctx.
func UserIDFrom(ctx context.Context) string { return stringFrom(ctx, ctxUserID) }

// ChannelIDFrom returns the channel or chat id stored in ctx.
func ChannelIDFrom(ctx context.Context) string { return stringFrom(ctx, ctxChannelID) }

// WithHandler stores handler identifier in context for downstream logs.
func WithHandler(ctx context.Context, handler string) context.Context {
	return withString(ctx, ctxHandler, handler)
}

// HandlerFrom returns handler identifier from context if present.
func HandlerFrom(ctx context.Context) string { return stringFrom(ctx, ctxHandler) }

// Sanitize drops control and format runes except tab and newline.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit applies Sanitize and limits the output length in runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max])
}

// BuildRID returns a correlation id in the form platform:channel:message.
func BuildRID(platform, channelID, messageID string) string {
	return platform + ":" + channelID + ":" + messageID
}

// CompactRID shortens numeric segments of a RID into base36 for readability.
// Non-numeric segments such as Slack timestamps are kept verbatim.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) < 2 {
		return rid
	}
	for i, part := range parts {
		if n, err := strconv.ParseUint(part, 10, 64); err == nil {
			parts[i] = strconv.FormatUint(n, 36)
		}
	}
	return strings.Join(parts, ".")
}
