package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

// Recognised values of the status attribute; anything else passes through.
var allowedStatus = map[string]struct{}{
	"ok":        {},
	"fail":      {},
	"skip":      {},
	"timeout":   {},
	"cancelled": {},
}

// Recognised session outcomes; unknown values are dropped.
var allowedOutcome = map[string]struct{}{
	"completed": {},
	"timeout":   {},
	"aborted":   {},
	"closed":    {},
	"cancelled": {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeEnum(value string, allowed map[string]struct{}) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", false
	}
	_, ok := allowed[value]
	return value, ok
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"platform",
	"session_id",
	"user_id",
	"channel_id",
	"message_id",
	"handler",
	"op",
	"phase",
	"selected",
	"action",
	"outcome",
	"duration_ms",
	"timeout_ms",
	"actions",
	"count",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"db",
	"driver",
	"err",
	"err_code",
	"cause",
	"pending_count",
}
