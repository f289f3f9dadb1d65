package format

import (
	"html"
	"regexp"
	"strings"
)

var (
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	underlineRe = regexp.MustCompile(`__(.+?)__`)
)

// HTML converts the **bold** and __underline__ markers used by dialogue texts
// into Telegram HTML. Everything else is escaped.
func HTML(text string) string {
	out := html.EscapeString(text)
	out = boldRe.ReplaceAllString(out, "<b>$1</b>")
	return underlineRe.ReplaceAllString(out, "<u>$1</u>")
}

// Plain strips the markers for surfaces without formatting, such as callback alerts.
func Plain(text string) string {
	out := boldRe.ReplaceAllString(text, "$1")
	return underlineRe.ReplaceAllString(out, "$1")
}

// Truncate cuts text to at most max runes, marking the cut with an ellipsis.
func Truncate(text string, max int) string {
	r := []rune(text)
	if max <= 0 || len(r) <= max {
		return text
	}
	if max == 1 {
		return string(r[:1])
	}
	return strings.TrimSpace(string(r[:max-1])) + "…"
}
