package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/telegram/keyboard"
)

// ParseCallbackData parses Telebot's \f<unique>|<payload> encoding.
// Returns unique and payload (may be empty).
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	unique := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return unique, payload
}

// Interaction converts a callback from one of the dialogue keyboards.
// ok is false for callbacks the dialogue did not produce.
func Interaction(cb *tele.Callback) (dialogue.Interaction, bool) {
	if cb == nil || cb.Sender == nil || cb.Message == nil || cb.Message.Chat == nil {
		return dialogue.Interaction{}, false
	}
	unique, payload := ParseCallbackData(cb)
	var kind dialogue.Kind
	switch unique {
	case keyboard.SelectUnique:
		kind = dialogue.KindSelection
	case keyboard.ActionUnique:
		kind = dialogue.KindButtonPress
	default:
		return dialogue.Interaction{}, false
	}
	return dialogue.Interaction{
		ID:      cb.ID,
		Kind:    kind,
		Actor:   dialogue.UserID(strconv.FormatInt(cb.Sender.ID, 10)),
		Message: MessageRef(cb.Message),
		Payload: payload,
		Handle:  cb,
	}, true
}

// MessageRef identifies a Telegram message by chat and message id.
func MessageRef(m *tele.Message) dialogue.MessageRef {
	if m == nil || m.Chat == nil {
		return dialogue.MessageRef{}
	}
	return dialogue.MessageRef{
		ChannelID: strconv.FormatInt(m.Chat.ID, 10),
		MessageID: strconv.Itoa(m.ID),
	}
}
