package keyboard

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/directorbot/core/dialogue"
)

const (
	// SelectUnique marks callbacks coming from the selection menu.
	SelectUnique = "dsel"
	// ActionUnique marks callbacks coming from the action row.
	ActionUnique = "dact"

	// MaxCallbackData is the Bot API limit for callback_data in bytes.
	MaxCallbackData = 64
)

// Limits are the payload sizes that fit in callback_data next to the
// "\f<unique>|" header telebot writes.
var Limits = dialogue.Limits{
	OptionValue: MaxCallbackData - len(SelectUnique) - 2,
	ActionName:  MaxCallbackData - len(ActionUnique) - 2,
}

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Render turns a dialogue prompt into inline keyboard markup. A prompt without
// controls yields nil. Menus become one button per row, action buttons share one row.
func Render(p dialogue.Prompt) (*tele.ReplyMarkup, error) {
	switch {
	case p.Menu != nil:
		buttons := make([]InlineBtn, 0, len(p.Menu.Options))
		for _, o := range p.Menu.Options {
			buttons = append(buttons, InlineBtn{Text: dialogue.OptionLabel(o), Unique: SelectUnique, Data: o.Value})
		}
		if err := checkData(buttons); err != nil {
			return nil, err
		}
		return InlineButtons(buttons), nil
	case len(p.Buttons) > 0:
		row := make([]InlineBtn, 0, len(p.Buttons))
		for _, b := range p.Buttons {
			row = append(row, InlineBtn{Text: buttonLabel(b), Unique: ActionUnique, Data: b.ID})
		}
		if err := checkData(row); err != nil {
			return nil, err
		}
		return InlineButtonsRows(row), nil
	default:
		return nil, nil
	}
}

func buttonLabel(b dialogue.Button) string {
	if b.Icon == "" {
		return b.Label
	}
	return b.Icon + " " + b.Label
}

func checkData(buttons []InlineBtn) error {
	for _, b := range buttons {
		// telebot encodes as \f<unique>|<data>
		if n := len(b.Unique) + len(b.Data) + 2; n > MaxCallbackData {
			return fmt.Errorf("keyboard: callback data for %q is %d bytes, limit %d", b.Data, n, MaxCallbackData)
		}
	}
	return nil
}

// InlineButtons builds an inline keyboard where each provided button is placed on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return InlineButtonsRows(rows...)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// RemoveInline returns markup that clears an inline keyboard on edit.
func RemoveInline() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{}}
}
