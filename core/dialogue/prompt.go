package dialogue

import "fmt"

const (
	// SelectMenuID identifies the selection control on every platform.
	SelectMenuID = "director_select"

	// DefaultSelectionText is the body of the direct message carrying the menu.
	DefaultSelectionText = "Please select your favorite director"
	// DefaultPlaceholder is shown by the menu while nothing is chosen.
	DefaultPlaceholder = "No director selected"
	// DefaultTimeoutText is replied when the selection window expires.
	DefaultTimeoutText = "Sorry, I can't sit around waiting all day."
)

// Menu is a single selection control.
type Menu struct {
	ID          string
	Placeholder string
	Options     []Option
}

// Button is one element of the action row; ID is what a press reports back.
type Button struct {
	ID    string
	Label string
	Icon  string
}

// Prompt is a platform-neutral outbound message: a body plus at most one menu or one button row.
type Prompt struct {
	Text    string
	Menu    *Menu
	Buttons []Button
}

// BuildSelectionPrompt returns a message with exactly one menu offering options in order.
func BuildSelectionPrompt(text, placeholder string, options []Option) (Prompt, error) {
	if len(options) == 0 {
		return Prompt{}, ErrNoOptions
	}
	return Prompt{
		Text: text,
		Menu: &Menu{
			ID:          SelectMenuID,
			Placeholder: placeholder,
			Options:     append([]Option(nil), options...),
		},
	}, nil
}

// BuildActionPrompt returns the message that replaces the menu once selected is known.
func BuildActionPrompt(selected string, actions []Action) Prompt {
	buttons := make([]Button, 0, len(actions))
	for _, a := range actions {
		buttons = append(buttons, Button{ID: a.Name, Label: a.Name, Icon: a.Icon})
	}
	return Prompt{
		Text:    fmt.Sprintf("You chose: **%s**\nNow choose a command!", selected),
		Buttons: buttons,
	}
}

// ActionReply is the ephemeral answer to one button press.
func ActionReply(selected, action string) string {
	return fmt.Sprintf("**%s** yells __%s__!", selected, action)
}

// OptionLabel renders an option as shown on platforms without per-option emoji support.
func OptionLabel(o Option) string {
	if o.Icon == "" {
		return o.Label
	}
	return o.Icon + " " + o.Label
}
