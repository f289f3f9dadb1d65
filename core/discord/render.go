package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/directorbot/core/dialogue"
)

// ActionPrefix marks the custom id of every action button.
const ActionPrefix = "director_action:"

const (
	maxCustomID    = 100
	maxOptionValue = 100
)

// Limits are the identifier sizes Discord components accept.
var Limits = dialogue.Limits{
	OptionValue: maxOptionValue,
	ActionName:  maxCustomID - len(ActionPrefix),
}

// Components renders the controls of p. A prompt without controls yields an
// empty, non-nil slice so an edit clears the previous components.
func Components(p dialogue.Prompt) []discordgo.MessageComponent {
	switch {
	case p.Menu != nil:
		options := make([]discordgo.SelectMenuOption, 0, len(p.Menu.Options))
		for _, o := range p.Menu.Options {
			opt := discordgo.SelectMenuOption{Label: o.Label, Value: o.Value}
			if o.Icon != "" {
				opt.Emoji = &discordgo.ComponentEmoji{Name: o.Icon}
			}
			options = append(options, opt)
		}
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    p.Menu.ID,
					Placeholder: p.Menu.Placeholder,
					Options:     options,
				},
			}},
		}
	case len(p.Buttons) > 0:
		buttons := make([]discordgo.MessageComponent, 0, len(p.Buttons))
		for _, b := range p.Buttons {
			btn := discordgo.Button{
				Label:    b.Label,
				Style:    discordgo.PrimaryButton,
				CustomID: ButtonID(b.ID),
			}
			if b.Icon != "" {
				btn.Emoji = &discordgo.ComponentEmoji{Name: b.Icon}
			}
			buttons = append(buttons, btn)
		}
		return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
	default:
		return []discordgo.MessageComponent{}
	}
}

// ButtonID encodes an action name as a button custom id. Names longer than
// Limits.ActionName are rejected at startup, so the id is never cut.
func ButtonID(action string) string {
	return ActionPrefix + action
}

// parseComponent maps component interaction data to a dialogue kind and payload.
func parseComponent(data discordgo.MessageComponentInteractionData) (dialogue.Kind, string, bool) {
	switch data.ComponentType {
	case discordgo.SelectMenuComponent:
		if data.CustomID != dialogue.SelectMenuID || len(data.Values) == 0 {
			return 0, "", false
		}
		return dialogue.KindSelection, data.Values[0], true
	case discordgo.ButtonComponent:
		action, ok := strings.CutPrefix(data.CustomID, ActionPrefix)
		if !ok {
			return 0, "", false
		}
		return dialogue.KindButtonPress, action, true
	default:
		return 0, "", false
	}
}
