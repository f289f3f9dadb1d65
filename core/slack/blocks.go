package slack

import (
	"fmt"
	"regexp"
	"strings"

	slacklib "github.com/slack-go/slack"

	"github.com/m3rciful/directorbot/core/dialogue"
)

const (
	// SelectActionID identifies the static select carrying the options.
	SelectActionID = dialogue.SelectMenuID
	// ButtonActionPrefix starts the action id of every action button.
	ButtonActionPrefix = "director_action_"

	promptBlockID  = "director_prompt"
	controlBlockID = "director_controls"
)

// Limits are the Block Kit sizes for an option value and a button value.
var Limits = dialogue.Limits{OptionValue: 150, ActionName: 2000}

var (
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	underlineRe = regexp.MustCompile(`__(.+?)__`)
)

// Mrkdwn converts **bold** and __underline__ markers to Slack mrkdwn.
// Slack has no underline; it is rendered in italics.
func Mrkdwn(text string) string {
	out := boldRe.ReplaceAllString(text, "*$1*")
	return underlineRe.ReplaceAllString(out, "_${1}_")
}

// BuildBlocks renders p as a text section followed by at most one actions block.
func BuildBlocks(p dialogue.Prompt) []slacklib.Block {
	blocks := []slacklib.Block{
		slacklib.NewSectionBlock(
			slacklib.NewTextBlockObject(slacklib.MarkdownType, Mrkdwn(p.Text), false, false),
			nil,
			nil,
			slacklib.SectionBlockOptionBlockID(promptBlockID),
		),
	}

	switch {
	case p.Menu != nil:
		options := make([]*slacklib.OptionBlockObject, 0, len(p.Menu.Options))
		for _, o := range p.Menu.Options {
			options = append(options, slacklib.NewOptionBlockObject(
				o.Value,
				slacklib.NewTextBlockObject(slacklib.PlainTextType, dialogue.OptionLabel(o), true, false),
				nil,
			))
		}
		var placeholder *slacklib.TextBlockObject
		if p.Menu.Placeholder != "" {
			placeholder = slacklib.NewTextBlockObject(slacklib.PlainTextType, p.Menu.Placeholder, false, false)
		}
		menu := slacklib.NewOptionsSelectBlockElement(slacklib.OptTypeStatic, placeholder, SelectActionID, options...)
		blocks = append(blocks, slacklib.NewActionBlock(controlBlockID, menu))
	case len(p.Buttons) > 0:
		elements := make([]slacklib.BlockElement, 0, len(p.Buttons))
		for i, b := range p.Buttons {
			label := b.Label
			if b.Icon != "" {
				label = b.Icon + " " + b.Label
			}
			elements = append(elements, slacklib.NewButtonBlockElement(
				fmt.Sprintf("%s%d", ButtonActionPrefix, i),
				b.ID,
				slacklib.NewTextBlockObject(slacklib.PlainTextType, label, true, false),
			))
		}
		blocks = append(blocks, slacklib.NewActionBlock(controlBlockID, elements...))
	}
	return blocks
}

// parseAction maps a block action to a dialogue kind and payload.
func parseAction(a *slacklib.BlockAction) (dialogue.Kind, string, bool) {
	if a == nil {
		return 0, "", false
	}
	switch {
	case a.ActionID == SelectActionID:
		if a.SelectedOption.Value == "" {
			return 0, "", false
		}
		return dialogue.KindSelection, a.SelectedOption.Value, true
	case strings.HasPrefix(a.ActionID, ButtonActionPrefix):
		return dialogue.KindButtonPress, a.Value, true
	default:
		return 0, "", false
	}
}
