// Package discord runs the dialogue on a Discord gateway session via discordgo.
package discord

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/directorbot/core/dialogue"
)

// API is the subset of *discordgo.Session the adapter calls.
type API interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

var _ API = (*discordgo.Session)(nil)

// deliveryError wraps a REST failure, keeping the HTTP status when discordgo reports one.
func deliveryError(op string, err error) error {
	return dialogue.NewDeliveryError(op, statusOf(err), err)
}

func statusOf(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode
	}
	return 0
}

func apiCode(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		return rest.Message.Code
	}
	return 0
}

// isUnknownMessage reports a 404 for a message that no longer exists.
func isUnknownMessage(err error) bool {
	if apiCode(err) == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return apiCode(err) == 0 && statusOf(err) == http.StatusNotFound
}
