package discord

import (
	"context"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/directorbot/core/dialogue"
)

type respondCall struct {
	interaction *discordgo.Interaction
	resp        *discordgo.InteractionResponse
}

type fakeAPI struct {
	mu        sync.Mutex
	dms       []string
	sends     map[string][]*discordgo.MessageSend
	edits     []*discordgo.MessageEdit
	deletes   []string
	responds  []respondCall
	sendErr   error
	deleteErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{sends: map[string][]*discordgo.MessageSend{}}
}

func (f *fakeAPI) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, recipientID)
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sends[channelID] = append(f.sends[channelID], data)
	return &discordgo.Message{ID: "msg-1", ChannelID: channelID}, nil
}

func (f *fakeAPI) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *fakeAPI) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, channelID+"/"+messageID)
	return f.deleteErr
}

func (f *fakeAPI) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responds = append(f.responds, respondCall{interaction: i, resp: resp})
	return nil
}

func restError(status, code int) *discordgo.RESTError {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: http.StatusText(status)},
	}
}

type fakeDispatcher struct {
	msgs []dialogue.NewMessage
}

func (f *fakeDispatcher) Dispatch(_ context.Context, msg dialogue.NewMessage) bool {
	f.msgs = append(f.msgs, msg)
	return true
}

type fakeHub struct {
	claim  bool
	got    []dialogue.Interaction
	closed []dialogue.MessageRef
}

func (f *fakeHub) Dispatch(in dialogue.Interaction) bool {
	f.got = append(f.got, in)
	return f.claim
}

func (f *fakeHub) CloseMessage(ref dialogue.MessageRef) {
	f.closed = append(f.closed, ref)
}
