package slack

import (
	"context"
	"sync"

	slacklib "github.com/slack-go/slack"

	"github.com/m3rciful/directorbot/core/dialogue"
)

type postCall struct {
	channel string
	user    string
	ts      string
	options []slacklib.MsgOption
}

type fakeAPI struct {
	mu        sync.Mutex
	opened    []string
	posts     []postCall
	updates   []postCall
	ephemeral []postCall
	deletes   []string
	openErr   error
	postErr   error
	deleteErr error
	updateErr error
}

func (f *fakeAPI) OpenConversationContext(_ context.Context, params *slacklib.OpenConversationParameters) (*slacklib.Channel, bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, false, false, f.openErr
	}
	f.opened = append(f.opened, params.Users...)
	ch := &slacklib.Channel{}
	ch.ID = "D-" + params.Users[0]
	return ch, false, false, nil
}

func (f *fakeAPI) PostMessageContext(_ context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return "", "", f.postErr
	}
	f.posts = append(f.posts, postCall{channel: channelID, options: options})
	return channelID, "1700000000.000100", nil
}

func (f *fakeAPI) UpdateMessageContext(_ context.Context, channelID, timestamp string, options ...slacklib.MsgOption) (string, string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, postCall{channel: channelID, ts: timestamp, options: options})
	if f.updateErr != nil {
		return "", "", "", f.updateErr
	}
	return channelID, timestamp, "", nil
}

func (f *fakeAPI) PostEphemeralContext(_ context.Context, channelID, userID string, options ...slacklib.MsgOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ephemeral = append(f.ephemeral, postCall{channel: channelID, user: userID, options: options})
	return "1700000000.000200", nil
}

func (f *fakeAPI) DeleteMessageContext(_ context.Context, channel, messageTimestamp string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, channel+"/"+messageTimestamp)
	if f.deleteErr != nil {
		return "", "", f.deleteErr
	}
	return channel, messageTimestamp, nil
}

type fakeDispatcher struct {
	msgs []dialogue.NewMessage
}

func (d *fakeDispatcher) Dispatch(_ context.Context, msg dialogue.NewMessage) bool {
	d.msgs = append(d.msgs, msg)
	return true
}

type fakeHub struct {
	claim  bool
	events []dialogue.Interaction
	closed []dialogue.MessageRef
}

func (h *fakeHub) Dispatch(in dialogue.Interaction) bool {
	h.events = append(h.events, in)
	return h.claim
}

func (h *fakeHub) CloseMessage(ref dialogue.MessageRef) {
	h.closed = append(h.closed, ref)
}
