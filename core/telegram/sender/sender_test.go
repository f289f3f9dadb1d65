package sender

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/directorbot/core/dialogue"
)

type sent struct {
	to   tele.Recipient
	what interface{}
	opts *tele.SendOptions
}

type fakeAPI struct {
	sends    []sent
	edits    []tele.Editable
	editOpts []*tele.SendOptions
	deletes  []tele.Editable
	answers  []*tele.CallbackResponse

	sendErr   error
	deleteErr error
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	s := sent{to: to, what: what}
	if len(opts) > 0 {
		s.opts, _ = opts[0].(*tele.SendOptions)
	}
	f.sends = append(f.sends, s)
	return &tele.Message{ID: 900 + len(f.sends), Chat: &tele.Chat{ID: 55}}, nil
}

func (f *fakeAPI) Edit(msg tele.Editable, _ interface{}, opts ...interface{}) (*tele.Message, error) {
	f.edits = append(f.edits, msg)
	if len(opts) > 0 {
		o, _ := opts[0].(*tele.SendOptions)
		f.editOpts = append(f.editOpts, o)
	}
	return &tele.Message{}, nil
}

func (f *fakeAPI) Delete(msg tele.Editable) error {
	f.deletes = append(f.deletes, msg)
	return f.deleteErr
}

func (f *fakeAPI) Respond(_ *tele.Callback, resp ...*tele.CallbackResponse) error {
	var r *tele.CallbackResponse
	if len(resp) > 0 {
		r = resp[0]
	}
	f.answers = append(f.answers, r)
	return nil
}

func TestSendDirect(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	p, err := dialogue.BuildSelectionPrompt("Please select", "none", dialogue.DefaultCatalog().Options)
	require.NoError(t, err)

	ref, err := New(api).SendDirect(context.Background(), "42", p)
	require.NoError(t, err)
	assert.Equal(t, dialogue.MessageRef{ChannelID: "55", MessageID: "901"}, ref)

	require.Len(t, api.sends, 1)
	assert.Equal(t, "42", api.sends[0].to.Recipient())
	assert.Equal(t, tele.ModeHTML, api.sends[0].opts.ParseMode)
	assert.Len(t, api.sends[0].opts.ReplyMarkup.InlineKeyboard, 5)
}

func TestSendDirectForbidden(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sendErr: tele.ErrBlockedByUser}
	_, err := New(api).SendDirect(context.Background(), "42", dialogue.Prompt{Text: "x"})
	var de *dialogue.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "send_direct", de.Op)
	assert.Equal(t, 403, de.Status)

	_, err = New(api).SendDirect(context.Background(), "not-a-number", dialogue.Prompt{})
	require.ErrorIs(t, err, dialogue.ErrDelivery)
}

func TestRespondUpdateOrigin(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	cb := &tele.Callback{ID: "cb", Message: &tele.Message{ID: 7, Chat: &tele.Chat{ID: 55}}}
	in := dialogue.Interaction{Handle: cb}
	r := dialogue.Response{Kind: dialogue.ResponseUpdateOrigin, Prompt: dialogue.BuildActionPrompt("Greta Gerwig", dialogue.DefaultCatalog().Actions)}

	require.NoError(t, New(api).Respond(context.Background(), in, r))
	require.Len(t, api.edits, 1)
	assert.Same(t, cb.Message, api.edits[0])
	require.Len(t, api.editOpts[0].ReplyMarkup.InlineKeyboard, 1)
	require.Len(t, api.answers, 1)
	assert.Nil(t, api.answers[0], "update is acknowledged with an empty answer")
}

func TestRespondEphemeralIsAlert(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	in := dialogue.Interaction{Handle: &tele.Callback{ID: "cb"}}
	r := dialogue.Response{Kind: dialogue.ResponseNewReply, Prompt: dialogue.Prompt{Text: dialogue.ActionReply("Bong Joon-ho", "cut")}, Ephemeral: true}

	require.NoError(t, New(api).Respond(context.Background(), in, r))
	require.Len(t, api.answers, 1)
	assert.Equal(t, "Bong Joon-ho yells cut!", api.answers[0].Text)
	assert.True(t, api.answers[0].ShowAlert)
	assert.Empty(t, api.sends)
}

func TestRespondWithoutCallback(t *testing.T) {
	t.Parallel()

	err := New(&fakeAPI{}).Respond(context.Background(), dialogue.Interaction{}, dialogue.Response{Kind: dialogue.ResponseNewReply})
	require.ErrorIs(t, err, dialogue.ErrDelivery)
}

func TestReply(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	require.NoError(t, New(api).Reply(context.Background(), dialogue.MessageRef{ChannelID: "55", MessageID: "7"}, "Sorry, I can't sit around waiting all day."))
	require.Len(t, api.sends, 1)
	assert.Equal(t, "55", api.sends[0].to.Recipient())
	assert.Equal(t, 7, api.sends[0].opts.ReplyTo.ID)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ref := dialogue.MessageRef{ChannelID: "55", MessageID: "7"}

	api := &fakeAPI{}
	require.NoError(t, New(api).Delete(context.Background(), ref))
	require.Len(t, api.deletes, 1)
	msgID, chatID := api.deletes[0].MessageSig()
	assert.Equal(t, "7", msgID)
	assert.Equal(t, int64(55), chatID)

	gone := &fakeAPI{deleteErr: tele.ErrNotFoundToDelete}
	require.NoError(t, New(gone).Delete(context.Background(), ref), "already deleted counts as success")

	broken := &fakeAPI{deleteErr: errors.New("network down")}
	err := New(broken).Delete(context.Background(), ref)
	var de *dialogue.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "delete", de.Op)
}

func TestCancelledContextSkipsCall(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(api).Delete(ctx, dialogue.MessageRef{ChannelID: "1", MessageID: "2"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.deletes)
}
