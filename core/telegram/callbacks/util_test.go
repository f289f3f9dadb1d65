package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/directorbot/core/dialogue"
)

func TestParseCallbackData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cb       *tele.Callback
		key, pay string
	}{
		{"nil", nil, "", ""},
		{"raw", &tele.Callback{Data: "\fdsel|Stanley Kubrick"}, "dsel", "Stanley Kubrick"},
		{"pipe in payload", &tele.Callback{Data: "\fdact|a|b"}, "dact", "a|b"},
		{"unique set", &tele.Callback{Unique: "dact", Data: "cut"}, "dact", "cut"},
		{"no payload", &tele.Callback{Data: "\fdact"}, "dact", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key, pay := ParseCallbackData(tt.cb)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.pay, pay)
		})
	}
}

func TestInteraction(t *testing.T) {
	t.Parallel()

	msg := &tele.Message{ID: 7, Chat: &tele.Chat{ID: 1001}}
	in, ok := Interaction(&tele.Callback{ID: "cb1", Sender: &tele.User{ID: 42}, Message: msg, Data: "\fdsel|Greta Gerwig"})
	require.True(t, ok)
	assert.Equal(t, dialogue.KindSelection, in.Kind)
	assert.Equal(t, dialogue.UserID("42"), in.Actor)
	assert.Equal(t, dialogue.MessageRef{ChannelID: "1001", MessageID: "7"}, in.Message)
	assert.Equal(t, "Greta Gerwig", in.Payload)
	assert.NotNil(t, in.Handle)

	in, ok = Interaction(&tele.Callback{Sender: &tele.User{ID: 42}, Message: msg, Unique: "dact", Data: "cut"})
	require.True(t, ok)
	assert.Equal(t, dialogue.KindButtonPress, in.Kind)

	_, ok = Interaction(&tele.Callback{Sender: &tele.User{ID: 42}, Message: msg, Data: "\fother|x"})
	assert.False(t, ok)
	_, ok = Interaction(&tele.Callback{Sender: &tele.User{ID: 42}, Data: "\fdact|cut"})
	assert.False(t, ok, "inline-mode callbacks carry no message")
}
