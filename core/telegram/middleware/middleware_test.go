package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func newContext(upd tele.Update) tele.Context {
	return (&tele.Bot{}).NewContext(upd)
}

func TestRecoverMiddlewareTurnsPanicIntoError(t *testing.T) {
	t.Parallel()

	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newContext(tele.Update{ID: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	want := errors.New("plain")
	err = RecoverMiddleware(func(tele.Context) error { return want })(newContext(tele.Update{ID: 2}))
	require.ErrorIs(t, err, want)
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	t.Parallel()

	upd := tele.Update{ID: 77, Message: &tele.Message{ID: 5, Text: "!director", Chat: &tele.Chat{ID: 9}, Sender: &tele.User{ID: 3}}}
	var rid string
	h := LoggerMiddleware(func(c tele.Context) error {
		rid, _ = c.Get("rid").(string)
		return nil
	})
	require.NoError(t, h(newContext(upd)))
	assert.Equal(t, "telegram:9:77", rid)
}

func TestRecentUpdates(t *testing.T) {
	t.Parallel()

	r := &recentUpdates{seen: map[int]time.Time{}, keepFor: time.Second}
	now := time.Now()
	assert.False(t, r.logged(1, now))
	assert.True(t, r.logged(1, now))
	assert.False(t, r.logged(1, now.Add(2*time.Second)), "expired entries are forgotten")
}
