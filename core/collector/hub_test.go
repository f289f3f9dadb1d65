package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/directorbot/core/dialogue"
)

var msgRef = dialogue.MessageRef{ChannelID: "dm", MessageID: "100"}

func selectionFilter() dialogue.Filter {
	return dialogue.Filter{Message: msgRef, Actor: "alice", Kind: dialogue.KindSelection}
}

func buttonFilter() dialogue.Filter {
	return dialogue.Filter{Message: msgRef, Actor: "alice", Kind: dialogue.KindButtonPress}
}

func interaction(kind dialogue.Kind, actor dialogue.UserID, payload string) dialogue.Interaction {
	return dialogue.Interaction{Kind: kind, Actor: actor, Message: msgRef, Payload: payload}
}

func awaitAsync(h *Hub, timeout time.Duration) <-chan struct {
	ev  dialogue.Interaction
	err error
} {
	out := make(chan struct {
		ev  dialogue.Interaction
		err error
	}, 1)
	go func() {
		ev, err := h.Await(context.Background(), selectionFilter(), timeout)
		out <- struct {
			ev  dialogue.Interaction
			err error
		}{ev, err}
	}()
	return out
}

func TestAwaitReturnsFirstMatch(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	res := awaitAsync(h, time.Second)
	require.Eventually(t, func() bool { return h.Pending() == 1 }, time.Second, time.Millisecond)

	assert.False(t, h.Dispatch(interaction(dialogue.KindSelection, "bob", "x")), "other actor")
	assert.False(t, h.Dispatch(interaction(dialogue.KindButtonPress, "alice", "x")), "other kind")
	other := interaction(dialogue.KindSelection, "alice", "x")
	other.Message.MessageID = "101"
	assert.False(t, h.Dispatch(other), "other message")

	assert.True(t, h.Dispatch(interaction(dialogue.KindSelection, "alice", "first")))
	assert.False(t, h.Dispatch(interaction(dialogue.KindSelection, "alice", "second")), "single-shot wait takes one event")

	r := <-res
	require.NoError(t, r.err)
	assert.Equal(t, "first", r.ev.Payload)
	require.Eventually(t, func() bool { return h.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestAwaitTimeout(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	start := time.Now()
	_, err := h.Await(context.Background(), selectionFilter(), 20*time.Millisecond)
	require.ErrorIs(t, err, dialogue.ErrWaitTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Zero(t, h.Pending())
}

func TestAwaitClosedMessage(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	res := awaitAsync(h, time.Minute)
	require.Eventually(t, func() bool { return h.Pending() == 1 }, time.Second, time.Millisecond)

	h.CloseMessage(msgRef)
	r := <-res
	require.ErrorIs(t, r.err, dialogue.ErrStreamClosed)
}

func TestAwaitContextCancelled(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Await(ctx, selectionFilter(), time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSubscribeDeliversInOrderUntilWindowElapses(t *testing.T) {
	t.Parallel()

	h := NewHub(4)
	sub := h.Subscribe(context.Background(), buttonFilter(), 50*time.Millisecond)
	defer sub.Close()

	for _, p := range []string{"action", "cut", "print it"} {
		require.True(t, h.Dispatch(interaction(dialogue.KindButtonPress, "alice", p)))
	}
	assert.False(t, h.Dispatch(interaction(dialogue.KindButtonPress, "bob", "cut")))

	var got []string
	for ev := range sub.Events() {
		got = append(got, ev.Payload)
	}
	assert.Equal(t, []string{"action", "cut", "print it"}, got)
	require.ErrorIs(t, sub.Err(), dialogue.ErrWindowElapsed)
	assert.False(t, h.Dispatch(interaction(dialogue.KindButtonPress, "alice", "late")))
}

func TestSubscribeCloseMessage(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	sub := h.Subscribe(context.Background(), buttonFilter(), time.Minute)
	assert.Nil(t, sub.Err())

	h.CloseMessage(msgRef)
	_, open := <-sub.Events()
	assert.False(t, open)
	require.ErrorIs(t, sub.Err(), dialogue.ErrStreamClosed)
	sub.Close()
	require.ErrorIs(t, sub.Err(), dialogue.ErrStreamClosed, "first reason wins")
}

func TestFullMailboxDropsWithoutStallingOtherMessages(t *testing.T) {
	t.Parallel()

	h := NewHub(1)
	other := dialogue.MessageRef{ChannelID: "dm", MessageID: "200"}
	subA := h.Subscribe(context.Background(), buttonFilter(), time.Minute)
	defer subA.Close()
	subB := h.Subscribe(context.Background(), dialogue.Filter{Message: other, Actor: "bob", Kind: dialogue.KindButtonPress}, time.Minute)
	defer subB.Close()

	done := make(chan []bool, 1)
	go func() {
		var got []bool
		for i := 0; i < 17; i++ {
			got = append(got, h.Dispatch(interaction(dialogue.KindButtonPress, "alice", "cut")))
		}
		got = append(got, h.Dispatch(dialogue.Interaction{Kind: dialogue.KindButtonPress, Actor: "bob", Message: other, Payload: "action"}))
		done <- got
	}()

	var got []bool
	select {
	case got = <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch loop stalled on a full mailbox")
	}
	require.Len(t, got, 18)
	assert.True(t, got[0])
	assert.False(t, got[1], "overflow is reported as unconsumed")
	assert.True(t, got[17])

	select {
	case ev := <-subB.Events():
		assert.Equal(t, "action", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("other message never received its press")
	}
	ev := <-subA.Events()
	assert.Equal(t, "cut", ev.Payload)
}

func TestHubClose(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	sub := h.Subscribe(context.Background(), buttonFilter(), time.Minute)
	h.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	require.ErrorIs(t, sub.Err(), dialogue.ErrStreamClosed)

	_, err := h.Await(context.Background(), selectionFilter(), time.Minute)
	require.ErrorIs(t, err, dialogue.ErrStreamClosed, "closed hub ends new waits at once")
	assert.Zero(t, h.Pending())
}
