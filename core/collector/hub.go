// Package collector routes component interactions to the sessions waiting for them.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/logger"
)

// DefaultMailbox is the per-subscription buffer.
const DefaultMailbox = 16

// Hub is an in-process dialogue.EventSource fed by platform adapters through Dispatch.
type Hub struct {
	mailbox int

	mu     sync.Mutex
	closed bool
	subs   map[dialogue.MessageRef]map[*subscription]struct{}
}

// NewHub returns an open hub; a non-positive mailbox uses DefaultMailbox.
func NewHub(mailbox int) *Hub {
	if mailbox <= 0 {
		mailbox = DefaultMailbox
	}
	return &Hub{
		mailbox: mailbox,
		subs:    make(map[dialogue.MessageRef]map[*subscription]struct{}),
	}
}

type subscription struct {
	hub    *Hub
	filter dialogue.Filter
	single bool
	taken  bool // guarded by hub.mu

	events chan dialogue.Interaction
	done   chan struct{}

	mu      sync.Mutex // serialises delivery against closing events; guards the stop funcs
	endOnce sync.Once
	err     error

	stopTimer func() bool
	stopCtx   func() bool
}

// Await returns the first interaction matching f, or ErrWaitTimeout when none
// arrives within timeout, or ErrStreamClosed when the message's stream is closed.
func (h *Hub) Await(ctx context.Context, f dialogue.Filter, timeout time.Duration) (dialogue.Interaction, error) {
	sub := h.open(ctx, f, timeout, true, dialogue.ErrWaitTimeout)
	defer sub.Close()
	ev, ok := <-sub.events
	if !ok {
		return dialogue.Interaction{}, sub.Err()
	}
	return ev, nil
}

// Subscribe streams interactions matching f until timeout elapses from now
// (ErrWindowElapsed) or the stream is closed (ErrStreamClosed).
func (h *Hub) Subscribe(ctx context.Context, f dialogue.Filter, timeout time.Duration) dialogue.Subscription {
	return h.open(ctx, f, timeout, false, dialogue.ErrWindowElapsed)
}

func (h *Hub) open(ctx context.Context, f dialogue.Filter, timeout time.Duration, single bool, expired error) *subscription {
	size := h.mailbox
	if single {
		size = 1
	}
	sub := &subscription{
		hub:    h,
		filter: f,
		single: single,
		events: make(chan dialogue.Interaction, size),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.end(dialogue.ErrStreamClosed)
		return sub
	}
	set := h.subs[f.Message]
	if set == nil {
		set = make(map[*subscription]struct{})
		h.subs[f.Message] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	sub.mu.Lock()
	timer := time.AfterFunc(timeout, func() { sub.end(expired) })
	sub.stopTimer = timer.Stop
	sub.stopCtx = context.AfterFunc(ctx, func() { sub.end(ctx.Err()) })
	sub.mu.Unlock()
	return sub
}

// Dispatch hands in to every subscription it matches and reports whether any
// took it. Unconsumed interactions are the adapter's to acknowledge.
func (h *Hub) Dispatch(in dialogue.Interaction) bool {
	h.mu.Lock()
	var targets []*subscription
	for sub := range h.subs[in.Message] {
		if !sub.filter.Match(in) {
			continue
		}
		if sub.single {
			if sub.taken {
				continue
			}
			sub.taken = true
		}
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	consumed := false
	for _, sub := range targets {
		if sub.deliver(in) {
			consumed = true
		}
	}
	if !consumed && logger.ShouldSampleDebug() {
		logger.Debug(context.Background(), logger.ComponentGateway, "interaction.unclaimed",
			slog.String("kind", in.Kind.String()),
			slog.String("user_id", string(in.Actor)),
			slog.String("message_id", in.Message.MessageID),
		)
	}
	return consumed
}

// CloseMessage ends every wait and subscription on ref with ErrStreamClosed.
func (h *Hub) CloseMessage(ref dialogue.MessageRef) {
	h.mu.Lock()
	set := h.subs[ref]
	targets := make([]*subscription, 0, len(set))
	for sub := range set {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.end(dialogue.ErrStreamClosed)
	}
}

// Close ends every subscription and makes new ones end immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var targets []*subscription
	for _, set := range h.subs {
		for sub := range set {
			targets = append(targets, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.end(dialogue.ErrStreamClosed)
	}
}

// Pending reports how many waits and subscriptions are open.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.filter.Message]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.filter.Message)
	}
}

// deliver puts in into the mailbox without waiting. A full mailbox drops the
// event so one slow session never stalls the adapter's dispatch loop.
func (s *subscription) deliver(in dialogue.Interaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- in:
		return true
	default:
		logger.Warn(context.Background(), logger.ComponentGateway, "interaction.overflow",
			slog.String("kind", in.Kind.String()),
			slog.String("user_id", string(in.Actor)),
			slog.String("message_id", in.Message.MessageID),
			slog.Int("mailbox", cap(s.events)),
		)
		return false
	}
}

// end records why the stream stopped and closes it; later calls are no-ops.
// done is closed before taking mu so a blocked deliver can bail out.
func (s *subscription) end(err error) {
	s.endOnce.Do(func() {
		s.err = err
		close(s.done)
		s.mu.Lock()
		close(s.events)
		stopTimer, stopCtx := s.stopTimer, s.stopCtx
		s.mu.Unlock()
		if stopTimer != nil {
			stopTimer()
		}
		if stopCtx != nil {
			stopCtx()
		}
		s.hub.remove(s)
	})
}

func (s *subscription) Events() <-chan dialogue.Interaction { return s.events }

func (s *subscription) Close() { s.end(dialogue.ErrStreamClosed) }

func (s *subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
