// Package dialogue implements the select-then-act conversation: a direct
// message with a menu, a row of action buttons once something is chosen, and
// teardown of the buttons when the action window ends.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/directorbot/core/logger"
	"github.com/m3rciful/directorbot/core/sender"
)

// DefaultTimeout bounds each waiting phase.
const DefaultTimeout = 180 * time.Second

const recordTimeout = 5 * time.Second

// Flow runs sessions. It is safe for concurrent use; sessions share nothing but
// the collaborators.
type Flow struct {
	Catalog Catalog

	SelectionText string
	Placeholder   string
	TimeoutText   string

	SelectionTimeout time.Duration
	ActionTimeout    time.Duration

	Sender   Sender
	Events   EventSource
	Recorder Recorder

	// Now is the clock used for session records; nil means time.Now.
	Now func() time.Time
}

// NewFlow returns a Flow with the default texts and timeouts.
func NewFlow(catalog Catalog, s Sender, events EventSource) *Flow {
	return &Flow{
		Catalog:          catalog,
		SelectionText:    DefaultSelectionText,
		Placeholder:      DefaultPlaceholder,
		TimeoutText:      DefaultTimeoutText,
		SelectionTimeout: DefaultTimeout,
		ActionTimeout:    DefaultTimeout,
		Sender:           s,
		Events:           events,
	}
}

// Run drives one session for msg to completion. Timeouts and stream closure
// are normal endings and return nil; a failed outbound call returns a
// *DeliveryError and skips the rest of the lifecycle.
func (f *Flow) Run(ctx context.Context, msg NewMessage) error {
	if f.Sender == nil || f.Events == nil {
		return errors.New("dialogue: flow is missing its sender or event source")
	}
	s := newSession(msg, f.now())
	ctx = logger.WithSession(ctx, s.ID())
	logger.Info(ctx, logger.ComponentDialogue, "session.start",
		slog.String("message_id", msg.ID),
	)

	outcome, err := f.run(ctx, s)
	s.close(outcome, err, f.now())
	f.finish(ctx, s, err)
	return err
}

func (f *Flow) run(ctx context.Context, s *Session) (Outcome, error) {
	prompt, err := BuildSelectionPrompt(f.text(f.SelectionText, DefaultSelectionText), f.text(f.Placeholder, DefaultPlaceholder), f.Catalog.Options)
	if err != nil {
		return OutcomeAborted, err
	}
	origin, err := f.Sender.SendDirect(ctx, s.owner, prompt)
	if err != nil {
		return OutcomeAborted, asDelivery("send_direct", err)
	}
	if err := s.awaitSelection(origin); err != nil {
		return OutcomeAborted, err
	}

	timeout := positive(f.SelectionTimeout)
	ev, err := f.Events.Await(ctx, Filter{Message: origin, Actor: s.owner, Kind: KindSelection}, timeout)
	switch {
	case errors.Is(err, ErrWaitTimeout):
		logger.Info(ctx, logger.ComponentDialogue, "session.timeout",
			slog.String("phase", PhaseAwaitingSelection.String()),
			slog.Duration("timeout", timeout),
		)
		if err := f.Sender.Reply(ctx, origin, f.text(f.TimeoutText, DefaultTimeoutText)); err != nil {
			return OutcomeAborted, asDelivery("reply", err)
		}
		return OutcomeTimeout, nil
	case errors.Is(err, ErrStreamClosed):
		return OutcomeClosed, nil
	case err != nil:
		return OutcomeCancelled, fmt.Errorf("dialogue: await selection: %w", err)
	}

	if err := s.selectValue(ev.Payload); err != nil {
		return OutcomeAborted, err
	}
	logger.Info(ctx, logger.ComponentDialogue, "session.selected",
		slog.String("selected", logger.SanitizeLimit(ev.Payload, 64)),
	)
	update := Response{Kind: ResponseUpdateOrigin, Prompt: BuildActionPrompt(ev.Payload, f.Catalog.Actions)}
	if err := f.Sender.Respond(ctx, ev, update); err != nil {
		return OutcomeAborted, asDelivery("update_origin", err)
	}

	return f.collectActions(ctx, s)
}

// collectActions replies to button presses until the window ends, then removes the buttons.
func (f *Flow) collectActions(ctx context.Context, s *Session) (Outcome, error) {
	sub := f.Events.Subscribe(ctx, Filter{Message: s.origin, Actor: s.owner, Kind: KindButtonPress}, positive(f.ActionTimeout))
	defer sub.Close()

	replies := sender.NewQueue(sender.Options{QueueSize: 16})
	selected := s.Selected()

	outcome := OutcomeCompleted
loop:
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				if errors.Is(sub.Err(), ErrStreamClosed) {
					outcome = OutcomeClosed
				}
				break loop
			}
			if err := s.acceptAction(); err != nil {
				_ = replies.Close()
				return OutcomeAborted, err
			}
			logger.Debug(ctx, logger.ComponentDialogue, "session.action",
				slog.String("action", logger.SanitizeLimit(ev.Payload, 64)),
			)
			reply := Response{Kind: ResponseNewReply, Prompt: Prompt{Text: ActionReply(selected, ev.Payload)}, Ephemeral: true}
			err := replies.Enqueue(ctx, "respond", func(ctx context.Context) error {
				return f.Sender.Respond(ctx, ev, reply)
			})
			if err != nil {
				_ = replies.Close()
				return OutcomeAborted, asDelivery("respond", err)
			}
		case <-replies.Failed():
			_ = replies.Close()
			return OutcomeAborted, asDelivery("respond", replies.Err())
		case <-ctx.Done():
			outcome = OutcomeCancelled
			break loop
		}
	}

	if err := replies.Close(); err != nil {
		return OutcomeAborted, asDelivery("respond", err)
	}
	if !s.claimDelete() {
		return outcome, nil
	}
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := f.Sender.Delete(delCtx, s.origin); err != nil {
		return OutcomeAborted, asDelivery("delete", err)
	}
	return outcome, nil
}

func (f *Flow) finish(ctx context.Context, s *Session, err error) {
	rec := s.Record()
	attrs := []slog.Attr{
		slog.String("outcome", string(rec.Outcome)),
		slog.Int("actions", rec.Actions),
		slog.Duration("duration", rec.EndedAt.Sub(rec.StartedAt)),
	}
	if err != nil {
		var de *DeliveryError
		if errors.As(err, &de) {
			attrs = append(attrs, slog.String("op", de.Op))
		}
		logger.Warn(ctx, logger.ComponentDialogue, "session.abort",
			append(attrs, slog.String("err", err.Error()))...)
	} else {
		logger.Info(ctx, logger.ComponentDialogue, "session.closed", attrs...)
	}

	if f.Recorder == nil {
		return
	}
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if rerr := f.Recorder.Record(recCtx, rec); rerr != nil {
		logger.Warn(ctx, logger.ComponentStore, "session.record",
			slog.String("status", "fail"),
			slog.String("err", rerr.Error()),
		)
	}
}

func (f *Flow) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Flow) text(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func positive(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
