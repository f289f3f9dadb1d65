package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	slacklib "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/logger"
)

const subtypeMessageDeleted = "message_deleted"

// Dispatcher starts dialogue sessions for trigger messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg dialogue.NewMessage) bool
}

// Collector receives block actions and message removals.
type Collector interface {
	Dispatch(in dialogue.Interaction) bool
	CloseMessage(ref dialogue.MessageRef)
}

// Gateway feeds Socket Mode events into the dialogue core.
type Gateway struct {
	socket *socketmode.Client
	router Dispatcher
	hub    Collector
	ack    func(socketmode.Request)
}

// NewClient builds a web client able to open a Socket Mode connection.
func NewClient(cfg config.SlackConfig) (*slacklib.Client, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, config.ErrMissingToken
	}
	return slacklib.New(cfg.BotToken, slacklib.OptionAppLevelToken(cfg.AppToken)), nil
}

// NewGateway wraps client in a Socket Mode connection bound to the router and hub.
func NewGateway(client *slacklib.Client, router Dispatcher, hub Collector) *Gateway {
	g := &Gateway{router: router, hub: hub}
	if client != nil {
		g.socket = socketmode.New(client)
		g.ack = func(req socketmode.Request) { g.socket.Ack(req) }
	}
	return g
}

// Run connects and processes events until ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	if g.socket == nil {
		return errors.New("slack: nil client")
	}
	logger.Info(ctx, logger.ComponentWire, "slack.wire", slog.String("mode", "socket"))

	go g.handleEvents(ctx)
	err := g.socket.RunContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("slack: socket mode: %w", err)
	}
	logger.Info(context.WithoutCancel(ctx), logger.ComponentGateway, "gateway.closed",
		slog.String("platform", config.PlatformSlack))
	return nil
}

func (g *Gateway) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-g.socket.Events:
			if !ok {
				return
			}
			g.handle(ctx, evt)
		}
	}
}

func (g *Gateway) handle(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnected:
		logger.Info(ctx, logger.ComponentGateway, "gateway.ready", slog.String("platform", config.PlatformSlack))
	case socketmode.EventTypeEventsAPI:
		g.acknowledge(evt)
		g.handleEventsAPI(evt)
	case socketmode.EventTypeInteractive:
		g.acknowledge(evt)
		g.handleInteraction(evt)
	default:
		g.acknowledge(evt)
	}
}

func (g *Gateway) acknowledge(evt socketmode.Event) {
	if evt.Request == nil || g.ack == nil {
		return
	}
	g.ack(*evt.Request)
}

func (g *Gateway) handleEventsAPI(evt socketmode.Event) {
	payload, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}
	ev, ok := payload.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	if ev.SubType == subtypeMessageDeleted {
		if ts := deletedTimestamp(payload); ts != "" {
			g.hub.CloseMessage(dialogue.MessageRef{ChannelID: ev.Channel, MessageID: ts})
		}
		return
	}
	if ev.BotID != "" || ev.SubType != "" || ev.User == "" {
		return
	}
	msg := dialogue.NewMessage{
		ID:        ev.TimeStamp,
		Author:    dialogue.UserID(ev.User),
		ChannelID: ev.Channel,
		Body:      ev.Text,
		Platform:  config.PlatformSlack,
	}
	ctx := logger.WithRID(context.Background(), logger.BuildRID(config.PlatformSlack, ev.Channel, ev.TimeStamp))
	ctx = logger.WithActor(ctx, config.PlatformSlack, ev.User, ev.Channel)
	g.router.Dispatch(ctx, msg)
}

func (g *Gateway) handleInteraction(evt socketmode.Event) {
	cb, ok := evt.Data.(slacklib.InteractionCallback)
	if !ok || cb.Type != slacklib.InteractionTypeBlockActions {
		return
	}
	for _, in := range interactionsFrom(&cb) {
		claimed := g.hub.Dispatch(in)
		logger.Debug(context.Background(), logger.ComponentGateway, "interaction.ack",
			slog.String("platform", config.PlatformSlack),
			slog.Bool("dialogue", claimed),
		)
	}
}

// interactionsFrom converts the block actions of cb the dialogue rendered.
func interactionsFrom(cb *slacklib.InteractionCallback) []dialogue.Interaction {
	ref := dialogue.MessageRef{ChannelID: cb.Container.ChannelID, MessageID: cb.Container.MessageTs}
	if ref.IsZero() {
		ref = dialogue.MessageRef{ChannelID: cb.Channel.ID, MessageID: cb.Message.Timestamp}
	}
	if cb.User.ID == "" || ref.IsZero() {
		return nil
	}
	var out []dialogue.Interaction
	for _, action := range cb.ActionCallback.BlockActions {
		kind, payload, ok := parseAction(action)
		if !ok {
			continue
		}
		out = append(out, dialogue.Interaction{
			ID:      cb.TriggerID,
			Kind:    kind,
			Actor:   dialogue.UserID(cb.User.ID),
			Message: ref,
			Payload: payload,
			Handle:  cb,
		})
	}
	return out
}

// deletedTimestamp reads deleted_ts, which the typed message event omits.
func deletedTimestamp(payload slackevents.EventsAPIEvent) string {
	var raw *json.RawMessage
	switch cb := payload.Data.(type) {
	case *slackevents.EventsAPICallbackEvent:
		raw = cb.InnerEvent
	case slackevents.EventsAPICallbackEvent:
		raw = cb.InnerEvent
	}
	if raw == nil {
		return ""
	}
	var deleted struct {
		DeletedTS string `json:"deleted_ts"`
	}
	if err := json.Unmarshal(*raw, &deleted); err != nil {
		return ""
	}
	return deleted.DeletedTS
}
