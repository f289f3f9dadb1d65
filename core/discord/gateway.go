package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/logger"
)

// Intents requested on connect. Message content is needed to see the trigger text.
const Intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Dispatcher starts dialogue sessions for trigger messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg dialogue.NewMessage) bool
}

// Collector receives component interactions and message removals.
type Collector interface {
	Dispatch(in dialogue.Interaction) bool
	CloseMessage(ref dialogue.MessageRef)
}

// Gateway feeds Discord gateway events into the dialogue core.
type Gateway struct {
	session *discordgo.Session
	api     API
	router  Dispatcher
	hub     Collector
}

// NewSession creates an unopened bot session.
func NewSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, config.ErrMissingToken
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: session: %w", err)
	}
	s.Identify.Intents = Intents
	return s, nil
}

// NewGateway binds a session to the dialogue router and collector hub.
// api answers interactions nobody waits for; nil means the session itself.
func NewGateway(session *discordgo.Session, api API, router Dispatcher, hub Collector) *Gateway {
	if api == nil && session != nil {
		api = session
	}
	return &Gateway{session: session, api: api, router: router, hub: hub}
}

// Run opens the gateway connection and blocks until ctx is done.
func (g *Gateway) Run(ctx context.Context) error {
	if g.session == nil {
		return errors.New("discord: nil session")
	}
	removers := []func(){
		g.session.AddHandler(g.onReady),
		g.session.AddHandler(g.onMessageCreate),
		g.session.AddHandler(g.onInteractionCreate),
		g.session.AddHandler(g.onMessageDelete),
	}
	defer func() {
		for _, remove := range removers {
			remove()
		}
	}()
	logger.Info(ctx, logger.ComponentWire, "discord.wire", slog.Int("handlers", len(removers)))

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	<-ctx.Done()
	if err := g.session.Close(); err != nil {
		return fmt.Errorf("discord: close gateway: %w", err)
	}
	logger.Info(context.WithoutCancel(ctx), logger.ComponentGateway, "gateway.closed",
		slog.String("platform", config.PlatformDiscord))
	return nil
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	attrs := []slog.Attr{slog.String("platform", config.PlatformDiscord), slog.Int("guilds", len(r.Guilds))}
	if r.User != nil {
		attrs = append(attrs, slog.String("user", r.User.Username))
	}
	logger.Info(context.Background(), logger.ComponentGateway, "gateway.ready", attrs...)
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}
	msg := dialogue.NewMessage{
		ID:        m.ID,
		Author:    dialogue.UserID(m.Author.ID),
		ChannelID: m.ChannelID,
		Body:      m.Content,
		Platform:  config.PlatformDiscord,
	}
	ctx := logger.WithRID(context.Background(), logger.BuildRID(config.PlatformDiscord, m.ChannelID, m.ID))
	ctx = logger.WithActor(ctx, config.PlatformDiscord, m.Author.ID, m.ChannelID)
	g.router.Dispatch(ctx, msg)
}

func (g *Gateway) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return
	}
	in, ok := interactionFrom(i.Interaction)
	if ok && g.hub.Dispatch(in) {
		return
	}

	ctx := logger.WithActor(context.Background(), config.PlatformDiscord, string(in.Actor), in.Message.ChannelID)
	err := g.api.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
	logger.Debug(ctx, logger.ComponentGateway, "interaction.ack",
		slog.String("status", logger.Status(err)),
		slog.Bool("dialogue", ok),
	)
}

func (g *Gateway) onMessageDelete(_ *discordgo.Session, m *discordgo.MessageDelete) {
	if m == nil || m.Message == nil {
		return
	}
	g.hub.CloseMessage(dialogue.MessageRef{ChannelID: m.ChannelID, MessageID: m.ID})
}

// interactionFrom converts a component interaction. ok is false for components
// the dialogue did not render.
func interactionFrom(i *discordgo.Interaction) (dialogue.Interaction, bool) {
	in := dialogue.Interaction{ID: i.ID, Handle: i}
	switch {
	case i.Member != nil && i.Member.User != nil:
		in.Actor = dialogue.UserID(i.Member.User.ID)
	case i.User != nil:
		in.Actor = dialogue.UserID(i.User.ID)
	}
	if i.Message != nil {
		in.Message = dialogue.MessageRef{ChannelID: i.Message.ChannelID, MessageID: i.Message.ID}
	}
	if i.Type != discordgo.InteractionMessageComponent || in.Actor == "" || in.Message.IsZero() {
		return in, false
	}
	kind, payload, ok := parseComponent(i.MessageComponentData())
	if !ok {
		return in, false
	}
	in.Kind = kind
	in.Payload = payload
	return in, true
}
