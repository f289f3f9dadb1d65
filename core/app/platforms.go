package app

import (
	"context"
	"fmt"

	"github.com/m3rciful/directorbot/core/collector"
	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/discord"
	"github.com/m3rciful/directorbot/core/slack"
	"github.com/m3rciful/directorbot/core/telegram"
	"github.com/m3rciful/directorbot/core/telegram/keyboard"
	tgrouter "github.com/m3rciful/directorbot/core/telegram/router"
	tgsender "github.com/m3rciful/directorbot/core/telegram/sender"
)

// Platform returns the binding for a configured platform name.
func Platform(name string) (BindFunc, error) {
	switch name {
	case config.PlatformDiscord, "":
		return BindDiscord, nil
	case config.PlatformTelegram:
		return BindTelegram, nil
	case config.PlatformSlack:
		return BindSlack, nil
	default:
		return nil, fmt.Errorf("app: unknown platform %q", name)
	}
}

// BindDiscord connects over the Discord gateway.
func BindDiscord(cfg *config.Config, router *dialogue.Router, hub *collector.Hub) (Binding, error) {
	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		return Binding{}, err
	}
	return Binding{
		Sender:  discord.NewSender(session),
		Gateway: discord.NewGateway(session, nil, router, hub),
		Limits:  discord.Limits,
	}, nil
}

// BindTelegram connects through the Bot API poller or webhook.
func BindTelegram(cfg *config.Config, router *dialogue.Router, hub *collector.Hub) (Binding, error) {
	bot, err := telegram.NewBot(cfg)
	if err != nil {
		return Binding{}, err
	}
	routes := append(tgrouter.TextRoutes(router), tgrouter.CallbackRoute(hub))
	opts := telegram.RunOptions{
		Config:      cfg,
		Bot:         bot,
		Middlewares: telegram.DefaultMiddlewares(),
		Routes:      routes,
	}
	return Binding{
		Sender: tgsender.New(bot),
		Gateway: GatewayFunc(func(ctx context.Context) error {
			return telegram.RunTelegram(ctx, opts)
		}),
		Limits: keyboard.Limits,
	}, nil
}

// BindSlack connects over Socket Mode.
func BindSlack(cfg *config.Config, router *dialogue.Router, hub *collector.Hub) (Binding, error) {
	client, err := slack.NewClient(cfg.Slack)
	if err != nil {
		return Binding{}, err
	}
	return Binding{
		Sender:  slack.NewSender(client),
		Gateway: slack.NewGateway(client, router, hub),
		Limits:  slack.Limits,
	}, nil
}
