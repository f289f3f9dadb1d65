// Package telegram runs the dialogue on the Telegram Bot API via telebot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/logger"
	tghelpers "github.com/m3rciful/directorbot/core/telegram/helpers"
)

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config *config.Config
	// Bot is used as is when set; otherwise NewBot builds one from Config.
	Bot *tele.Bot

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot *tele.Bot
}

// NewBot builds a bot with the configured poller and HTTP client.
func NewBot(cfg *config.Config) (*tele.Bot, error) {
	if cfg == nil {
		return nil, errors.New("telegram: nil config provided")
	}
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})
	var longPoll time.Duration
	if lp, ok := poller.(*tele.LongPoller); ok {
		longPoll = lp.Timeout
	}

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(longPoll),
		OnError: logHandlerError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logPoller(poller, time.Since(start))
	return bot, nil
}

func logPoller(poller tele.Poller, took time.Duration) {
	ctx := context.Background()
	switch p := poller.(type) {
	case *tele.Webhook:
		logger.Info(ctx, logger.ComponentGateway, "mode",
			slog.String("mode", config.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(took)),
		)
	case *tele.LongPoller:
		logger.Info(ctx, logger.ComponentGateway, "mode",
			slog.String("mode", config.RunModeLongpoll),
			slog.Duration("timeout", p.Timeout),
			slog.Duration("duration", logger.RoundMS(took)),
		)
	}
}

func logHandlerError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Warn(ctx, logger.ComponentGateway, "tg.error",
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}

// RunTelegram composes and runs a Telegram bot until the provided context is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}

	bot := opts.Bot
	if bot == nil {
		var err error
		if bot, err = NewBot(opts.Config); err != nil {
			return err
		}
	}

	if _, polling := bot.Poller.(*tele.LongPoller); polling && !opts.DisableWebhookCleanup &&
		strings.EqualFold(opts.Config.Telegram.RunMode, config.RunModeLongpoll) {
		if err := bot.RemoveWebhook(false); err != nil {
			logger.Warn(ctx, logger.ComponentGateway, "delete_webhook",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		} else {
			logger.Info(ctx, logger.ComponentGateway, "delete_webhook", slog.String("status", "ok"))
		}
	}

	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}

	routes := 0
	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
		routes++
	}
	logger.Info(ctx, logger.ComponentWire, "tg.wire",
		slog.Int("routes", routes),
		slog.Int("middlewares", len(opts.Middlewares)),
	)

	rt := Runtime{Bot: bot}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()
	logger.Info(ctx, logger.ComponentGateway, "gateway.ready", slog.String("platform", config.PlatformTelegram))

	var runErr error
	select {
	case <-ctx.Done():
		stopBot(bot, runDone)
		runErr = ctx.Err()
	case <-runDone:
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// stopBot repeats Stop until Start returns; a Stop issued before the poll loop
// is running is otherwise lost.
func stopBot(bot *tele.Bot, runDone <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		bot.Stop()
		select {
		case <-runDone:
			return
		case <-ticker.C:
		}
	}
}
