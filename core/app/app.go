// Package app wires the dialogue core to one chat platform.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/directorbot/core/collector"
	"github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/dialogue"
	"github.com/m3rciful/directorbot/core/logger"
)

// DefaultDrainTimeout bounds how long Shutdown waits for running sessions.
const DefaultDrainTimeout = 10 * time.Second

// RouteDirector names the trigger route in logs.
const RouteDirector = "director"

// Gateway is the inbound loop of a platform. Run blocks until ctx is done.
type Gateway interface {
	Run(ctx context.Context) error
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context) error

// Run calls f.
func (f GatewayFunc) Run(ctx context.Context) error { return f(ctx) }

// Binding is what a platform contributes: outbound calls and the inbound loop.
type Binding struct {
	Sender  dialogue.Sender
	Gateway Gateway
	// Limits are checked against the catalog before the gateway starts.
	Limits dialogue.Limits
}

// BindFunc connects a platform to the session router and interaction hub.
type BindFunc func(cfg *config.Config, router *dialogue.Router, hub *collector.Hub) (Binding, error)

// Options configure New.
type Options struct {
	Config *config.Config
	// Recorder stores finished sessions; nil disables history.
	Recorder dialogue.Recorder
	// Bind overrides the platform selected by Config.Platform.
	Bind         BindFunc
	DrainTimeout time.Duration
}

// App is a running director bot.
type App struct {
	cfg     *config.Config
	hub     *collector.Hub
	router  *dialogue.Router
	flow    *dialogue.Flow
	gateway Gateway
	drain   time.Duration
}

// New builds the catalog, the hub, the session flow and the platform binding.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("app: nil config provided")
	}
	catalog, err := Catalog(cfg.Dialogue)
	if err != nil {
		return nil, err
	}

	bind := opts.Bind
	if bind == nil {
		if bind, err = Platform(cfg.Platform); err != nil {
			return nil, err
		}
	}

	hub := collector.NewHub(0)
	router := dialogue.NewRouter(dialogue.NewRegistry(cfg.Dialogue.DedupWindow))
	binding, err := bind(cfg, router, hub)
	if err != nil {
		return nil, fmt.Errorf("app: bind %s: %w", cfg.Platform, err)
	}
	if binding.Sender == nil || binding.Gateway == nil {
		return nil, fmt.Errorf("app: platform %s returned an incomplete binding", cfg.Platform)
	}
	if err := catalog.CheckLimits(binding.Limits); err != nil {
		return nil, fmt.Errorf("app: catalog for %s: %w", cfg.Platform, err)
	}

	flow := dialogue.NewFlow(catalog, binding.Sender, hub)
	flow.SelectionTimeout = cfg.Dialogue.SelectionTimeout
	flow.ActionTimeout = cfg.Dialogue.ActionTimeout
	flow.Recorder = opts.Recorder

	router.Handle(dialogue.Route{
		Name:  RouteDirector,
		Match: dialogue.ExactText(cfg.Dialogue.Trigger),
		Start: flow.Run,
	})

	drain := opts.DrainTimeout
	if drain <= 0 {
		drain = DefaultDrainTimeout
	}
	logger.Info(context.Background(), logger.ComponentWire, "app.wire",
		slog.String("platform", cfg.Platform),
		slog.String("trigger", cfg.Dialogue.Trigger),
		slog.Int("options", len(catalog.Options)),
		slog.Int("actions", len(catalog.Actions)),
		slog.Bool("history", opts.Recorder != nil),
	)
	return &App{cfg: cfg, hub: hub, router: router, flow: flow, gateway: binding.Gateway, drain: drain}, nil
}

// Serve runs the gateway until ctx is done or it fails. When it returns, every
// open wait has been ended so sessions can clean up; call Shutdown to wait for them.
func (a *App) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.gateway.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.hub.Close()
		return nil
	})
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Shutdown closes the hub and waits for running sessions, bounded by the drain timeout.
func (a *App) Shutdown(ctx context.Context) error {
	a.hub.Close()
	active := a.router.Active()

	dctx, cancel := context.WithTimeout(ctx, a.drain)
	defer cancel()
	start := time.Now()
	err := a.router.Drain(dctx)
	logger.Info(ctx, logger.ComponentApp, "sessions.drain",
		slog.Int("active", active),
		slog.Int("left", a.router.Active()),
		slog.String("status", logger.Status(err)),
		slog.Duration("took", logger.Took(start)),
	)
	if err != nil {
		return fmt.Errorf("app: drain sessions: %w", err)
	}
	return nil
}

// Router exposes the session router, mostly for gateways built outside New.
func (a *App) Router() *dialogue.Router { return a.router }

// Hub exposes the interaction hub.
func (a *App) Hub() *collector.Hub { return a.hub }

// Catalog builds the dialogue catalog from configuration, falling back to the
// built-in one for an empty list.
func Catalog(cfg config.DialogueConfig) (dialogue.Catalog, error) {
	c := dialogue.DefaultCatalog()
	if len(cfg.Options) > 0 {
		c.Options = make([]dialogue.Option, 0, len(cfg.Options))
		for _, o := range cfg.Options {
			value := o.Value
			if value == "" {
				value = o.Label
			}
			icon := o.Icon
			if icon == "" {
				icon = dialogue.DefaultOptionIcon
			}
			c.Options = append(c.Options, dialogue.Option{Label: o.Label, Value: value, Icon: icon})
		}
	}
	if len(cfg.Actions) > 0 {
		c.Actions = make([]dialogue.Action, 0, len(cfg.Actions))
		for _, a := range cfg.Actions {
			icon := a.Icon
			if icon == "" {
				icon = dialogue.DefaultActionIcon
			}
			c.Actions = append(c.Actions, dialogue.Action{Name: a.Name, Icon: icon})
		}
	}
	if err := c.Validate(); err != nil {
		return dialogue.Catalog{}, fmt.Errorf("app: catalog: %w", err)
	}
	return c, nil
}
