// Package cmd runs a bot process: configuration, bootstrap, serve and shutdown.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/directorbot/core/config"
	"github.com/m3rciful/directorbot/core/logger"
)

// DefaultShutdownTimeout bounds App.Shutdown after the serve loop returned.
const DefaultShutdownTimeout = 15 * time.Second

// App is the minimal interface required to run a bot.
// An App that also implements io.Closer is closed last.
type App interface {
	Serve(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Options describe how to load configuration, bootstrap the app, and run it.
type Options struct {
	// ConfigPath wins over ConfigEnvVar and DefaultConfigPath when set.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(cfg *coreconfig.Config) (App, error)

	// Context is the parent of the signal context; nil means context.Background.
	Context         context.Context
	ShutdownTimeout time.Duration
	ShutdownLogger  func() error
}

// ResolveConfigPath picks the config file: explicit path, then the env var, then the default.
// An empty result means configuration comes from the environment alone.
func ResolveConfigPath(opts Options) string {
	if opts.ConfigPath != "" {
		return opts.ConfigPath
	}
	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	if p := os.Getenv(env); p != "" {
		return p
	}
	return opts.DefaultConfigPath
}

// Run loads configuration, bootstraps the app, and serves until SIGINT or SIGTERM.
func Run(opts Options) error {
	if opts.Bootstrap == nil {
		return fmt.Errorf("cmd: Bootstrap is required")
	}
	load := opts.LoadConfig
	if load == nil {
		load = coreconfig.Load
	}

	cfgPath := ResolveConfigPath(opts)
	if cfgPath != "" {
		log.Printf("loading config: %s", cfgPath)
	} else {
		log.Printf("loading config from environment")
	}
	cfg, err := load(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	startedAt := time.Now()
	application, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.L.With("component", logger.ComponentApp).Info("app ready",
		slog.String("event", "ready"),
		slog.String("platform", cfg.Platform),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)
	serveErr := application.Serve(ctx)

	logger.L.With("component", logger.ComponentApp).Info("shutting down...",
		slog.String("event", "shutdown"),
		slog.String("status", logger.Status(serveErr)),
	)
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer scancel()
	stopErr := application.Shutdown(sctx)

	var closeErr error
	if c, ok := application.(io.Closer); ok {
		closeErr = c.Close()
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return errors.Join(stopErr, closeErr)
}
