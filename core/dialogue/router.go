package dialogue

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/m3rciful/directorbot/core/logger"
)

// TriggerFunc decides whether a message starts a route.
type TriggerFunc func(NewMessage) bool

// StartFunc runs the session started by a matching message.
type StartFunc func(ctx context.Context, msg NewMessage) error

// Route binds a trigger to a session starter.
type Route struct {
	Name  string
	Match TriggerFunc
	Start StartFunc
}

// ExactText matches bodies equal to trigger, byte for byte.
func ExactText(trigger string) TriggerFunc {
	return func(msg NewMessage) bool {
		return msg.Body == trigger
	}
}

// Router starts a session per qualifying message, each in its own goroutine.
type Router struct {
	registry *Registry
	routes   []Route

	wg     sync.WaitGroup
	active atomic.Int64
}

// NewRouter returns a router using registry for de-duplication; nil gets a default registry.
func NewRouter(registry *Registry, routes ...Route) *Router {
	if registry == nil {
		registry = NewRegistry(DefaultDedupWindow)
	}
	return &Router{registry: registry, routes: routes}
}

// Handle appends a route. Routes are tried in registration order.
func (r *Router) Handle(route Route) {
	r.routes = append(r.routes, route)
	logger.WIRE.Info("route registered",
		slog.String("event", "register.route"),
		slog.String("handler", route.Name),
	)
}

// Dispatch starts the first matching route and reports whether msg matched.
// Non-matching messages cause no side effects; re-delivered triggers match
// but start nothing. The session outlives ctx cancellation so that it can
// still clean up its message.
func (r *Router) Dispatch(ctx context.Context, msg NewMessage) bool {
	for _, route := range r.routes {
		if route.Match == nil || route.Start == nil || !route.Match(msg) {
			continue
		}
		key := Key(msg)
		sctx := logger.WithHandler(context.WithoutCancel(ctx), route.Name)
		if !r.registry.Claim(key) {
			logger.Debug(sctx, logger.ComponentDialogue, "session.duplicate",
				slog.String("message_id", msg.ID),
			)
			return true
		}

		r.wg.Add(1)
		r.active.Add(1)
		go func(route Route) {
			defer r.wg.Done()
			defer r.active.Add(-1)
			defer r.registry.Release(key)
			if err := route.Start(sctx, msg); err != nil {
				logger.Error(sctx, logger.ComponentDialogue, "session.failed",
					slog.String("message_id", msg.ID),
					slog.String("err", err.Error()),
				)
			}
		}(route)
		return true
	}
	return false
}

// Active reports how many sessions are running.
func (r *Router) Active() int {
	return int(r.active.Load())
}

// Wait blocks until every started session returned.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Drain waits for running sessions or until ctx ends, whichever is first.
func (r *Router) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
