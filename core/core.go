// Package core is the façade that ties configuration, the component
// registry, and the event bus into one object a device firmware drives from
// its main loop.
package core

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/c360/devicekit/component"
	"github.com/c360/devicekit/config"
	"github.com/c360/devicekit/eventbus"
	"github.com/c360/devicekit/metric"
)

// Core owns the registry and exposes the handful of operations a host needs:
// add components, bring the system up, tick it, and tear it down.
//
// All methods must be called from the same goroutine; the runtime is
// cooperative and single-threaded end to end.
type Core struct {
	cfg      *config.Config
	registry *component.Registry
	logger   *slog.Logger
	metrics  *metric.Metrics

	started bool
}

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the root logger. Component loggers are derived from it.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches kernel metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Core) {
		c.metrics = m
	}
}

// New creates a Core from a validated configuration. A nil configuration
// gets the defaults.
func New(cfg *config.Config, opts ...Option) *Core {
	if cfg == nil {
		cfg = config.New()
	}
	c := &Core{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	busOpts := []eventbus.Option{
		eventbus.WithCapacity(cfg.QueueCapacity),
		eventbus.WithLogger(c.logger),
	}
	if c.metrics != nil {
		busOpts = append(busOpts, eventbus.WithMetrics(c.metrics))
	}
	regOpts := []component.RegistryOption{
		component.WithLogger(c.logger),
		component.WithBus(eventbus.New(busOpts...)),
		component.WithPollBudget(cfg.PollBudget),
	}
	if c.metrics != nil {
		regOpts = append(regOpts, component.WithMetrics(c.metrics))
	}
	c.registry = component.NewRegistry(regOpts...)
	return c
}

// AddComponent registers a component, feeding it any parameters configured
// under its name. Returns false when registration is rejected.
func (c *Core) AddComponent(comp component.Component) bool {
	return c.registry.Register(comp)
}

// Begin brings the whole system up. A device identity is generated on first
// boot when the configuration carries none. Idempotent on success.
func (c *Core) Begin() component.Status {
	if c.started {
		return component.StatusSuccess
	}

	if c.cfg.DeviceID == "" {
		c.cfg.DeviceID = uuid.NewString()
		c.logger.Info("generated device identity", "device_id", c.cfg.DeviceID)
	}

	c.logger.Info("starting device runtime",
		"device", c.cfg.DeviceName,
		"device_id", c.cfg.DeviceID,
		"components", c.registry.ComponentCount())

	st := c.registry.InitializeAll()
	if !st.OK() {
		c.logger.Error("bring-up failed", "status", st.String())
		return st
	}
	c.started = true
	return component.StatusSuccess
}

// Tick runs one iteration of the host loop.
func (c *Core) Tick() {
	c.registry.LoopAll()
}

// Shutdown tears the system down in reverse bring-up order.
func (c *Core) Shutdown() {
	if !c.started {
		return
	}
	c.registry.ShutdownAll()
	c.started = false
}

// Component returns the registered component with the given name.
func (c *Core) Component(name string) (component.Component, bool) {
	return c.registry.Component(name)
}

// Registry returns the underlying component registry.
func (c *Core) Registry() *component.Registry {
	return c.registry
}

// Bus returns the shared event bus.
func (c *Core) Bus() *eventbus.Bus {
	return c.registry.Bus()
}

// Config returns the active configuration.
func (c *Core) Config() *config.Config {
	return c.cfg
}

// Started reports whether Begin has completed successfully.
func (c *Core) Started() bool {
	return c.started
}

// Publish enqueues an untyped event on the shared bus.
func (c *Core) Publish(topic string, payload any) {
	c.registry.Bus().Publish(topic, payload)
}

// Subscribe installs an untyped handler on the shared bus under the host's
// own owner token. Host subscriptions survive until Unsubscribe or bus reset.
func (c *Core) Subscribe(topic string, handler eventbus.Handler, replayLast bool) uint64 {
	return c.registry.Bus().Subscribe(topic, handler, hostOwner, replayLast)
}

// Unsubscribe removes a subscription made through this Core.
func (c *Core) Unsubscribe(id uint64) {
	c.registry.Bus().Unsubscribe(id)
}

type hostToken string

// hostOwner scopes subscriptions installed directly by the host rather than
// by a component.
const hostOwner = hostToken("core")

// Lookup finds a registered component by name and asserts it to a concrete
// type. The second return is false when the name is unknown or the type does
// not match.
func Lookup[T component.Component](c *Core, name string) (T, bool) {
	var zero T
	comp, ok := c.registry.Component(name)
	if !ok {
		return zero, false
	}
	typed, ok := comp.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// On subscribes a typed handler on the shared bus under the host owner token.
// Payloads that are not a T are dropped.
func On[T any](c *Core, topic string, fn func(T), replayLast bool) uint64 {
	if fn == nil {
		return 0
	}
	return c.registry.Bus().Subscribe(topic, func(payload any) {
		if v, ok := payload.(T); ok {
			fn(v)
			return
		}
		// A nil payload is a signal, not a mismatch: deliver the zero value.
		if payload == nil {
			var zero T
			fn(zero)
		}
	}, hostOwner, replayLast)
}

// Emit publishes a typed payload, optionally retaining it as the topic's
// sticky last value.
func Emit[T any](c *Core, topic string, payload T, sticky bool) {
	if sticky {
		c.registry.Bus().PublishSticky(topic, payload)
		return
	}
	c.registry.Bus().Publish(topic, payload)
}
