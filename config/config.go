// Package config loads and validates the runtime configuration for a device.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/c360/devicekit/errors"
)

// Defaults applied by New and Load when a field is unset.
const (
	DefaultDeviceName    = "devicekit"
	DefaultLogLevel      = "info"
	DefaultQueueCapacity = 32
	DefaultPollBudget    = 8
	DefaultTickInterval  = 10 * time.Millisecond
)

// Config is the complete runtime configuration. The YAML wire shape lives in
// rawConfig (load.go); durations are written as strings there.
type Config struct {
	// Device identity.
	DeviceName string
	// DeviceID uniquely identifies this device instance. Generated at first
	// boot when empty.
	DeviceID string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// QueueCapacity bounds the event bus delivery queue.
	QueueCapacity int
	// PollBudget is the number of queued events drained per tick.
	PollBudget int
	// TickInterval is the period of the host loop.
	TickInterval time.Duration

	// MetricsAddr enables the Prometheus endpoint when non-empty
	// (e.g. ":9090").
	MetricsAddr string

	// Components holds per-component parameter values, keyed by component
	// name then parameter name. Values are raw strings parsed by each
	// component's declared parameter set.
	Components map[string]map[string]string
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DeviceName:    DefaultDeviceName,
		LogLevel:      DefaultLogLevel,
		QueueCapacity: DefaultQueueCapacity,
		PollBudget:    DefaultPollBudget,
		TickInterval:  DefaultTickInterval,
	}
}

// applyDefaults fills unset fields so a sparse file still yields a complete
// configuration.
func (c *Config) applyDefaults() {
	if c.DeviceName == "" {
		c.DeviceName = DefaultDeviceName
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.PollBudget == 0 {
		c.PollBudget = DefaultPollBudget
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
}

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if c == nil {
		return errors.WrapInvalid(
			fmt.Errorf("nil config"),
			"Config", "Validate", "configuration check")
	}
	if c.DeviceName == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate", "device_name must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate",
			fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}
	if c.QueueCapacity < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate", "queue_capacity must be at least 1")
	}
	if c.PollBudget < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate", "poll_budget must be at least 1")
	}
	if c.TickInterval <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate", "tick_interval must be positive")
	}
	return nil
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ComponentParams returns the raw parameter values configured for a
// component, or nil when none are set.
func (c *Config) ComponentParams(name string) map[string]string {
	if c.Components == nil {
		return nil
	}
	return c.Components[name]
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return New()
	}
	clone := *c
	if c.Components != nil {
		clone.Components = make(map[string]map[string]string, len(c.Components))
		for name, params := range c.Components {
			inner := make(map[string]string, len(params))
			for k, v := range params {
				inner[k] = v
			}
			clone.Components[name] = inner
		}
	}
	return &clone
}

// SafeConfig provides thread-safe access to configuration for callers outside
// the host loop's goroutine, such as a metrics or provisioning endpoint.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a thread-safe config wrapper.
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = New()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically replaces the configuration after validation.
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(
			fmt.Errorf("nil config"),
			"SafeConfig", "Update", "configuration replacement")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
