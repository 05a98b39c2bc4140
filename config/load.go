package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/devicekit/errors"
)

// Environment variable overrides, applied after the file is read. A variable
// that is set but empty still overrides, so operators can blank a field.
const (
	envDeviceName    = "DEVICEKIT_DEVICE_NAME"
	envDeviceID      = "DEVICEKIT_DEVICE_ID"
	envLogLevel      = "DEVICEKIT_LOG_LEVEL"
	envQueueCapacity = "DEVICEKIT_QUEUE_CAPACITY"
	envPollBudget    = "DEVICEKIT_POLL_BUDGET"
	envTickInterval  = "DEVICEKIT_TICK_INTERVAL"
	envMetricsAddr   = "DEVICEKIT_METRICS_ADDR"
)

// Load reads a YAML configuration file, applies environment overrides and
// defaults, and validates the result. An empty path yields the default
// configuration with only environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapInvalid(errors.ErrConfigNotFound,
					"Config", "Load",
					fmt.Sprintf("reading %s", path))
			}
			return nil, errors.WrapFatal(err, "Config", "Load",
				fmt.Sprintf("reading %s", path))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load",
				fmt.Sprintf("parsing %s", path))
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML. Used to persist a generated device
// identity back to disk at first boot.
func Save(cfg *Config, path string) error {
	if cfg == nil {
		return errors.WrapInvalid(
			fmt.Errorf("nil config"),
			"Config", "Save", "serialization")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapFatal(err, "Config", "Save", "serialization")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapFatal(err, "Config", "Save",
			fmt.Sprintf("writing %s", path))
	}
	return nil
}

// rawConfig is the YAML shape of Config. Durations travel as strings
// ("25ms", "1s") because yaml.v3 has no native time.Duration support.
type rawConfig struct {
	DeviceName    string                       `yaml:"device_name"`
	DeviceID      string                       `yaml:"device_id,omitempty"`
	LogLevel      string                       `yaml:"log_level"`
	QueueCapacity int                          `yaml:"queue_capacity"`
	PollBudget    int                          `yaml:"poll_budget"`
	TickInterval  string                       `yaml:"tick_interval"`
	MetricsAddr   string                       `yaml:"metrics_addr,omitempty"`
	Components    map[string]map[string]string `yaml:"components,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.DeviceName = raw.DeviceName
	c.DeviceID = raw.DeviceID
	c.LogLevel = raw.LogLevel
	c.QueueCapacity = raw.QueueCapacity
	c.PollBudget = raw.PollBudget
	c.MetricsAddr = raw.MetricsAddr
	c.Components = raw.Components

	if raw.TickInterval != "" {
		d, err := time.ParseDuration(raw.TickInterval)
		if err != nil {
			return fmt.Errorf("tick_interval: %w", err)
		}
		c.TickInterval = d
	} else {
		c.TickInterval = 0
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c *Config) MarshalYAML() (any, error) {
	raw := rawConfig{
		DeviceName:    c.DeviceName,
		DeviceID:      c.DeviceID,
		LogLevel:      c.LogLevel,
		QueueCapacity: c.QueueCapacity,
		PollBudget:    c.PollBudget,
		MetricsAddr:   c.MetricsAddr,
		Components:    c.Components,
	}
	if c.TickInterval != 0 {
		raw.TickInterval = c.TickInterval.String()
	}
	return raw, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(envDeviceName); ok {
		cfg.DeviceName = v
	}
	if v, ok := os.LookupEnv(envDeviceID); ok {
		cfg.DeviceID = v
	}
	if v, ok := os.LookupEnv(envLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := os.LookupEnv(envQueueCapacity); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.WrapInvalid(err, "Config", "Load",
				fmt.Sprintf("parsing %s", envQueueCapacity))
		}
		cfg.QueueCapacity = n
	}
	if v, ok := os.LookupEnv(envPollBudget); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.WrapInvalid(err, "Config", "Load",
				fmt.Sprintf("parsing %s", envPollBudget))
		}
		cfg.PollBudget = n
	}
	if v, ok := os.LookupEnv(envTickInterval); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.WrapInvalid(err, "Config", "Load",
				fmt.Sprintf("parsing %s", envTickInterval))
		}
		cfg.TickInterval = d
	}
	return nil
}
