package engine

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all engine settings.
type Config struct {
	// Logging configures the zap logger built by the CLI.
	Logging LoggingConfig `yaml:"logging"`

	// Loop configures the frame loop and script dispatch.
	Loop LoopConfig `yaml:"loop"`

	// Input configures mouse handling and key mappings.
	Input InputConfig `yaml:"input"`

	// Window is the size of the play window, also used as the mouse
	// reference for relative cursor mode.
	Window WindowConfig `yaml:"window"`

	// Remote configures the websocket control endpoint.
	Remote RemoteConfig `yaml:"remote"`
}

// LoggingConfig selects the log level and encoding.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format"`
}

// LoopConfig configures the frame loop.
type LoopConfig struct {
	// TickRate is the number of frames per second of the headless loop.
	TickRate int `yaml:"tick_rate"`
	// MaxFaults detaches a script after this many consecutive faulted
	// frames. Zero keeps faulting scripts attached.
	MaxFaults int `yaml:"max_faults"`
}

// Interval returns the frame period for TickRate.
func (c LoopConfig) Interval() time.Duration {
	if c.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.TickRate)
}

// InputConfig configures the input manager.
type InputConfig struct {
	// MouseSensitivity scales the per-frame cursor offset in relative mode.
	MouseSensitivity float32 `yaml:"mouse_sensitivity"`
	// MouseYLimit clamps the accumulated "Mouse Y" axis to +/- this value.
	MouseYLimit float32 `yaml:"mouse_y_limit"`
	// Keys overrides or extends the named key mappings.
	Keys map[string][]string `yaml:"keys,omitempty"`
}

// WindowConfig is the window size in pixels.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// RemoteConfig configures the websocket endpoint.
type RemoteConfig struct {
	// Listen is the address to serve on; empty disables the endpoint.
	Listen string `yaml:"listen"`
	// TelemetryInterval is the period of stats pushes to clients.
	TelemetryInterval time.Duration `yaml:"telemetry_interval"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Loop: LoopConfig{
			TickRate:  60,
			MaxFaults: 0,
		},
		Input: InputConfig{
			MouseSensitivity: 80,
			MouseYLimit:      75,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "Wiesel",
		},
		Remote: RemoteConfig{
			TelemetryInterval: time.Second,
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults and
// applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(config)
	return config, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (valid: console, json)", c.Logging.Format)
	}
	if c.Loop.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %d", c.Loop.TickRate)
	}
	if c.Loop.MaxFaults < 0 {
		return fmt.Errorf("max_faults must be non-negative, got %d", c.Loop.MaxFaults)
	}
	if c.Input.MouseSensitivity <= 0 {
		return fmt.Errorf("mouse_sensitivity must be positive, got %g", c.Input.MouseSensitivity)
	}
	if c.Input.MouseYLimit < 0 {
		return fmt.Errorf("mouse_y_limit must be non-negative, got %g", c.Input.MouseYLimit)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	for name, keys := range c.Input.Keys {
		if len(keys) == 0 {
			return fmt.Errorf("key mapping %q is empty", name)
		}
	}
	if c.Remote.Listen != "" && c.Remote.TelemetryInterval <= 0 {
		return fmt.Errorf("telemetry_interval must be positive, got %v", c.Remote.TelemetryInterval)
	}
	return nil
}

// applyEnvOverrides applies WIESEL_* environment variables to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("WIESEL_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("WIESEL_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
	if v := os.Getenv("WIESEL_REMOTE_LISTEN"); v != "" {
		config.Remote.Listen = v
	}
	if v := os.Getenv("WIESEL_TICK_RATE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil {
			config.Loop.TickRate = rate
		}
	}
	if v := os.Getenv("WIESEL_MAX_FAULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Loop.MaxFaults = n
		}
	}
}
