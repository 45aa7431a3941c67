// Package config loads the daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/version"
)

// ErrInvalidConfig indicates a configuration that failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// PortPlaceholder in server args is replaced with the chosen port.
const PortPlaceholder = "{port}"

// Config is the complete daemon configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Client   Client   `yaml:"client"`
	Hotplug  Hotplug  `yaml:"hotplug"`
	Recovery Recovery `yaml:"recovery"`
	Effect   Effect   `yaml:"effect"`
	Presets  []Preset `yaml:"presets,omitempty"`

	// UdevRules is the rules file listing compatible USB devices.
	UdevRules string `yaml:"udev_rules"`

	LogLevel string `yaml:"log_level"`

	// ProtocolLog, when set, captures protocol events to this file.
	ProtocolLog string `yaml:"protocol_log,omitempty"`
}

// Server configures the lighting server subprocess.
type Server struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
	Host string   `yaml:"host"`

	// Address attaches to an already running server instead of
	// launching one.
	Address string `yaml:"address,omitempty"`

	StartTimeout     time.Duration `yaml:"start_timeout"`
	StopGrace        time.Duration `yaml:"stop_grace"`
	TerminateTimeout time.Duration `yaml:"terminate_timeout"`
}

// Client configures the protocol session.
type Client struct {
	Name               string        `yaml:"name"`
	MaxProtocolVersion uint32        `yaml:"max_protocol_version"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	DialTimeout        time.Duration `yaml:"dial_timeout"`
}

// Hotplug configures USB change detection.
type Hotplug struct {
	Enabled  bool          `yaml:"enabled"`
	WatchDir string        `yaml:"watch_dir"`
	SysfsDir string        `yaml:"sysfs_dir"`
	Debounce time.Duration `yaml:"debounce"`
}

// Recovery configures automatic reconnection after the server is lost.
type Recovery struct {
	Enabled        bool          `yaml:"enabled"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	MaxAttempts    int           `yaml:"max_attempts"`
}

// Effect is the effect applied at startup.
type Effect struct {
	Name       string `yaml:"name"`
	Brightness string `yaml:"brightness"`
	Color      string `yaml:"color"`
}

// Preset registers a built-in effect under a new name with a fixed color.
type Preset struct {
	Name  string `yaml:"name"`
	Base  string `yaml:"base"`
	Color string `yaml:"color"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Server: Server{
			Path:             "/usr/bin/openrgb",
			Args:             []string{"--server", "--server-host", "127.0.0.1", "--server-port", PortPlaceholder},
			Host:             "127.0.0.1",
			StartTimeout:     20 * time.Second,
			StopGrace:        500 * time.Millisecond,
			TerminateTimeout: 5 * time.Second,
		},
		Client: Client{
			Name:               "rgbd",
			MaxProtocolVersion: version.DefaultMax,
			RequestTimeout:     10 * time.Second,
			HandshakeTimeout:   time.Second,
			DialTimeout:        2 * time.Second,
		},
		Hotplug: Hotplug{
			Enabled:  true,
			WatchDir: "/dev/bus/usb",
			SysfsDir: "/sys/bus/usb/devices",
			Debounce: 500 * time.Millisecond,
		},
		Recovery: Recovery{
			Enabled:        true,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
		},
		Effect: Effect{
			Name:       "Static",
			Brightness: "MEDIUM",
			Color:      "#FF0000",
		},
		UdevRules: "/usr/lib/udev/rules.d/60-openrgb.rules",
		LogLevel:  "info",
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks field ranges and formats.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Server.Address == "" {
		if c.Server.Path == "" {
			add("server.path is required unless server.address is set")
		}
		if !containsPlaceholder(c.Server.Args) {
			add("server.args must contain %s", PortPlaceholder)
		}
	}
	if c.Server.StartTimeout <= 0 {
		add("server.start_timeout must be positive")
	}
	if c.Server.StopGrace < 0 || c.Server.TerminateTimeout < 0 {
		add("server stop durations must not be negative")
	}
	if c.Client.Name == "" {
		add("client.name is required")
	}
	if c.Client.RequestTimeout <= 0 {
		add("client.request_timeout must be positive")
	}
	if c.Recovery.Enabled && c.Recovery.MaxBackoff < c.Recovery.InitialBackoff {
		add("recovery.max_backoff is below recovery.initial_backoff")
	}
	if c.Recovery.MaxAttempts < 0 {
		add("recovery.max_attempts must not be negative")
	}
	if _, err := color.ParseBrightness(c.Effect.Brightness); err != nil {
		add("effect.brightness: %v", err)
	}
	if c.Effect.Color != "" {
		if _, err := color.ParseHex(c.Effect.Color); err != nil {
			add("effect.color: %v", err)
		}
	}

	seen := make(map[string]bool)
	for i, p := range c.Presets {
		switch {
		case p.Name == "":
			add("presets[%d].name is required", i)
		case seen[p.Name]:
			add("presets[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.Base == "" {
			add("presets[%d].base is required", i)
		}
		if _, err := color.ParseHex(p.Color); err != nil {
			add("presets[%d].color: %v", i, err)
		}
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ServerArgs returns the server arguments with the port substituted.
func (c Config) ServerArgs(port int) []string {
	out := make([]string, len(c.Server.Args))
	for i, a := range c.Server.Args {
		out[i] = strings.ReplaceAll(a, PortPlaceholder, fmt.Sprint(port))
	}
	return out
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
}

func containsPlaceholder(args []string) bool {
	for _, a := range args {
		if strings.Contains(a, PortPlaceholder) {
			return true
		}
	}
	return false
}
