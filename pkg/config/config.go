package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Sampler   SamplerConfig   `yaml:"sampler"`
	Tolerance ToleranceConfig `yaml:"tolerance"`
	Log       LogConfig       `yaml:"log"`
	Data      DataConfig      `yaml:"data"`
	Server    ServerConfig    `yaml:"server"`
	Plots     PlotsConfig     `yaml:"plots"`
}

// SimConfig holds settings for the simulation connection.
type SimConfig struct {
	Provider string        `yaml:"provider"` // "xpc", "mock"
	XPC      XPCConfig     `yaml:"xpc"`
	Mock     MockSimConfig `yaml:"mock"`
}

// XPCConfig addresses the X-Plane Connect plugin.
type XPCConfig struct {
	Host    string   `yaml:"host"`
	Port    int      `yaml:"port"`
	Timeout Duration `yaml:"timeout"`
}

// MockSimConfig holds settings for the mock simulation.
type MockSimConfig struct {
	StartLat      float64 `yaml:"start_lat"`
	StartLon      float64 `yaml:"start_lon"`
	StartAlt      float64 `yaml:"start_alt"` // feet
	StartHeading  float64 `yaml:"start_heading"`
	StartAirspeed float64 `yaml:"start_airspeed"`
}

// SamplerConfig controls the telemetry polling loop.
type SamplerConfig struct {
	Interval    Duration `yaml:"interval"`
	Capacity    int      `yaml:"capacity"`
	ReadTimeout Duration `yaml:"read_timeout"`
	StopGrace   Duration `yaml:"stop_grace"`
}

// ToleranceConfig holds the maneuver error bands.
type ToleranceConfig struct {
	AltitudeFt float64 `yaml:"altitude_ft"`
	HeadingDeg float64 `yaml:"heading_deg"`
	AirspeedKt float64 `yaml:"airspeed_kt"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server LogSettings `yaml:"server"`
}

// LogSettings configures one rotated log file.
type LogSettings struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DataConfig holds the session log destinations.
type DataConfig struct {
	TextPath string       `yaml:"text_path"`
	CSVPath  string       `yaml:"csv_path"`
	SQLite   SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig enables the session database.
type SQLiteConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Path      string   `yaml:"path"`
	Retention Duration `yaml:"retention"`
}

// ServerConfig holds the local UI server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// PlotsConfig sets the rendered PNG size in points.
type PlotsConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sim: SimConfig{
			Provider: "xpc",
			XPC: XPCConfig{
				Host:    "localhost",
				Port:    49009,
				Timeout: Duration(100 * time.Millisecond),
			},
			Mock: MockSimConfig{
				StartLat:      47.4647,
				StartLon:      8.5492,
				StartAlt:      3000,
				StartHeading:  90,
				StartAirspeed: 110,
			},
		},
		Sampler: SamplerConfig{
			Interval:    Duration(250 * time.Millisecond),
			Capacity:    100,
			ReadTimeout: Duration(200 * time.Millisecond),
			StopGrace:   Duration(time.Second),
		},
		Tolerance: ToleranceConfig{
			AltitudeFt: 200,
			HeadingDeg: 20,
			AirspeedKt: 10,
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:       "logs/server.log",
				Level:      "INFO",
				MaxSizeMB:  10,
				MaxBackups: 3,
			},
		},
		Data: DataConfig{
			TextPath: "data/data.txt",
			CSVPath:  "data/data.csv",
			SQLite: SQLiteConfig{
				Enabled:   true,
				Path:      "data/sessions.db",
				Retention: Duration(30 * Day),
			},
		},
		Server: ServerConfig{
			Address: "localhost:1920",
		},
		Plots: PlotsConfig{
			Width:  432,
			Height: 216,
		},
	}
}

// Load reads the config file, creating it with defaults when missing.
// Values in the file are merged over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	// If file does not exist, save defaults
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the console cannot run with.
func (c *Config) Validate() error {
	switch c.Sim.Provider {
	case "xpc", "mock":
	default:
		return fmt.Errorf("invalid sim.provider %q: must be 'xpc' or 'mock'", c.Sim.Provider)
	}
	if c.Sampler.Interval <= 0 {
		return fmt.Errorf("sampler.interval must be positive")
	}
	if c.Sampler.Capacity <= 0 {
		return fmt.Errorf("sampler.capacity must be positive")
	}
	if c.Tolerance.AltitudeFt < 0 || c.Tolerance.HeadingDeg < 0 || c.Tolerance.AirspeedKt < 0 {
		return fmt.Errorf("tolerance values must not be negative")
	}
	return nil
}

// Save writes cfg as YAML with a commented header.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Flight Instructor Console Configuration
# ---------------------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Environment overrides (.env is read at startup):
#   FICONSOLE_SIM_PROVIDER, FICONSOLE_XPC_HOST, FICONSOLE_XPC_PORT, FICONSOLE_SERVER_ADDRESS

`)
	data = append(header, data...)

	// Inject comments for enum fields
	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: xpc, mock\n${1}provider:"))

	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: TRACE, DEBUG, INFO, WARN, ERROR\n${1}level:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
