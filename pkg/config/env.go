package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the YAML file.
const (
	EnvSimProvider   = "FICONSOLE_SIM_PROVIDER"
	EnvXPCHost       = "FICONSOLE_XPC_HOST"
	EnvXPCPort       = "FICONSOLE_XPC_PORT"
	EnvServerAddress = "FICONSOLE_SERVER_ADDRESS"
)

// LoadEnvFile loads key=value pairs from paths into the process environment.
// Existing variables win. Missing files are ignored.
func LoadEnvFile(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any FICONSOLE_* variables that are set.
// Overrides are never written back to disk.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvSimProvider); v != "" {
		cfg.Sim.Provider = v
	}
	if v := os.Getenv(EnvXPCHost); v != "" {
		cfg.Sim.XPC.Host = v
	}
	if v := os.Getenv(EnvXPCPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s %q", EnvXPCPort, v)
		}
		cfg.Sim.XPC.Port = port
	}
	if v := os.Getenv(EnvServerAddress); v != "" {
		cfg.Server.Address = v
	}
	return cfg.Validate()
}
