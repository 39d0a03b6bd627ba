package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/rendar/internal/logfields"
)

// Environment variables recognized as overrides. Flags still win over these.
const (
	EnvInput  = "RENDAR_INPUT"
	EnvPort   = "RENDAR_PORT"
	EnvNoOpen = "RENDAR_NO_OPEN"
)

// LoadEnvFiles loads .env then .env.local from the working directory. The
// first file that loads wins; variables already present in the environment
// are never overridden. Missing files are fine.
func LoadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if err := godotenv.Load(name); err == nil {
			slog.Debug("Loaded environment variables", logfields.Path(name))
			return
		}
	}
}

// ApplyEnv folds RENDAR_* overrides into the config.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvInput); v != "" {
		c.Input = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid %s value %q: expected a port number", EnvPort, v)
		}
		c.Preview.Port = port
	}
	if v := os.Getenv(EnvNoOpen); v != "" {
		noOpen, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: expected a boolean", EnvNoOpen, v)
		}
		if noOpen {
			c.Preview.Open = false
		}
	}
	return nil
}
