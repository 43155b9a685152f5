// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/settleup/internal/wire"
)

// Config holds the server settings. Build it with Load and check it with
// Validate before use.
type Config struct {
	// HTTP Server
	Port            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration

	// Logging
	LogLevel string

	// ResponseEnvelope selects the settlement response shape.
	// Empty means the bare balances map.
	ResponseEnvelope string

	// loadProblems records values Load could not parse.
	loadProblems []string
}

// LoadEnvFile loads a .env file for local development.
// A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads the configuration from the environment, falling back to
// defaults for unset keys. Values that fail to parse keep their default and
// are reported by Validate.
func Load() *Config {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ResponseEnvelope: getEnv("RESPONSE_ENVELOPE", ""),
	}
	cfg.MaxBodyBytes = cfg.getEnvInt64("MAX_BODY_BYTES", 1<<20)
	cfg.ShutdownTimeout = cfg.getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	return cfg
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	problems := append([]string(nil), c.loadProblems...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.MaxBodyBytes <= 0 {
		problems = append(problems, fmt.Sprintf("invalid max body size %d: must be positive", c.MaxBodyBytes))
	}

	if c.ShutdownTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid shutdown timeout %s: must be positive", c.ShutdownTimeout))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if _, err := wire.ParseEnvelope(c.ResponseEnvelope); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Envelope returns the parsed response envelope. Call Validate first.
func (c *Config) Envelope() wire.Envelope {
	env, _ := wire.ParseEnvelope(c.ResponseEnvelope)
	return env
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (c *Config) getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		c.loadProblems = append(c.loadProblems, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
		return fallback
	}
	return n
}

func (c *Config) getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.loadProblems = append(c.loadProblems, fmt.Sprintf("invalid %s '%s': must be a duration such as 10s", key, value))
		return fallback
	}
	return d
}
