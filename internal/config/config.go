package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings shared by the calculator commands.
type Config struct {
	HTTPAddr string
	LogLevel string
	// OTelExport turns on the OTLP trace, metric and log exporters.
	OTelExport bool
	// MaxDigits caps digits per operand. Zero means unbounded.
	MaxDigits   int
	MaxSessions int
	// SessionTTL expires idle HTTP sessions. Zero disables expiry.
	SessionTTL time.Duration
}

// Default returns the settings used when no environment is set.
func Default() Config {
	return Config{
		HTTPAddr:    ":8080",
		LogLevel:    "info",
		MaxSessions: 10000,
		SessionTTL:  30 * time.Minute,
	}
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	return FromEnv(os.LookupEnv)
}

// loadDotEnv loads environment variables from .env when present.
// Existing process environment variables are not overridden.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load .env: %w", err)
}

// FromEnv builds a Config from lookup, starting from Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup("HTTP_ADDR"); ok && v != "" {
		cfg.HTTPAddr = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}

	if v, ok := lookup("OTEL_EXPORT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse OTEL_EXPORT: %w", err)
		}
		cfg.OTelExport = b
	}

	var err error
	if cfg.MaxDigits, err = intVar(lookup, "CALC_MAX_DIGITS", cfg.MaxDigits); err != nil {
		return Config{}, err
	}
	if cfg.MaxSessions, err = intVar(lookup, "CALC_MAX_SESSIONS", cfg.MaxSessions); err != nil {
		return Config{}, err
	}
	if cfg.MaxSessions < 1 {
		return Config{}, fmt.Errorf("CALC_MAX_SESSIONS must be positive, got %d", cfg.MaxSessions)
	}

	if v, ok := lookup("CALC_SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CALC_SESSION_TTL: %w", err)
		}
		if d < 0 {
			return Config{}, fmt.Errorf("CALC_SESSION_TTL must not be negative, got %s", d)
		}
		cfg.SessionTTL = d
	}

	return cfg, nil
}

func intVar(lookup func(string) (string, bool), name string, def int) (int, error) {
	v, ok := lookup(name)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", name, n)
	}
	return n, nil
}
